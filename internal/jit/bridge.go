// Completion: 100% - Module complete
package jit

import (
	"bufio"
	"fmt"
	"io"
	"unsafe"
)

// Host/native bridge.
//
// Generated code never calls Go directly. A call site for '.' or ',' saves
// the head pointer and its argument into the frame, stores a bridge exit code
// and the address to continue at, and returns to the trampoline. The executor
// then runs the host primitive from the program's bridge table and re-enters
// the code at the resume address.
//
// The frame field offsets below are a binding contract with the emitted
// instructions.

const (
	frameHeadOffset   = 0  // current cell address; tape base on entry
	frameStatusOffset = 8  // exitCode
	frameResumeOffset = 16 // native address to continue at
	frameValueOffset  = 24 // byte exchanged with the host
)

// tape is never read by generated code. It keeps the tape reachable as a
// real pointer for the whole run: a frame escapes through the bridge table
// call, so the tape it points to is heap allocated and never moved by stack
// growth while native code holds head as a raw address.
type frame struct {
	head   uintptr
	status uint64
	resume uintptr
	value  uint64
	tape   unsafe.Pointer
}

type exitCode uint64

const (
	exitHalt exitCode = iota
	exitPutchar
	exitGetchar
)

func (c exitCode) String() string {
	switch c {
	case exitHalt:
		return "halt"
	case exitPutchar:
		return "putchar"
	case exitGetchar:
		return "getchar"
	}
	return fmt.Sprintf("exit(%d)", uint64(c))
}

// RedirectIO carries the input source and output sink of one execution. Both
// are borrowed; RedirectIO only buffers them.
type RedirectIO struct {
	in  *bufio.Reader
	out *bufio.Writer
	err error // first output error; later output is dropped
}

// NewRedirectIO wraps in and out. A nil in behaves as an empty stream and a
// nil out discards everything.
func NewRedirectIO(in io.Reader, out io.Writer) *RedirectIO {
	if in == nil {
		in = eofReader{}
	}
	if out == nil {
		out = io.Discard
	}
	return &RedirectIO{in: bufio.NewReader(in), out: bufio.NewWriter(out)}
}

// Putchar writes one byte to the output sink.
func (r *RedirectIO) Putchar(c byte) {
	if r.err != nil {
		return
	}
	r.err = r.out.WriteByte(c)
}

// Getchar reads one byte from the input source. An exhausted or failing
// source yields 0.
func (r *RedirectIO) Getchar() byte {
	c, err := r.in.ReadByte()
	if err != nil {
		return 0
	}
	return c
}

// Flush pushes buffered output to the sink and reports the first output error.
func (r *RedirectIO) Flush() error {
	if r.err == nil {
		r.err = r.out.Flush()
	}
	return r.err
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// hostCall is a host primitive reachable from generated code.
type hostCall func(r *RedirectIO, f *frame)

// bridgeTable maps bridge exit codes to host primitives. It is built once
// per Program and never changed.
type bridgeTable [exitGetchar + 1]hostCall

func newBridgeTable() bridgeTable {
	return bridgeTable{
		exitPutchar: func(r *RedirectIO, f *frame) { r.Putchar(byte(f.value)) },
		exitGetchar: func(r *RedirectIO, f *frame) { f.value = uint64(r.Getchar()) },
	}
}

// dispatch runs the host primitive requested by f.status.
func (t *bridgeTable) dispatch(r *RedirectIO, f *frame) error {
	code := exitCode(f.status)
	if code >= exitCode(len(t)) || t[code] == nil {
		return fmt.Errorf("bridge: unexpected exit code %s", code)
	}
	t[code](r, f)
	return nil
}
