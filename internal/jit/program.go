// Completion: 100% - Executor complete
package jit

import (
	"errors"
	"io"
	"runtime"
	"unsafe"

	"github.com/charmbracelet/log"
)

// Program is a compiled, executable program. It may be run any number of
// times, also concurrently, each run with its own tape and I/O. Release must
// not race with a run.
type Program struct {
	code     *CodeBuffer
	bridge   bridgeTable
	tapeSize int
	listing  *Listing
	stats    Stats
	log      *log.Logger
}

// Execute runs the program on a fresh zeroed tape of the configured size.
// Output is flushed before Execute returns; the first output error is
// returned once the program halts. Input exhaustion is not an error.
func (p *Program) Execute(in io.Reader, out io.Writer) error {
	if !p.compiled() {
		return ErrNotCompiled
	}
	tape := make([]byte, p.tapeSize)
	_, err := p.Run(tape, in, out)
	return err
}

// Run executes the program against tape, which the caller may prefill, and
// returns the final head position as an offset from the tape start. The
// tape escapes to the heap, so a stack array is safe to pass. Tape accesses
// are not bounds checked: a program that moves the head outside tape
// corrupts memory.
func (p *Program) Run(tape []byte, in io.Reader, out io.Writer) (head int, err error) {
	if !p.compiled() {
		return 0, ErrNotCompiled
	}
	if len(tape) == 0 {
		return 0, errors.New("run: empty tape")
	}

	rec := NewRedirectIO(in, out)
	defer func() {
		if ferr := rec.Flush(); err == nil {
			err = ferr
		}
	}()

	f := &frame{tape: unsafe.Pointer(&tape[0])}
	base := uintptr(f.tape)
	f.head = base
	f.resume = p.code.entry()

	exits := 0
	for {
		callNative(f.resume, uintptr(unsafe.Pointer(f)))
		if exitCode(f.status) == exitHalt {
			break
		}
		exits++
		if err := p.bridge.dispatch(rec, f); err != nil {
			return int(f.head - base), err
		}
	}
	runtime.KeepAlive(f)

	head = int(f.head - base)
	p.log.Debug("halted", "head", head, "bridge_calls", exits)
	return head, nil
}

func (p *Program) compiled() bool {
	return p != nil && !p.code.Released()
}

// Release unmaps the native code. Later runs return ErrNotCompiled.
func (p *Program) Release() error {
	if p == nil {
		return nil
	}
	return p.code.Release()
}

// Listing returns the generated instructions.
func (p *Program) Listing() *Listing { return p.listing }

// Stats returns compile statistics.
func (p *Program) Stats() Stats { return p.stats }

// TapeSize returns the number of cells Execute allocates.
func (p *Program) TapeSize() int { return p.tapeSize }
