// Completion: 100% - Compiler complete
package jit

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/xyproto/bfjit/internal/engine"
)

// DefaultTapeSize is the tape capacity used when Options.TapeSize is unset.
const DefaultTapeSize = 4096

// Options configures a Compiler. The zero value is valid.
type Options struct {
	TapeSize int         // cells per execution; DefaultTapeSize when <= 0
	Logger   *log.Logger // nil for silence
}

// Stats describes one compile.
type Stats struct {
	SourceBytes  int // bytes of source text, comments included
	Commands     int // instruction bytes consumed
	Runs         int // arithmetic and move runs folded into one operation
	ElidedRuns   int // runs that emitted nothing
	Loops        int
	MaxDepth     int // deepest loop nesting
	IO           int // '.' and ',' call sites
	Instructions int // native instructions emitted
	CodeBytes    int
}

// Compiler turns source text into native code. A Compiler holds no mutable
// state between compiles: every Compile gets a fresh Assembler, so distinct
// compiles may run in parallel.
type Compiler struct {
	opts Options
	log  *log.Logger
}

func NewCompiler(opts Options) *Compiler {
	if opts.TapeSize <= 0 {
		opts.TapeSize = DefaultTapeSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Compiler{opts: opts, log: logger}
}

// Compile compiles src with default options.
func Compile(src []byte) (*Program, error) {
	return NewCompiler(Options{}).Compile(src)
}

// Supported reports whether generated code can be executed on this host.
// Assemble works everywhere; Compile needs native support.
func Supported() bool {
	return engine.Host().CanRunNative()
}

// translate is the single forward pass over src.
func (c *Compiler) translate(src []byte) (*Assembler, Stats, error) {
	asm := NewAssembler(c.log)
	g := NewCodeGen(asm)
	st := Stats{SourceBytes: len(src)}

	fold := func(pos int, inc, dec byte, emit func(int64)) int {
		delta, next := RunLength(src, pos, inc, dec)
		st.Commands += next - pos
		st.Runs++
		if delta == 0 || (inc == '+' && uint8(delta) == 0) {
			st.ElidedRuns++
		}
		emit(delta)
		return next
	}

	for pos := 0; pos < len(src); {
		switch src[pos] {
		case '+', '-':
			pos = fold(pos, '+', '-', g.CellDelta)
			continue
		case '>', '<':
			pos = fold(pos, '>', '<', g.HeadDelta)
			continue
		case '[':
			g.LoopOpen(pos)
			st.Loops++
		case ']':
			if !g.LoopClose() {
				return nil, st, newBracketError(UnmatchedCloseBracket, src, pos)
			}
		case '.':
			g.Putchar()
			st.IO++
		case ',':
			g.Getchar()
			st.IO++
		default:
			pos++
			continue
		}
		st.Commands++
		pos++
	}

	if open := g.OpenLoops(); len(open) > 0 {
		return nil, st, newBracketError(UnmatchedOpenBracket, src, open[len(open)-1].Offset)
	}
	st.MaxDepth = g.loops.MaxDepth()
	g.Epilogue()
	return asm, st, nil
}

// Assemble translates src and finalizes the code without mapping it into
// executable memory.
func (c *Compiler) Assemble(src []byte) (*Listing, error) {
	asm, _, err := c.translate(src)
	if err != nil {
		return nil, err
	}
	if _, err := asm.Finalize(); err != nil {
		return nil, newBackendError(err)
	}
	return asm.Listing(), nil
}

// Compile translates src into an executable Program. On any failure no
// Program is returned.
func (c *Compiler) Compile(src []byte) (*Program, error) {
	asm, st, err := c.translate(src)
	if err != nil {
		c.log.Debug("compile failed", "err", err)
		return nil, err
	}
	code, err := asm.Finalize()
	if err != nil {
		return nil, newBackendError(err)
	}
	if host := engine.Host(); !host.CanRunNative() {
		return nil, newBackendError(&unsupportedError{host})
	}
	buf, err := newCodeBuffer(code)
	if err != nil {
		return nil, newBackendError(err)
	}

	listing := asm.Listing()
	st.Instructions = listing.Instructions()
	st.CodeBytes = len(code)
	c.log.Debug("compiled",
		"commands", st.Commands, "runs", st.Runs, "loops", st.Loops,
		"instructions", st.Instructions, "bytes", st.CodeBytes)

	return &Program{
		code:     buf,
		bridge:   newBridgeTable(),
		tapeSize: c.opts.TapeSize,
		listing:  listing,
		stats:    st,
		log:      c.log,
	}, nil
}

type unsupportedError struct {
	host engine.Platform
}

func (e *unsupportedError) Error() string {
	return "native execution is not supported on " + e.host.FullString()
}
