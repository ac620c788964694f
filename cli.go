// Completion: 100% - Utility module complete
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/xyproto/bfjit/internal/engine"
	"github.com/xyproto/bfjit/internal/jit"
)

// cli.go - command-line interface for bfjit
//
// Subcommands:
// - bfjit run <file>  (compile to native code and run)
// - bfjit asm <file>  (print the generated x86_64 listing)
// - bfjit <file>      (shorthand for run)
// - bfjit -e 'code'   (run code given on the command line)

// CommandContext holds the execution context for a CLI command
type CommandContext struct {
	Code     string // source given with -e
	TapeSize int
	Listing  bool // print the listing instead of running
	Stats    bool
	UseColor bool
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Log      *log.Logger
}

var commands = []string{"run", "asm", "help", "version"}

// RunCLI determines which command to run based on arguments
func RunCLI(ctx *CommandContext, args []string) error {
	if ctx.Code != "" {
		if ctx.Listing {
			return cmdAsm(ctx, "-e", []byte(ctx.Code))
		}
		return cmdRun(ctx, "-e", []byte(ctx.Code))
	}

	if len(args) == 0 {
		return cmdHelp(ctx)
	}

	switch subcmd := args[0]; subcmd {
	case "run", "asm":
		if len(args) < 2 {
			return fmt.Errorf("usage: bfjit %s <file.bf>", subcmd)
		}
		src, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		if subcmd == "asm" || ctx.Listing {
			return cmdAsm(ctx, args[1], src)
		}
		return cmdRun(ctx, args[1], src)

	case "help", "--help", "-h":
		return cmdHelp(ctx)

	case "version", "--version", "-V":
		fmt.Fprintln(ctx.Stdout, versionString)
		return nil

	default:
		src, err := os.ReadFile(subcmd)
		if err == nil {
			if ctx.Listing {
				return cmdAsm(ctx, subcmd, src)
			}
			return cmdRun(ctx, subcmd, src)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		msg := fmt.Sprintf("unknown command or file: %s", subcmd)
		if s := engine.Suggest(subcmd, commands, 1); len(s) > 0 {
			msg += fmt.Sprintf(" (did you mean %q?)", s[0])
		}
		return fmt.Errorf("%s\n\nRun 'bfjit help' for usage information", msg)
	}
}

func (ctx *CommandContext) compiler() *jit.Compiler {
	return jit.NewCompiler(jit.Options{TapeSize: ctx.TapeSize, Logger: ctx.Log})
}

// cmdRun compiles src to native code and executes it with the process
// stdin and stdout.
func cmdRun(ctx *CommandContext, name string, src []byte) error {
	ctx.Log.Debug("compiling", "source", name, "bytes", len(src), "host", engine.Host())
	prog, err := ctx.compiler().Compile(src)
	if err != nil {
		return err
	}
	defer prog.Release()

	if ctx.Stats {
		printStats(ctx.Stderr, prog.Stats())
	}
	return prog.Execute(ctx.Stdin, ctx.Stdout)
}

// cmdAsm prints the generated code without executing it. It works on any
// host, including ones that cannot run the code.
func cmdAsm(ctx *CommandContext, name string, src []byte) error {
	listing, err := ctx.compiler().Assemble(src)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stdout, "; %s: %d instructions, %d bytes, host %s\n", name, listing.Instructions(), len(listing.Code), engine.Host())
	_, err = listing.WriteTo(ctx.Stdout)
	return err
}

func printStats(w io.Writer, st jit.Stats) {
	fmt.Fprintf(w, "source bytes:   %d\n", st.SourceBytes)
	fmt.Fprintf(w, "commands:       %d\n", st.Commands)
	fmt.Fprintf(w, "folded runs:    %d (%d elided)\n", st.Runs, st.ElidedRuns)
	fmt.Fprintf(w, "loops:          %d (max depth %d)\n", st.Loops, st.MaxDepth)
	fmt.Fprintf(w, "io call sites:  %d\n", st.IO)
	fmt.Fprintf(w, "instructions:   %d\n", st.Instructions)
	fmt.Fprintf(w, "code bytes:     %d\n", st.CodeBytes)
}

func cmdHelp(ctx *CommandContext) error {
	fmt.Fprintf(ctx.Stdout, `%s - Brainfuck to x86_64 just-in-time compiler

USAGE:
    bfjit [flags] <command> [arguments]

COMMANDS:
    run <file.bf>      Compile a program to native code and run it
    asm <file.bf>      Print the generated machine code listing
    help               Show this help message
    version            Show version information

SHORTHAND:
    bfjit <file.bf>    Same as 'bfjit run <file.bf>'

FLAGS:
    -e <code>          Run code given on the command line
    -S                 Print the listing instead of running
    -tape <n>          Tape size in cells (default %d, env BFJIT_TAPE_SIZE)
    -stats             Print compile statistics to stderr
    -v, --verbose      Trace compilation (env BFJIT_VERBOSE)
    -n, --no-color     Disable colors (env NO_COLOR)

Program input is read from stdin and output is written to stdout.
Bytes other than + - > < [ ] . , are comments.
`, strings.Fields(versionString)[0], jit.DefaultTapeSize)
	return nil
}
