// Completion: 100% - Module complete
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"github.com/xyproto/env/v2"

	"github.com/xyproto/bfjit/internal/jit"
	"github.com/xyproto/bfjit/internal/logger"
)

const versionString = "bfjit 1.0.0"

func main() {
	// NOTE: Go's flag package stops parsing at the first non-flag argument
	// So flags must come BEFORE the filename: bfjit -tape 30000 program.bf
	var codeFlag = flag.String("e", "", "execute Brainfuck code from the command line")
	var listingFlag = flag.Bool("S", false, "print the generated machine code instead of running")
	var tapeFlag = flag.Int("tape", env.Int("BFJIT_TAPE_SIZE", jit.DefaultTapeSize), "tape size in cells")
	var statsFlag = flag.Bool("stats", false, "print compile statistics to stderr")
	var verbose = flag.Bool("v", env.Bool("BFJIT_VERBOSE"), "verbose mode (trace every emitted instruction)")
	var verboseLong = flag.Bool("verbose", false, "verbose mode (trace every emitted instruction)")
	var noColor = flag.Bool("n", env.Bool("NO_COLOR"), "disable colored output")
	var noColorLong = flag.Bool("no-color", false, "disable colored output")
	var versionShort = flag.Bool("V", false, "print version information and exit")
	var version = flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *version || *versionShort {
		fmt.Println(versionString)
		os.Exit(0)
	}

	plain := *noColor || *noColorLong
	log := logger.New(os.Stderr, *verbose || *verboseLong, plain)
	useColor := !plain && termenv.NewOutput(os.Stderr).EnvColorProfile() != termenv.Ascii

	ctx := &CommandContext{
		Code:     *codeFlag,
		TapeSize: *tapeFlag,
		Listing:  *listingFlag,
		Stats:    *statsFlag,
		UseColor: useColor,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Log:      log,
	}

	if err := RunCLI(ctx, flag.Args()); err != nil {
		var ce *jit.CompileError
		if errors.As(err, &ce) {
			fmt.Fprint(os.Stderr, ce.Format(useColor))
			os.Exit(1)
		}
		log.Error(err)
		os.Exit(1)
	}
}
