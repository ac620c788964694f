package logger

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// New returns the logger shared by the command line and the compiler.
// Without debug only warnings and errors are shown.
func New(w io.Writer, debug, noColor bool) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "bfjit",
	})

	l.SetLevel(log.WarnLevel)
	if debug {
		l.SetLevel(log.DebugLevel)
	}

	l.SetColorProfile(termenv.ANSI256)
	if noColor {
		l.SetColorProfile(termenv.Ascii)
	}
	return l
}
