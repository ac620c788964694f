// Completion: 100% - Error handling complete
package jit

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

var (
	ErrUnmatchedClose = errors.New("unmatched ']'")
	ErrUnmatchedOpen  = errors.New("unmatched '['")
	ErrBackend        = errors.New("code generation failed")
	ErrNotCompiled    = errors.New("program is not compiled")
)

// ErrorKind classifies a compile failure. All kinds are terminal for the
// compile attempt.
type ErrorKind int

const (
	UnmatchedCloseBracket ErrorKind = iota + 1
	UnmatchedOpenBracket
	BackendFailure
)

func (k ErrorKind) String() string {
	switch k {
	case UnmatchedCloseBracket:
		return "unmatched close bracket"
	case UnmatchedOpenBracket:
		return "unmatched open bracket"
	case BackendFailure:
		return "backend failure"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case UnmatchedCloseBracket:
		return ErrUnmatchedClose
	case UnmatchedOpenBracket:
		return ErrUnmatchedOpen
	case BackendFailure:
		return ErrBackend
	}
	return nil
}

// SourceLocation represents a position in source text
type SourceLocation struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based, in bytes
}

func (loc SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", loc.Line, loc.Column)
}

func locate(src []byte, offset int) (SourceLocation, string) {
	lineStart := bytes.LastIndexByte(src[:offset], '\n') + 1
	lineEnd := bytes.IndexByte(src[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(src)
	} else {
		lineEnd += offset
	}
	loc := SourceLocation{
		Offset: offset,
		Line:   bytes.Count(src[:offset], []byte{'\n'}) + 1,
		Column: offset - lineStart + 1,
	}
	return loc, strings.TrimRight(string(src[lineStart:lineEnd]), "\r")
}

// CompileError is returned by Compile and Assemble. Bracket errors carry the
// location of the offending bracket; backend failures carry the cause.
type CompileError struct {
	Kind       ErrorKind
	Message    string
	Location   SourceLocation
	SourceLine string
	Err        error
}

func newBracketError(kind ErrorKind, src []byte, offset int) *CompileError {
	loc, line := locate(src, offset)
	msg := "no matching '[' for this ']'"
	if kind == UnmatchedOpenBracket {
		msg = "this '[' is never closed"
	}
	return &CompileError{Kind: kind, Message: msg, Location: loc, SourceLine: line}
}

func newBackendError(err error) *CompileError {
	return &CompileError{Kind: BackendFailure, Message: err.Error(), Err: err}
}

// Error implements the error interface
func (e *CompileError) Error() string {
	if e.Kind == BackendFailure {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Location, e.Kind, e.Message)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Is matches the sentinel error of the error kind.
func (e *CompileError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Format returns the error with source context and a caret under the
// offending byte.
func (e *CompileError) Format(useColor bool) string {
	profile := termenv.Ascii
	if useColor {
		profile = termenv.ANSI
	}
	red := func(s string) string { return profile.String(s).Foreground(profile.Color("1")).Bold().String() }
	blue := func(s string) string { return profile.String(s).Foreground(profile.Color("4")).Bold().String() }

	var sb strings.Builder
	sb.WriteString(red("error:"))
	sb.WriteString(" ")
	sb.WriteString(e.Kind.String())
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	sb.WriteString("\n")
	if e.Kind == BackendFailure {
		return sb.String()
	}

	sb.WriteString(blue("  --> "))
	sb.WriteString(e.Location.String())
	sb.WriteString("\n")

	lineNum := fmt.Sprintf("%d", e.Location.Line)
	padding := strings.Repeat(" ", len(lineNum)+1)
	sb.WriteString(padding + "|\n")
	sb.WriteString(lineNum + " | " + e.SourceLine + "\n")
	sb.WriteString(padding + "| ")
	sb.WriteString(strings.Repeat(" ", e.Location.Column-1))
	sb.WriteString(red("^"))
	sb.WriteString("\n")
	return sb.String()
}
