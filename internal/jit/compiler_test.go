package jit

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestBracketErrors(t *testing.T) {
	tests := []struct {
		src      string
		kind     ErrorKind
		sentinel error
		line     int
		col      int
	}{
		{"]", UnmatchedCloseBracket, ErrUnmatchedClose, 1, 1},
		{"[]]", UnmatchedCloseBracket, ErrUnmatchedClose, 1, 3},
		{"+\n+]", UnmatchedCloseBracket, ErrUnmatchedClose, 2, 2},
		{"][", UnmatchedCloseBracket, ErrUnmatchedClose, 1, 1},
		{"[", UnmatchedOpenBracket, ErrUnmatchedOpen, 1, 1},
		{"+[+", UnmatchedOpenBracket, ErrUnmatchedOpen, 1, 2},
		{"[[]", UnmatchedOpenBracket, ErrUnmatchedOpen, 1, 1},
		{"[\n [", UnmatchedOpenBracket, ErrUnmatchedOpen, 2, 2},
	}
	c := NewCompiler(Options{})
	for _, tt := range tests {
		for _, compile := range []func([]byte) error{
			func(src []byte) error { _, err := c.Assemble(src); return err },
			func(src []byte) error { p, err := c.Compile(src); p.Release(); return err },
		} {
			err := compile([]byte(tt.src))
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("%q: err = %v, want *CompileError", tt.src, err)
			}
			if ce.Kind != tt.kind {
				t.Errorf("%q: kind = %v, want %v", tt.src, ce.Kind, tt.kind)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("%q: errors.Is(err, %v) = false", tt.src, tt.sentinel)
			}
			if errors.Is(err, ErrBackend) {
				t.Errorf("%q: bracket error should not match ErrBackend", tt.src)
			}
			if ce.Location.Line != tt.line || ce.Location.Column != tt.col {
				t.Errorf("%q: location = %s, want %d:%d", tt.src, ce.Location, tt.line, tt.col)
			}
		}
	}
}

func TestBalancedSourcesAssemble(t *testing.T) {
	sources := []string{
		"",
		"this is only a comment",
		"+",
		"[]",
		"[[][[]]]",
		"+[-[>+<-]>.<]",
		",[.,]",
		helloWorld,
	}
	c := NewCompiler(Options{})
	for _, src := range sources {
		if _, err := c.Assemble([]byte(src)); err != nil {
			t.Errorf("Assemble(%q): %v", src, err)
		}
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	c := NewCompiler(Options{})
	a, err := c.Assemble([]byte(helloWorld))
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewCompiler(Options{}).Assemble([]byte(helloWorld))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Code, b.Code) {
		t.Error("identical sources produced different code")
	}
	if a.String() != b.String() {
		t.Error("identical sources produced different listings")
	}
}

func TestZeroDeltaRunsEmitNothing(t *testing.T) {
	c := NewCompiler(Options{})
	empty, err := c.Assemble(nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, src := range []string{"+-", "><", "-+", "<>", "++--", ">><<><", "+-><"} {
		l, err := c.Assemble([]byte(src))
		if err != nil {
			t.Fatalf("Assemble(%q): %v", src, err)
		}
		if !bytes.Equal(l.Code, empty.Code) {
			t.Errorf("%q: code differs from empty program:\n%s", src, l)
		}
	}
}

func TestWrappingCellRunsEmitNothing(t *testing.T) {
	c := NewCompiler(Options{})
	empty, err := c.Assemble(nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, src := range []string{strings.Repeat("+", 256), strings.Repeat("-", 512)} {
		l, err := c.Assemble([]byte(src))
		if err != nil {
			t.Fatalf("Assemble(%d bytes): %v", len(src), err)
		}
		if !bytes.Equal(l.Code, empty.Code) {
			t.Errorf("%d x %q: code differs from empty program:\n%s", len(src), src[0], l)
		}
	}
	l, err := c.Assemble([]byte(strings.Repeat("+", 257)))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(l.String(), "add byte [rsi], 1") {
		t.Errorf("257 increments should fold to add 1:\n%s", l)
	}
}

func TestRunsFoldToOneInstruction(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"+++", "add byte [rsi], 3"},
		{"+++-", "add byte [rsi], 2"},
		{"---", "sub byte [rsi], 3"},
		{">>", "add rsi, 2"},
		{"<<<>", "sub rsi, 2"},
	}
	c := NewCompiler(Options{})
	empty, _ := c.Assemble(nil)
	for _, tt := range tests {
		l, err := c.Assemble([]byte(tt.src))
		if err != nil {
			t.Fatalf("Assemble(%q): %v", tt.src, err)
		}
		if got := l.Instructions() - empty.Instructions(); got != 1 {
			t.Errorf("%q: %d instructions beyond the epilogue, want 1", tt.src, got)
		}
		if !strings.Contains(l.String(), tt.want) {
			t.Errorf("%q: listing lacks %q:\n%s", tt.src, tt.want, l)
		}
	}
}

func TestRunsDoNotCrossBoundaries(t *testing.T) {
	l, err := NewCompiler(Options{}).Assemble([]byte("++ ++"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(l.String(), "add byte [rsi], 2"); n != 2 {
		t.Errorf("expected two separate adds, found %d:\n%s", n, l)
	}
}

func TestLoopShape(t *testing.T) {
	l, err := NewCompiler(Options{}).Assemble([]byte("[-]"))
	if err != nil {
		t.Fatal(err)
	}
	text := l.String()
	for _, want := range []string{"cmp byte [rsi], 0", "je L1", "sub byte [rsi], 1", "jmp L0", "L0:", "L1:"} {
		if !strings.Contains(text, want) {
			t.Errorf("listing lacks %q:\n%s", want, text)
		}
	}
}

func TestCompileErrorFormat(t *testing.T) {
	_, err := NewCompiler(Options{}).Assemble([]byte("+\n+-]"))
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v", err)
	}
	out := ce.Format(false)
	want := "error: unmatched close bracket: no matching '[' for this ']'\n" +
		"  --> 2:3\n" +
		"  |\n" +
		"2 | +-]\n" +
		"  |   ^\n"
	if out != want {
		t.Errorf("Format(false) =\n%s\nwant\n%s", out, want)
	}
	if colored := ce.Format(true); !strings.Contains(colored, "\x1b[") {
		t.Error("Format(true) should contain escape sequences")
	}
}

func TestBackendErrorMatchesSentinel(t *testing.T) {
	err := error(newBackendError(ErrUnboundLabel))
	if !errors.Is(err, ErrBackend) {
		t.Error("backend error should match ErrBackend")
	}
	if !errors.Is(err, ErrUnboundLabel) {
		t.Error("backend error should wrap its cause")
	}
}

func TestCompileUnsupportedHost(t *testing.T) {
	if Supported() {
		t.Skip("host supports native execution")
	}
	p, err := Compile([]byte("+."))
	if p != nil || !errors.Is(err, ErrBackend) {
		t.Errorf("Compile on unsupported host = %v, %v; want nil, ErrBackend", p, err)
	}
}
