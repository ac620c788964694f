package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xyproto/bfjit/internal/engine"
	"github.com/xyproto/bfjit/internal/jit"
	"github.com/xyproto/bfjit/internal/logger"
)

func newTestContext(stdin string) (*CommandContext, *bytes.Buffer) {
	var out bytes.Buffer
	return &CommandContext{
		TapeSize: jit.DefaultTapeSize,
		Stdin:    strings.NewReader(stdin),
		Stdout:   &out,
		Stderr:   io.Discard,
		Log:      logger.New(io.Discard, false, true),
	}, &out
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.bf")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunInlineCode(t *testing.T) {
	if !jit.Supported() {
		t.Skip("native execution is not supported on this host")
	}
	ctx, out := newTestContext("x")
	ctx.Code = ",+."
	if err := RunCLI(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if out.String() != "y" {
		t.Errorf("output = %q, want %q", out.String(), "y")
	}
}

func TestRunFile(t *testing.T) {
	if !jit.Supported() {
		t.Skip("native execution is not supported on this host")
	}
	path := writeSource(t, "cat: ,[.,]")
	for _, args := range [][]string{{path}, {"run", path}} {
		ctx, out := newTestContext("abc")
		if err := RunCLI(ctx, args); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if out.String() != "abc" {
			t.Errorf("%v: output = %q", args, out.String())
		}
	}
}

func TestAsmCommand(t *testing.T) {
	path := writeSource(t, "+++[-]")
	ctx, out := newTestContext("")
	if err := RunCLI(ctx, []string{"asm", path}); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	for _, want := range []string{"add byte [rsi], 3", "cmp byte [rsi], 0", "ret", "host " + engine.Host().String()} {
		if !strings.Contains(text, want) {
			t.Errorf("listing lacks %q:\n%s", want, text)
		}
	}

	ctx, out = newTestContext("")
	ctx.Code = ">"
	ctx.Listing = true
	if err := RunCLI(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "add rsi, 1") {
		t.Errorf("-S -e listing:\n%s", out.String())
	}
}

func TestCompileErrorSurfaces(t *testing.T) {
	ctx, _ := newTestContext("")
	ctx.Code = "[["
	ctx.Listing = true
	err := RunCLI(ctx, nil)
	var ce *jit.CompileError
	if !errors.As(err, &ce) || ce.Kind != jit.UnmatchedOpenBracket {
		t.Errorf("err = %v, want unmatched open bracket", err)
	}
}

func TestUnknownCommandSuggests(t *testing.T) {
	ctx, _ := newTestContext("")
	err := RunCLI(ctx, []string{"rnu-does-not-exist"})
	if err == nil {
		t.Fatal("expected error")
	}
	ctx, _ = newTestContext("")
	err = RunCLI(ctx, []string{"rn"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "run"`) {
		t.Errorf("err = %v, want a suggestion for run", err)
	}
}

func TestHelpAndVersion(t *testing.T) {
	ctx, out := newTestContext("")
	if err := RunCLI(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "USAGE:") {
		t.Errorf("help output = %q", out.String())
	}
	ctx, out = newTestContext("")
	if err := RunCLI(ctx, []string{"version"}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != versionString {
		t.Errorf("version output = %q", out.String())
	}
}

func TestMissingFileArgument(t *testing.T) {
	ctx, _ := newTestContext("")
	if err := RunCLI(ctx, []string{"run"}); err == nil {
		t.Error("expected usage error")
	}
}
