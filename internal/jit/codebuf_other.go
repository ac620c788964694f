//go:build !linux && !darwin && !freebsd

package jit

import (
	"fmt"
	"runtime"
)

// CodeBuffer is unavailable on this platform; newCodeBuffer always fails.
type CodeBuffer struct {
	size int
}

func newCodeBuffer(code []byte) (*CodeBuffer, error) {
	return nil, fmt.Errorf("code buffer: executable memory is not supported on %s", runtime.GOOS)
}

func (b *CodeBuffer) entry() uintptr { return 0 }
func (b *CodeBuffer) Size() int      { return b.size }
func (b *CodeBuffer) Released() bool { return true }
func (b *CodeBuffer) Release() error { return nil }
