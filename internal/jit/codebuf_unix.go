//go:build linux || darwin || freebsd

// Completion: 100% - Platform-specific module complete
package jit

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// CodeBuffer owns a region of executable memory holding one finalized
// program. It is written exactly once, while still writable, and is then
// read+execute only until Release.
type CodeBuffer struct {
	mem  []byte
	size int
}

func newCodeBuffer(code []byte) (*CodeBuffer, error) {
	if len(code) == 0 {
		return nil, errors.New("code buffer: empty code")
	}
	page := unix.Getpagesize()
	n := (len(code) + page - 1) / page * page
	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("code buffer: mmap %d bytes: %w", n, err)
	}
	copy(mem, code)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		unix.Munmap(mem)
		return nil, fmt.Errorf("code buffer: mprotect: %w", err)
	}
	return &CodeBuffer{mem: mem, size: len(code)}, nil
}

// entry returns the address of the first instruction.
func (b *CodeBuffer) entry() uintptr {
	return uintptr(unsafe.Pointer(&b.mem[0]))
}

// Size returns the number of code bytes (not the mapped size).
func (b *CodeBuffer) Size() int { return b.size }

// Released reports whether the memory has been unmapped.
func (b *CodeBuffer) Released() bool { return b == nil || b.mem == nil }

// Release unmaps the code. It is safe to call more than once.
func (b *CodeBuffer) Release() error {
	if b.Released() {
		return nil
	}
	err := unix.Munmap(b.mem)
	b.mem = nil
	return err
}
