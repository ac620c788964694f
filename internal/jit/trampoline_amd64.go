//go:build amd64

package jit

// callNative enters generated code; see trampoline_amd64.s.
func callNative(entry, frame uintptr)
