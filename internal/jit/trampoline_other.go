//go:build !amd64

package jit

import "runtime"

func callNative(entry, frame uintptr) {
	panic("jit: native execution is not supported on " + runtime.GOARCH)
}
