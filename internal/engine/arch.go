// Completion: 100% - Platform support complete
package engine

import (
	"fmt"
	"runtime"
)

// Arch is a host CPU architecture, as far as native execution cares.
type Arch int

const (
	ArchUnknown Arch = iota
	ArchX86_64
)

func (a Arch) String() string {
	if a == ArchX86_64 {
		return "x86_64"
	}
	return "unknown"
}

// OS is a host operating system that can map executable memory.
type OS int

const (
	OSUnknown OS = iota
	OSLinux
	OSDarwin
	OSFreeBSD
)

var osNames = map[string]OS{
	"linux":   OSLinux,
	"darwin":  OSDarwin,
	"freebsd": OSFreeBSD,
}

func (o OS) String() string {
	for name, v := range osNames {
		if v == o {
			return name
		}
	}
	return "unknown"
}

// Platform is an architecture and OS pair.
type Platform struct {
	Arch Arch
	OS   OS
}

// platformOf maps GOARCH/GOOS values. Anything else is kept as unknown.
func platformOf(goarch, goos string) Platform {
	p := Platform{OS: osNames[goos]}
	if goarch == "amd64" {
		p.Arch = ArchX86_64
	}
	return p
}

// Host returns the platform this process is running on.
func Host() Platform {
	return platformOf(runtime.GOARCH, runtime.GOOS)
}

// CanRunNative reports whether generated x86_64 code can be mapped and
// entered on this platform.
func (p Platform) CanRunNative() bool {
	return p.Arch == ArchX86_64 && p.OS != OSUnknown
}

func (p Platform) String() string {
	return fmt.Sprintf("%s-%s", p.Arch, p.OS)
}

// FullString returns a detailed platform string
func (p Platform) FullString() string {
	return fmt.Sprintf("%s on %s", p.Arch, p.OS)
}
