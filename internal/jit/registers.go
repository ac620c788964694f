// Completion: 100% - Utility module complete
package jit

import "fmt"

// Register definitions for x86_64

type Register struct {
	Name     string
	Size     int   // Size in bits
	Encoding uint8 // Encoding for instruction generation
}

var (
	names64 = [16]string{"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}
	names32 = [16]string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi",
		"r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d"}
	names8 = [16]string{"al", "cl", "dl", "bl", "spl", "bpl", "sil", "dil",
		"r8b", "r9b", "r10b", "r11b", "r12b", "r13b", "r14b", "r15b"}
)

func gp(enc uint8, size int) Register {
	var name string
	switch size {
	case 64:
		name = names64[enc]
	case 32:
		name = names32[enc]
	case 8:
		name = names8[enc]
	default:
		panic(fmt.Sprintf("gp: unsupported register size %d", size))
	}
	return Register{Name: name, Size: size, Encoding: enc}
}

var (
	RAX = gp(0, 64)
	RCX = gp(1, 64)
	RDX = gp(2, 64)
	RSP = gp(4, 64)
	RBP = gp(5, 64)
	RSI = gp(6, 64)
	RDI = gp(7, 64)
	R8  = gp(8, 64)
	R9  = gp(9, 64)
	R10 = gp(10, 64)
	R11 = gp(11, 64)
	R12 = gp(12, 64)
	R13 = gp(13, 64)
)

// As returns the same physical register viewed at another width.
func (r Register) As(size int) Register { return gp(r.Encoding, size) }

func (r Register) String() string { return r.Name }

func (Register) operand() {}

// Mem is a memory operand [Base+Disp] of Size bits (8 or 64).
type Mem struct {
	Base Register
	Disp int32
	Size int
}

func (Mem) operand() {}

func (m Mem) String() string {
	width := "qword"
	if m.Size == 8 {
		width = "byte"
	}
	switch {
	case m.Disp > 0:
		return fmt.Sprintf("%s [%s+%d]", width, m.Base.Name, m.Disp)
	case m.Disp < 0:
		return fmt.Sprintf("%s [%s-%d]", width, m.Base.Name, -int64(m.Disp))
	}
	return fmt.Sprintf("%s [%s]", width, m.Base.Name)
}

// BytePtr addresses the byte at base+disp.
func BytePtr(base Register, disp int32) Mem { return Mem{Base: base, Disp: disp, Size: 8} }

// QwordPtr addresses the quadword at base+disp.
func QwordPtr(base Register, disp int32) Mem { return Mem{Base: base, Disp: disp, Size: 64} }

// Operand is either a Register or a Mem.
type Operand interface {
	operand()
	String() string
}

// RegisterAllocator hands out scratch registers. Registers pinned by the
// generated-code contract (the head and frame pointers, rsp, rbp, and the Go
// runtime's r14/r15) are never in the pool.
type RegisterAllocator struct {
	free []Register
	used map[uint8]bool
}

func NewRegisterAllocator() *RegisterAllocator {
	return &RegisterAllocator{
		free: []Register{RAX, RCX, RDX, R8, R9, R10, R11},
		used: make(map[uint8]bool),
	}
}

// AllocGP returns the first free scratch register.
func (ra *RegisterAllocator) AllocGP() (Register, error) {
	for _, r := range ra.free {
		if !ra.used[r.Encoding] {
			ra.used[r.Encoding] = true
			return r, nil
		}
	}
	return Register{}, fmt.Errorf("register allocator: no free scratch registers")
}

// FreeGP returns r to the pool.
func (ra *RegisterAllocator) FreeGP(r Register) {
	delete(ra.used, r.Encoding)
}

// InUse reports how many scratch registers are currently allocated.
func (ra *RegisterAllocator) InUse() int { return len(ra.used) }
