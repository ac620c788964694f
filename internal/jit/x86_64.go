// Completion: 100% - x86_64 backend complete
package jit

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// Assembler is the x86_64 instruction-emission backend. One Assembler is used
// for exactly one compile; it is not safe for concurrent use and is never
// shared between compiles.
//
// Supported forms are the ones the code generator needs: add/sub/cmp by
// immediate against a register or memory operand, loads and stores,
// movzx, RIP-relative lea of a label, near jumps and ret.

// Condition codes for jumps
type JumpCondition int

const (
	JumpEqual    JumpCondition = iota // JE/JZ - equal/zero
	JumpNotEqual                      // JNE/JNZ - not equal/not zero
)

func (c JumpCondition) mnemonic() (string, byte) {
	switch c {
	case JumpEqual:
		return "je", 0x84
	case JumpNotEqual:
		return "jne", 0x85
	}
	panic(fmt.Sprintf("unknown jump condition: %d", c))
}

// ErrUnboundLabel is reported by Finalize when a jump targets a label that
// was never bound.
var ErrUnboundLabel = errors.New("reference to unbound label")

type fixup struct {
	at    int // offset of the rel32 field
	label Label
}

type Assembler struct {
	text   *TextBuffer
	labels []int // bound offset per label, -1 while unbound
	fixups []fixup
	regs   *RegisterAllocator
	list   []ListingEntry
	start  int
	log    *log.Logger
	err    error
}

// NewAssembler returns an empty assembler. logger may be nil.
func NewAssembler(logger *log.Logger) *Assembler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Assembler{
		text: NewTextBuffer("text"),
		regs: NewRegisterAllocator(),
		log:  logger,
	}
}

// Len returns the current code offset.
func (a *Assembler) Len() int { return a.text.Len() }

// AllocGP reserves a scratch register. Exhaustion is a backend failure,
// reported at Finalize.
func (a *Assembler) AllocGP() Register {
	r, err := a.regs.AllocGP()
	if err != nil {
		a.fail(err)
		return RAX
	}
	return r
}

func (a *Assembler) FreeGP(r Register) { a.regs.FreeGP(r) }

func (a *Assembler) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

// NewLabel creates an unbound label.
func (a *Assembler) NewLabel() Label {
	a.labels = append(a.labels, -1)
	return Label(len(a.labels) - 1)
}

// Bind binds l to the current code offset.
func (a *Assembler) Bind(l Label) {
	if int(l) < 0 || int(l) >= len(a.labels) {
		a.fail(fmt.Errorf("bind: unknown label L%d", l))
		return
	}
	if a.labels[l] >= 0 {
		a.fail(fmt.Errorf("bind: label L%d bound twice", l))
		return
	}
	a.labels[l] = a.text.Len()
	a.list = append(a.list, ListingEntry{Offset: a.text.Len(), Text: fmt.Sprintf("L%d:", l)})
	a.log.Debug("bind", "label", fmt.Sprintf("L%d", l), "offset", a.text.Len())
}

// begin and end bracket each emitted instruction for the listing and the
// debug trace.
func (a *Assembler) begin() { a.start = a.text.Len() }

func (a *Assembler) end(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	a.list = append(a.list, ListingEntry{Offset: a.start, Len: a.text.Len() - a.start, Text: text})
	a.log.Debug("emit", "offset", a.start, "asm", text, "bytes", fmt.Sprintf("% x", a.text.Bytes()[a.start:]))
}

// rex emits a REX prefix when one is needed. reg goes in ModRM.reg, base in
// ModRM.rm. byteRegs forces a prefix so that encodings 4-7 mean spl..dil.
func (a *Assembler) rex(w bool, reg, base uint8, byteRegs bool) {
	rex := uint8(0x40)
	if w {
		rex |= 0x08 // REX.W
	}
	if reg&8 != 0 {
		rex |= 0x04 // REX.R
	}
	if base&8 != 0 {
		rex |= 0x01 // REX.B
	}
	if rex != 0x40 || byteRegs {
		a.text.Write(rex)
	}
}

// modrmMem emits ModR/M (and SIB/displacement) for [base+disp].
func (a *Assembler) modrmMem(reg uint8, m Mem) {
	base := m.Base.Encoding & 7
	var mod uint8
	switch {
	case m.Disp == 0 && base != 5: // rbp/r13 require displacement
		mod = 0x00
	case m.Disp >= -128 && m.Disp <= 127:
		mod = 0x40
	default:
		mod = 0x80
	}
	a.text.Write(mod | (reg&7)<<3 | base)
	if base == 4 { // rsp/r12 need a SIB byte
		a.text.Write(0x24)
	}
	switch mod {
	case 0x40:
		a.text.Write(uint8(int8(m.Disp)))
	case 0x80:
		a.text.Write32(uint32(m.Disp))
	}
}

func (a *Assembler) modrmReg(reg, rm uint8) {
	a.text.Write(0xC0 | (reg&7)<<3 | (rm & 7))
}

// arithImm emits the group-1 ALU instruction selected by ext
// (/0 add, /5 sub, /7 cmp) with an immediate.
func (a *Assembler) arithImm(ext uint8, name string, op Operand, imm int32) {
	a.begin()
	switch o := op.(type) {
	case Register:
		if o.Size == 8 {
			a.rex(false, 0, o.Encoding, o.Encoding >= 4)
			a.text.Write(0x80)
			a.modrmReg(ext, o.Encoding)
			a.text.Write(uint8(imm))
			break
		}
		a.rex(o.Size == 64, 0, o.Encoding, false)
		if imm >= -128 && imm <= 127 {
			a.text.Write(0x83)
			a.modrmReg(ext, o.Encoding)
			a.text.Write(uint8(int8(imm)))
		} else {
			a.text.Write(0x81)
			a.modrmReg(ext, o.Encoding)
			a.text.Write32(uint32(imm))
		}
	case Mem:
		if o.Size == 8 {
			a.rex(false, 0, o.Base.Encoding, false)
			a.text.Write(0x80)
			a.modrmMem(ext, o)
			a.text.Write(uint8(imm))
			imm = int32(uint8(imm))
			break
		}
		a.rex(true, 0, o.Base.Encoding, false)
		if imm >= -128 && imm <= 127 {
			a.text.Write(0x83)
			a.modrmMem(ext, o)
			a.text.Write(uint8(int8(imm)))
		} else {
			a.text.Write(0x81)
			a.modrmMem(ext, o)
			a.text.Write32(uint32(imm))
		}
	}
	a.end("%s %s, %d", name, op, imm)
}

// AddImm generates ADD op, imm
func (a *Assembler) AddImm(op Operand, imm int32) { a.arithImm(0, "add", op, imm) }

// SubImm generates SUB op, imm
func (a *Assembler) SubImm(op Operand, imm int32) { a.arithImm(5, "sub", op, imm) }

// CmpImm generates CMP op, imm
func (a *Assembler) CmpImm(op Operand, imm int32) { a.arithImm(7, "cmp", op, imm) }

// MovzxByte generates MOVZX dst32, byte [mem]
func (a *Assembler) MovzxByte(dst Register, src Mem) {
	a.begin()
	a.rex(false, dst.Encoding, src.Base.Encoding, false)
	a.text.Write(0x0F, 0xB6)
	a.modrmMem(dst.Encoding, src)
	a.end("movzx %s, %s", dst.As(32), src)
}

// Store generates MOV [mem], src. The width follows src.Size (8 or 64).
func (a *Assembler) Store(dst Mem, src Register) {
	a.begin()
	if src.Size == 8 {
		a.rex(false, src.Encoding, dst.Base.Encoding, src.Encoding >= 4)
		a.text.Write(0x88)
	} else {
		a.rex(true, src.Encoding, dst.Base.Encoding, false)
		a.text.Write(0x89)
	}
	a.modrmMem(src.Encoding, dst)
	a.end("mov %s, %s", dst, src)
}

// Load generates MOV dst, [mem]. The width follows dst.Size (8 or 64).
func (a *Assembler) Load(dst Register, src Mem) {
	a.begin()
	if dst.Size == 8 {
		a.rex(false, dst.Encoding, src.Base.Encoding, dst.Encoding >= 4)
		a.text.Write(0x8A)
	} else {
		a.rex(true, dst.Encoding, src.Base.Encoding, false)
		a.text.Write(0x8B)
	}
	a.modrmMem(dst.Encoding, src)
	a.end("mov %s, %s", dst, src)
}

// StoreImm generates MOV qword [mem], imm32 (sign-extended).
func (a *Assembler) StoreImm(dst Mem, imm int32) {
	a.begin()
	a.rex(true, 0, dst.Base.Encoding, false)
	a.text.Write(0xC7)
	a.modrmMem(0, dst)
	a.text.Write32(uint32(imm))
	a.end("mov %s, %d", dst, imm)
}

// MovRegToReg generates MOV dst, src (64-bit)
func (a *Assembler) MovRegToReg(dst, src Register) {
	a.begin()
	a.rex(true, src.Encoding, dst.Encoding, false)
	a.text.Write(0x89)
	a.modrmReg(src.Encoding, dst.Encoding)
	a.end("mov %s, %s", dst, src)
}

// LeaLabel generates LEA dst, [rip+label]
func (a *Assembler) LeaLabel(dst Register, l Label) {
	a.begin()
	a.rex(true, dst.Encoding, 0, false)
	a.text.Write(0x8D)
	a.text.Write(0x05 | (dst.Encoding&7)<<3)
	a.rel32(l)
	a.end("lea %s, [rip+L%d]", dst, l)
}

// JumpConditional generates a near conditional jump to l
func (a *Assembler) JumpConditional(cond JumpCondition, l Label) {
	name, opcode := cond.mnemonic()
	a.begin()
	a.text.Write(0x0F, opcode)
	a.rel32(l)
	a.end("%s L%d", name, l)
}

// JumpUnconditional generates a near jump to l
func (a *Assembler) JumpUnconditional(l Label) {
	a.begin()
	a.text.Write(0xE9)
	a.rel32(l)
	a.end("jmp L%d", l)
}

// Ret generates RET
func (a *Assembler) Ret() {
	a.begin()
	a.text.Write(0xC3)
	a.end("ret")
}

// rel32 emits a placeholder displacement to l, relative to the end of the
// field, and records it for Finalize.
func (a *Assembler) rel32(l Label) {
	if int(l) < 0 || int(l) >= len(a.labels) {
		a.fail(fmt.Errorf("reference to unknown label L%d", l))
	}
	a.fixups = append(a.fixups, fixup{at: a.text.Len(), label: l})
	a.text.Write32(0)
}

// Finalize resolves every label reference and freezes the code. It reports
// failure distinctly from success; on failure no code is returned.
func (a *Assembler) Finalize() ([]byte, error) {
	if a.err != nil {
		return nil, a.err
	}
	if a.text.Len() == 0 {
		return nil, errors.New("finalize: no instructions emitted")
	}
	if a.regs.InUse() != 0 {
		return nil, fmt.Errorf("finalize: %d scratch registers still allocated", a.regs.InUse())
	}
	for _, f := range a.fixups {
		target := -1
		if int(f.label) < len(a.labels) {
			target = a.labels[f.label]
		}
		if target < 0 {
			return nil, fmt.Errorf("finalize: L%d: %w", f.label, ErrUnboundLabel)
		}
		a.text.Patch32(f.at, uint32(int32(target-(f.at+4))))
	}
	a.text.Commit()
	return a.text.Bytes(), nil
}

// Listing returns the emitted instructions. Byte ranges are read from the
// text buffer, so jump displacements are final only after Finalize.
func (a *Assembler) Listing() *Listing {
	return &Listing{Code: a.text.Bytes(), Entries: a.list}
}
