// Completion: 100% - Codegen complete
package jit

// Register contract of generated code:
//
//	rdi  frame pointer (see bridge.go), loaded by the trampoline
//	rsi  head: address of the current cell, loaded from frame.head
//	rax  scratch, handed out by the register allocator
//
// The code never touches rsp beyond the final ret, never pushes, and leaves
// rbp, r14 and r15 alone so the Go runtime state survives the call.
var (
	headReg  = RSI
	frameReg = RDI
)

// CodeGen emits the native shape of each source construct.
type CodeGen struct {
	asm   *Assembler
	loops LabelStack
	cell  Mem
}

func NewCodeGen(asm *Assembler) *CodeGen {
	return &CodeGen{asm: asm, cell: BytePtr(headReg, 0)}
}

// CellDelta adds delta to the current cell. Cells wrap at 256, so nothing is
// emitted when delta is a multiple of 256.
func (g *CodeGen) CellDelta(delta int64) {
	switch {
	case uint8(delta) == 0:
	case delta > 0:
		g.asm.AddImm(g.cell, int32(uint8(delta)))
	case delta < 0:
		g.asm.SubImm(g.cell, int32(uint8(-delta)))
	}
}

// HeadDelta moves the head by delta cells. Nothing is emitted for zero.
func (g *CodeGen) HeadDelta(delta int64) {
	if delta >= 0 {
		for _, imm := range splitImmediate(delta) {
			g.asm.AddImm(headReg, imm)
		}
		return
	}
	for _, imm := range splitImmediate(-delta) {
		g.asm.SubImm(headReg, imm)
	}
}

// LoopOpen emits the loop test: skip the body when the current cell is zero.
func (g *CodeGen) LoopOpen(offset int) {
	pair := LabelPair{Start: g.asm.NewLabel(), End: g.asm.NewLabel(), Offset: offset}
	g.asm.Bind(pair.Start)
	g.asm.CmpImm(g.cell, 0)
	g.asm.JumpConditional(JumpEqual, pair.End)
	g.loops.Push(pair)
}

// LoopClose jumps back to the innermost loop test and binds its exit.
// It returns false when no loop is open.
func (g *CodeGen) LoopClose() bool {
	pair, ok := g.loops.Pop()
	if !ok {
		return false
	}
	g.asm.JumpUnconditional(pair.Start)
	g.asm.Bind(pair.End)
	return true
}

// OpenLoops returns the loops that are still open, innermost last.
func (g *CodeGen) OpenLoops() []LabelPair { return g.loops.pairs }

// Putchar emits the '.' call site: putchar(record, cell).
func (g *CodeGen) Putchar() {
	v := g.asm.AllocGP()
	g.asm.MovzxByte(v, g.cell)
	g.asm.Store(QwordPtr(frameReg, frameValueOffset), v)
	g.asm.FreeGP(v)
	g.hostCall(exitPutchar)
}

// Getchar emits the ',' call site: cell = getchar(record).
func (g *CodeGen) Getchar() {
	g.hostCall(exitGetchar)
	v := g.asm.AllocGP()
	g.asm.Load(v.As(8), BytePtr(frameReg, frameValueOffset))
	g.asm.Store(g.cell, v.As(8))
	g.asm.FreeGP(v)
}

// hostCall leaves native code with a bridge exit code. The trampoline
// re-enters at the label bound right after the ret, with rdi and rsi
// reloaded from the frame.
func (g *CodeGen) hostCall(code exitCode) {
	resume := g.asm.NewLabel()
	g.asm.Store(QwordPtr(frameReg, frameHeadOffset), headReg)
	g.asm.StoreImm(QwordPtr(frameReg, frameStatusOffset), int32(code))
	r := g.asm.AllocGP()
	g.asm.LeaLabel(r, resume)
	g.asm.Store(QwordPtr(frameReg, frameResumeOffset), r)
	g.asm.FreeGP(r)
	g.asm.Ret()
	g.asm.Bind(resume)
}

// Epilogue stores the final head, reports halt and returns the head in rax.
func (g *CodeGen) Epilogue() {
	g.asm.Store(QwordPtr(frameReg, frameHeadOffset), headReg)
	g.asm.StoreImm(QwordPtr(frameReg, frameStatusOffset), int32(exitHalt))
	g.asm.MovRegToReg(RAX, headReg)
	g.asm.Ret()
}
