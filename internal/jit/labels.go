// Completion: 100% - Module complete
package jit

// Label is a symbolic jump target inside one Assembler. It is bound to a code
// offset at most once; references before binding are patched at Finalize.
type Label int

// LabelPair is the context of one open loop.
type LabelPair struct {
	Start  Label // bound at the loop test
	End    Label // bound just past the closing jump
	Offset int   // source offset of the opening bracket
}

// LabelStack tracks open loops. Nesting depth is bounded by memory only.
type LabelStack struct {
	pairs    []LabelPair
	maxDepth int
}

func (s *LabelStack) Push(p LabelPair) {
	s.pairs = append(s.pairs, p)
	if len(s.pairs) > s.maxDepth {
		s.maxDepth = len(s.pairs)
	}
}

// Top returns the innermost open loop. ok is false when no loop is open.
func (s *LabelStack) Top() (p LabelPair, ok bool) {
	if len(s.pairs) == 0 {
		return LabelPair{}, false
	}
	return s.pairs[len(s.pairs)-1], true
}

// Pop removes and returns the innermost open loop.
func (s *LabelStack) Pop() (p LabelPair, ok bool) {
	p, ok = s.Top()
	if ok {
		s.pairs = s.pairs[:len(s.pairs)-1]
	}
	return p, ok
}

func (s *LabelStack) Len() int      { return len(s.pairs) }
func (s *LabelStack) Empty() bool   { return len(s.pairs) == 0 }
func (s *LabelStack) MaxDepth() int { return s.maxDepth }
