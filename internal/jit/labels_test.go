package jit

import "testing"

func TestLabelStackLIFO(t *testing.T) {
	var s LabelStack
	if !s.Empty() {
		t.Fatal("new stack should be empty")
	}
	if _, ok := s.Pop(); ok {
		t.Fatal("Pop on empty stack should fail")
	}

	s.Push(LabelPair{Start: 0, End: 1, Offset: 3})
	s.Push(LabelPair{Start: 2, End: 3, Offset: 7})
	if s.Len() != 2 || s.MaxDepth() != 2 {
		t.Fatalf("Len=%d MaxDepth=%d, want 2 2", s.Len(), s.MaxDepth())
	}

	p, ok := s.Pop()
	if !ok || p.Start != 2 || p.Offset != 7 {
		t.Errorf("first Pop = %+v, %v", p, ok)
	}
	p, ok = s.Top()
	if !ok || p.Start != 0 {
		t.Errorf("Top = %+v, %v", p, ok)
	}
	s.Pop()
	if !s.Empty() {
		t.Error("stack should be empty after popping everything")
	}
	if s.MaxDepth() != 2 {
		t.Errorf("MaxDepth = %d, want 2", s.MaxDepth())
	}
}

func TestLabelStackDeepNesting(t *testing.T) {
	var s LabelStack
	const depth = 100000
	for i := 0; i < depth; i++ {
		s.Push(LabelPair{Start: Label(2 * i), End: Label(2*i + 1)})
	}
	for i := depth - 1; i >= 0; i-- {
		p, ok := s.Pop()
		if !ok || p.Start != Label(2*i) {
			t.Fatalf("pop %d = %+v, %v", i, p, ok)
		}
	}
}
