// Completion: 100% - Module complete
package jit

import (
	"encoding/binary"
	"fmt"
)

// TextBuffer holds emitted machine code. Bytes may be appended and rel32
// fields patched until Commit; after that the buffer is read-only and any
// write panics.
type TextBuffer struct {
	buf       []byte
	committed bool   // True once Commit() is called
	name      string // For debugging
}

// NewTextBuffer creates a new TextBuffer with a name for debugging
func NewTextBuffer(name string) *TextBuffer {
	return &TextBuffer{name: name}
}

// Write appends bytes to the buffer. Panics if buffer is committed.
func (tb *TextBuffer) Write(p ...byte) {
	tb.MustNotBeCommitted()
	tb.buf = append(tb.buf, p...)
}

// Write32 appends a little-endian 32-bit value.
func (tb *TextBuffer) Write32(v uint32) {
	tb.MustNotBeCommitted()
	tb.buf = binary.LittleEndian.AppendUint32(tb.buf, v)
}

// Patch32 overwrites the 32-bit little-endian field at offset at.
func (tb *TextBuffer) Patch32(at int, v uint32) {
	tb.MustNotBeCommitted()
	if at < 0 || at+4 > len(tb.buf) {
		panic(fmt.Sprintf("TextBuffer(%s): patch at %d outside %d bytes", tb.name, at, len(tb.buf)))
	}
	binary.LittleEndian.PutUint32(tb.buf[at:], v)
}

// Bytes returns the buffer contents. Safe to call after commit.
func (tb *TextBuffer) Bytes() []byte {
	return tb.buf
}

// Len returns the buffer length
func (tb *TextBuffer) Len() int {
	return len(tb.buf)
}

// Commit marks the buffer as complete. After this, no more writes or patches allowed.
func (tb *TextBuffer) Commit() {
	tb.committed = true
}

// IsCommitted returns true if the buffer has been committed
func (tb *TextBuffer) IsCommitted() bool {
	return tb.committed
}

// MustNotBeCommitted panics if the buffer is committed
func (tb *TextBuffer) MustNotBeCommitted() {
	if tb.committed {
		panic(fmt.Sprintf("TextBuffer(%s): cannot write to committed buffer", tb.name))
	}
}
