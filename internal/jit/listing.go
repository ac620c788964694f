// Completion: 100% - Module complete
package jit

import (
	"fmt"
	"io"
	"strings"
)

// ListingEntry is one emitted instruction, or a label when Len is zero.
type ListingEntry struct {
	Offset int
	Len    int
	Text   string
}

// Listing is a human-readable view of generated code.
type Listing struct {
	Code    []byte
	Entries []ListingEntry
}

// Instructions returns the number of emitted instructions, labels excluded.
func (l *Listing) Instructions() int {
	n := 0
	for _, e := range l.Entries {
		if e.Len > 0 {
			n++
		}
	}
	return n
}

// WriteTo writes one line per entry: offset, encoded bytes, assembly.
func (l *Listing) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, e := range l.Entries {
		var line string
		if e.Len == 0 {
			line = e.Text + "\n"
		} else {
			line = fmt.Sprintf("  %06x  %-30s %s\n", e.Offset, fmt.Sprintf("% x", l.Code[e.Offset:e.Offset+e.Len]), e.Text)
		}
		n, err := io.WriteString(w, line)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (l *Listing) String() string {
	var sb strings.Builder
	l.WriteTo(&sb)
	return sb.String()
}
