// Completion: 100% - Module complete
package jit

// Peephole run-length folding for the two opposite-pair instruction classes:
//   - cell arithmetic:  + and -
//   - head movement:    > and <
//
// A run such as "+++--+" becomes a single "add byte [head], 2". A run whose
// net delta is zero ("+-", "><<>") is compiled away entirely.

// RunLength consumes the maximal run of inc and dec bytes starting at pos and
// returns the net signed delta together with the position just past the run.
// Any other byte, including comment bytes, ends the run.
func RunLength(src []byte, pos int, inc, dec byte) (delta int64, next int) {
	next = pos
	for next < len(src) {
		switch src[next] {
		case inc:
			delta++
		case dec:
			delta--
		default:
			return delta, next
		}
		next++
	}
	return delta, next
}

// splitImmediate breaks a non-negative magnitude into chunks that each fit a
// sign-extended imm32. Head moves beyond 2 GiB are not realistic, but a
// pathological source must still assemble to correct code.
func splitImmediate(n int64) []int32 {
	const maxImm32 = int64(1<<31 - 1)
	var parts []int32
	for n > maxImm32 {
		parts = append(parts, int32(maxImm32))
		n -= maxImm32
	}
	if n > 0 {
		parts = append(parts, int32(n))
	}
	return parts
}
