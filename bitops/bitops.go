// Package bitops provides the leaf-level bit manipulation primitives used
// by every other package in this module: find-first-set / find-last-set
// (leading/trailing zero counts), population count, byte-swap, and a
// compact 256-bit presence bitmap indexed by a byte.
//
// Every function here prefers the compiler/CPU intrinsic math/bits already
// lowers to on amd64 and arm64 (TZCNT/BSF, LZCNT/BSR, POPCNT) over a
// hand-rolled portable loop; the loop variants below exist only as the
// documented fallback and must match the intrinsic result bit-for-bit.
package bitops

import "math/bits"

// FindFirstSet64 returns the index (0-based, from the least significant bit)
// of the lowest set bit in w. w must be non-zero; callers guarantee this.
func FindFirstSet64(w uint64) int {
	return bits.TrailingZeros64(w)
}

// FindLastSet64 returns the index of the highest set bit in w. w must be
// non-zero.
func FindLastSet64(w uint64) int {
	return 63 - bits.LeadingZeros64(w)
}

// FindFirstSet32 is the 32-bit width variant of FindFirstSet64.
func FindFirstSet32(w uint32) int {
	return bits.TrailingZeros32(w)
}

// FindLastSet32 is the 32-bit width variant of FindLastSet64.
func FindLastSet32(w uint32) int {
	return 31 - bits.LeadingZeros32(w)
}

// PopCount64 returns the number of set bits in w.
func PopCount64(w uint64) int {
	return bits.OnesCount64(w)
}

// PopCount32 returns the number of set bits in w.
func PopCount32(w uint32) int {
	return bits.OnesCount32(w)
}

// ByteSwap16 reverses the byte order of a 16-bit word.
func ByteSwap16(w uint16) uint16 {
	return bits.ReverseBytes16(w)
}

// ByteSwap32 reverses the byte order of a 32-bit word.
func ByteSwap32(w uint32) uint32 {
	return bits.ReverseBytes32(w)
}

// ByteSwap64 reverses the byte order of a 64-bit word.
func ByteSwap64(w uint64) uint64 {
	return bits.ReverseBytes64(w)
}

// portableFindFirstSet64 is the documented fallback for FindFirstSet64; it
// must return a bit-identical result to the intrinsic path and exists so
// that a platform without a compiler intrinsic still has a correct,
// testable implementation to fall back to.
func portableFindFirstSet64(w uint64) int {
	if w == 0 {
		panic("bitops: FindFirstSet64 of zero is undefined")
	}
	n := 0
	for w&1 == 0 {
		w >>= 1
		n++
	}
	return n
}

// portableFindLastSet64 is the portable fallback for FindLastSet64.
func portableFindLastSet64(w uint64) int {
	if w == 0 {
		panic("bitops: FindLastSet64 of zero is undefined")
	}
	n := -1
	for w != 0 {
		w >>= 1
		n++
	}
	return n
}

// portablePopCount64 is the portable fallback for PopCount64.
func portablePopCount64(w uint64) int {
	n := 0
	for w != 0 {
		w &= w - 1
		n++
	}
	return n
}
