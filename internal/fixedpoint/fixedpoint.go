// Package fixedpoint implements the W-bit unsigned word-array integer type
// shared by the angle (§4.1 "angle view") and big-integer (§4.1 "big-integer
// view") interpretations used across the rotation-synthesis and Shor
// benchmark-generation paths.
//
// Go has no const-generic array length, so unlike the original
// FIXED_POINT<W> C++ template, Width is a runtime field and the backing
// store is a []uint64 sized Width/64 words — one []uint64 allocation stands
// in for the template's std::array<uint64_t, NUM_WORDS>.
package fixedpoint

import (
	"fmt"
	"strings"

	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
)

const bitsPerWord = 64

// Value is a W-bit unsigned integer stored as little-endian 64-bit words:
// bit i of word w has place value 2^(i + 64w).
type Value struct {
	width int // bits; must be a positive multiple of 64
	words []uint64
}

// New returns a zero-valued Value of the given bit width.
func New(width int) Value {
	if width <= 0 || width%bitsPerWord != 0 {
		simerr.Fatalf("fixedpoint.New", simerr.CodePrecondition, "width %d is not a positive multiple of %d", width, bitsPerWord)
	}
	return Value{width: width, words: make([]uint64, width/bitsPerWord)}
}

// FromWords builds a Value directly from little-endian words; len(words)
// determines the width.
func FromWords(words []uint64) Value {
	cp := make([]uint64, len(words))
	copy(cp, words)
	return Value{width: len(words) * bitsPerWord, words: cp}
}

// FromUint64 builds a Value of the given width whose only nonzero word is
// the low word.
func FromUint64(width int, w uint64) Value {
	v := New(width)
	v.words[0] = w
	return v
}

// Width returns the bit width.
func (v Value) Width() int { return v.width }

// NumWords returns Width/64.
func (v Value) NumWords() int { return len(v.words) }

// Clone returns an independent copy.
func (v Value) Clone() Value {
	cp := make([]uint64, len(v.words))
	copy(cp, v.words)
	return Value{width: v.width, words: cp}
}

// Words returns a copy of the backing words, little-endian by word index.
func (v Value) Words() []uint64 {
	cp := make([]uint64, len(v.words))
	copy(cp, v.words)
	return cp
}

func (v Value) wordAndBit(idx int) (word, bit int) {
	return idx / bitsPerWord, idx % bitsPerWord
}

// Test returns bit idx (0 = least significant).
func (v Value) Test(idx int) bool {
	w, b := v.wordAndBit(idx)
	return v.words[w]&(uint64(1)<<uint(b)) != 0
}

// Set sets or clears bit idx.
func (v Value) Set(idx int, val bool) {
	w, b := v.wordAndBit(idx)
	if val {
		v.words[w] |= uint64(1) << uint(b)
	} else {
		v.words[w] &^= uint64(1) << uint(b)
	}
}

// TestWord returns word idx verbatim.
func (v Value) TestWord(idx int) uint64 { return v.words[idx] }

// SetWord overwrites word idx verbatim.
func (v Value) SetWord(idx int, w uint64) { v.words[idx] = w }

// Lshift performs a logical left shift by n bits, discarding bits shifted
// out past the top; shifting by >= Width yields zero.
func (v Value) Lshift(n int) Value {
	out := New(v.width)
	if n >= v.width {
		return out
	}
	if n < 0 {
		return v.Rshift(-n)
	}
	wordShift := n / bitsPerWord
	bitShift := uint(n % bitsPerWord)
	for i := len(v.words) - 1; i >= 0; i-- {
		srcIdx := i - wordShift
		if srcIdx < 0 {
			continue
		}
		var val uint64 = v.words[srcIdx] << bitShift
		if bitShift != 0 && srcIdx-1 >= 0 {
			val |= v.words[srcIdx-1] >> (64 - bitShift)
		}
		out.words[i] = val
	}
	return out
}

// Rshift performs a logical right shift by n bits; shifting by >= Width
// yields zero.
func (v Value) Rshift(n int) Value {
	out := New(v.width)
	if n >= v.width {
		return out
	}
	if n < 0 {
		return v.Lshift(-n)
	}
	wordShift := n / bitsPerWord
	bitShift := uint(n % bitsPerWord)
	nw := len(v.words)
	for i := 0; i < nw; i++ {
		srcIdx := i + wordShift
		if srcIdx >= nw {
			continue
		}
		val := v.words[srcIdx] >> bitShift
		if bitShift != 0 && srcIdx+1 < nw {
			val |= v.words[srcIdx+1] << (64 - bitShift)
		}
		out.words[i] = val
	}
	return out
}

// Popcount returns the number of set bits.
func (v Value) Popcount() int {
	n := 0
	for _, w := range v.words {
		n += popcount64(w)
	}
	return n
}

func popcount64(w uint64) int {
	n := 0
	for w != 0 {
		w &= w - 1
		n++
	}
	return n
}

// sentinel returned by MSB/LSB when the value is all-zero, matching the
// original's {-1, -1}.
const NoBit = -1

// MSB returns the index of the most-significant set bit, or NoBit if zero.
func (v Value) MSB() int {
	for w := len(v.words) - 1; w >= 0; w-- {
		if v.words[w] == 0 {
			continue
		}
		for b := bitsPerWord - 1; b >= 0; b-- {
			if v.words[w]&(uint64(1)<<uint(b)) != 0 {
				return w*bitsPerWord + b
			}
		}
	}
	return NoBit
}

// LSB returns the index of the least-significant set bit, or NoBit if zero.
func (v Value) LSB() int {
	for w := 0; w < len(v.words); w++ {
		if v.words[w] == 0 {
			continue
		}
		for b := 0; b < bitsPerWord; b++ {
			if v.words[w]&(uint64(1)<<uint(b)) != 0 {
				return w*bitsPerWord + b
			}
		}
	}
	return NoBit
}

// IsZero reports whether every bit is clear.
func (v Value) IsZero() bool { return v.MSB() == NoBit }

// Equal reports bit-for-bit equality; values of differing width are never
// equal.
func (v Value) Equal(o Value) bool {
	if v.width != o.width {
		return false
	}
	for i := range v.words {
		if v.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// HexString renders the value as a fixed-width hex string, most-significant
// word first.
func (v Value) HexString() string {
	var b strings.Builder
	for i := len(v.words) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%016x", v.words[i])
	}
	return b.String()
}
