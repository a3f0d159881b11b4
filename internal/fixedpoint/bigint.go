package fixedpoint

import (
	"math/bits"

	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
)

// Bigint operations interpret a Value as an ordinary unsigned W-bit integer
// (§3, §4.1 "big-integer view"), used by Shor's-algorithm benchmark
// generation. These mirror the original's `namespace bigint` of free
// functions over BIGINT_TYPE<W>.

func requireSameWidth(op string, a, b Value) {
	if a.width != b.width {
		simerr.Fatalf(op, simerr.CodePrecondition, "width mismatch: %d vs %d", a.width, b.width)
	}
}

// bigintAddWords adds two same-width values modulo 2^Width, used by both
// the angle view (AngleAdd) and the bigint view (Add).
func bigintAddWords(a, b Value) Value {
	out := New(a.width)
	var carry uint64
	for i := range a.words {
		sum, c1 := bits.Add64(a.words[i], b.words[i], carry)
		out.words[i] = sum
		carry = c1
	}
	return out
}

// bigintSubWords subtracts b from a modulo 2^Width with borrow propagation.
func bigintSubWords(a, b Value) Value {
	out := New(a.width)
	var borrow uint64
	for i := range a.words {
		diff, bo := bits.Sub64(a.words[i], b.words[i], borrow)
		out.words[i] = diff
		borrow = bo
	}
	return out
}

// Add returns (a + b) mod 2^Width.
func Add(a, b Value) Value {
	requireSameWidth("fixedpoint.Add", a, b)
	return bigintAddWords(a, b)
}

// Sub returns (a - b) mod 2^Width, with borrow propagated across words.
func Sub(a, b Value) Value {
	requireSameWidth("fixedpoint.Sub", a, b)
	return bigintSubWords(a, b)
}

// Negate returns the two's complement of v within Width bits.
func Negate(v Value) Value { return AngleNegate(v) }

// Mul returns (a * b) truncated to Width bits (schoolbook multiplication).
func Mul(a, b Value) Value {
	requireSameWidth("fixedpoint.Mul", a, b)
	nw := len(a.words)
	// Accumulate into a double-width buffer, then truncate.
	acc := make([]uint64, nw*2)
	for i := 0; i < nw; i++ {
		if a.words[i] == 0 {
			continue
		}
		var carry uint64
		for j := 0; i+j < len(acc); j++ {
			var bw uint64
			if j < nw {
				bw = b.words[j]
			} else if carry == 0 {
				break
			}
			hi, lo := bits.Mul64(a.words[i], bw)
			sum1, c1 := bits.Add64(acc[i+j], lo, 0)
			sum2, c2 := bits.Add64(sum1, carry, 0)
			acc[i+j] = sum2
			carry = hi + c1 + c2
		}
	}
	out := New(a.width)
	copy(out.words, acc[:nw])
	return out
}

// Div performs restoring long division, returning (quotient, remainder).
// Division by zero is a fatal precondition violation (mirrors the
// original's assumption that the simulator never divides by zero).
func Div(a, b Value) (quotient, remainder Value) {
	requireSameWidth("fixedpoint.Div", a, b)
	if b.IsZero() {
		simerr.Fatal("fixedpoint.Div", simerr.CodePrecondition, "division by zero")
	}
	q := New(a.width)
	r := New(a.width)
	for bit := a.width - 1; bit >= 0; bit-- {
		r = r.Lshift(1)
		if a.Test(bit) {
			r.Set(0, true)
		}
		if compareMagnitude(r, b) >= 0 {
			r = bigintSubWords(r, b)
			q.Set(bit, true)
		}
	}
	return q, r
}

// compareMagnitude returns -1, 0, or 1 comparing a and b as unsigned
// integers of equal width.
func compareMagnitude(a, b Value) int {
	for i := len(a.words) - 1; i >= 0; i-- {
		if a.words[i] != b.words[i] {
			if a.words[i] < b.words[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// FromHexString parses a hex string (most-significant nibble first) into a
// Value of the given width, mirroring bigint_from_hex_string.
func FromHexString(width int, s string) Value {
	v := New(width)
	nibblesPerWord := bitsPerWord / 4
	// Left-pad conceptually by processing from the right.
	wordStrs := make([]string, 0, v.NumWords())
	for len(s) > 0 {
		if len(s) <= nibblesPerWord {
			wordStrs = append(wordStrs, s)
			s = ""
		} else {
			split := len(s) - nibblesPerWord
			wordStrs = append(wordStrs, s[split:])
			s = s[:split]
		}
	}
	for i, ws := range wordStrs {
		if i >= v.NumWords() {
			break
		}
		var val uint64
		for _, c := range ws {
			val <<= 4
			val |= uint64(hexNibble(byte(c)))
		}
		v.words[i] = val
	}
	return v
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		simerr.Fatalf("fixedpoint.FromHexString", simerr.CodePrecondition, "invalid hex digit %q", c)
		return 0
	}
}
