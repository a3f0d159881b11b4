package fixedpoint

import "math"

// Angle operations interpret a Value as a fixed-point representation of an
// angle in [0, 2*pi), where the most significant bit is worth pi (§3, §4.1
// "angle view"). These are free functions over Value, mirroring the
// original's `namespace fpa` of free functions over FPA_TYPE<W>.

// FromFloatAngle converts a float angle x (any real value) to a width-bit
// fixed point in [0, 2*pi), mapping x/(2*pi) mod 1 to the integer and
// rounding to the nearest representable value.
func FromFloatAngle(width int, x float64) Value {
	frac := math.Mod(x/(2*math.Pi), 1.0)
	if frac < 0 {
		frac += 1.0
	}
	// frac in [0, 1); scale to the full 2^width range and round.
	scaled := frac * math.Ldexp(1.0, width)
	rounded := math.Round(scaled)
	maxVal := math.Ldexp(1.0, width)
	if rounded >= maxVal {
		rounded -= maxVal
	}
	v := New(width)
	// Decompose rounded (a nonnegative float < 2^width) into words.
	for w := 0; w < v.NumWords() && rounded > 0; w++ {
		word := math.Mod(rounded, math.Ldexp(1.0, 64))
		v.words[w] = uint64(word)
		rounded = math.Floor(rounded / math.Ldexp(1.0, 64))
	}
	return v
}

// ToFloatAngle converts a width-bit angle value back to a float in
// [0, 2*pi).
func ToFloatAngle(v Value) float64 {
	var acc float64
	scale := 1.0
	for w := 0; w < v.NumWords(); w++ {
		acc += float64(v.words[w]) * scale
		scale *= math.Ldexp(1.0, 64)
	}
	return (acc / math.Ldexp(1.0, v.width)) * 2 * math.Pi
}

// AngleNegate maps angle theta to 2*pi - theta (mod 2*pi) via two's
// complement within Width bits: negate all bits, add 1.
func AngleNegate(v Value) Value {
	out := New(v.width)
	for i := range v.words {
		out.words[i] = ^v.words[i]
	}
	return bigintAddWords(out, FromUint64(v.width, 1))
}

// AngleAdd adds two angles modulo 2*pi (i.e. modulo 2^Width, truncating the
// carry out of the top word).
func AngleAdd(a, b Value) Value {
	requireSameWidth("fixedpoint.AngleAdd", a, b)
	return bigintAddWords(a, b)
}

// AngleSub subtracts b from a modulo 2*pi; equivalent to AngleAdd(a,
// AngleNegate(b)) per the testable property in spec §8.
func AngleSub(a, b Value) Value {
	requireSameWidth("fixedpoint.AngleSub", a, b)
	return bigintSubWords(a, b)
}
