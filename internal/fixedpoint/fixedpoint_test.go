package fixedpoint

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitSetTest(t *testing.T) {
	v := New(128)
	require.False(t, v.Test(5))
	v.Set(5, true)
	require.True(t, v.Test(5))
	v.Set(5, false)
	require.False(t, v.Test(5))
}

func TestWordAccessors(t *testing.T) {
	v := New(128)
	v.SetWord(1, 0xdeadbeef)
	require.Equal(t, uint64(0xdeadbeef), v.TestWord(1))
}

func TestShifts(t *testing.T) {
	v := FromUint64(128, 1)
	shifted := v.Lshift(70)
	require.True(t, shifted.Test(70))
	require.False(t, shifted.Test(0))

	back := shifted.Rshift(70)
	require.True(t, back.Equal(v))

	require.True(t, v.Lshift(128).IsZero())
	require.True(t, v.Rshift(128).IsZero())
}

func TestPopcountMSBLSB(t *testing.T) {
	v := New(128)
	require.Equal(t, NoBit, v.MSB())
	require.Equal(t, NoBit, v.LSB())

	v.Set(3, true)
	v.Set(64, true)
	v.Set(100, true)
	require.Equal(t, 3, v.Popcount())
	require.Equal(t, 100, v.MSB())
	require.Equal(t, 3, v.LSB())
}

func TestHexString(t *testing.T) {
	v := FromUint64(128, 0xabcd)
	hex := v.HexString()
	require.Len(t, hex, 32)
	require.Equal(t, "000000000000abcd", hex[16:])
	require.Equal(t, "0000000000000000", hex[:16])
}

// TestAddNegateSub verifies the §8 testable property:
// add(x, negate(y)) == sub(x, y) mod 2^W.
func TestAddNegateSub(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		x := randomValue(rng, 128)
		y := randomValue(rng, 128)
		lhs := Add(x, Negate(y))
		rhs := Sub(x, y)
		require.True(t, lhs.Equal(rhs), "iteration %d: %s vs %s", i, lhs.HexString(), rhs.HexString())
	}
}

func TestMulTruncates(t *testing.T) {
	a := FromUint64(128, 1<<63)
	b := FromUint64(128, 4)
	got := Mul(a, b)
	// 2^63 * 4 = 2^65, which truncates to bit 65 mod 2^128 == bit 65 set.
	want := New(128)
	want.Set(65, true)
	require.True(t, got.Equal(want))
}

func TestDivRestoring(t *testing.T) {
	a := FromUint64(128, 100)
	b := FromUint64(128, 7)
	q, r := Div(a, b)
	require.Equal(t, uint64(14), q.TestWord(0))
	require.Equal(t, uint64(2), r.TestWord(0))
}

func TestDivByZeroFatal(t *testing.T) {
	a := FromUint64(64, 10)
	b := New(64)
	require.Panics(t, func() { Div(a, b) })
}

func randomValue(rng *rand.Rand, width int) Value {
	v := New(width)
	for i := 0; i < v.NumWords(); i++ {
		v.SetWord(i, rng.Uint64())
	}
	return v
}
