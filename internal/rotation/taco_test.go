package rotation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
)

func TestHSandwichFlipCancelsMatchedPair(t *testing.T) {
	seq := []instruction.Kind{instruction.H, instruction.T, instruction.H}
	got := hSandwichFlip(seq)
	require.Equal(t, []instruction.Kind{instruction.TX}, got)
}

func TestHSandwichFlipPropagatesUnmatchedH(t *testing.T) {
	seq := []instruction.Kind{instruction.H, instruction.T, instruction.S}
	got := hSandwichFlip(seq)
	require.Equal(t, []instruction.Kind{instruction.TX, instruction.SX, instruction.H}, got)
}

func TestConsolidateWeightTable(t *testing.T) {
	// T T (sum=2) in Z basis -> S
	got := consolidate([]instruction.Kind{instruction.T, instruction.T})
	require.Equal(t, []instruction.Kind{instruction.S}, got)

	// T T T T T (sum=5 mod 8) -> T then Z
	got = consolidate([]instruction.Kind{instruction.T, instruction.T, instruction.T, instruction.T, instruction.T})
	require.Equal(t, []instruction.Kind{instruction.T, instruction.Z}, got)

	// eight T's -> sum 0 -> empty
	got = consolidate([]instruction.Kind{instruction.T, instruction.T, instruction.T, instruction.T, instruction.T, instruction.T, instruction.T, instruction.T})
	require.Empty(t, got)
}

func TestConsolidateBreaksRunOnNonWeightedGate(t *testing.T) {
	got := consolidate([]instruction.Kind{instruction.T, instruction.Y, instruction.T})
	require.Equal(t, []instruction.Kind{instruction.T, instruction.Y, instruction.T}, got)
}

// TestTacoPreservesUnitary verifies the §8 testable property: after TACO,
// the remaining sequence implements the same operator (up to global phase)
// as the input.
func TestTacoPreservesUnitary(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	gates := []instruction.Kind{instruction.H, instruction.T, instruction.TDG, instruction.S, instruction.SDG, instruction.Z, instruction.X}
	for trial := 0; trial < 50; trial++ {
		n := 3 + rng.Intn(10)
		seq := make([]instruction.Kind, n)
		for i := range seq {
			seq[i] = gates[rng.Intn(len(gates))]
		}
		before := SequenceMatrix(seq)
		after := SequenceMatrix(Taco(seq))
		require.True(t, SameUpToGlobalPhase(before, after, 1e-6), "trial %d: seq=%v", trial, seq)
	}
}

func TestRzMatrixSelfConsistent(t *testing.T) {
	m := rzMatrix(math.Pi / 2)
	require.InDelta(t, 1.0, realPart(m[0]*conj(m[0])), 1e-9)
}

func realPart(c complex128) float64 { return real(c) }
func conj(c complex128) complex128  { return complex(real(c), -imag(c)) }
