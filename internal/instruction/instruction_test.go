package instruction

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suhaskvittal/quicksilver-go/internal/fixedpoint"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

func TestNewOperands(t *testing.T) {
	inst := New(CX, 1, 2)
	require.Equal(t, 2, inst.QubitCount())
	require.Equal(t, []types.QubitID{1, 2}, inst.Operands())
	require.Equal(t, int64(-1), inst.Number)
	require.Equal(t, types.MaxCycle, inst.FirstReady)
}

func TestNewRotationRejectsNonRotationKind(t *testing.T) {
	require.Panics(t, func() { NewRotation(CX, 0, fixedpoint.New(64), nil) })
}

func TestNewRejectsRotationKind(t *testing.T) {
	require.Panics(t, func() { New(RZ, 0) })
}

func TestToffoliUopRetirement(t *testing.T) {
	inst := New(CCX, 0, 1, 2)
	require.Equal(t, len(toffoliDecomposition), inst.UopCount())
	require.Equal(t, inst.UopCount(), inst.UnrolledInstCount())

	for inst.UopsRetired() < inst.UopCount()-1 {
		require.NotEqual(t, NIL, inst.CurrentUop())
		done := inst.RetireCurrentUop()
		require.False(t, done)
	}
	done := inst.RetireCurrentUop()
	require.True(t, done)
	require.True(t, inst.IsRetired())
}

func TestCCZUopCount(t *testing.T) {
	inst := New(CCZ, 0, 1, 2)
	require.Equal(t, len(czDecomposition), inst.UopCount())
}

func TestAtomicInstructionRetirement(t *testing.T) {
	inst := New(H, 0)
	require.Equal(t, 1, inst.UnrolledInstCount())
	require.False(t, inst.IsRetired())
	inst.CycleDone = 42
	require.True(t, inst.IsRetired())
}

func TestRotationUopSequence(t *testing.T) {
	seq := []Kind{H, T, H, T, H}
	inst := NewRotation(RZ, 5, fixedpoint.FromUint64(64, 3), seq)
	require.Equal(t, len(seq), inst.UopCount())
	for _, want := range seq {
		require.Equal(t, want, inst.CurrentUop())
		inst.RetireCurrentUop()
	}
	require.True(t, inst.IsRetired())
}

func TestCodecRoundTripAtomic(t *testing.T) {
	inst := New(CX, 3, 7)
	var buf []byte
	buf = inst.Encode(buf)

	decoded, err := Decode(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, inst.Kind, decoded.Kind)
	require.Equal(t, inst.Qubits, decoded.Qubits)
	require.Empty(t, decoded.Corrections)
}

func TestCodecRoundTripRotationWithCorrections(t *testing.T) {
	angle := fixedpoint.FromUint64(128, 0xabc123)
	seq := []Kind{H, T, TDG, H}
	inst := NewRotation(RX, 9, angle, seq)
	inst.Corrections = [][]Kind{{X, Z}, {Y}}

	var buf []byte
	buf = inst.Encode(buf)

	decoded, err := Decode(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, RX, decoded.Kind)
	require.True(t, angle.Equal(decoded.Angle))
	require.Equal(t, seq, decoded.RotSeq)
	require.Equal(t, inst.Corrections, decoded.Corrections)
}

func TestCodecConcatenatedRecordsAndEOF(t *testing.T) {
	a := New(H, 0)
	b := New(CX, 1, 2)
	var buf []byte
	buf = a.Encode(buf)
	buf = b.Encode(buf)

	r := bytes.NewReader(buf)
	got1, err := Decode(r)
	require.NoError(t, err)
	require.Equal(t, H, got1.Kind)

	got2, err := Decode(r)
	require.NoError(t, err)
	require.Equal(t, CX, got2.Kind)

	_, err = Decode(r)
	require.ErrorIs(t, err, io.EOF)
}

func TestCodecBogusOpcodeIsMalformed(t *testing.T) {
	buf := make([]byte, 2+3*8+1)
	buf[0] = 0xff
	buf[1] = 0xff
	_, err := Decode(bytes.NewReader(buf))
	require.Error(t, err)
}
