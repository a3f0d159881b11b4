package dag

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

func TestAddInstructionFrontLayer(t *testing.T) {
	d := New(4)
	i1 := instruction.New(instruction.H, 0)
	h1 := d.AddInstruction(i1)
	require.Equal(t, 1, d.Len())
	require.Contains(t, d.GetFrontLayer(), i1)

	// i2 depends on i1 through qubit 0; must not be in the front layer.
	i2 := instruction.New(instruction.CX, 0, 1)
	d.AddInstruction(i2)
	front := d.GetFrontLayer()
	require.Len(t, front, 1)
	require.Equal(t, i1, front[0])

	d.RemoveInstructionFromFrontLayer(h1)
	front = d.GetFrontLayer()
	require.Len(t, front, 1)
	require.Equal(t, i2, front[0])
}

func TestDedupedOperandsCountOncePredecessor(t *testing.T) {
	d := New(2)
	// An instruction touching the same qubit twice in its operand list
	// must only count as one predecessor edge from the prior writer.
	i1 := instruction.New(instruction.H, 0)
	h1 := d.AddInstruction(i1)
	i2 := instruction.New(instruction.SWAP, 0, 0)
	d.AddInstruction(i2)

	require.Len(t, d.GetFrontLayer(), 1)
	d.RemoveInstructionFromFrontLayer(h1)
	require.Len(t, d.GetFrontLayer(), 1)
	require.Equal(t, i2, d.GetFrontLayer()[0])
}

func TestOutOfRangeQubitFatal(t *testing.T) {
	d := New(2)
	i := instruction.New(instruction.H, 5)
	require.Panics(t, func() { d.AddInstruction(i) })
}

func TestRemoveNonFrontLayerFatal(t *testing.T) {
	d := New(2)
	i1 := instruction.New(instruction.H, 0)
	d.AddInstruction(i1)
	i2 := instruction.New(instruction.X, 0)
	h2 := d.AddInstruction(i2)

	require.Panics(t, func() { d.RemoveInstructionFromFrontLayer(h2) })
}

// TestPartialOrderRespected verifies the §8 testable property: for any
// sequence of AddInstruction followed by fetch-and-retire in front-layer
// order, the retired sequence respects per-qubit program order.
func TestPartialOrderRespected(t *testing.T) {
	d := New(1)
	var insts []*instruction.Instruction
	var handles []NodeHandle
	for k := 0; k < 5; k++ {
		i := instruction.New(instruction.X, 0)
		insts = append(insts, i)
		handles = append(handles, d.AddInstruction(i))
	}

	var retired []*instruction.Instruction
	for len(retired) < len(insts) {
		front := d.GetFrontLayer()
		require.Len(t, front, 1, "single-qubit chain must always have exactly one front-layer node")
		retired = append(retired, front[0])
		h := d.HandleOfFrontLayerInstruction(front[0])
		d.RemoveInstructionFromFrontLayer(h)
	}
	require.Equal(t, insts, retired)
	_ = handles
}

func TestForEachInstructionInLayerOrder(t *testing.T) {
	d := New(2)
	i1 := instruction.New(instruction.H, 0)
	d.AddInstruction(i1)
	i2 := instruction.New(instruction.CX, 0, 1)
	d.AddInstruction(i2)
	i3 := instruction.New(instruction.X, 1)
	d.AddInstruction(i3)

	var seen []*instruction.Instruction
	d.ForEachInstructionInLayerOrder(func(inst *instruction.Instruction) {
		seen = append(seen, inst)
	}, 1)
	require.Contains(t, seen, i1)
	require.Contains(t, seen, i2)
}

func TestFindEarliestDependentSuchThat(t *testing.T) {
	d := New(1)
	i1 := instruction.New(instruction.H, 0)
	h1 := d.AddInstruction(i1)
	i2 := instruction.New(instruction.X, 0)
	d.AddInstruction(i2)
	i3 := instruction.New(instruction.Y, 0)
	d.AddInstruction(i3)

	found, layer := FindEarliestDependentSuchThat(h1, d, func(i *instruction.Instruction) bool {
		return i.Kind == instruction.Y
	}, 0, 10)
	require.Equal(t, i3, found)
	require.Equal(t, 2, layer)
}

func TestQubitCountType(t *testing.T) {
	var q types.QubitID = 3
	d := New(q + 1)
	require.NotNil(t, d)
}
