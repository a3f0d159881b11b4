package produce

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCultivationEventuallyProducesUnderGuaranteedSuccess(t *testing.T) {
	rand.Seed(1)
	p := NewCultivation("c", 1.0, 1e-6, 4, 1, 1.0, 5)
	for i := 0; i < 5; i++ {
		require.Equal(t, int64(1), p.Operate())
	}
	require.Equal(t, 1, p.BufferOccupancy())
}

func TestCultivationStopsOnceBufferFull(t *testing.T) {
	rand.Seed(1)
	p := NewCultivation("c", 1.0, 1e-6, 1, 1, 1.0, 1)
	require.Equal(t, int64(1), p.Operate()) // installs the one output
	require.Equal(t, 1, p.BufferOccupancy())
	// buffer is now full (capacity 1, output count 1): no-op every tick.
	require.Equal(t, int64(1), p.Operate())
	require.Equal(t, 1, p.BufferOccupancy())
}

func TestDistillationLeafInjectsInputs(t *testing.T) {
	rand.Seed(2)
	// Very low accumulated error so the run reliably completes.
	p := NewDistillation("d", 1.0, 1e-12, 2, 1, 1, 0, nil)
	for i := 0; i < 50 && p.BufferOccupancy() == 0; i++ {
		p.Operate()
	}
	require.Equal(t, 1, p.BufferOccupancy())
}

func TestDistillationStallsWithoutEnoughPreviousLevelInput(t *testing.T) {
	prev := NewCultivation("prev", 1.0, 1e-6, 4, 1, 0.0, 1000)
	d := NewDistillation("d", 1.0, 1e-12, 2, 4, 1, 2, []*Producer{prev})
	// prev never produces (probability_of_success 0), so d must stall
	// (zero progress) indefinitely rather than erroring.
	for i := 0; i < 10; i++ {
		require.Equal(t, int64(0), d.Operate())
	}
	require.Equal(t, 0, d.BufferOccupancy())
}

func TestEntanglementDistillationAcceptsOnZeroSyndrome(t *testing.T) {
	rand.Seed(3)
	prev := NewCultivation("epr-source", 1.0, 0, 8, 1, 1.0, 1)
	ed := NewEntanglementDistillation("ed", 1.0, 1e-9, 2, 2, 2, 3, []*Producer{prev})
	for i := 0; i < 200 && ed.BufferOccupancy() == 0; i++ {
		prev.Operate()
		ed.Operate()
	}
	require.Equal(t, 1, ed.BufferOccupancy())
}

func TestConsumeFatalOnOverdraw(t *testing.T) {
	p := NewCultivation("c", 1.0, 1e-6, 4, 1, 1.0, 1)
	require.Panics(t, func() { p.Consume(1) })
}

func TestConsumeTracksStatistic(t *testing.T) {
	rand.Seed(4)
	p := NewCultivation("c", 1.0, 1e-6, 4, 1, 1.0, 1)
	p.Operate()
	p.Consume(1)
	require.EqualValues(t, 1, p.Consumed)
	require.Equal(t, 0, p.BufferOccupancy())
}
