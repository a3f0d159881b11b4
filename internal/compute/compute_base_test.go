package compute

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suhaskvittal/quicksilver-go/internal/produce"
	"github.com/suhaskvittal/quicksilver-go/internal/storage"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

func newTestBase(t *testing.T, factories []*produce.Producer) (*Base, *storage.Storage) {
	t.Helper()
	mem0 := storage.New("mem0", 1000, 4, 4, 3, 1, 1, 1)
	mem := storage.NewMemorySubsystem([]*storage.Storage{mem0}, 1)
	return NewBase("base", 1000, 3, 4, factories, mem, Config{}), mem0
}

// readyCultivationProducer returns a cultivation producer whose buffer
// already holds one output, by forcing a guaranteed-success single-round
// cultivation through one Operate call.
func readyCultivationProducer(t *testing.T) *produce.Producer {
	t.Helper()
	p := produce.NewCultivation("cult0", 1000, 0, 4, 1, 1.0, 1)
	require.EqualValues(t, 1, p.Operate())
	require.Equal(t, 1, p.BufferOccupancy())
	return p
}

func TestDoHOrSGateAdvancesQubitByTwoCycles(t *testing.T) {
	b, _ := newTestBase(t, nil)
	res := b.doHOrSGate(1)
	require.EqualValues(t, 1, res.Progress)
	require.EqualValues(t, 2, res.Latency)
	require.False(t, b.QubitReady(1))
	b.AdvanceCycle()
	b.AdvanceCycle()
	require.True(t, b.QubitReady(1))
}

func TestDoTLikeGateFailsWithoutAvailableMagicState(t *testing.T) {
	b, _ := newTestBase(t, nil)
	res := b.doTLikeGate(1)
	require.EqualValues(t, 0, res.Progress)
	require.EqualValues(t, 0, b.TGates)
}

func TestDoTLikeGateConsumesFromFirstReadyFactory(t *testing.T) {
	p := readyCultivationProducer(t)
	b, _ := newTestBase(t, []*produce.Producer{p})
	res := b.doTLikeGate(1)
	require.EqualValues(t, 1, res.Progress)
	require.EqualValues(t, 0, p.BufferOccupancy())
	require.EqualValues(t, 1, b.TGates)
}

func TestDoTLikeGateZeroLatencyWhenConfigured(t *testing.T) {
	p := readyCultivationProducer(t)
	mem := storage.NewMemorySubsystem([]*storage.Storage{storage.New("mem0", 1000, 4, 4, 3, 1, 1, 1)}, 1)
	b := NewBase("base", 1000, 3, 4, []*produce.Producer{p}, mem, Config{ZeroLatencyTGates: true})
	res := b.doTLikeGate(1)
	require.EqualValues(t, 0, res.Latency)
}

func TestCountAvailableMagicStatesSumsAcrossFactories(t *testing.T) {
	p1 := readyCultivationProducer(t)
	p2 := readyCultivationProducer(t)
	b, _ := newTestBase(t, []*produce.Producer{p1, p2})
	require.Equal(t, 2, b.CountAvailableMagicStates())
}

func TestDoLoadFromHierarchyRoundTripsThroughLocalMemory(t *testing.T) {
	b, mem0 := newTestBase(t, nil)
	mem0.Insert(2)
	res := b.doLoadFromHierarchy(2)
	require.True(t, res.Progress > 0)
	require.True(t, b.LocalMemory.Contains(2))
}

func TestQubitReadyDefaultsTrueForUntouchedQubit(t *testing.T) {
	b, _ := newTestBase(t, nil)
	require.True(t, b.QubitReady(types.QubitID(99)))
}
