package produce

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// simpleSpec is a minimal two-level spec used to test the allocator in
// isolation from the real LevelSpec/producer wiring.
type simpleSpec struct {
	level     int
	qubitCost int
	bandwidth float64
	consumeHz float64
}

func simpleCallbacks() Callbacks[simpleSpec] {
	return Callbacks[simpleSpec]{
		Alloc: func(spec simpleSpec, previousLevel []*Producer) *Producer {
			return NewCultivation("x", 1.0, 0, 1, 1, 1.0, 1)
		},
		QubitCost:       func(spec simpleSpec) int { return spec.qubitCost },
		Bandwidth:       func(spec simpleSpec, _ float64) float64 { return spec.bandwidth },
		ConsumptionRate: func(spec simpleSpec) float64 { return spec.consumeHz },
		PreviousLevelIndex: func(level int) int {
			if level == 0 {
				return -1
			}
			return level - 1
		},
	}
}

func TestAllocatorRespectsBudget(t *testing.T) {
	specs := []simpleSpec{
		{level: 0, qubitCost: 10, bandwidth: 5},
		{level: 1, qubitCost: 10, bandwidth: 5, consumeHz: 100},
	}
	alloc := ThroughputAwareAllocation(25, specs, simpleCallbacks())
	require.LessOrEqual(t, alloc.PhysicalQubitCount, 25)
}

func TestAllocatorStopsWhenNoImprovementPossible(t *testing.T) {
	// Level 1 (the consuming level) needs far more bandwidth than level 0
	// can ever supply, so only one unit of level 1 is worth allocating at
	// all and additional level-0 units beyond saturating it add nothing.
	specs := []simpleSpec{
		{level: 0, qubitCost: 1, bandwidth: 1},
		{level: 1, qubitCost: 1, bandwidth: 1000, consumeHz: 1},
	}
	alloc := ThroughputAwareAllocation(100, specs, simpleCallbacks())
	require.Greater(t, alloc.EstimatedThroughput, 0.0)
	require.Less(t, alloc.PhysicalQubitCount, 100)
}

func TestAllocatorThroughputMonotoneAcrossGreedySteps(t *testing.T) {
	specs := []simpleSpec{
		{level: 0, qubitCost: 2, bandwidth: 3},
		{level: 1, qubitCost: 5, bandwidth: 4, consumeHz: 2},
	}
	cb := simpleCallbacks()
	counts := make([]int, len(specs))
	prev := 0.0
	budget := 40
	used := 0
	for {
		bestLevel, bestTP := -1, prev
		for level, spec := range specs {
			cost := cb.QubitCost(spec)
			if used+cost > budget {
				continue
			}
			counts[level]++
			tp := estimateThroughput(specs, cb, counts)
			counts[level]--
			if tp > bestTP {
				bestLevel, bestTP = level, tp
			}
		}
		if bestLevel < 0 {
			break
		}
		require.GreaterOrEqual(t, bestTP, prev)
		counts[bestLevel]++
		used += cb.QubitCost(specs[bestLevel])
		prev = bestTP
	}

	full := ThroughputAwareAllocation(budget, specs, cb)
	require.InDelta(t, prev, full.EstimatedThroughput, 1e-9)
}

func TestProtocolsLoadAndBuildAllocation(t *testing.T) {
	protocols := LoadDefaultProtocols()
	require.Contains(t, protocols, "protocol_0")

	spec := protocols["protocol_0"]
	alloc := ThroughputAwareAllocation(500, spec, CallbacksForLevelSpec())
	require.LessOrEqual(t, alloc.PhysicalQubitCount, 500)
	for _, names := range []string{"protocol_1", "protocol_2", "protocol_3", "protocol_4", "protocol_5"} {
		require.Contains(t, protocols, names)
	}
}
