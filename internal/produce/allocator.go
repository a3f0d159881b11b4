package produce

// Allocation is the outcome of ThroughputAwareAllocation (§4.8): producers
// grouped by level (index 0 = first-level production), the total
// physical-qubit cost, and the estimated steady-state throughput.
type Allocation[S any] struct {
	Producers           [][]*Producer
	PhysicalQubitCount  int
	EstimatedThroughput float64
}

// Callbacks is the allocator's five-callback polymorphism over an opaque
// per-level specification type (§4.8, §9): the allocator never inspects a
// specification directly, only through these, which keeps it
// monomorphizable per specification type instead of requiring a virtual
// producer-specification hierarchy.
//
//   - Alloc builds one producer instance for a level's specification,
//     wired to the previous level's already-allocated producers.
//   - QubitCost is the physical-qubit overhead of one producer instance.
//   - Bandwidth is the production rate (Hz) of one producer instance,
//     assuming its inputs are always available, given the throughput
//     estimated for every level before it.
//   - ConsumptionRate is the steady-state input consumption rate (Hz) of
//     one producer instance.
//   - PreviousLevelIndex resolves which earlier level (if any) feeds a
//     given level index; -1 marks a leaf level with no previous level.
type Callbacks[S any] struct {
	Alloc              func(spec S, previousLevel []*Producer) *Producer
	QubitCost          func(spec S) int
	Bandwidth          func(spec S, previousThroughput float64) float64
	ConsumptionRate    func(spec S) float64
	PreviousLevelIndex func(level int) int
}

// ThroughputAwareAllocation greedily provisions producers within a
// physical-qubit budget (§4.8 allocation loop): repeatedly add whichever
// single producer, at any level, increases the estimated throughput by the
// most, stopping when no addition both fits the remaining budget and
// improves throughput.
func ThroughputAwareAllocation[S any](budget int, specs []S, cb Callbacks[S]) Allocation[S] {
	alloc := Allocation[S]{Producers: make([][]*Producer, len(specs))}

	for {
		bestLevel := -1
		bestThroughput := alloc.EstimatedThroughput
		counts := countsOf(alloc.Producers)
		for level, spec := range specs {
			cost := cb.QubitCost(spec)
			if cost > budget-alloc.PhysicalQubitCount {
				continue
			}
			counts[level]++
			candidate := estimateThroughput(specs, cb, counts)
			counts[level]--
			if candidate > bestThroughput {
				bestLevel, bestThroughput = level, candidate
			}
		}
		if bestLevel < 0 {
			break
		}

		spec := specs[bestLevel]
		var previousLevel []*Producer
		if prevIdx := cb.PreviousLevelIndex(bestLevel); prevIdx >= 0 {
			previousLevel = alloc.Producers[prevIdx]
		}
		alloc.Producers[bestLevel] = append(alloc.Producers[bestLevel], cb.Alloc(spec, previousLevel))
		alloc.PhysicalQubitCount += cb.QubitCost(spec)
		alloc.EstimatedThroughput = bestThroughput
	}
	return alloc
}

func countsOf(producers [][]*Producer) []int {
	counts := make([]int, len(producers))
	for i, p := range producers {
		counts[i] = len(p)
	}
	return counts
}

// estimateThroughput computes the effective bandwidth of the topmost
// populated level, scaled at every level transition by
// min(1, previous_level_bandwidth / this_level_consumption_rate)
// (§4.8 step 3). A non-leaf level whose previous level has no producers
// yields zero throughput.
func estimateThroughput[S any](specs []S, cb Callbacks[S], counts []int) float64 {
	var throughput float64
	for level, spec := range specs {
		n := counts[level]
		if n == 0 {
			continue
		}
		bandwidth := cb.Bandwidth(spec, throughput) * float64(n)

		prevIdx := cb.PreviousLevelIndex(level)
		if prevIdx < 0 {
			throughput = bandwidth
			continue
		}
		if counts[prevIdx] == 0 {
			throughput = 0
			continue
		}
		consumption := cb.ConsumptionRate(spec) * float64(n)
		if consumption <= 0 {
			throughput = 0
			continue
		}
		ratio := throughput / consumption
		if ratio > 1 {
			ratio = 1
		}
		throughput = bandwidth * ratio
	}
	return throughput
}
