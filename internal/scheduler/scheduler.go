// Package scheduler implements the memory-access scheduler (§4.5): an
// epoch loop that rewrites a binary trace, inserting load/store operations
// so that every compute instruction's operands are a subset of a bounded
// active set.
package scheduler

import (
	"errors"
	"io"
	"sort"

	"github.com/suhaskvittal/quicksilver-go/internal/dag"
	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/traceio"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// Policy selects a target active set given the current DAG and active set.
type Policy interface {
	TargetActiveSet(d *dag.DAG, current map[types.QubitID]struct{}, capacity int) map[types.QubitID]struct{}
}

// Config holds the scheduler's tunables (§4.5).
type Config struct {
	// ActiveSetCapacity is C: the maximum size of the active set.
	ActiveSetCapacity int
	// DAGCapacity is K: the DAG is refilled until it holds at least this
	// many instructions (or the stream is exhausted).
	DAGCapacity int
	// InstructionCompileLimit bounds the epoch loop's total iterations.
	InstructionCompileLimit int
	// ProgressCadence controls how often progress is logged (0 disables).
	ProgressCadence int
}

// DefaultConfig returns conservative defaults for interactive use.
func DefaultConfig() *Config {
	return &Config{ActiveSetCapacity: 32, DAGCapacity: 256, InstructionCompileLimit: 1 << 20, ProgressCadence: 0}
}

// Stats accumulates the §4.5 scheduler statistics.
type Stats struct {
	UnrolledInstDone     int64
	MemoryAccessesEmitted int64
	Epochs               int64
	TotalUnusedBandwidth int64
}

// ComputeIntensity is unrolled / accesses (0 if no accesses emitted).
func (s *Stats) ComputeIntensity() float64 {
	if s.MemoryAccessesEmitted == 0 {
		return 0
	}
	return float64(s.UnrolledInstDone) / float64(s.MemoryAccessesEmitted)
}

// MeanUnusedBandwidth is total unused bandwidth / epochs (0 if no epochs).
func (s *Stats) MeanUnusedBandwidth() float64 {
	if s.Epochs == 0 {
		return 0
	}
	return float64(s.TotalUnusedBandwidth) / float64(s.Epochs)
}

// TransformResult is the outcome of one transformActiveSet call (§4.5).
type TransformResult struct {
	Emitted       []*instruction.Instruction
	ActiveSet     map[types.QubitID]struct{}
	UnusedBandwidth int
}

// transformActiveSet emits one memory operation per qubit entering the
// active set: a plain LOAD while the active set still has free capacity,
// or a COUPLED (MSWAP) evicting an arbitrary victim from current\target
// once it is full, and reports unused bandwidth (§4.5).
func transformActiveSet(current, target map[types.QubitID]struct{}, capacity int) TransformResult {
	result := TransformResult{ActiveSet: make(map[types.QubitID]struct{}, len(target))}
	for q := range current {
		result.ActiveSet[q] = struct{}{}
	}

	victims := make([]types.QubitID, 0)
	for q := range current {
		if _, inTarget := target[q]; !inTarget {
			victims = append(victims, q)
		}
	}
	sort.Slice(victims, func(i, j int) bool { return victims[i] < victims[j] })
	vi := 0

	for q := range target {
		if _, present := result.ActiveSet[q]; present {
			continue
		}
		if len(result.ActiveSet) < capacity {
			result.ActiveSet[q] = struct{}{}
			result.Emitted = append(result.Emitted, instruction.New(instruction.LOAD, q))
			continue
		}
		if vi >= len(victims) {
			simerr.Fatal("scheduler.transformActiveSet", simerr.CodePrecondition, "no victim available for incoming qubit")
		}
		victim := victims[vi]
		vi++
		delete(result.ActiveSet, victim)
		result.ActiveSet[q] = struct{}{}
		result.Emitted = append(result.Emitted, instruction.New(instruction.COUPLED, q, victim))
	}

	unused := len(current) - len(target)
	if unused < 0 {
		unused = 0
	}
	result.UnusedBandwidth = unused
	return result
}

// Run rewrites the trace read from r into w, applying policy to keep the
// active set within cfg.ActiveSetCapacity (§4.5 epoch loop). initialActive
// may be nil for an empty starting active set.
func Run(r *traceio.Reader, w *traceio.Writer, policy Policy, cfg *Config, initialActive map[types.QubitID]struct{}) (*Stats, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	stats := &Stats{}
	d := dag.New(r.QubitCount())
	activeSet := make(map[types.QubitID]struct{}, len(initialActive))
	for q := range initialActive {
		activeSet[q] = struct{}{}
	}

	streamDone := false
	refill := func() error {
		for d.Len() < cfg.DAGCapacity && !streamDone {
			inst, err := r.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					streamDone = true
					return nil
				}
				return err
			}
			d.AddInstruction(inst)
		}
		return nil
	}

	emitReady := func() (int, error) {
		count := 0
		for {
			ready := d.GetFrontLayerIf(func(inst *instruction.Instruction) bool {
				return allOperandsActive(inst, activeSet)
			})
			if len(ready) == 0 {
				return count, nil
			}
			for _, inst := range ready {
				if err := w.Write(inst); err != nil {
					return count, err
				}
				stats.UnrolledInstDone += int64(inst.UnrolledInstCount())
				h := d.HandleOfFrontLayerInstruction(inst)
				d.RemoveInstructionFromFrontLayer(h)
				count++
			}
		}
	}

	for epoch := 0; epoch < cfg.InstructionCompileLimit; epoch++ {
		if err := refill(); err != nil {
			return stats, err
		}
		n, err := emitReady()
		if err != nil {
			return stats, err
		}
		if n > 0 {
			if streamDone && d.Len() == 0 {
				break
			}
			continue
		}
		if streamDone && d.Len() == 0 {
			break
		}

		stats.Epochs++
		target := policy.TargetActiveSet(d, activeSet, cfg.ActiveSetCapacity)
		tr := transformActiveSet(activeSet, target, cfg.ActiveSetCapacity)
		for _, m := range tr.Emitted {
			if err := w.Write(m); err != nil {
				return stats, err
			}
			stats.MemoryAccessesEmitted++
		}
		stats.TotalUnusedBandwidth += int64(tr.UnusedBandwidth)
		activeSet = tr.ActiveSet

		if streamDone && d.Len() == 0 {
			break
		}
	}
	return stats, nil
}

func allOperandsActive(inst *instruction.Instruction, activeSet map[types.QubitID]struct{}) bool {
	for _, q := range inst.Operands() {
		if _, ok := activeSet[q]; !ok {
			return false
		}
	}
	return true
}
