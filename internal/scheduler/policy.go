package scheduler

import (
	"sort"

	"github.com/suhaskvittal/quicksilver-go/internal/dag"
	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// EIF implements the Earliest Instructions First policy (§4.5): score
// each front-layer instruction by how many of its operands are already in
// the active set, sort descending, and greedily pack operands into the
// target set, skipping any instruction whose operands would overflow
// capacity.
type EIF struct{}

func (EIF) TargetActiveSet(d *dag.DAG, current map[types.QubitID]struct{}, capacity int) map[types.QubitID]struct{} {
	front := d.GetFrontLayer()
	type scored struct {
		inst  *instruction.Instruction
		score int
	}
	scoredInsts := make([]scored, len(front))
	for i, inst := range front {
		s := 0
		for _, q := range inst.Operands() {
			if _, ok := current[q]; ok {
				s++
			}
		}
		scoredInsts[i] = scored{inst, s}
	}
	sort.SliceStable(scoredInsts, func(i, j int) bool { return scoredInsts[i].score > scoredInsts[j].score })

	target := make(map[types.QubitID]struct{}, capacity)
	for _, si := range scoredInsts {
		need := 0
		for _, q := range si.inst.Operands() {
			if _, already := target[q]; !already {
				need++
			}
		}
		if len(target)+need > capacity {
			continue
		}
		for _, q := range si.inst.Operands() {
			target[q] = struct{}{}
		}
	}
	return target
}

// HINT implements the HINT policy (§4.5): weights qubits by discounted
// demand across LookaheadDepth DAG layers, then takes the top Capacity
// qubits by score, topping up with at least one whole front-layer
// instruction's operands if the score-based set can't otherwise fit one.
type HINT struct {
	// LookaheadDepth is the number of DAG layers considered for demand
	// scoring (hint_lookahead_depth).
	LookaheadDepth int
	// Discount is the per-layer score multiplier (0 < Discount <= 1).
	Discount float64
}

// NewHINT returns a HINT policy with the given lookahead depth and a
// default 0.5 per-layer discount.
func NewHINT(lookaheadDepth int) HINT {
	return HINT{LookaheadDepth: lookaheadDepth, Discount: 0.5}
}

func (h HINT) TargetActiveSet(d *dag.DAG, current map[types.QubitID]struct{}, capacity int) map[types.QubitID]struct{} {
	demand := make(map[types.QubitID]float64)
	weight := 1.0
	for _, layer := range d.LayersFrom(h.LookaheadDepth) {
		for _, inst := range layer {
			for _, q := range inst.Operands() {
				demand[q] += weight
			}
		}
		weight *= h.Discount
	}

	type scoredQubit struct {
		q     types.QubitID
		score float64
	}
	qs := make([]scoredQubit, 0, len(demand))
	for q, s := range demand {
		qs = append(qs, scoredQubit{q, s})
	}
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].score != qs[j].score {
			return qs[i].score > qs[j].score
		}
		return qs[i].q < qs[j].q
	})

	target := make(map[types.QubitID]struct{}, capacity)
	for i := 0; i < len(qs) && len(target) < capacity; i++ {
		target[qs[i].q] = struct{}{}
	}

	if !fitsWholeInstruction(d, target) {
		front := d.GetFrontLayer()
		sort.Slice(front, func(i, j int) bool { return front[i].QubitCount() < front[j].QubitCount() })
		for _, inst := range front {
			if inst.QubitCount() <= capacity {
				fitInstructionInto(target, inst, capacity, demand)
				break
			}
		}
	}
	return target
}

// fitsWholeInstruction reports whether some front-layer instruction's
// operands are already entirely within target.
func fitsWholeInstruction(d *dag.DAG, target map[types.QubitID]struct{}) bool {
	for _, inst := range d.GetFrontLayer() {
		ok := true
		for _, q := range inst.Operands() {
			if _, present := target[q]; !present {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// fitInstructionInto forces inst's operands into target, evicting the
// lowest-scored existing members (never inst's own operands) if necessary
// to respect capacity.
func fitInstructionInto(target map[types.QubitID]struct{}, inst *instruction.Instruction, capacity int, score map[types.QubitID]float64) {
	need := make([]types.QubitID, 0, inst.QubitCount())
	operands := make(map[types.QubitID]struct{}, inst.QubitCount())
	for _, q := range inst.Operands() {
		operands[q] = struct{}{}
		if _, present := target[q]; !present {
			need = append(need, q)
		}
	}
	for len(target)+len(need) > capacity {
		victim, found := types.QubitID(0), false
		for q := range target {
			if _, isOperand := operands[q]; isOperand {
				continue
			}
			if !found || score[q] < score[victim] || (score[q] == score[victim] && q > victim) {
				victim, found = q, true
			}
		}
		if !found {
			break
		}
		delete(target, victim)
	}
	for _, q := range need {
		target[q] = struct{}{}
	}
}
