package compute

import (
	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/produce"
	"github.com/suhaskvittal/quicksilver-go/internal/storage"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// maxTeleportsPerRotation bounds how many T-like uops one rotation may
// teleport through in a single call to DoRotationGateWithTeleportation.
// The original ties this to a configured constant (GL_T_GATE_TELEPORTATION_MAX);
// here it is simply "as many as the unrolled sequence could ever need".
const maxTeleportsPerRotation = 1 << 16

// assignment binds a pending rotation instruction to one of the rotation
// subsystem's own logical qubits. Critical assignments bypass the
// magic-state watermark (§4.11: "except for rotations marked critical").
type assignment struct {
	inst     *instruction.Instruction
	qubit    types.QubitID
	critical bool
}

// RotationSubsystem is a second Base instance dedicated to eagerly
// executing future rotation instructions off the critical path, bounded by
// a magic-state watermark so it never starves the main compute (§4.11).
type RotationSubsystem struct {
	*Base

	watermark float64

	pending     map[*instruction.Instruction]*assignment
	freeQubits  []types.QubitID
	qubitsTotal int

	watermarkFloor int

	RotationsCompleted uint64
}

// NewRotationSubsystem builds a rotation precompute subsystem with its own
// `capacity` logical qubits, all immediately free.
func NewRotationSubsystem(freqKHz float64, codeDistance, capacity int, topLevelFactories []*produce.Producer, memoryHierarchy *storage.MemorySubsystem, watermark float64) *RotationSubsystem {
	r := &RotationSubsystem{
		Base:        NewBase("rotation_subsystem", freqKHz, codeDistance, capacity, topLevelFactories, memoryHierarchy, Config{}),
		watermark:   watermark,
		pending:     make(map[*instruction.Instruction]*assignment),
		freeQubits:  make([]types.QubitID, capacity),
		qubitsTotal: capacity,
	}
	for i := 0; i < capacity; i++ {
		q := types.QubitID(i)
		r.Base.LocalMemory.Insert(q)
		r.freeQubits[i] = q
	}
	return r
}

// CanAcceptRotationRequest reports whether a free logical qubit remains.
func (r *RotationSubsystem) CanAcceptRotationRequest() bool { return len(r.freeQubits) > 0 }

// SubmitRotationRequest allocates a free qubit to inst and begins eager
// execution. Returns false (no-op) if no qubit is free or inst is already
// pending.
func (r *RotationSubsystem) SubmitRotationRequest(inst *instruction.Instruction, critical bool) bool {
	if _, ok := r.pending[inst]; ok {
		return false
	}
	if len(r.freeQubits) == 0 {
		return false
	}
	q := r.freeQubits[len(r.freeQubits)-1]
	r.freeQubits = r.freeQubits[:len(r.freeQubits)-1]
	r.pending[inst] = &assignment{inst: inst, qubit: q, critical: critical}
	return true
}

// IsRotationPending reports whether inst has an active (possibly
// incomplete) assignment.
func (r *RotationSubsystem) IsRotationPending(inst *instruction.Instruction) bool {
	_, ok := r.pending[inst]
	return ok
}

// FindAndDeleteRotationIfDone reports whether inst has completed every uop
// and, if so, frees its qubit and removes the assignment so the caller can
// finish the original rotation with one teleport.
func (r *RotationSubsystem) FindAndDeleteRotationIfDone(inst *instruction.Instruction) bool {
	a, ok := r.pending[inst]
	if !ok || !inst.IsRetired() {
		return false
	}
	r.freeQubits = append(r.freeQubits, a.qubit)
	delete(r.pending, inst)
	r.RotationsCompleted++
	return true
}

// InvalidateRotation abandons a pending assignment, freeing its qubit
// without waiting for completion.
func (r *RotationSubsystem) InvalidateRotation(inst *instruction.Instruction) {
	a, ok := r.pending[inst]
	if !ok {
		return
	}
	r.freeQubits = append(r.freeQubits, a.qubit)
	delete(r.pending, inst)
}

// GetRotationProgress returns the number of uops retired so far for inst,
// or 0 if it has no assignment.
func (r *RotationSubsystem) GetRotationProgress(inst *instruction.Instruction) int {
	if _, ok := r.pending[inst]; !ok {
		return 0
	}
	return inst.UopsRetired()
}

// Operate advances every in-progress assignment whose qubit is ready,
// gated by the magic-state watermark (§4.11): a non-critical assignment
// may not consume a T-state that would drop the available count below
// watermark*initialCount.
func (r *RotationSubsystem) Operate() int64 {
	r.Base.AdvanceCycle()

	anyPending := false
	for _, a := range r.pending {
		if !a.inst.IsRetired() {
			anyPending = true
			break
		}
	}
	if !anyPending {
		return 1
	}

	initialCount := r.Base.CountAvailableMagicStates()
	floor := int(float64(initialCount) * r.watermark)
	if floor < 1 {
		floor = 1
	}
	r.watermarkFloor = floor

	var progress int64
	for _, a := range r.pending {
		if a.inst.IsRetired() || !r.Base.QubitReady(a.qubit) {
			continue
		}
		critical := a.critical
		pred := func(*instruction.Instruction, instruction.Kind) bool {
			return critical || r.Base.CountAvailableMagicStates() > r.watermarkFloor
		}
		result := r.Base.DoRotationGateWithTeleportation(a.inst, a.qubit, maxTeleportsPerRotation, pred, NoopCallback, NoopCallback)
		progress += result.Progress
	}
	return progress
}
