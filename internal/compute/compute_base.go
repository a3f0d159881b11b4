// Package compute implements the compute base and subsystem (§4.10): gate
// execution against local memory and top-level magic-state factories, the
// multi-client scheduling loop, and the rotation precompute subsystem
// (§4.11).
package compute

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/produce"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/storage"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// ExecuteResult is the outcome of one instruction or uop execution (§4.10).
type ExecuteResult struct {
	Progress int64
	Latency  types.Cycle
}

// Config holds the per-subsystem knobs the original exposes as process-wide
// globals (GL_ZERO_LATENCY_T_GATES, GL_T_GATE_DO_AUTOCORRECT).
type Config struct {
	ZeroLatencyTGates bool
	TGateAutocorrect  bool
}

// RotationPred decides whether a rotation/Toffoli uop chain may advance
// this cycle; RotationCallback is invoked once per iteration/retirement.
type RotationPred func(inst *instruction.Instruction, uop instruction.Kind) bool
type RotationCallback func(inst *instruction.Instruction, uop instruction.Kind)

// AlwaysAdvance is the trivial predicate used by the main compute path,
// which places no magic-state headroom restriction on its own execution
// (only the rotation precompute subsystem gates on headroom, §4.11).
func AlwaysAdvance(*instruction.Instruction, instruction.Kind) bool { return true }

// NoopCallback does nothing; used where a caller has no per-uop hook.
func NoopCallback(*instruction.Instruction, instruction.Kind) {}

// Base is one compute unit's resources and execution semantics
// (COMPUTE_BASE): its local memory, the top-level factories it draws magic
// states from, and its link to the shared memory hierarchy.
type Base struct {
	name    string
	freqKHz float64

	CodeDistance int

	LocalMemory       *storage.Storage
	TopLevelFactories []*produce.Producer
	MemoryHierarchy   *storage.MemorySubsystem

	cfg Config

	currentCycle types.Cycle
	qubitReadyAt map[types.QubitID]types.Cycle

	TGates                uint64
	TGateTeleports        uint64
	TGateTeleportEpisodes uint64
}

// NewBase constructs a Base with a local-memory storage of the given
// capacity (infinite adapters, zero load/store latency: local-memory
// residency is tracked purely through per-qubit cycle_available, matching
// the original's COMPUTE_BASE constructor comment).
func NewBase(name string, freqKHz float64, codeDistance, localMemoryCapacity int, topLevelFactories []*produce.Producer, memoryHierarchy *storage.MemorySubsystem, cfg Config) *Base {
	return &Base{
		name:              name,
		freqKHz:           freqKHz,
		CodeDistance:      codeDistance,
		LocalMemory:       storage.New(name+".local", freqKHz, 0, localMemoryCapacity, 0, 0, 0, localMemoryCapacity),
		TopLevelFactories: topLevelFactories,
		MemoryHierarchy:   memoryHierarchy,
		cfg:               cfg,
		qubitReadyAt:      make(map[types.QubitID]types.Cycle),
	}
}

func (b *Base) Name() string              { return b.name }
func (b *Base) FreqKHz() float64          { return b.freqKHz }
func (b *Base) CurrentCycle() types.Cycle { return b.currentCycle }

func (b *Base) DumpDeadlockInfo(w io.Writer) {
	fmt.Fprintf(w, "%s: local memory %d/%d, %d top-level factories\n", b.name, b.LocalMemory.Len(), b.LocalMemory.LogicalQubitCount, len(b.TopLevelFactories))
}

// AdvanceCycle moves this base's own logical clock forward by one; called
// once per tick by whichever concrete Operable embeds this Base.
func (b *Base) AdvanceCycle() { b.currentCycle++ }

// QubitReady reports whether q's last-scheduled operation has completed.
func (b *Base) QubitReady(q types.QubitID) bool {
	return b.qubitReadyAt[q] <= b.currentCycle
}

func (b *Base) advanceQubits(until types.Cycle, qubits ...types.QubitID) {
	for _, q := range qubits {
		if cur := b.qubitReadyAt[q]; until > cur {
			b.qubitReadyAt[q] = until
		}
	}
}

// CountAvailableMagicStates sums buffer occupancy across every top-level
// factory.
func (b *Base) CountAvailableMagicStates() int {
	n := 0
	for _, f := range b.TopLevelFactories {
		n += f.BufferOccupancy()
	}
	return n
}

// ExecuteInstruction dispatches a top-level (non-uop) instruction on kind
// (§4.10). Rotation/Toffoli-like instructions with uops are driven through
// DoRotationGateWithTeleportation instead, uop by uop.
func (b *Base) ExecuteInstruction(inst *instruction.Instruction, operands []types.QubitID) ExecuteResult {
	return b.executeKind(inst.Kind, operands)
}

func (b *Base) executeKind(kind instruction.Kind, operands []types.QubitID) ExecuteResult {
	if instruction.IsSoftware(kind) {
		return ExecuteResult{Progress: 1}
	}
	switch kind {
	case instruction.H, instruction.S, instruction.SX, instruction.SDG, instruction.SXDG:
		return b.doHOrSGate(operands[0])
	case instruction.CX, instruction.CZ:
		return b.doCXLikeGate(operands[0], operands[1])
	case instruction.T, instruction.TX, instruction.TDG, instruction.TXDG:
		return b.doTLikeGate(operands[0])
	case instruction.LOAD:
		return b.doLoadFromHierarchy(operands[0])
	case instruction.STORE:
		return b.doStoreToHierarchy(operands[0])
	case instruction.COUPLED:
		return b.doCoupledMemoryAccess(operands[0], operands[1])
	default:
		simerr.Fatalf("compute.Base.executeKind", simerr.CodePrecondition, "%s: unhandled kind %s", b.name, kind)
		return ExecuteResult{}
	}
}

func (b *Base) doHOrSGate(q types.QubitID) ExecuteResult {
	b.advanceQubits(b.currentCycle+2, q)
	return ExecuteResult{Progress: 1, Latency: 2}
}

func (b *Base) doCXLikeGate(q1, q2 types.QubitID) ExecuteResult {
	b.advanceQubits(b.currentCycle+2, q1, q2)
	return ExecuteResult{Progress: 1, Latency: 2}
}

func (b *Base) doTLikeGate(q types.QubitID) ExecuteResult {
	var f *produce.Producer
	for _, cand := range b.TopLevelFactories {
		if cand.BufferOccupancy() > 0 {
			f = cand
			break
		}
	}
	if f == nil {
		return ExecuteResult{}
	}
	f.Consume(1)

	var latency types.Cycle
	switch {
	case b.cfg.ZeroLatencyTGates:
		latency = 0
	case rand.Intn(2) == 1:
		latency = 4
	default:
		latency = 2
	}
	b.advanceQubits(b.currentCycle+latency, q)
	b.TGates++
	return ExecuteResult{Progress: 1, Latency: latency}
}

// doLoadFromHierarchy brings q into local memory without evicting anything
// (§4.10 "memory ops delegate to the memory subsystem").
func (b *Base) doLoadFromHierarchy(q types.QubitID) ExecuteResult {
	res := b.MemoryHierarchy.DoLoad(q, b.currentCycle, b.freqKHz)
	if !res.Success {
		return ExecuteResult{}
	}
	if local := b.LocalMemory.DoStore(q); !local.Success {
		simerr.Fatalf("compute.Base.doLoadFromHierarchy", simerr.CodePrecondition, "%s: local memory has no room for qubit %d", b.name, q)
	}
	latency := res.Latency + 2
	b.advanceQubits(b.currentCycle+latency, q)
	return ExecuteResult{Progress: 1, Latency: latency}
}

// doStoreToHierarchy evicts q from local memory back into the hierarchy.
func (b *Base) doStoreToHierarchy(q types.QubitID) ExecuteResult {
	local := b.LocalMemory.DoLoad(q)
	if !local.Success {
		return ExecuteResult{}
	}
	res := b.MemoryHierarchy.DoStore(q, b.currentCycle, b.freqKHz)
	if !res.Success {
		simerr.Fatalf("compute.Base.doStoreToHierarchy", simerr.CodePrecondition, "%s: hierarchy rejected store of qubit %d", b.name, q)
	}
	latency := res.Latency + 2
	b.advanceQubits(b.currentCycle+latency, q)
	return ExecuteResult{Progress: 1, Latency: latency}
}

// doCoupledMemoryAccess atomically swaps incoming in for victim: incoming
// moves hierarchy->local, victim moves local->hierarchy (§4.10 MSWAP).
func (b *Base) doCoupledMemoryAccess(incoming, victim types.QubitID) ExecuteResult {
	res := b.MemoryHierarchy.DoCoupledLoadStore(incoming, victim, b.currentCycle, b.freqKHz)
	if !res.Success {
		return ExecuteResult{}
	}
	if local := b.LocalMemory.DoCoupledLoadStore(victim, incoming); !local.Success {
		simerr.Fatalf("compute.Base.doCoupledMemoryAccess", simerr.CodePrecondition, "%s: local memory swap failed for qubits %d/%d", b.name, incoming, victim)
	}
	latency := res.Latency + 2
	b.advanceQubits(b.currentCycle+latency, incoming, victim)
	return ExecuteResult{Progress: 1, Latency: latency}
}

// DoRotationGateWithTeleportation repeatedly retires uops of a rotation or
// Toffoli-like instruction while pred holds, budget permits, and execution
// keeps succeeding (§4.10). iterCB runs before each uop attempt, retireCB
// after each successfully executed uop.
func (b *Base) DoRotationGateWithTeleportation(inst *instruction.Instruction, q types.QubitID, maxTeleports int, pred RotationPred, iterCB, retireCB RotationCallback) ExecuteResult {
	if !pred(inst, inst.CurrentUop()) {
		return ExecuteResult{}
	}
	iterCB(inst, inst.CurrentUop())

	out := b.executeKind(inst.CurrentUop(), []types.QubitID{q})
	if out.Progress == 0 {
		return out
	}
	retireCB(inst, inst.CurrentUop())
	if inst.RetireCurrentUop() {
		return out
	}

	anyTeleports := false
	tpRemaining := maxTeleports
	for tpRemaining > 0 && pred(inst, inst.CurrentUop()) {
		uop := inst.CurrentUop()
		iterCB(inst, uop)

		result := b.executeKind(uop, []types.QubitID{q})
		if result.Progress == 0 {
			break
		}
		if instruction.IsTLike(uop) {
			tpRemaining--
			b.TGateTeleports++
			if !b.cfg.TGateAutocorrect && rand.Intn(4) != 0 {
				result.Latency += 2 * types.Cycle(b.CodeDistance)
			}
			anyTeleports = true
		}
		out.Progress += result.Progress
		retireCB(inst, uop)
		if inst.RetireCurrentUop() {
			break
		}
	}

	if anyTeleports {
		b.TGateTeleportEpisodes++
		if b.cfg.TGateAutocorrect {
			out.Latency += 2 * types.Cycle(b.CodeDistance)
		}
	}
	if b.cfg.ZeroLatencyTGates {
		out.Latency = 0
	}
	return out
}
