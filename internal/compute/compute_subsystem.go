package compute

import (
	"fmt"
	"io"

	"github.com/suhaskvittal/quicksilver-go/internal/dag"
	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/operable"
	"github.com/suhaskvittal/quicksilver-go/internal/produce"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/storage"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

var _ operable.Component = (*ComputeSubsystem)(nil)
var _ operable.Component = (*RotationSubsystem)(nil)

// rpcSearchDepth bounds how many DAG layers ahead the subsystem looks for
// a future rotation to submit to the rotation precompute subsystem.
const rpcSearchDepth = 8

// pendingMemoryOp is one memory access queued by a context switch, given
// priority over normal dispatch (§4.10).
type pendingMemoryOp struct {
	client *Client
	inst   *instruction.Instruction
}

// savedContext is a suspended client's resumable state (§4.10
// context_type): its active qubits and the cycle it was saved at.
type savedContext struct {
	activeQubits []types.QubitID
	cycleSaved   types.Cycle
}

// ExtendedConfig groups the rotation precompute and entanglement
// distillation wiring a ComputeSubsystem may optionally carry.
type ExtendedConfig struct {
	RPCEnabled     bool
	RPCFreqKHz     float64
	RPCCapacity    int
	RPCWatermark   float64
	EDUnits        [][]*produce.Producer
}

// ComputeSubsystem implements the multi-client scheduling loop over a
// shared Base (§4.10 COMPUTE_SUBSYSTEM): an active window of clients
// rotated for fairness, a FIFO of inactive clients, context switching
// between them, and an optional rotation precompute subsystem.
type ComputeSubsystem struct {
	*Base

	ConcurrentClients      int
	SimulationInstructions int64

	allClients      []*Client
	activeClients   []*Client
	inactiveClients []*Client
	lastUsedIdx     int

	contexts  map[types.ClientID]savedContext
	ctxBuffer []pendingMemoryOp

	rotation *RotationSubsystem
	edUnits  [][]*produce.Producer

	ContextSwitches     uint64
	TotalRotations      uint64
	SuccessfulRPC       uint64
	TotalRPC            uint64
	CyclesWithRPCStalls uint64

	CyclesWithoutProgress uint64

	StallMemory     uint64
	StallMagicState uint64
	StallRPC        uint64
	StallEPR        uint64
}

// NewComputeSubsystem builds a subsystem over clients, activating the
// first min(concurrentClients, len(clients)) and queueing the rest.
func NewComputeSubsystem(freqKHz float64, codeDistance, localMemoryCapacity, concurrentClients int, simulationInstructions int64, topLevelFactories []*produce.Producer, memoryHierarchy *storage.MemorySubsystem, clients []*Client, ext ExtendedConfig) *ComputeSubsystem {
	cs := &ComputeSubsystem{
		Base:                   NewBase("compute_subsystem", freqKHz, codeDistance, localMemoryCapacity, topLevelFactories, memoryHierarchy, Config{}),
		ConcurrentClients:      concurrentClients,
		SimulationInstructions: simulationInstructions,
		allClients:             clients,
		contexts:               make(map[types.ClientID]savedContext),
		edUnits:                ext.EDUnits,
	}
	if ext.RPCEnabled {
		cs.rotation = NewRotationSubsystem(ext.RPCFreqKHz, codeDistance, ext.RPCCapacity, topLevelFactories, memoryHierarchy, ext.RPCWatermark)
	}

	n := concurrentClients
	if n > len(clients) {
		n = len(clients)
	}
	cs.activeClients = append(cs.activeClients, clients[:n]...)
	cs.inactiveClients = append(cs.inactiveClients, clients[n:]...)
	return cs
}

// Clients returns every client known to the subsystem.
func (cs *ComputeSubsystem) Clients() []*Client { return cs.allClients }

// RotationSubsystem exposes the rotation precompute subsystem, or nil if
// disabled.
func (cs *ComputeSubsystem) RotationSubsystem() *RotationSubsystem { return cs.rotation }

// IsRPCEnabled reports whether a rotation precompute subsystem is wired in.
func (cs *ComputeSubsystem) IsRPCEnabled() bool { return cs.rotation != nil }

// IsEDInUse reports whether any entanglement distillation units are wired
// in.
func (cs *ComputeSubsystem) IsEDInUse() bool { return len(cs.edUnits) > 0 }

// Done reports whether every client has retired its instruction budget.
func (cs *ComputeSubsystem) Done() bool {
	for _, c := range cs.allClients {
		if !c.Done() {
			return false
		}
	}
	return true
}

func (cs *ComputeSubsystem) DumpDeadlockInfo(w io.Writer) {
	fmt.Fprintf(w, "%s: %d active clients, %d inactive, %d buffered ctx-switch ops\n", cs.Name(), len(cs.activeClients), len(cs.inactiveClients), len(cs.ctxBuffer))
	for _, c := range cs.activeClients {
		fmt.Fprintf(w, "  client %d: %d/%d retired, dag len %d\n", c.ID, c.RetiredUnrolled, c.InstructionLimit, c.dag.Len())
	}
}

// Operate runs one cycle: drains the context-switch buffer, then refills
// each active client's DAG and fetches and executes from it starting at a
// rotating index, swaps out clients that have finished, then advances the
// rotation subsystem if present.
func (cs *ComputeSubsystem) Operate() int64 {
	cs.Base.AdvanceCycle()

	var progress int64
	progress += cs.drainContextSwitchBuffer()

	if len(cs.activeClients) > 0 {
		start := cs.lastUsedIdx % len(cs.activeClients)
		for i := 0; i < len(cs.activeClients); i++ {
			idx := (start + i) % len(cs.activeClients)
			c := cs.activeClients[idx]
			if err := c.Refill(); err != nil {
				simerr.Fatalf("compute.ComputeSubsystem.Operate", simerr.CodeMalformedTrace, "client %d: %v", c.ID, err)
			}
			progress += cs.fetchAndExecute(c)
		}
		cs.lastUsedIdx = (start + 1) % len(cs.activeClients)
	}

	cs.handleCompletedClients()

	if cs.rotation != nil {
		progress += cs.rotation.Operate()
	}

	if progress == 0 {
		cs.CyclesWithoutProgress++
	} else {
		cs.CyclesWithoutProgress = 0
	}
	return progress
}

func (cs *ComputeSubsystem) drainContextSwitchBuffer() int64 {
	var progress int64
	remaining := cs.ctxBuffer[:0]
	for _, op := range cs.ctxBuffer {
		operands := op.inst.Operands()
		result := cs.Base.ExecuteInstruction(op.inst, operands)
		if result.Progress > 0 {
			progress += result.Progress
			continue
		}
		remaining = append(remaining, op)
	}
	cs.ctxBuffer = remaining
	return progress
}

// fetchAndExecute drives one client's front layer until a cycle produces no
// further progress (§4.10 fetch_and_execute_instructions_from_client).
func (cs *ComputeSubsystem) fetchAndExecute(c *Client) int64 {
	var total int64
	for {
		ready := c.dag.GetFrontLayerIf(func(inst *instruction.Instruction) bool {
			return cs.operandsReady(c, inst)
		})
		if len(ready) == 0 {
			return total
		}

		progressedThisPass := false
		for _, inst := range ready {
			if inst.FirstReady == types.MaxCycle {
				inst.FirstReady = cs.Base.CurrentCycle()
			}
			cs.maybeSubmitFutureRotation(c, inst)

			operands := cs.translateOperands(c, inst)
			result := cs.executeFront(c, inst, operands)
			if result.Progress == 0 {
				continue
			}
			progressedThisPass = true
			total += result.Progress

			if inst.IsRetired() {
				cs.retireInstruction(c, inst)
			}
		}
		if !progressedThisPass {
			return total
		}
	}
}

// operandsReady reports whether every non-memory operand of inst is both
// resident in local memory (for this client's translated ids) and ready
// (§4.10: "require that non-memory operands be present in local memory").
func (cs *ComputeSubsystem) operandsReady(c *Client, inst *instruction.Instruction) bool {
	if instruction.IsMemoryAccess(inst.Kind) {
		return true
	}
	for _, q := range inst.Operands() {
		g := c.globalQubit(q)
		if _, resident := c.ActiveQubits[g]; !resident {
			return false
		}
		if !cs.Base.QubitReady(g) {
			return false
		}
	}
	return true
}

func (cs *ComputeSubsystem) translateOperands(c *Client, inst *instruction.Instruction) []types.QubitID {
	ops := inst.Operands()
	out := make([]types.QubitID, len(ops))
	for i, q := range ops {
		out[i] = c.globalQubit(q)
	}
	return out
}

// executeFront runs inst's current uop (or its sole body, for a zero-uop
// kind) and updates this client's local-memory bookkeeping on success.
func (cs *ComputeSubsystem) executeFront(c *Client, inst *instruction.Instruction, operands []types.QubitID) ExecuteResult {
	var result ExecuteResult
	if inst.UopCount() > 0 {
		result = cs.Base.DoRotationGateWithTeleportation(inst, operands[0], maxTeleportsPerRotation, AlwaysAdvance, NoopCallback, NoopCallback)
		if result.Progress > 0 {
			cs.TotalRotations++
		}
	} else {
		result = cs.Base.ExecuteInstruction(inst, operands)
	}
	if result.Progress == 0 {
		cs.recordStall(inst)
		return result
	}
	if inst.UopCount() == 0 && inst.CycleDone == types.MaxCycle {
		inst.CycleDone = cs.Base.CurrentCycle()
	}

	switch inst.Kind {
	case instruction.LOAD:
		c.ActiveQubits[operands[0]] = struct{}{}
	case instruction.STORE:
		delete(c.ActiveQubits, operands[0])
	case instruction.COUPLED:
		c.ActiveQubits[operands[0]] = struct{}{}
		delete(c.ActiveQubits, operands[1])
	}
	return result
}

func (cs *ComputeSubsystem) recordStall(inst *instruction.Instruction) {
	switch {
	case instruction.IsMemoryAccess(inst.Kind):
		cs.StallMemory++
	case instruction.IsTLike(inst.Kind):
		cs.StallMagicState++
	default:
	}
}

func (cs *ComputeSubsystem) retireInstruction(c *Client, inst *instruction.Instruction) {
	c.RetiredUnrolled += int64(inst.UnrolledInstCount())
	h := c.dag.HandleOfFrontLayerInstruction(inst)
	if h != dag.NoNode {
		c.dag.RemoveInstructionFromFrontLayer(h)
	}
}

// maybeSubmitFutureRotation searches inst's dependents for the nearest
// not-yet-submitted rotation and, if the rotation precompute subsystem has
// room, submits it for eager background execution (§4.11's headline
// mechanism).
func (cs *ComputeSubsystem) maybeSubmitFutureRotation(c *Client, inst *instruction.Instruction) {
	if cs.rotation == nil || !cs.rotation.CanAcceptRotationRequest() {
		return
	}
	root := c.dag.HandleOfFrontLayerInstruction(inst)
	if root == dag.NoNode {
		return
	}
	future, _ := dag.FindEarliestDependentSuchThat(root, c.dag, func(cand *instruction.Instruction) bool {
		return instruction.IsRotation(cand.Kind) && !cs.rotation.IsRotationPending(cand)
	}, 1, rpcSearchDepth)
	if future == nil {
		return
	}
	cs.TotalRPC++
	if cs.rotation.SubmitRotationRequest(future, false) {
		cs.SuccessfulRPC++
	}
}

// handleCompletedClients swaps a waiting inactive client in for any active
// client that has retired its full instruction budget (§4.10 "client
// completion").
func (cs *ComputeSubsystem) handleCompletedClients() {
	remaining := cs.activeClients[:0]
	for _, c := range cs.activeClients {
		if !c.Done() {
			remaining = append(remaining, c)
			continue
		}
		if len(cs.inactiveClients) > 0 {
			incoming := cs.inactiveClients[0]
			cs.inactiveClients = cs.inactiveClients[1:]
			cs.doContextSwitch(incoming, c)
			remaining = append(remaining, incoming)
		}
	}
	cs.activeClients = remaining
}

// doContextSwitch pairs outgoing's currently-resident qubits with
// incoming's previously-saved ones and queues one memory operation per
// pair into the priority buffer (§4.10).
func (cs *ComputeSubsystem) doContextSwitch(incoming, outgoing *Client) {
	outgoingQubits := make([]types.QubitID, 0, len(outgoing.ActiveQubits))
	for q := range outgoing.ActiveQubits {
		outgoingQubits = append(outgoingQubits, q)
	}
	saved, hadContext := cs.contexts[incoming.ID]
	var incomingQubits []types.QubitID
	if hadContext {
		incomingQubits = saved.activeQubits
	}

	n := len(outgoingQubits)
	if len(incomingQubits) > n {
		n = len(incomingQubits)
	}
	for i := 0; i < n; i++ {
		switch {
		case i < len(outgoingQubits) && i < len(incomingQubits):
			cs.ctxBuffer = append(cs.ctxBuffer, pendingMemoryOp{client: incoming, inst: instruction.New(instruction.COUPLED, incomingQubits[i], outgoingQubits[i])})
		case i < len(outgoingQubits):
			cs.ctxBuffer = append(cs.ctxBuffer, pendingMemoryOp{client: outgoing, inst: instruction.New(instruction.STORE, outgoingQubits[i])})
		default:
			cs.ctxBuffer = append(cs.ctxBuffer, pendingMemoryOp{client: incoming, inst: instruction.New(instruction.LOAD, incomingQubits[i])})
		}
	}

	incoming.ActiveQubits = make(map[types.QubitID]struct{}, len(incomingQubits))
	for _, q := range incomingQubits {
		incoming.ActiveQubits[q] = struct{}{}
	}
	cs.contexts[outgoing.ID] = savedContext{activeQubits: outgoingQubits, cycleSaved: cs.Base.CurrentCycle()}
	outgoing.ActiveQubits = make(map[types.QubitID]struct{})
	cs.ContextSwitches++
}

// SkipToCycle reports the earliest cycle at which the memory hierarchy can
// next serve a load for a front-layer memory access of any active client
// (§4.10: fast-forwarding past a long uniform stall). It reports false
// unless every top-level factory buffer is full, the rotation subsystem is
// idle, and every front-layer instruction of every active client is a
// memory access; the readiness of non-memory operands is not considered.
func (cs *ComputeSubsystem) SkipToCycle() (types.Cycle, bool) {
	for _, f := range cs.Base.TopLevelFactories {
		if f.BufferOccupancy() < f.BufferCapacity {
			return 0, false
		}
	}
	if cs.rotation != nil {
		for _, a := range cs.rotation.pending {
			if !a.inst.IsRetired() {
				return 0, false
			}
		}
	}

	earliest := types.MaxCycle
	found := false
	for _, c := range cs.activeClients {
		for _, inst := range c.dag.GetFrontLayer() {
			if !instruction.IsMemoryAccess(inst.Kind) {
				return 0, false
			}
			q := c.globalQubit(inst.Operands()[0])
			ready := cs.Base.MemoryHierarchy.GetNextReadyCycleForLoad(q, cs.Base.FreqKHz())
			if !found || ready < earliest {
				earliest, found = ready, true
			}
		}
	}
	if !found {
		return 0, false
	}
	return earliest, true
}
