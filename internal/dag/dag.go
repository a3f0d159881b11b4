// Package dag implements the per-client dependency graph (§4.3): an
// arena-addressed DAG of instruction nodes, front-layer tracking, and
// layer-bounded traversal queries. Ownership follows spec.md §9's
// indexed-arena model rather than a pointer graph: nodes live in a
// slice-backed arena and are addressed by an integer NodeHandle; dependent
// lists and back pointers are handles, not pointers.
package dag

import (
	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// NodeHandle addresses a node within a DAG's arena. The zero value is never
// a valid handle (arena index 0 is reserved as a sentinel).
type NodeHandle int32

// NoNode is the null handle.
const NoNode NodeHandle = 0

type node struct {
	inst      *instruction.Instruction
	dependent []NodeHandle
	predCount int
	// free marks a recycled arena slot.
	free bool
}

// DAG is one client's dependency graph, scoped to a qubit-count bound
// validated on AddInstruction.
type DAG struct {
	qubitCount types.QubitID

	arena    []node // arena[0] is the unused sentinel slot.
	freeList []NodeHandle

	frontLayer map[NodeHandle]struct{}
	backPtr    []NodeHandle // indexed by QubitID; NoNode if none.
}

// New constructs an empty DAG scoped to qubitCount qubits.
func New(qubitCount types.QubitID) *DAG {
	d := &DAG{
		qubitCount: qubitCount,
		arena:      make([]node, 1), // reserve index 0 as NoNode.
		frontLayer: make(map[NodeHandle]struct{}),
		backPtr:    make([]NodeHandle, qubitCount),
	}
	return d
}

// Len returns the number of live instructions currently in the DAG.
func (d *DAG) Len() int {
	n := 0
	for i := 1; i < len(d.arena); i++ {
		if !d.arena[i].free {
			n++
		}
	}
	return n
}

func (d *DAG) alloc(inst *instruction.Instruction) NodeHandle {
	if len(d.freeList) > 0 {
		h := d.freeList[len(d.freeList)-1]
		d.freeList = d.freeList[:len(d.freeList)-1]
		d.arena[h] = node{inst: inst}
		return h
	}
	d.arena = append(d.arena, node{inst: inst})
	return NodeHandle(len(d.arena) - 1)
}

func (d *DAG) at(h NodeHandle) *node {
	if h == NoNode || int(h) >= len(d.arena) || d.arena[h].free {
		simerr.Fatal("dag.at", simerr.CodePrecondition, "invalid node handle")
	}
	return &d.arena[h]
}

// AddInstruction links inst's per-qubit back pointers and inserts it into
// the front layer if it has no predecessors (§4.3). Fatal if any operand is
// out of range.
func (d *DAG) AddInstruction(inst *instruction.Instruction) NodeHandle {
	h := d.alloc(inst)
	n := &d.arena[h]

	seen := make(map[types.QubitID]struct{}, inst.QubitCount())
	for _, q := range inst.Operands() {
		if q < 0 || q >= d.qubitCount {
			simerr.Fatalf("dag.AddInstruction", simerr.CodePrecondition, "qubit %d out of range [0,%d)", q, d.qubitCount)
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}

		if pred := d.backPtr[q]; pred != NoNode {
			predNode := d.at(pred)
			predNode.dependent = append(predNode.dependent, h)
			n.predCount++
		}
		d.backPtr[q] = h
	}

	if n.predCount == 0 {
		d.frontLayer[h] = struct{}{}
	}
	return h
}

// RemoveInstructionFromFrontLayer retires a front-layer node: dependents'
// predecessor counts are decremented and promoted to the front layer on
// reaching zero; any back pointer still referencing this node is cleared;
// the node and its instruction are freed. Fatal if h is not in the front
// layer (§4.3).
func (d *DAG) RemoveInstructionFromFrontLayer(h NodeHandle) {
	if _, ok := d.frontLayer[h]; !ok {
		simerr.Fatal("dag.RemoveInstructionFromFrontLayer", simerr.CodePrecondition, "node not in front layer")
	}
	n := d.at(h)
	for _, dep := range n.dependent {
		depNode := d.at(dep)
		depNode.predCount--
		if depNode.predCount == 0 {
			d.frontLayer[dep] = struct{}{}
		}
	}
	for q, ptr := range d.backPtr {
		if ptr == h {
			d.backPtr[q] = NoNode
		}
	}
	delete(d.frontLayer, h)
	d.arena[h] = node{free: true}
	d.freeList = append(d.freeList, h)
}

// GetFrontLayer returns every front-layer instruction in unspecified order.
func (d *DAG) GetFrontLayer() []*instruction.Instruction {
	out := make([]*instruction.Instruction, 0, len(d.frontLayer))
	for h := range d.frontLayer {
		out = append(out, d.arena[h].inst)
	}
	return out
}

// GetFrontLayerIf returns front-layer instructions satisfying pred.
func (d *DAG) GetFrontLayerIf(pred func(*instruction.Instruction) bool) []*instruction.Instruction {
	out := make([]*instruction.Instruction, 0)
	for h := range d.frontLayer {
		if inst := d.arena[h].inst; pred(inst) {
			out = append(out, inst)
		}
	}
	return out
}

// HandleOfFrontLayerInstruction finds the handle backing a currently
// front-layer instruction, for callers (e.g. the scheduler) that queried
// instructions via GetFrontLayerIf and now need to retire one.
func (d *DAG) HandleOfFrontLayerInstruction(inst *instruction.Instruction) NodeHandle {
	for h := range d.frontLayer {
		if d.arena[h].inst == inst {
			return h
		}
	}
	return NoNode
}

// ForEachInstructionInLayerOrder walks the DAG breadth-first from the
// front layer, invoking cb on each instruction, stopping after maxLayer
// layers (0 means front layer only).
func (d *DAG) ForEachInstructionInLayerOrder(cb func(*instruction.Instruction), maxLayer int) {
	layer := make([]NodeHandle, 0, len(d.frontLayer))
	for h := range d.frontLayer {
		layer = append(layer, h)
	}
	visited := make(map[NodeHandle]struct{})

	for l := 0; len(layer) > 0 && l <= maxLayer; l++ {
		next := make([]NodeHandle, 0)
		for _, h := range layer {
			if _, ok := visited[h]; ok {
				continue
			}
			visited[h] = struct{}{}
			cb(d.arena[h].inst)
			next = append(next, d.arena[h].dependent...)
		}
		layer = next
	}
}

// LayersFrom returns up to maxLayer+1 BFS layers of instructions starting
// at the front layer (layer 0), for policies that weight near-future
// demand by layer depth (§4.5 HINT).
func (d *DAG) LayersFrom(maxLayer int) [][]*instruction.Instruction {
	layer := make([]NodeHandle, 0, len(d.frontLayer))
	for h := range d.frontLayer {
		layer = append(layer, h)
	}
	visited := make(map[NodeHandle]struct{})

	var layers [][]*instruction.Instruction
	for l := 0; len(layer) > 0 && l <= maxLayer; l++ {
		insts := make([]*instruction.Instruction, 0, len(layer))
		next := make([]NodeHandle, 0)
		for _, h := range layer {
			if _, ok := visited[h]; ok {
				continue
			}
			visited[h] = struct{}{}
			insts = append(insts, d.arena[h].inst)
			next = append(next, d.arena[h].dependent...)
		}
		layers = append(layers, insts)
		layer = next
	}
	return layers
}

// FindEarliestDependentSuchThat performs a BFS restricted to root's
// transitive dependents between startLayer and endLayer (root itself is
// layer 0), returning the first instruction in layer order satisfying pred
// and the layer it was found at. Returns (nil, -1) if none match.
func FindEarliestDependentSuchThat(root NodeHandle, d *DAG, pred func(*instruction.Instruction) bool, startLayer, endLayer int) (*instruction.Instruction, int) {
	layer := []NodeHandle{root}
	visited := map[NodeHandle]struct{}{root: {}}

	for l := 0; len(layer) > 0 && l <= endLayer; l++ {
		next := make([]NodeHandle, 0)
		for _, h := range layer {
			n := d.at(h)
			if l >= startLayer && pred(n.inst) {
				return n.inst, l
			}
			for _, dep := range n.dependent {
				if _, seen := visited[dep]; !seen {
					visited[dep] = struct{}{}
					next = append(next, dep)
				}
			}
		}
		layer = next
	}
	return nil, -1
}
