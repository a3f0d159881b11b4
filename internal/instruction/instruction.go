package instruction

import (
	"fmt"
	"strings"

	"github.com/suhaskvittal/quicksilver-go/internal/fixedpoint"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// MaxQubits is the width of the fixed operand tuple (§3: "length 1-3").
const MaxQubits = 3

// AnglePrecisionBits is the fixed-point width used for RX/RZ angles
// (FPA_PRECISION in the original).
const AnglePrecisionBits = 512

// Instruction is one compiled program instruction. The Kind/Qubits/Angle/
// RotSeq fields are conceptually immutable once constructed; Number,
// FirstReady, CycleDone, the uop cursor, and Corrections are owned and
// mutated by the simulator (§3).
type Instruction struct {
	Kind   Kind
	Qubits [MaxQubits]types.QubitID

	// Angle and RotSeq are populated only for RX/RZ.
	Angle  fixedpoint.Value
	RotSeq []Kind

	// Number is assigned on fetch; -1 until then.
	Number int64
	// FirstReady is the cycle this instruction's operands first became
	// available; MaxCycle until stamped.
	FirstReady types.Cycle
	// CycleDone is the cycle retirement completed; MaxCycle until done.
	CycleDone types.Cycle

	uopCursor int
	// Corrections is a queue of correction gate sequences, consumed when a
	// rotation precomputation is found but mismatches (§3, §4.11).
	Corrections [][]Kind
}

// New constructs an Instruction for a non-rotation Kind from a qubit list
// (at most MaxQubits entries; trailing zero-valued slots are fine since
// QubitCount(kind) determines the true arity).
func New(kind Kind, qubits ...types.QubitID) *Instruction {
	if IsRotation(kind) {
		simerr.Fatal("instruction.New", simerr.CodePrecondition, "rotation kinds require NewRotation")
	}
	inst := &Instruction{Kind: kind, Number: -1, FirstReady: types.MaxCycle, CycleDone: types.MaxCycle}
	copy(inst.Qubits[:], qubits)
	return inst
}

// NewRotation constructs an RX/RZ instruction carrying its angle and
// unrolled Clifford+T sequence.
func NewRotation(kind Kind, qubit types.QubitID, angle fixedpoint.Value, rotSeq []Kind) *Instruction {
	if !IsRotation(kind) {
		simerr.Fatal("instruction.NewRotation", simerr.CodePrecondition, "NewRotation requires RX or RZ")
	}
	inst := &Instruction{
		Kind:       kind,
		Angle:      angle,
		RotSeq:     append([]Kind(nil), rotSeq...),
		Number:     -1,
		FirstReady: types.MaxCycle,
		CycleDone:  types.MaxCycle,
	}
	inst.Qubits[0] = qubit
	return inst
}

// QubitCount returns this instruction's true operand arity.
func (i *Instruction) QubitCount() int { return QubitCount(i.Kind) }

// Operands returns the valid operand slice (length QubitCount()).
func (i *Instruction) Operands() []types.QubitID {
	return i.Qubits[:i.QubitCount()]
}

// toffoliDecomposition returns the fixed Clifford+T decomposition used to
// expand a CCX/CCZ into uops (§3 "a CCX/CCZ expands to a fixed 13- or
// 15-gate decomposition"). Each entry names the basis Kind executed as that
// uop; operand routing for the decomposition is the compute subsystem's
// concern (§4.10), not this table's.
var toffoliDecomposition = []Kind{
	H, CX, TDG, CX, T, CX, TDG, CX, T, T, H, CX, CX,
}

// czDecomposition is CCZ's 15-gate decomposition: the same Toffoli ladder
// without the basis-changing Hadamards, plus four trailing T/TDG phase
// corrections.
var czDecomposition = []Kind{
	CX, TDG, CX, T, CX, TDG, CX, T, T, CX, CX, T, TDG, T, TDG,
}

// uopCount returns the number of uops for this instruction's Kind (§3).
func (i *Instruction) uopCount() int {
	switch {
	case IsRotation(i.Kind):
		return len(i.RotSeq)
	case i.Kind == CCX:
		return len(toffoliDecomposition)
	case i.Kind == CCZ:
		return len(czDecomposition)
	default:
		return 0
	}
}

// UopCount is the exported form of uopCount.
func (i *Instruction) UopCount() int { return i.uopCount() }

// UnrolledInstCount returns max(1, UopCount()) (§3).
func (i *Instruction) UnrolledInstCount() int {
	if n := i.uopCount(); n > 0 {
		return n
	}
	return 1
}

// UopsRetired returns the number of uops retired so far.
func (i *Instruction) UopsRetired() int { return i.uopCursor }

// CurrentUop returns the Kind of the uop at the cursor, or NIL if the
// instruction carries no uops or all have retired.
func (i *Instruction) CurrentUop() Kind {
	n := i.uopCount()
	if n == 0 || i.uopCursor >= n {
		return NIL
	}
	switch {
	case IsRotation(i.Kind):
		return i.RotSeq[i.uopCursor]
	case i.Kind == CCX:
		return toffoliDecomposition[i.uopCursor]
	case i.Kind == CCZ:
		return czDecomposition[i.uopCursor]
	default:
		return NIL
	}
}

// RetireCurrentUop advances the cursor and reports whether every uop has
// now retired (invariant: retired iff cursor == uop count, §3).
func (i *Instruction) RetireCurrentUop() bool {
	n := i.uopCount()
	if i.uopCursor >= n {
		simerr.Fatal("instruction.RetireCurrentUop", simerr.CodePrecondition, "no uop pending")
	}
	i.uopCursor++
	return i.uopCursor == n
}

// IsRetired reports whether every uop (or the sole atomic execution, for a
// zero-uop instruction once dispatched) has completed.
func (i *Instruction) IsRetired() bool {
	n := i.uopCount()
	if n == 0 {
		return i.CycleDone != types.MaxCycle
	}
	return i.uopCursor == n
}

func (i *Instruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", i.Kind)
	for _, q := range i.Operands() {
		fmt.Fprintf(&b, " q%d", q)
	}
	if IsRotation(i.Kind) {
		fmt.Fprintf(&b, " angle=%s urotseq_len=%d", i.Angle.HexString()[:8], len(i.RotSeq))
	}
	return b.String()
}
