// Package instruction implements the immutable instruction record (§3,
// §4.2): its kind enumeration, qubit operands, uop iteration semantics, and
// binary (de)serialization.
package instruction

import "github.com/suhaskvittal/quicksilver-go/internal/simerr"

// Kind enumerates the basis operations. Values are the exact on-wire
// opcodes (§4.2 "2 bytes: opcode... zero-based"); the ordering follows the
// original's BASIS_GATES table with the memory-op kinds named by spec.md §3
// (LOAD/STORE/COUPLED/PREFETCH) appended before the NIL sentinel.
type Kind uint16

const (
	H Kind = iota
	X
	Y
	Z
	S
	SX
	SDG
	SXDG
	T
	TX
	TDG
	TXDG
	CX
	CZ
	SWAP
	RX
	RZ
	CCX
	CCZ
	MZ
	MX
	LOAD
	STORE
	COUPLED
	PREFETCH
	NIL
)

var kindNames = [...]string{
	"h", "x", "y", "z",
	"s", "sx", "sdg", "sxdg",
	"t", "tx", "tdg", "txdg",
	"cx", "cz", "swap",
	"rx", "rz",
	"ccx", "ccz",
	"mz", "mx",
	"load", "store", "coupled", "prefetch",
	"nil",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// QubitCount returns the true operand arity for a Kind; trailing operand
// slots beyond this are ignored (§3).
func QubitCount(k Kind) int {
	switch k {
	case H, X, Y, Z, S, SX, SDG, SXDG, T, TX, TDG, TXDG, RX, RZ, MZ, MX, LOAD, STORE, PREFETCH:
		return 1
	case CX, CZ, SWAP, COUPLED:
		return 2
	case CCX, CCZ:
		return 3
	case NIL:
		return 0
	default:
		simerr.Fatalf("instruction.QubitCount", simerr.CodePrecondition, "unknown kind %d", k)
		return 0
	}
}

// IsSoftware reports whether a Kind executes with zero latency and claims
// no simulated resource (§4.10: X, Y, Z, SWAP).
func IsSoftware(k Kind) bool {
	switch k {
	case X, Y, Z, SWAP:
		return true
	default:
		return false
	}
}

// IsMemoryAccess reports whether a Kind is a memory-subsystem operation.
func IsMemoryAccess(k Kind) bool {
	switch k {
	case LOAD, STORE, COUPLED, PREFETCH:
		return true
	default:
		return false
	}
}

// IsTLike reports whether a Kind consumes one magic state per execution
// (§4.10).
func IsTLike(k Kind) bool {
	switch k {
	case T, TX, TDG, TXDG:
		return true
	default:
		return false
	}
}

// IsRotation reports whether a Kind is an RX/RZ rotation carrying an angle
// and unrolled sequence.
func IsRotation(k Kind) bool {
	return k == RX || k == RZ
}

// IsToffoliLike reports whether a Kind expands into the fixed Toffoli-style
// decomposition (§3 "Uop semantics").
func IsToffoliLike(k Kind) bool {
	return k == CCX || k == CCZ
}

// IsBasis reports whether k is a basis Clifford+T gate usable inside a
// rotation's unrolled sequence or a Toffoli decomposition.
func IsBasis(k Kind) bool {
	switch k {
	case H, X, Y, Z, S, SX, SDG, SXDG, T, TX, TDG, TXDG, CX, CZ:
		return true
	default:
		return false
	}
}
