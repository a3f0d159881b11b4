package rotation

import (
	"math"
	"math/cmplx"

	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
)

// matrix2 is a single-qubit unitary in row-major order.
type matrix2 [4]complex128

var identity2 = matrix2{1, 0, 0, 1}

func mulMatrix2(a, b matrix2) matrix2 {
	return matrix2{
		a[0]*b[0] + a[1]*b[2], a[0]*b[1] + a[1]*b[3],
		a[2]*b[0] + a[3]*b[2], a[2]*b[1] + a[3]*b[3],
	}
}

// gateMatrix returns the 2x2 unitary for a basis Clifford+T kind used in a
// rotation's unrolled sequence. This is intentionally minimal — it exists
// only to let tests verify the §8 TACO and synthesis-fidelity properties,
// not as a general state simulator (out of scope per spec.md §1).
func gateMatrix(k instruction.Kind) matrix2 {
	const invSqrt2 = 0.7071067811865476
	switch k {
	case instruction.H:
		return matrix2{invSqrt2, invSqrt2, invSqrt2, -invSqrt2}
	case instruction.X:
		return matrix2{0, 1, 1, 0}
	case instruction.Y:
		return matrix2{0, -1i, 1i, 0}
	case instruction.Z:
		return matrix2{1, 0, 0, -1}
	case instruction.S:
		return matrix2{1, 0, 0, 1i}
	case instruction.SDG:
		return matrix2{1, 0, 0, -1i}
	case instruction.T:
		return matrix2{1, 0, 0, cmplx.Exp(1i * math.Pi / 4)}
	case instruction.TDG:
		return matrix2{1, 0, 0, cmplx.Exp(-1i * math.Pi / 4)}
	case instruction.SX:
		return mulMatrix2(mulMatrix2(matrix2{invSqrt2, invSqrt2, invSqrt2, -invSqrt2}, matrix2{1, 0, 0, 1i}), matrix2{invSqrt2, invSqrt2, invSqrt2, -invSqrt2})
	case instruction.SXDG:
		return mulMatrix2(mulMatrix2(matrix2{invSqrt2, invSqrt2, invSqrt2, -invSqrt2}, matrix2{1, 0, 0, -1i}), matrix2{invSqrt2, invSqrt2, invSqrt2, -invSqrt2})
	case instruction.TX:
		return mulMatrix2(mulMatrix2(matrix2{invSqrt2, invSqrt2, invSqrt2, -invSqrt2}, matrix2{1, 0, 0, cmplx.Exp(1i * math.Pi / 4)}), matrix2{invSqrt2, invSqrt2, invSqrt2, -invSqrt2})
	case instruction.TXDG:
		return mulMatrix2(mulMatrix2(matrix2{invSqrt2, invSqrt2, invSqrt2, -invSqrt2}, matrix2{1, 0, 0, cmplx.Exp(-1i * math.Pi / 4)}), matrix2{invSqrt2, invSqrt2, invSqrt2, -invSqrt2})
	default:
		return identity2
	}
}

// SequenceMatrix composes the unitary implemented by a left-to-right
// sequence of basis gates (applied in program order, so the last gate is
// the outermost matrix factor).
func SequenceMatrix(seq []instruction.Kind) matrix2 {
	m := identity2
	for _, k := range seq {
		m = mulMatrix2(gateMatrix(k), m)
	}
	return m
}

// rzMatrix returns the matrix of a Z-rotation by angle theta (radians),
// used only by tests to check a synthesized sequence against its target.
func rzMatrix(theta float64) matrix2 {
	return matrix2{
		cmplx.Exp(complex(0, -theta/2)), 0,
		0, cmplx.Exp(complex(0, theta/2)),
	}
}

// SameUpToGlobalPhase reports whether two single-qubit unitaries are equal
// up to a global phase, within tol.
func SameUpToGlobalPhase(a, b matrix2, tol float64) bool {
	// Find a nonzero entry of b to fix the phase factor.
	var phase complex128 = 1
	found := false
	for i := 0; i < 4; i++ {
		if cmplx.Abs(b[i]) > 1e-9 {
			phase = a[i] / b[i]
			found = true
			break
		}
	}
	if !found {
		return true
	}
	if math.Abs(cmplx.Abs(phase)-1) > tol {
		return false
	}
	for i := 0; i < 4; i++ {
		if cmplx.Abs(a[i]-phase*b[i]) > tol {
			return false
		}
	}
	return true
}
