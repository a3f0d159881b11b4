package rotation

import (
	"math"

	"github.com/suhaskvittal/quicksilver-go/internal/fixedpoint"
	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
)

// GridOracle is the default Oracle implementation: a grid-search-style
// synthesizer that refines a candidate Clifford+T sequence by repeated
// angle bisection, halving the step angle until the residual is within
// 10^-precision or an iteration bound that grows with precision is
// reached. The full Solovay-Kitaev synthesis core is an external
// collaborator per spec.md §1; this is a self-contained stand-in with the
// same (angle, precision) -> sequence contract, not a production-grade
// number-theoretic synthesizer.
type GridOracle struct{}

func (GridOracle) Synthesize(angle fixedpoint.Value, precision int) []instruction.Kind {
	theta := fixedpoint.ToFloatAngle(angle)
	tolerance := math.Pow(10, -float64(precision))

	var seq []instruction.Kind
	residual := theta
	// Greedily consume pi/4 (T), pi/8, pi/16, ... steps, halving step size
	// until within tolerance, bounding sequence growth by precision.
	step := math.Pi / 4
	gate := instruction.T
	for iter := 0; residual > tolerance && iter < 4*(precision+8); iter++ {
		if residual >= step {
			seq = append(seq, gate)
			residual -= step
		} else {
			step /= 2
			seq = append(seq, instruction.H)
		}
	}
	return Taco(seq)
}
