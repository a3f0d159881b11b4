// Package rotation implements Clifford+T rotation synthesis: the external
// synthesis oracle boundary (§4.4, treated as an opaque collaborator), the
// TACO post-optimization passes (§4.4), and the process-wide rotation
// manager worker pool (§4.4, §5, §9).
package rotation

import (
	"github.com/suhaskvittal/quicksilver-go/internal/fixedpoint"
	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
)

// Oracle is the rotation synthesis boundary (§4.4): given a W-bit angle and
// a precision parameter p, it returns a finite Clifford+T sequence
// approximating a Z-rotation by the angle within 10^-p operator distance.
// The spec does not prescribe the algorithm; production code supplies a
// grid-search-style implementation, tests supply a fake.
type Oracle interface {
	Synthesize(angle fixedpoint.Value, precision int) []instruction.Kind
}

// OracleFunc adapts a plain function to Oracle.
type OracleFunc func(angle fixedpoint.Value, precision int) []instruction.Kind

func (f OracleFunc) Synthesize(angle fixedpoint.Value, precision int) []instruction.Kind {
	return f(angle, precision)
}
