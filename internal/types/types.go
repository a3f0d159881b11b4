// Package types holds the handful of primitive data-model types (§3) shared
// across every other package, so that instruction, dag, storage, produce,
// and compute don't need to import one another just to share an id type.
package types

// QubitID is a 64-bit signed, program-scoped qubit identifier.
type QubitID int64

// InvalidQubit is the sentinel for "no qubit" (e.g. an unused operand slot).
const InvalidQubit QubitID = -1

// ClientID identifies a workload instance (8-bit signed, §3).
type ClientID int8

// InvalidClient is the sentinel client id.
const InvalidClient ClientID = -1

// Cycle is a 64-bit unsigned logical clock tick within one component's
// clock domain.
type Cycle uint64

// MaxCycle is used as an "not yet computed" sentinel for cycle_done-style
// fields, mirroring the original's std::numeric_limits<uint64_t>::max().
const MaxCycle Cycle = ^Cycle(0)
