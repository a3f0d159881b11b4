// Package operable implements the tick contract (§4.6) that every
// simulator component — compute subsystem, storages, factories,
// entanglement-distillation units, the rotation subsystem — runs under:
// a coordinator assigns each component a clock scale relative to the
// fastest one in the group, and each tick either advances the component
// one cycle or burns down its leap counter.
package operable

import (
	"io"

	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/simlog"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// MaxCyclesWithNoProgress is GL_MAX_CYCLES_WITH_NO_PROGRESS: the number of
// consecutive zero-progress operate() calls that declares a component
// deadlocked.
const MaxCyclesWithNoProgress = 1000

// Component is what every tickable simulator part implements: operate()
// does at most one cycle's worth of work and reports how much progress it
// made. A component that never makes progress for MaxCyclesWithNoProgress
// consecutive operate() calls is deadlocked.
type Component interface {
	// Name identifies the component for deadlock diagnostics.
	Name() string
	// FreqKHz is the component's clock frequency in kHz.
	FreqKHz() float64
	// Operate advances at most one internal cycle and returns a
	// nonnegative progress count.
	Operate() int64
	// DumpDeadlockInfo writes diagnostic state to w when this component
	// is declared deadlocked. Implementations with nothing interesting
	// to report may no-op.
	DumpDeadlockInfo(w io.Writer)
}

// Operable wraps a Component with the leap-counter clock-scale machinery
// (§4.6) and deadlock tracking. It is not itself a Component: Tick is the
// only thing the coordinator calls.
type Operable struct {
	c Component

	currentCycle       types.Cycle
	leap               float64
	clockScale         float64
	cyclesWithNoProgress types.Cycle
}

// New wraps c. Call CoordinateClockScale on the full component group
// before ticking; until then clockScale is 1.0 (every tick operates).
func New(c Component) *Operable {
	return &Operable{c: c, clockScale: 1.0}
}

// CurrentCycle returns the number of cycles this component has completed.
func (o *Operable) CurrentCycle() types.Cycle { return o.currentCycle }

// Name proxies the wrapped component's name.
func (o *Operable) Name() string { return o.c.Name() }

// Tick runs one coordinator step: if leap < 1.0, operate() is called, the
// cycle counter advances, and leap grows by clockScale - 1; otherwise leap
// is decremented by 1 and the component is skipped this tick. A component
// with clockScale 1 therefore operates on every tick. A component
// with MaxCyclesWithNoProgress consecutive zero-progress operate() calls
// is fatal (§4.6 deadlock detection, §7 category 4).
func (o *Operable) Tick() {
	if o.leap >= 1.0 {
		o.leap -= 1.0
		return
	}

	progress := o.c.Operate()
	if progress < 0 {
		simerr.Fatalf("operable.Tick", simerr.CodePrecondition, "%s: operate returned negative progress %d", o.c.Name(), progress)
	}
	if progress == 0 {
		o.cyclesWithNoProgress++
		if o.cyclesWithNoProgress >= MaxCyclesWithNoProgress {
			o.reportDeadlock()
		}
	} else {
		o.cyclesWithNoProgress = 0
	}

	o.leap += o.clockScale - 1.0
	o.currentCycle++
}

func (o *Operable) reportDeadlock() {
	log := simlog.Default().With("operable")
	log.Error("deadlock detected", "component", o.c.Name(), "cycle", o.currentCycle)
	o.c.DumpDeadlockInfo(logWriter{log})
	simerr.Fatalf("operable.Tick", simerr.CodeDeadlock, "%s: no progress for %d consecutive cycles", o.c.Name(), MaxCyclesWithNoProgress)
}

// logWriter adapts a *simlog.Logger to io.Writer for DumpDeadlockInfo,
// emitting each write as a single Error-level log line.
type logWriter struct{ log *simlog.Logger }

func (w logWriter) Write(p []byte) (int, error) {
	w.log.Error(string(p))
	return len(p), nil
}

// CoordinateClockScale sets every operable's clock scale relative to the
// fastest component's frequency in the group (§4.6). Must be called once
// before the first Tick of any component in the group.
func CoordinateClockScale(operables []*Operable) {
	if len(operables) == 0 {
		return
	}
	maxFreq := operables[0].c.FreqKHz()
	for _, o := range operables[1:] {
		if f := o.c.FreqKHz(); f > maxFreq {
			maxFreq = f
		}
	}
	for _, o := range operables {
		o.clockScale = maxFreq / o.c.FreqKHz()
	}
}

// Group is an ordered collection of Operables ticked together by the
// top-level driver: compute subsystem, storages, factories, entanglement-
// distillation units, and the rotation subsystem, in that order (§4.6).
type Group struct {
	members []*Operable
}

// NewGroup wraps components into a coordinated Group, setting clock
// scales via CoordinateClockScale.
func NewGroup(components ...Component) *Group {
	members := make([]*Operable, len(components))
	for i, c := range components {
		members[i] = New(c)
	}
	CoordinateClockScale(members)
	return &Group{members: members}
}

// TickAll ticks every member once, in order. The simulator is single-
// threaded and cooperative: no member yields mid-cycle (§5).
func (g *Group) TickAll() {
	for _, o := range g.members {
		o.Tick()
	}
}

// Members exposes the wrapped Operables, e.g. for per-component cycle
// reporting.
func (g *Group) Members() []*Operable { return g.members }

// ComputeFreqKHz returns the clock frequency, in kHz, of a component whose
// period is periodNs nanoseconds (§4.6).
func ComputeFreqKHz(periodNs float64) float64 {
	return 1e6 / periodNs
}

// ConvertCyclesBetweenFrequencies converts a cycle count measured at
// fromKHz into the equivalent (rounded up) cycle count at toKHz (§4.6).
func ConvertCyclesBetweenFrequencies(cycles types.Cycle, fromKHz, toKHz float64) types.Cycle {
	scaled := float64(cycles) * fromKHz / toKHz
	rounded := types.Cycle(scaled)
	if float64(rounded) < scaled {
		rounded++
	}
	return rounded
}
