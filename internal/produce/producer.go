// Package produce implements the resource-production pipeline (§4.7):
// magic-state cultivation and distillation, and entanglement distillation,
// plus the throughput-aware allocator (§4.8) that provisions a tiered
// production pipeline within a physical-qubit budget.
package produce

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
)

// PhysicalErrorRate is the assumed baseline physical-qubit error rate used
// to derive the state-injection error probability for leaf-level
// distillation (§4.7: "assume inputs from state injection with fixed
// 10×physical error per input").
const PhysicalErrorRate = 1e-4

// InjectionErrorProbability is the per-input error probability assumed for
// state-injected (leaf) inputs: 10×PhysicalErrorRate.
const InjectionErrorProbability = 10 * PhysicalErrorRate

// Kind distinguishes the three producer specializations (§9: "producers
// form a sum type {cultivation, distillation, entanglement_distillation}
// with a shared capability set"). Modeled as a tagged struct rather than
// an interface hierarchy so operate() dispatch is one switch, not virtual
// calls.
type Kind int

const (
	Cultivation Kind = iota
	Distillation
	EntanglementDistillation
)

func (k Kind) String() string {
	switch k {
	case Cultivation:
		return "cultivation"
	case Distillation:
		return "distillation"
	case EntanglementDistillation:
		return "entanglement_distillation"
	default:
		return "unknown"
	}
}

// Producer is a resource-state factory: one of cultivation, distillation,
// or entanglement distillation, selected by Kind. Common fields are always
// populated; kind-specific fields are documented per constructor.
type Producer struct {
	name                   string
	kind                   Kind
	freqKHz                float64
	OutputErrorProbability float64
	BufferCapacity         int
	OutputCount            int
	PreviousLevel          []*Producer

	// Cultivation-only.
	ProbabilityOfSuccess float64
	Rounds               int

	// Distillation and entanglement-distillation.
	InputCount       int
	NumRotationSteps int // distillation

	// Entanglement-distillation only.
	NumChecks           int
	MeasurementDistance int

	// Statistics (§4.7/§9).
	ProductionAttempts uint64
	Failures           uint64
	Consumed           uint64

	bufferOccupancy  int
	step             int
	failureRound     int // cultivation: -1 means this attempt is slated to succeed
	accumulatedError float64
}

func newBase(name string, kind Kind, freqKHz, outputErrorProbability float64, bufferCapacity, outputCount int) *Producer {
	if outputCount > bufferCapacity {
		simerr.Fatalf("produce.newBase", simerr.CodePrecondition, "%s: buffer capacity %d cannot hold output count %d", name, bufferCapacity, outputCount)
	}
	return &Producer{
		name:                   name,
		kind:                   kind,
		freqKHz:                freqKHz,
		OutputErrorProbability: outputErrorProbability,
		BufferCapacity:         bufferCapacity,
		OutputCount:            outputCount,
		failureRound:           -1,
	}
}

// NewCultivation constructs a T-cultivation producer (§4.7): each attempt
// runs for `rounds` cycles, slated at step 0 to succeed with probability
// probabilityOfSuccess or else to fail at a uniformly sampled round.
func NewCultivation(name string, freqKHz, outputErrorProbability float64, bufferCapacity, outputCount int, probabilityOfSuccess float64, rounds int) *Producer {
	p := newBase(name, Cultivation, freqKHz, outputErrorProbability, bufferCapacity, outputCount)
	p.ProbabilityOfSuccess = probabilityOfSuccess
	p.Rounds = rounds
	return p
}

// NewDistillation constructs a T-distillation producer (§4.7): consumes
// inputCount inputs, then one input per remaining rotation step, each step
// gated by a Bernoulli trial against the accumulated per-input error.
func NewDistillation(name string, freqKHz, outputErrorProbability float64, bufferCapacity, inputCount, outputCount, numRotationSteps int, previousLevel []*Producer) *Producer {
	p := newBase(name, Distillation, freqKHz, outputErrorProbability, bufferCapacity, outputCount)
	p.InputCount = inputCount
	p.NumRotationSteps = numRotationSteps
	p.PreviousLevel = previousLevel
	return p
}

// NewEntanglementDistillation constructs an entanglement-distillation
// producer (§4.7): consumes inputCount EPR pairs, runs numChecks
// measurement rounds of measurementDistance cycles each, accepts on zero
// syndrome across every check.
func NewEntanglementDistillation(name string, freqKHz, outputErrorProbability float64, bufferCapacity, inputCount, numChecks, measurementDistance int, previousLevel []*Producer) *Producer {
	p := newBase(name, EntanglementDistillation, freqKHz, outputErrorProbability, bufferCapacity, 1)
	p.InputCount = inputCount
	p.NumChecks = numChecks
	p.MeasurementDistance = measurementDistance
	p.PreviousLevel = previousLevel
	return p
}

// Name satisfies operable.Component.
func (p *Producer) Name() string { return p.name }

// FreqKHz satisfies operable.Component.
func (p *Producer) FreqKHz() float64 { return p.freqKHz }

// DumpDeadlockInfo satisfies operable.Component.
func (p *Producer) DumpDeadlockInfo(w io.Writer) {
	fmt.Fprintf(w, "%s (%s): buffer occupancy = %d of %d, step %d\n", p.name, p.kind, p.bufferOccupancy, p.BufferCapacity, p.step)
}

// Kind reports the producer specialization.
func (p *Producer) Kind() Kind { return p.kind }

// BufferOccupancy reports the number of resource states currently buffered.
func (p *Producer) BufferOccupancy() int { return p.bufferOccupancy }

// Consume removes count resource states from the buffer. Fatal if count
// exceeds the buffer occupancy (§4.7: "n ≤ buffer_occupancy, asserted").
func (p *Producer) Consume(count int) {
	if count > p.bufferOccupancy {
		simerr.Fatalf("produce.Consume", simerr.CodePrecondition, "%s: consume(%d) exceeds buffer occupancy %d", p.name, count, p.bufferOccupancy)
	}
	p.bufferOccupancy -= count
	p.Consumed += uint64(count)
}

func (p *Producer) installOutputs() {
	if p.bufferOccupancy+p.OutputCount > p.BufferCapacity {
		simerr.Fatalf("produce.installOutputs", simerr.CodePrecondition, "%s: installing %d outputs would exceed buffer capacity %d", p.name, p.OutputCount, p.BufferCapacity)
	}
	p.bufferOccupancy += p.OutputCount
}

// Operate advances production by at most one cycle (the operable.Component
// contract): if the buffer has no room for another full batch of outputs,
// this is a no-op steady state (progress 1, not a stall); otherwise it
// delegates to the kind-specific production step.
func (p *Producer) Operate() int64 {
	if p.bufferOccupancy+p.OutputCount > p.BufferCapacity {
		return 1
	}
	var attempted bool
	switch p.kind {
	case Cultivation:
		attempted = p.cultivationStep()
	case Distillation:
		attempted = p.distillationStep()
	case EntanglementDistillation:
		attempted = p.entanglementDistillationStep()
	default:
		simerr.Fatalf("produce.Operate", simerr.CodePrecondition, "%s: unknown producer kind %d", p.name, p.kind)
	}
	if attempted {
		return 1
	}
	return 0
}

func (p *Producer) cultivationStep() bool {
	if p.step == 0 {
		if rand.Float64() <= p.ProbabilityOfSuccess {
			p.failureRound = -1
		} else {
			p.failureRound = rand.Intn(p.Rounds)
		}
	}
	if p.failureRound >= 0 && p.step == p.failureRound {
		p.step = 0
		p.Failures++
		p.ProductionAttempts++
		return true
	}
	p.step++
	if p.step >= p.Rounds {
		p.installOutputs()
		p.ProductionAttempts++
		p.step = 0
	}
	return true
}

// gatherInputs pulls n input states, either from this producer's previous
// level (greedily in list order) or via state injection if it is a leaf
// producer, returning the accumulated error probability across the inputs
// consumed. ok is false if fewer than n inputs are currently available
// (stall, §4.7).
func (p *Producer) gatherInputs(n int) (errProb float64, ok bool) {
	if len(p.PreviousLevel) == 0 {
		return InjectionErrorProbability * float64(n), true
	}
	avail := 0
	for _, prev := range p.PreviousLevel {
		avail += prev.BufferOccupancy()
	}
	if avail < n {
		return 0, false
	}
	remaining := n
	for _, prev := range p.PreviousLevel {
		if remaining == 0 {
			break
		}
		occ := prev.BufferOccupancy()
		if occ == 0 {
			continue
		}
		take := occ
		if take > remaining {
			take = remaining
		}
		prev.Consume(take)
		errProb += prev.OutputErrorProbability * float64(take)
		remaining -= take
	}
	return errProb, true
}

func (p *Producer) distillationStep() bool {
	var errProb float64
	var ok bool
	if p.step == 0 {
		errProb, ok = p.gatherInputs(p.InputCount)
		if !ok {
			return false
		}
		p.accumulatedError = errProb
	} else {
		errProb, ok = p.gatherInputs(1)
		if !ok {
			return false
		}
		p.accumulatedError += errProb
	}

	if rand.Float64() < p.accumulatedError {
		p.step = 0
		p.accumulatedError = 0
		p.Failures++
		p.ProductionAttempts++
		return true
	}
	p.step++
	if p.step == p.NumRotationSteps+1 {
		p.installOutputs()
		p.ProductionAttempts++
		p.step = 0
		p.accumulatedError = 0
	}
	return true
}

func (p *Producer) entanglementDistillationStep() bool {
	if p.step == 0 {
		errProb, ok := p.gatherInputs(p.InputCount)
		if !ok {
			return false
		}
		p.accumulatedError = errProb
	}
	p.step++
	if p.step%p.MeasurementDistance != 0 {
		return true
	}
	check := p.step / p.MeasurementDistance
	if rand.Float64() < p.accumulatedError {
		p.step = 0
		p.accumulatedError = 0
		p.Failures++
		p.ProductionAttempts++
		return true
	}
	if check == p.NumChecks {
		p.installOutputs()
		p.ProductionAttempts++
		p.step = 0
		p.accumulatedError = 0
	}
	return true
}
