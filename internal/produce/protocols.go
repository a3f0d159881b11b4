package produce

import (
	_ "embed"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
)

//go:embed protocols.yaml
var defaultProtocolsYAML []byte

// LevelSpec is one level's production specification within a named
// protocol (§4.8: "predefined ED protocols are just precanned
// specification vectors"). It is the opaque S type parameter the
// allocator's Callbacks are built over.
type LevelSpec struct {
	Kind string `yaml:"kind"`

	FreqKHz                float64 `yaml:"freq_khz"`
	OutputErrorProbability float64 `yaml:"output_error_probability"`
	BufferCapacity         int     `yaml:"buffer_capacity"`
	OutputCount            int     `yaml:"output_count"`
	QubitCost              int     `yaml:"qubit_cost"`

	ProbabilityOfSuccess float64 `yaml:"probability_of_success,omitempty"`
	Rounds               int     `yaml:"rounds,omitempty"`

	InputCount       int `yaml:"input_count,omitempty"`
	NumRotationSteps int `yaml:"num_rotation_steps,omitempty"`

	NumChecks           int `yaml:"num_checks,omitempty"`
	MeasurementDistance int `yaml:"measurement_distance,omitempty"`
}

// Protocols maps a named protocol ("protocol_0".."protocol_5") to its
// ordered level specifications.
type Protocols map[string][]LevelSpec

// LoadDefaultProtocols parses the compiled-in protocol table.
func LoadDefaultProtocols() Protocols {
	return mustParseProtocols(defaultProtocolsYAML)
}

// LoadProtocols parses a user-supplied protocol table file, falling back
// to the compiled-in default if path is empty.
func LoadProtocols(path string) (Protocols, error) {
	if path == "" {
		return LoadDefaultProtocols(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, simerr.Wrap("produce.LoadProtocols", simerr.CodeIO, err)
	}
	var protocols Protocols
	if err := yaml.Unmarshal(data, &protocols); err != nil {
		return nil, simerr.Wrap("produce.LoadProtocols", simerr.CodeInvalidArgument, err)
	}
	return protocols, nil
}

func mustParseProtocols(data []byte) Protocols {
	var protocols Protocols
	if err := yaml.Unmarshal(data, &protocols); err != nil {
		simerr.Fatalf("produce.mustParseProtocols", simerr.CodePrecondition, "embedded protocol table is malformed: %v", err)
	}
	return protocols
}

// CallbacksForLevelSpec builds the allocator's five-callback set (§4.8)
// over LevelSpec, deriving each producer kind's bandwidth and consumption
// rate the way §4.7's production step spends cycles: a cultivation
// producer advances every cycle, a distillation or entanglement-
// distillation producer advances once per (1+NumRotationSteps) or
// (NumChecks*MeasurementDistance) cycles respectively.
func CallbacksForLevelSpec() Callbacks[LevelSpec] {
	return Callbacks[LevelSpec]{
		Alloc: func(spec LevelSpec, previousLevel []*Producer) *Producer {
			switch spec.Kind {
			case "cultivation":
				return NewCultivation(spec.Kind, spec.FreqKHz, spec.OutputErrorProbability, spec.BufferCapacity, spec.OutputCount, spec.ProbabilityOfSuccess, spec.Rounds)
			case "distillation":
				return NewDistillation(spec.Kind, spec.FreqKHz, spec.OutputErrorProbability, spec.BufferCapacity, spec.InputCount, spec.OutputCount, spec.NumRotationSteps, previousLevel)
			case "entanglement_distillation":
				return NewEntanglementDistillation(spec.Kind, spec.FreqKHz, spec.OutputErrorProbability, spec.BufferCapacity, spec.InputCount, spec.NumChecks, spec.MeasurementDistance, previousLevel)
			default:
				simerr.Fatalf("produce.CallbacksForLevelSpec.Alloc", simerr.CodePrecondition, "unknown producer kind %q", spec.Kind)
				return nil
			}
		},
		QubitCost: func(spec LevelSpec) int { return spec.QubitCost },
		Bandwidth: func(spec LevelSpec, _ float64) float64 {
			switch spec.Kind {
			case "cultivation":
				return 1e3 / spec.FreqKHz * spec.ProbabilityOfSuccess
			case "distillation":
				effFreqKHz := spec.FreqKHz / float64(1+spec.NumRotationSteps)
				return 1e3 / effFreqKHz * float64(spec.OutputCount)
			case "entanglement_distillation":
				totalCycles := float64(spec.NumChecks * spec.MeasurementDistance)
				effFreqKHz := spec.FreqKHz / totalCycles
				return 1e3 / effFreqKHz
			default:
				return 0
			}
		},
		ConsumptionRate: func(spec LevelSpec) float64 {
			switch spec.Kind {
			case "distillation":
				effFreqKHz := spec.FreqKHz / float64(1+spec.NumRotationSteps)
				statesConsumed := float64(spec.InputCount + spec.NumRotationSteps)
				return 1e3 / effFreqKHz * statesConsumed
			case "entanglement_distillation":
				totalCycles := float64(spec.NumChecks * spec.MeasurementDistance)
				effFreqKHz := spec.FreqKHz / totalCycles
				return 1e3 / effFreqKHz * float64(spec.InputCount)
			default:
				return 0
			}
		},
		PreviousLevelIndex: func(level int) int { return level - 1 },
	}
}
