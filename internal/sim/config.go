// Package sim composes the leaf components (compute, production pipeline,
// memory subsystem) into one cycle-driven simulation instance and drives
// the top-level clock loop (§2 "Benchmark driver / top-level harness",
// §4.6, §4.10). It is the Go home for what original_source/main/qs_sim.cpp
// and qs_ctxsim.cpp do inline in main().
package sim

import (
	"github.com/suhaskvittal/quicksilver-go/internal/produce"
	"github.com/suhaskvittal/quicksilver-go/internal/storage"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// MemoryModuleConfig describes one storage medium in the memory hierarchy
// (§3 STORAGE, §4.9). Index 0 by convention is the compute-local working
// set and is configured separately via ComputeConfig; these describe the
// remaining tiers (e.g. QLDPC memory blocks).
type MemoryModuleConfig struct {
	Name               string
	FreqKHz            float64
	PhysicalQubitCount int
	LogicalQubitCount  int
	CodeDistance       int
	LoadLatency        types.Cycle
	StoreLatency       types.Cycle
	NumAdapters        int
	// Policy selects the eviction policy: "lru", "lti", or "" (no internal
	// eviction; a full store simply fails).
	Policy string
	// LTIThreshold is only consulted when Policy == "lti".
	LTIThreshold types.Cycle
}

func (c MemoryModuleConfig) build() *storage.Storage {
	s := storage.New(c.Name, c.FreqKHz, c.PhysicalQubitCount, c.LogicalQubitCount, c.CodeDistance, c.LoadLatency, c.StoreLatency, c.NumAdapters)
	switch c.Policy {
	case "lru":
		s.Policy = storage.NewLRU()
	case "lti":
		s.Policy = storage.NewLTI(c.LTIThreshold)
	}
	return s
}

// ProductionConfig describes one tiered production pipeline (§4.7, §4.8):
// a physical-qubit budget allocated greedily across a named protocol's
// level specifications (§4.8 "Predefined ED protocols are just precanned
// specification vectors").
type ProductionConfig struct {
	Budget       int
	ProtocolName string
}

func (c ProductionConfig) build(protocols produce.Protocols) [][]*produce.Producer {
	spec, ok := protocols[c.ProtocolName]
	if !ok || c.Budget <= 0 {
		return nil
	}
	alloc := produce.ThroughputAwareAllocation(c.Budget, spec, produce.CallbacksForLevelSpec())
	return alloc.Producers
}

// topLevel returns the last level in a production pipeline carrying at
// least one producer (§4.10: "top-level factories"), or nil if the
// pipeline is empty.
func topLevel(levels [][]*produce.Producer) []*produce.Producer {
	for i := len(levels) - 1; i >= 0; i-- {
		if len(levels[i]) > 0 {
			return levels[i]
		}
	}
	return nil
}

// ComputeConfig describes the compute substrate (§4.10).
type ComputeConfig struct {
	FreqKHz             float64
	CodeDistance        int
	LocalMemoryCapacity int
	ConcurrentClients   int

	// RPCEnabled wires a rotation precompute subsystem (§4.11).
	RPCEnabled   bool
	RPCFreqKHz   float64
	RPCCapacity  int
	RPCWatermark float64
}

// ClientConfig names one workload's trace and retirement budget (§3
// Client).
type ClientConfig struct {
	TracePath        string
	InstructionLimit int64
	DAGCapacity      int
}

// Config is the full composition the driver builds from (§2 "compose
// instances").
type Config struct {
	Compute       ComputeConfig
	MemoryModules []MemoryModuleConfig
	NumChannels   int

	MagicState ProductionConfig
	EPR        ProductionConfig
	Protocols  produce.Protocols

	Clients []ClientConfig

	// ProgressCadence is the number of top-level ticks between progress
	// callbacks to Simulation.Run; 0 disables progress reporting.
	ProgressCadence int64
}
