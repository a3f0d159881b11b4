package sim

import (
	"strconv"

	"github.com/suhaskvittal/quicksilver-go/internal/compute"
	"github.com/suhaskvittal/quicksilver-go/internal/operable"
	"github.com/suhaskvittal/quicksilver-go/internal/produce"
	"github.com/suhaskvittal/quicksilver-go/internal/simstats"
	"github.com/suhaskvittal/quicksilver-go/internal/storage"
	"github.com/suhaskvittal/quicksilver-go/internal/traceio"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// Simulation is one fully-wired instance: a compute subsystem, its memory
// hierarchy, and its production pipelines, ticked together as a
// coordinated operable.Group (§4.6, §5: "top-level driver holds a vector
// of Operables... in sequence").
type Simulation struct {
	Compute    *compute.ComputeSubsystem
	Memory     *storage.MemorySubsystem
	MagicState [][]*produce.Producer
	EPR        [][]*produce.Producer

	group     *operable.Group
	readers   []*traceio.Reader
	tickCount uint64
}

// Build composes a Simulation from cfg (§2 "compose instances"): memory
// modules, tiered production pipelines, per-client trace readers, and the
// compute subsystem that ties them together, all coordinated under one
// operable.Group in the order compute, storages, magic-state factories,
// ED units. The rotation subsystem is not a group member; the compute
// subsystem advances it from its own Operate.
func Build(cfg Config) (*Simulation, error) {
	modules := make([]*storage.Storage, 0, len(cfg.MemoryModules))
	for _, mc := range cfg.MemoryModules {
		modules = append(modules, mc.build())
	}
	mem := storage.NewMemorySubsystem(modules, cfg.NumChannels)

	magicLevels := cfg.MagicState.build(cfg.Protocols)
	eprLevels := cfg.EPR.build(cfg.Protocols)
	topFactories := topLevel(magicLevels)

	clients := make([]*compute.Client, 0, len(cfg.Clients))
	readers := make([]*traceio.Reader, 0, len(cfg.Clients))
	for i, cc := range cfg.Clients {
		r, err := traceio.OpenReader(cc.TracePath)
		if err != nil {
			for _, opened := range readers {
				opened.Close()
			}
			return nil, err
		}
		readers = append(readers, r)
		dagCap := cc.DAGCapacity
		if dagCap <= 0 {
			dagCap = 8192
		}
		c := compute.NewClient(types.ClientID(i), r, dagCap, cc.InstructionLimit)
		clients = append(clients, c)
	}

	ext := compute.ExtendedConfig{
		RPCEnabled:   cfg.Compute.RPCEnabled,
		RPCFreqKHz:   cfg.Compute.RPCFreqKHz,
		RPCCapacity:  cfg.Compute.RPCCapacity,
		RPCWatermark: cfg.Compute.RPCWatermark,
		EDUnits:      eprLevels,
	}
	cs := compute.NewComputeSubsystem(
		cfg.Compute.FreqKHz, cfg.Compute.CodeDistance, cfg.Compute.LocalMemoryCapacity, cfg.Compute.ConcurrentClients,
		maxInstructionLimit(cfg.Clients), topFactories, mem, clients, ext,
	)

	components := []operable.Component{cs}
	for _, m := range modules {
		components = append(components, m)
	}
	for _, level := range magicLevels {
		for _, p := range level {
			components = append(components, p)
		}
	}
	for _, level := range eprLevels {
		for _, p := range level {
			components = append(components, p)
		}
	}

	return &Simulation{
		Compute:    cs,
		Memory:     mem,
		MagicState: magicLevels,
		EPR:        eprLevels,
		group:      operable.NewGroup(components...),
		readers:    readers,
	}, nil
}

// maxInstructionLimit feeds ComputeSubsystem's advisory
// SimulationInstructions field (§4.10); actual completion is driven
// per-client by Client.Done(), so this only needs to be representative,
// not authoritative.
func maxInstructionLimit(clients []ClientConfig) int64 {
	var max int64
	for _, c := range clients {
		if c.InstructionLimit > max {
			max = c.InstructionLimit
		}
	}
	return max
}

// Run ticks the simulation until every client has retired its instruction
// budget (§4.10 ComputeSubsystem.Done), calling onProgress every
// ProgressCadence ticks if nonzero.
func (s *Simulation) Run(progressCadence int64, onProgress func(tick uint64)) {
	for !s.Compute.Done() {
		s.group.TickAll()
		s.tickCount++
		if progressCadence > 0 && onProgress != nil && s.tickCount%uint64(progressCadence) == 0 {
			onProgress(s.tickCount)
		}
	}
}

// TickCount reports the number of top-level driver ticks executed so far.
func (s *Simulation) TickCount() uint64 { return s.tickCount }

// Close releases every client's trace reader.
func (s *Simulation) Close() error {
	var first error
	for _, r := range s.readers {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Report builds a simstats.Report summarizing this simulation's run
// (§9 "qs-report style stat emission"): per-client retirement and stall
// counters, plus production-pipeline attempt/failure totals by level.
func (s *Simulation) Report() *simstats.Report {
	r := &simstats.Report{}
	r.Line("TOTAL_CYCLES", s.Compute.CurrentCycle())
	r.Line("COMPUTE_FREQ_KHZ", s.Compute.FreqKHz())
	r.Line("CONTEXT_SWITCHES", s.Compute.ContextSwitches)
	r.Line("TOTAL_ROTATIONS", s.Compute.TotalRotations)
	r.Line("SUCCESSFUL_RPC", s.Compute.SuccessfulRPC)
	r.Line("TOTAL_RPC", s.Compute.TotalRPC)
	r.Line("STALL_MEMORY", s.Compute.StallMemory)
	r.Line("STALL_MAGIC_STATE", s.Compute.StallMagicState)

	for i, c := range s.Compute.Clients() {
		r.Section("CLIENT_" + strconv.Itoa(i))
		r.Line("RETIRED_UNROLLED", c.RetiredUnrolled)
		r.Line("INSTRUCTION_LIMIT", c.InstructionLimit)
	}

	for level, producers := range s.MagicState {
		r.Section("MAGIC_STATE_L" + strconv.Itoa(level))
		writeLevelTotals(r, producers)
	}
	for level, producers := range s.EPR {
		r.Section("EPR_L" + strconv.Itoa(level))
		writeLevelTotals(r, producers)
	}
	return r
}

func writeLevelTotals(r *simstats.Report, producers []*produce.Producer) {
	var attempts, failures, consumed uint64
	for _, p := range producers {
		attempts += p.ProductionAttempts
		failures += p.Failures
		consumed += p.Consumed
	}
	r.Line("PRODUCERS", len(producers))
	r.Line("PRODUCTION_ATTEMPTS", attempts)
	r.Line("FAILURES", failures)
	r.Line("CONSUMED", consumed)
}
