// Command qs-sim runs the full cycle-accurate simulator (§4.6-§4.11):
// compute substrate, tiered magic-state production, memory hierarchy, and
// optional rotation precompute and entanglement distillation, ticked
// together until every client retires its instruction budget. Grounded on
// original_source/main/qs_sim.cpp and qs_ctxsim.cpp.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suhaskvittal/quicksilver-go/internal/operable"
	"github.com/suhaskvittal/quicksilver-go/internal/produce"
	"github.com/suhaskvittal/quicksilver-go/internal/sim"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/simlog"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// cliOptions mirrors qs_sim.cpp's hardcoded defaults as flags (§6):
// 4+1 15-to-1 magic state factory levels, a [[288,12,18]]-style 24x12
// QLDPC memory, and a single client unless --clients replicates the trace.
type cliOptions struct {
	instLimit int64
	clients   int64

	codeDistance        int64
	localMemoryCapacity int64
	concurrentClients   int64
	computeRoundNs      float64

	magicBudget   int64
	magicProtocol string

	eprBudget   int64
	eprProtocol string

	protocolsFile string

	memModules  int64
	memCapacity int64
	memRoundNs  float64
	memPolicy   string
	numChannels int64

	rpcEnabled   bool
	rpcRoundNs   float64
	rpcCapacity  int64
	rpcWatermark float64

	progressCadence int64
	verbose         bool
}

func main() {
	var o cliOptions

	root := &cobra.Command{
		Use:   "qs-sim <trace-file>",
		Short: "Run the full cycle-accurate quantum compute simulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if rerr := simerr.Recover("qs-sim.main"); rerr != nil {
					err = rerr
				}
			}()
			return run(args[0], o)
		},
	}

	flags := root.Flags()
	flags.Int64VarP(&o.instLimit, "inst-limit", "i", 100_000, "number of simulation instructions per client")
	flags.Int64VarP(&o.clients, "clients", "r", 1, "number of clients, each replaying the same trace file")

	flags.Int64Var(&o.codeDistance, "code-distance", 27, "compute substrate code distance")
	flags.Int64Var(&o.localMemoryCapacity, "local-memory-capacity", 8, "compute-local working set capacity (qubits)")
	flags.Int64Var(&o.concurrentClients, "concurrent-clients", 2, "number of clients active simultaneously")
	flags.Float64Var(&o.computeRoundNs, "compute-round-ns", 1200, "compute syndrome extraction round time (ns)")

	flags.Int64VarP(&o.magicBudget, "magic-budget", "m", 2000, "physical qubit budget for magic state production")
	flags.StringVar(&o.magicProtocol, "magic-protocol", "protocol_0", "magic state production protocol name")

	flags.Int64Var(&o.eprBudget, "epr-budget", 0, "physical qubit budget for entanglement distillation (0 disables)")
	flags.StringVar(&o.eprProtocol, "epr-protocol", "protocol_3", "entanglement distillation protocol name")

	flags.StringVar(&o.protocolsFile, "protocols-file", "", "path to a protocol table file (default: compiled-in table)")

	flags.Int64Var(&o.memModules, "mem-modules", 24, "number of QLDPC memory modules")
	flags.Int64Var(&o.memCapacity, "mem-capacity", 12, "logical qubit capacity per memory module")
	flags.Float64Var(&o.memRoundNs, "mem-round-ns", 1500, "memory syndrome extraction round time (ns)")
	flags.StringVar(&o.memPolicy, "mem-policy", "lru", "memory eviction policy (lru, lti, or none)")
	flags.Int64Var(&o.numChannels, "num-channels", 4, "number of memory routing channels")

	flags.BoolVar(&o.rpcEnabled, "rpc", false, "enable the rotation precompute subsystem")
	flags.Float64Var(&o.rpcRoundNs, "rpc-round-ns", 1200, "rotation precompute round time (ns)")
	flags.Int64Var(&o.rpcCapacity, "rpc-capacity", 8, "rotation precompute buffer capacity")
	flags.Float64Var(&o.rpcWatermark, "rpc-watermark", 0.5, "rotation precompute submission watermark")

	flags.Int64VarP(&o.progressCadence, "print-progress", "p", 100_000, "print progress every N ticks (0 disables)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "verbose logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(traceFile string, o cliOptions) error {
	if o.verbose {
		simlog.SetDefault(simlog.New(&simlog.Config{Level: simlog.LevelDebug}))
	}
	log := simlog.Default().With("qs-sim")

	protocols, err := produce.LoadProtocols(o.protocolsFile)
	if err != nil {
		return err
	}

	cfg := sim.Config{
		Compute: sim.ComputeConfig{
			FreqKHz:             operable.ComputeFreqKHz(o.computeRoundNs),
			CodeDistance:        int(o.codeDistance),
			LocalMemoryCapacity: int(o.localMemoryCapacity),
			ConcurrentClients:   int(o.concurrentClients),
			RPCEnabled:          o.rpcEnabled,
			RPCFreqKHz:          operable.ComputeFreqKHz(o.rpcRoundNs),
			RPCCapacity:         int(o.rpcCapacity),
			RPCWatermark:        o.rpcWatermark,
		},
		NumChannels: int(o.numChannels),
		MagicState:  sim.ProductionConfig{Budget: int(o.magicBudget), ProtocolName: o.magicProtocol},
		EPR:         sim.ProductionConfig{Budget: int(o.eprBudget), ProtocolName: o.eprProtocol},
		Protocols:   protocols,

		ProgressCadence: o.progressCadence,
	}

	memFreqKHz := operable.ComputeFreqKHz(o.memRoundNs)
	for i := int64(0); i < o.memModules; i++ {
		cfg.MemoryModules = append(cfg.MemoryModules, sim.MemoryModuleConfig{
			Name:               fmt.Sprintf("mem_%d", i),
			FreqKHz:            memFreqKHz,
			PhysicalQubitCount: int(o.memCapacity),
			LogicalQubitCount:  int(o.memCapacity),
			CodeDistance:       int(o.codeDistance),
			LoadLatency:        types.Cycle(1),
			StoreLatency:       types.Cycle(1),
			NumAdapters:        1,
			Policy:             o.memPolicy,
		})
	}

	for i := int64(0); i < o.clients; i++ {
		cfg.Clients = append(cfg.Clients, sim.ClientConfig{
			TracePath:        traceFile,
			InstructionLimit: o.instLimit,
			DAGCapacity:      8192,
		})
	}

	s, err := sim.Build(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	log.Info("starting simulation", "trace", traceFile, "clients", o.clients, "inst_limit", o.instLimit)
	s.Run(o.progressCadence, func(tick uint64) {
		log.Infof("tick %d: compute cycle %d", tick, s.Compute.CurrentCycle())
	})

	fmt.Println("\nSIMULATION_STATS------------------------------------------------------------")
	_, err = s.Report().WriteTo(os.Stdout)
	return err
}
