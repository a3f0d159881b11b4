// Command qs-throughput-estimator runs the throughput-aware allocator
// (§4.8) standalone over a physical-qubit budget and a named protocol,
// then simulates the resulting production pipeline for a fixed number of
// cycles to compare the allocator's estimate against observed throughput.
// Grounded on original_source/main/qs_throughput_estimator.cpp.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suhaskvittal/quicksilver-go/internal/operable"
	"github.com/suhaskvittal/quicksilver-go/internal/produce"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/simstats"
)

func main() {
	var budget int64
	var cycles int64
	var productionType string
	var protocolName string
	var protocolsPath string

	root := &cobra.Command{
		Use:   "qs-throughput-estimator",
		Short: "Estimate and simulate a tiered production pipeline's throughput",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if rerr := simerr.Recover("qs-throughput-estimator.main"); rerr != nil {
					err = rerr
				}
			}()
			return run(int(budget), cycles, productionType, protocolName, protocolsPath)
		},
	}

	flags := root.Flags()
	flags.Int64VarP(&budget, "budget", "q", 12_000, "physical qubit budget")
	flags.Int64VarP(&cycles, "cycles", "c", 1_000_000, "number of simulation cycles")
	flags.StringVarP(&productionType, "type", "t", "magic", "production type (magic, epr)")
	flags.StringVar(&protocolName, "protocol", "", "protocol name (default: protocol_0 for magic, protocol_3 for epr)")
	flags.StringVar(&protocolsPath, "protocols-file", "", "path to a protocol table file (default: compiled-in table)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(budget int, cycles int64, productionType, protocolName, protocolsPath string) error {
	protocols, err := produce.LoadProtocols(protocolsPath)
	if err != nil {
		return err
	}

	if protocolName == "" {
		switch productionType {
		case "magic":
			protocolName = "protocol_0"
		case "epr":
			protocolName = "protocol_3"
		}
	}

	spec, ok := protocols[protocolName]
	if !ok {
		return simerr.Newf("qs-throughput-estimator.run", simerr.CodeInvalidArgument, "unknown protocol: %q", protocolName)
	}
	if productionType != "magic" && productionType != "epr" {
		return simerr.Newf("qs-throughput-estimator.run", simerr.CodeInvalidArgument, "unknown production type: %q (valid: magic, epr)", productionType)
	}

	alloc := produce.ThroughputAwareAllocation(budget, spec, produce.CallbacksForLevelSpec())
	for i, level := range alloc.Producers {
		fmt.Printf("L%d production count: %d\n", i+1, len(level))
	}

	components := make([]operable.Component, 0)
	for _, level := range alloc.Producers {
		for _, p := range level {
			components = append(components, p)
		}
	}
	group := operable.NewGroup(components...)

	var resourcesConsumed uint64
	lastLevel := lastNonEmptyLevel(alloc.Producers)
	for tick := int64(0); tick < cycles; tick++ {
		group.TickAll()
		for _, p := range lastLevel {
			avail := p.BufferOccupancy()
			if avail > 0 {
				p.Consume(avail)
				resourcesConsumed += uint64(avail)
			}
		}
	}

	simulatedTimeSeconds := 0.0
	if len(lastLevel) > 0 {
		simulatedTimeSeconds = float64(cycles) / (lastLevel[0].FreqKHz() * 1e3)
	}
	trueThroughput := 0.0
	if simulatedTimeSeconds > 0 {
		trueThroughput = float64(resourcesConsumed) / simulatedTimeSeconds
	}

	report := &simstats.Report{}
	report.Line("PRODUCTION_TYPE", productionType)
	report.Line("PHYSICAL_QUBIT_BUDGET", budget)
	report.Line("PHYSICAL_QUBIT_OVERHEAD", alloc.PhysicalQubitCount)
	for i, level := range alloc.Producers {
		report.Section(fmt.Sprintf("L%d", i+1))
		var attempts, failures uint64
		for _, p := range level {
			attempts += p.ProductionAttempts
			failures += p.Failures
		}
		report.Line("PROD_TRIES", attempts)
		report.Line("FAILURES", failures)
	}
	report.Line("SIMULATION_CYCLES", cycles)
	report.Line("RESOURCES_CONSUMED", resourcesConsumed)
	report.Line("ESTIMATED_THROUGHPUT_PER_SECOND", alloc.EstimatedThroughput)
	report.Line("TRUE_THROUGHPUT_PER_SECOND", trueThroughput)
	_, err = report.WriteTo(os.Stdout)
	return err
}

func lastNonEmptyLevel(levels [][]*produce.Producer) []*produce.Producer {
	for i := len(levels) - 1; i >= 0; i-- {
		if len(levels[i]) > 0 {
			return levels[i]
		}
	}
	return nil
}
