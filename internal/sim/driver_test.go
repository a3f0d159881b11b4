package sim

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/produce"
	"github.com/suhaskvittal/quicksilver-go/internal/traceio"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// writeTestTrace emits n single-qubit H instructions over a small qubit
// count, cycling through qubits so the DAG has no artificial dependencies.
func writeTestTrace(t *testing.T, path string, qubits types.QubitID, n int) {
	t.Helper()
	w, err := traceio.CreateWriter(path, qubits)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		q := types.QubitID(i) % qubits
		require.NoError(t, w.Write(instruction.New(instruction.H, q)))
	}
	require.NoError(t, w.Close())
}

func testConfig(t *testing.T, tracePath string, instLimit int64) Config {
	protocols, err := produce.LoadProtocols("")
	require.NoError(t, err)
	return Config{
		Compute: ComputeConfig{
			FreqKHz:             1000,
			CodeDistance:        3,
			LocalMemoryCapacity: 4,
			ConcurrentClients:   1,
		},
		MemoryModules: []MemoryModuleConfig{
			{Name: "mem0", FreqKHz: 1000, PhysicalQubitCount: 8, LogicalQubitCount: 8, CodeDistance: 3, LoadLatency: 1, StoreLatency: 1, NumAdapters: 1, Policy: "lru"},
		},
		NumChannels: 1,
		MagicState:  ProductionConfig{Budget: 0},
		EPR:         ProductionConfig{Budget: 0},
		Protocols:   protocols,
		Clients: []ClientConfig{
			{TracePath: tracePath, InstructionLimit: instLimit, DAGCapacity: 64},
		},
	}
}

func TestBuildWiresAndRunRetiresAllInstructions(t *testing.T) {
	trace := filepath.Join(t.TempDir(), "test.trace")
	writeTestTrace(t, trace, 4, 20)

	cfg := testConfig(t, trace, 20)
	s, err := Build(cfg)
	require.NoError(t, err)
	defer s.Close()

	s.Run(0, nil)

	require.True(t, s.Compute.Done())
	require.EqualValues(t, 20, s.Compute.Clients()[0].RetiredUnrolled)
	require.Greater(t, s.TickCount(), uint64(0))
}

func TestBuildReturnsErrorOnMissingTraceFile(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "does-not-exist.trace"), 20)
	_, err := Build(cfg)
	require.Error(t, err)
}

func TestMaxInstructionLimitPicksLargestClientBudget(t *testing.T) {
	clients := []ClientConfig{{InstructionLimit: 10}, {InstructionLimit: 50}, {InstructionLimit: 30}}
	require.EqualValues(t, 50, maxInstructionLimit(clients))
}

func TestReportEmitsClientAndTotalsSections(t *testing.T) {
	trace := filepath.Join(t.TempDir(), "test.trace")
	writeTestTrace(t, trace, 4, 5)

	cfg := testConfig(t, trace, 5)
	s, err := Build(cfg)
	require.NoError(t, err)
	defer s.Close()

	s.Run(0, nil)

	report := s.Report()
	var buf strings.Builder
	_, err = report.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	require.Contains(t, out, "TOTAL_CYCLES")
	require.Contains(t, out, "CLIENT_0")
	require.Contains(t, out, "RETIRED_UNROLLED")
}
