package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suhaskvittal/quicksilver-go/internal/produce"
	"github.com/suhaskvittal/quicksilver-go/internal/storage"
)

func TestMemoryModuleConfigBuildWiresLRUPolicy(t *testing.T) {
	cfg := MemoryModuleConfig{Name: "m0", FreqKHz: 1000, PhysicalQubitCount: 4, LogicalQubitCount: 4, CodeDistance: 3, LoadLatency: 1, StoreLatency: 1, NumAdapters: 1, Policy: "lru"}
	s := cfg.build()
	require.Equal(t, "m0", s.Name())
	require.IsType(t, storage.NewLRU(), s.Policy)
}

func TestMemoryModuleConfigBuildLeavesPolicyNilByDefault(t *testing.T) {
	cfg := MemoryModuleConfig{Name: "m0", FreqKHz: 1000, PhysicalQubitCount: 4, LogicalQubitCount: 4, CodeDistance: 3, LoadLatency: 1, StoreLatency: 1, NumAdapters: 1}
	s := cfg.build()
	require.Nil(t, s.Policy)
}

func TestProductionConfigBuildReturnsNilOnZeroBudget(t *testing.T) {
	protocols, err := produce.LoadProtocols("")
	require.NoError(t, err)
	cfg := ProductionConfig{Budget: 0, ProtocolName: "protocol_0"}
	require.Nil(t, cfg.build(protocols))
}

func TestProductionConfigBuildReturnsNilOnUnknownProtocol(t *testing.T) {
	protocols, err := produce.LoadProtocols("")
	require.NoError(t, err)
	cfg := ProductionConfig{Budget: 1000, ProtocolName: "no-such-protocol"}
	require.Nil(t, cfg.build(protocols))
}

func TestProductionConfigBuildAllocatesAcrossLevels(t *testing.T) {
	protocols, err := produce.LoadProtocols("")
	require.NoError(t, err)
	cfg := ProductionConfig{Budget: 2000, ProtocolName: "protocol_0"}
	levels := cfg.build(protocols)
	require.NotEmpty(t, levels)
}

func TestTopLevelSkipsTrailingEmptyLevels(t *testing.T) {
	levels := [][]*produce.Producer{
		{{}},
		{},
	}
	require.Same(t, levels[0][0], topLevel(levels)[0])
}

func TestTopLevelReturnsNilForAllEmptyLevels(t *testing.T) {
	levels := [][]*produce.Producer{{}, {}}
	require.Nil(t, topLevel(levels))
}
