package storage

import (
	"github.com/suhaskvittal/quicksilver-go/internal/operable"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// MemorySubsystem is an ordered list of storages plus a routing model
// (§4.9 MEMORY_SUBSYSTEM): do_load/do_store/do_coupled_load_store look up
// or place qubits across the list and translate storage-cycle latencies
// into the caller's own cycle units.
type MemorySubsystem struct {
	storages []*Storage
	router   Router
}

// NewMemorySubsystem builds a subsystem over storages, routed through a
// MultiChannelBus with numChannels channels.
func NewMemorySubsystem(storages []*Storage, numChannels int) *MemorySubsystem {
	return &MemorySubsystem{
		storages: storages,
		router:   NewMultiChannelBus(storages, numChannels),
	}
}

// Storages exposes the ordered storage list (e.g. for striped
// initialization or stat reporting).
func (m *MemorySubsystem) Storages() []*Storage { return m.storages }

func (m *MemorySubsystem) lookupQubit(q types.QubitID) *Storage {
	for _, s := range m.storages {
		if s.Contains(q) {
			return s
		}
	}
	return nil
}

func (m *MemorySubsystem) findStorageWithRoom(callerCycle types.Cycle, callerFreqKHz float64) *Storage {
	for _, s := range m.storages {
		storageCycle := operable.ConvertCyclesBetweenFrequencies(callerCycle, callerFreqKHz, s.FreqKHz())
		if s.Len() < s.LogicalQubitCount && m.router.CanRouteTo(s, storageCycle) {
			return s
		}
	}
	// every storage is full: fall back to the first whose policy can evict.
	for _, s := range m.storages {
		storageCycle := operable.ConvertCyclesBetweenFrequencies(callerCycle, callerFreqKHz, s.FreqKHz())
		if s.Policy != nil && m.router.CanRouteTo(s, storageCycle) {
			return s
		}
	}
	return nil
}

// DoLoad locates the storage containing q and, if the router and storage
// both have capacity this cycle, removes q from it. Fatal if q is not
// held anywhere in the subsystem.
func (m *MemorySubsystem) DoLoad(q types.QubitID, callerCycle types.Cycle, callerFreqKHz float64) AccessResult {
	s := m.lookupQubit(q)
	if s == nil {
		simerr.Fatalf("storage.MemorySubsystem.DoLoad", simerr.CodePrecondition, "qubit %d not present in any storage", q)
	}
	storageCycle := operable.ConvertCyclesBetweenFrequencies(callerCycle, callerFreqKHz, s.FreqKHz())
	if !m.router.CanRouteTo(s, storageCycle) {
		return AccessResult{}
	}
	return m.handleOutcome(s.DoLoad(q), s, callerFreqKHz)
}

// DoStore finds a storage with free capacity (evicting via its Policy if
// every storage is full and at least one carries a Policy) and places q
// into it.
func (m *MemorySubsystem) DoStore(q types.QubitID, callerCycle types.Cycle, callerFreqKHz float64) AccessResult {
	s := m.findStorageWithRoom(callerCycle, callerFreqKHz)
	if s == nil {
		return AccessResult{}
	}
	return m.handleOutcome(s.DoStore(q), s, callerFreqKHz)
}

// DoCoupledLoadStore atomically swaps ld out for st within ld's storage.
// Fatal if ld is not held anywhere in the subsystem.
func (m *MemorySubsystem) DoCoupledLoadStore(ld, st types.QubitID, callerCycle types.Cycle, callerFreqKHz float64) AccessResult {
	s := m.lookupQubit(ld)
	if s == nil {
		simerr.Fatalf("storage.MemorySubsystem.DoCoupledLoadStore", simerr.CodePrecondition, "load qubit %d not present in any storage", ld)
	}
	storageCycle := operable.ConvertCyclesBetweenFrequencies(callerCycle, callerFreqKHz, s.FreqKHz())
	if !m.router.CanRouteTo(s, storageCycle) {
		return AccessResult{}
	}
	return m.handleOutcome(s.DoCoupledLoadStore(ld, st), s, callerFreqKHz)
}

// GetNextReadyCycleForLoad is the earliest cycle, in callerFreqKHz units,
// at which a load of q could succeed: the later of the routing channel's
// and the storage's own earliest-free-adapter cycle. Fatal if q is not
// held anywhere in the subsystem.
func (m *MemorySubsystem) GetNextReadyCycleForLoad(q types.QubitID, callerFreqKHz float64) types.Cycle {
	s := m.lookupQubit(q)
	if s == nil {
		simerr.Fatalf("storage.MemorySubsystem.GetNextReadyCycleForLoad", simerr.CodePrecondition, "qubit %d not present in any storage", q)
	}
	routeReady := operable.ConvertCyclesBetweenFrequencies(m.router.ReadyCycle(s), s.FreqKHz(), callerFreqKHz)
	storageReady := operable.ConvertCyclesBetweenFrequencies(s.NextFreeAdapterCycle(), s.FreqKHz(), callerFreqKHz)
	if routeReady > storageReady {
		return routeReady
	}
	return storageReady
}

func (m *MemorySubsystem) handleOutcome(res AccessResult, s *Storage, callerFreqKHz float64) AccessResult {
	if !res.Success {
		return res
	}
	res.Latency = operable.ConvertCyclesBetweenFrequencies(res.Latency, s.FreqKHz(), callerFreqKHz)
	lockUntil := s.CurrentCycle() + 2
	m.router.LockRouteTo(s, lockUntil)
	return res
}
