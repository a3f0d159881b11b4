// Package storage implements the memory subsystem (§4.9): a list of
// storage media, each with a bounded logical-qubit capacity and a set of
// access adapters, routed to by a multi-channel bus.
package storage

import (
	"fmt"
	"io"

	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// AccessResult is the outcome of one storage access (§4.9): whether it
// succeeded, the latency in the storage's own cycle units, and the
// storage's frequency so the caller can translate that latency into its
// own cycle units.
type AccessResult struct {
	Success        bool
	Latency        types.Cycle
	StorageFreqKHz float64
}

// Storage is one storage medium: physical/logical qubit counts, a code
// distance, load/store latencies, a bounded containment set, and a fixed
// number of access adapters (§4.9: "one cycle_available per adapter").
type Storage struct {
	name    string
	freqKHz float64

	PhysicalQubitCount int
	LogicalQubitCount  int
	CodeDistance       int
	LoadLatency        types.Cycle
	StoreLatency       types.Cycle

	// Policy selects an eviction victim when DoStore finds the containment
	// set at capacity (a supplemented concern beyond a plain store-fails
	// contract: see internal/storage.Policy).
	Policy Policy

	contents       map[types.QubitID]struct{}
	cycleAvailable []types.Cycle
	currentCycle   types.Cycle
}

// New constructs a Storage with numAdapters access adapters, all free at
// cycle 0.
func New(name string, freqKHz float64, n, k, d int, loadLatency, storeLatency types.Cycle, numAdapters int) *Storage {
	return &Storage{
		name:               name,
		freqKHz:            freqKHz,
		PhysicalQubitCount: n,
		LogicalQubitCount:  k,
		CodeDistance:       d,
		LoadLatency:        loadLatency,
		StoreLatency:       storeLatency,
		contents:           make(map[types.QubitID]struct{}, k),
		cycleAvailable:     make([]types.Cycle, numAdapters),
	}
}

// Name satisfies operable.Component.
func (s *Storage) Name() string { return s.name }

// FreqKHz satisfies operable.Component.
func (s *Storage) FreqKHz() float64 { return s.freqKHz }

// DumpDeadlockInfo satisfies operable.Component.
func (s *Storage) DumpDeadlockInfo(w io.Writer) {
	fmt.Fprintf(w, "%s: %d of %d logical qubits occupied\n", s.name, len(s.contents), s.LogicalQubitCount)
}

// Operate advances the storage's own cycle; storages take no autonomous
// action, so this always reports progress (§4.9, mirroring the original's
// trivial STORAGE::operate).
func (s *Storage) Operate() int64 {
	s.currentCycle++
	return 1
}

// CurrentCycle is this storage's own logical clock, used to decide adapter
// and routing availability.
func (s *Storage) CurrentCycle() types.Cycle { return s.currentCycle }

// Contains reports whether q is currently held by this storage.
func (s *Storage) Contains(q types.QubitID) bool {
	_, ok := s.contents[q]
	return ok
}

// Len reports the number of qubits currently held.
func (s *Storage) Len() int { return len(s.contents) }

// Insert places q directly into the containment set, bypassing adapters.
// Used only for initialization (§9: storage_striped_initialization).
// Fatal if the storage is already at logical capacity.
func (s *Storage) Insert(q types.QubitID) {
	if len(s.contents) >= s.LogicalQubitCount {
		simerr.Fatalf("storage.Insert", simerr.CodePrecondition, "%s: at logical capacity (%d)", s.name, s.LogicalQubitCount)
	}
	s.contents[q] = struct{}{}
	if s.Policy != nil {
		s.Policy.OnInsert(q, s.currentCycle)
	}
}

// Contents returns a snapshot of the qubits currently held.
func (s *Storage) Contents() []types.QubitID {
	out := make([]types.QubitID, 0, len(s.contents))
	for q := range s.contents {
		out = append(out, q)
	}
	return out
}

func (s *Storage) findFreeAdapter() int {
	for i, c := range s.cycleAvailable {
		if c <= s.currentCycle {
			return i
		}
	}
	return -1
}

// NextFreeAdapterCycle is the earliest cycle (in this storage's own units)
// at which some adapter becomes free (§4.9: get_next_ready_cycle_for_load).
func (s *Storage) NextFreeAdapterCycle() types.Cycle {
	earliest := s.cycleAvailable[0]
	for _, c := range s.cycleAvailable[1:] {
		if c < earliest {
			earliest = c
		}
	}
	if earliest < s.currentCycle {
		earliest = s.currentCycle
	}
	return earliest
}

// DoLoad removes q from this storage's containment set, representing q
// moving into the compute working set. Fails (zero AccessResult) if no
// adapter is free this cycle. Fatal if q is not actually contained.
func (s *Storage) DoLoad(q types.QubitID) AccessResult {
	if !s.Contains(q) {
		simerr.Fatalf("storage.DoLoad", simerr.CodePrecondition, "%s: qubit %d not contained", s.name, q)
	}
	idx := s.findFreeAdapter()
	if idx < 0 {
		return AccessResult{}
	}
	s.cycleAvailable[idx] = s.currentCycle + s.LoadLatency
	delete(s.contents, q)
	if s.Policy != nil {
		s.Policy.OnAccess(q, s.currentCycle)
	}
	return AccessResult{Success: true, Latency: s.LoadLatency, StorageFreqKHz: s.freqKHz}
}

// DoStore inserts q into this storage's containment set, representing q
// moving out of the compute working set. If the storage is at capacity it
// consults Policy for an eviction victim (nil Policy means no internal
// eviction: the store simply fails, as in the original's
// _find_empty_storage contract). Fails if no adapter is free.
func (s *Storage) DoStore(q types.QubitID) AccessResult {
	idx := s.findFreeAdapter()
	if idx < 0 {
		return AccessResult{}
	}
	if len(s.contents) >= s.LogicalQubitCount {
		if s.Policy == nil {
			return AccessResult{}
		}
		victim := s.Policy.SelectVictim(s.Contents(), s.currentCycle)
		delete(s.contents, victim)
		s.Policy.OnEvict(victim)
	}
	s.cycleAvailable[idx] = s.currentCycle + s.StoreLatency
	s.contents[q] = struct{}{}
	if s.Policy != nil {
		s.Policy.OnInsert(q, s.currentCycle)
	}
	return AccessResult{Success: true, Latency: s.StoreLatency, StorageFreqKHz: s.freqKHz}
}

// DoCoupledLoadStore atomically swaps ld out of the containment set for st
// (§4.9 MSWAP semantics): succeeds only if ld is contained, st is not, and
// an adapter is free; the chosen adapter is locked for
// LoadLatency+StoreLatency cycles.
func (s *Storage) DoCoupledLoadStore(ld, st types.QubitID) AccessResult {
	if !s.Contains(ld) {
		simerr.Fatalf("storage.DoCoupledLoadStore", simerr.CodePrecondition, "%s: load qubit %d not contained", s.name, ld)
	}
	if s.Contains(st) {
		simerr.Fatalf("storage.DoCoupledLoadStore", simerr.CodePrecondition, "%s: store qubit %d already contained", s.name, st)
	}
	idx := s.findFreeAdapter()
	if idx < 0 {
		return AccessResult{}
	}
	s.cycleAvailable[idx] = s.currentCycle + s.LoadLatency + s.StoreLatency
	delete(s.contents, ld)
	s.contents[st] = struct{}{}
	if s.Policy != nil {
		s.Policy.OnAccess(ld, s.currentCycle)
		s.Policy.OnInsert(st, s.currentCycle)
	}
	return AccessResult{Success: true, Latency: s.LoadLatency + s.StoreLatency, StorageFreqKHz: s.freqKHz}
}
