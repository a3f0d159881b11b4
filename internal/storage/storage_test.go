package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

func newTestStorage(k int) *Storage {
	return New("s", 1.0, k, k, 3, 5, 3, 2)
}

func TestDoLoadRemovesQubitAndLocksAdapter(t *testing.T) {
	s := newTestStorage(4)
	s.Insert(1)
	res := s.DoLoad(1)
	require.True(t, res.Success)
	require.EqualValues(t, 5, res.Latency)
	require.False(t, s.Contains(1))
}

func TestDoLoadFatalOnMissingQubit(t *testing.T) {
	s := newTestStorage(4)
	require.Panics(t, func() { s.DoLoad(99) })
}

func TestDoStoreFailsWhenFullWithoutPolicy(t *testing.T) {
	s := newTestStorage(1)
	s.Insert(1)
	res := s.DoStore(2)
	require.False(t, res.Success)
}

func TestDoStoreEvictsViaPolicyWhenFull(t *testing.T) {
	s := newTestStorage(1)
	s.Policy = NewLRU()
	s.Insert(1)
	res := s.DoStore(2)
	require.True(t, res.Success)
	require.False(t, s.Contains(1))
	require.True(t, s.Contains(2))
}

func TestDoCoupledLoadStoreSwapsAtomically(t *testing.T) {
	s := newTestStorage(4)
	s.Insert(1)
	res := s.DoCoupledLoadStore(1, 2)
	require.True(t, res.Success)
	require.EqualValues(t, 5+3, res.Latency)
	require.False(t, s.Contains(1))
	require.True(t, s.Contains(2))
}

func TestDoCoupledLoadStoreFatalWhenStoreQubitAlreadyPresent(t *testing.T) {
	s := newTestStorage(4)
	s.Insert(1)
	s.Insert(2)
	require.Panics(t, func() { s.DoCoupledLoadStore(1, 2) })
}

func TestAdaptersGateConcurrentAccesses(t *testing.T) {
	s := New("s", 1.0, 2, 2, 3, 5, 3, 1) // one adapter
	s.Insert(1)
	s.Insert(2)
	res1 := s.DoLoad(1)
	require.True(t, res1.Success)
	res2 := s.DoLoad(2)
	require.False(t, res2.Success) // adapter busy until cycle 5
	for i := 0; i < 5; i++ {
		s.Operate()
	}
	res3 := s.DoLoad(2)
	require.True(t, res3.Success)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	p := NewLRU()
	p.OnInsert(1, 0)
	p.OnInsert(2, 1)
	p.OnAccess(1, 5)
	victim := p.SelectVictim([]types.QubitID{1, 2}, 5)
	require.Equal(t, types.QubitID(2), victim)
}

func TestLTIFallsBackToLRUBelowThreshold(t *testing.T) {
	p := NewLTI(100)
	p.OnInsert(1, 0)
	p.OnInsert(2, 1)
	victim := p.SelectVictim([]types.QubitID{1, 2}, 10)
	require.Equal(t, types.QubitID(1), victim)
}

func TestLTIPrefersQubitPastThreshold(t *testing.T) {
	p := NewLTI(5)
	p.OnInsert(1, 0)
	p.OnInsert(2, 8)
	// qubit 1 idle 10 cycles (>= threshold 5), qubit 2 idle 2 cycles.
	victim := p.SelectVictim([]types.QubitID{1, 2}, 10)
	require.Equal(t, types.QubitID(1), victim)
}
