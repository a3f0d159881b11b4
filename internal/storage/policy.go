package storage

import "github.com/suhaskvittal/quicksilver-go/internal/types"

// Policy is a storage eviction policy: it tracks whatever per-qubit state
// it needs via OnAccess/OnInsert/OnEvict and picks a victim among a
// storage's current contents on demand.
type Policy interface {
	OnAccess(q types.QubitID, cycle types.Cycle)
	OnInsert(q types.QubitID, cycle types.Cycle)
	OnEvict(q types.QubitID)
	SelectVictim(contents []types.QubitID, currentCycle types.Cycle) types.QubitID
}

// LRU evicts the qubit least recently accessed (or, if never accessed
// since insertion, least recently inserted).
type LRU struct {
	last map[types.QubitID]types.Cycle
}

func NewLRU() *LRU { return &LRU{last: make(map[types.QubitID]types.Cycle)} }

func (p *LRU) OnAccess(q types.QubitID, cycle types.Cycle) { p.last[q] = cycle }
func (p *LRU) OnInsert(q types.QubitID, cycle types.Cycle) { p.last[q] = cycle }
func (p *LRU) OnEvict(q types.QubitID)                     { delete(p.last, q) }

func (p *LRU) SelectVictim(contents []types.QubitID, _ types.Cycle) types.QubitID {
	victim := contents[0]
	oldest := p.last[victim]
	for _, q := range contents[1:] {
		if t := p.last[q]; t < oldest {
			victim, oldest = q, t
		}
	}
	return victim
}

// LTI (least-time-idle) evicts whichever qubit has been idle the longest
// relative to threshold: among qubits idle at least threshold cycles, the
// one idle longest; if none has crossed threshold, it falls back to the
// plain least-recently-used choice.
type LTI struct {
	threshold types.Cycle
	last      map[types.QubitID]types.Cycle
}

func NewLTI(threshold types.Cycle) *LTI {
	return &LTI{threshold: threshold, last: make(map[types.QubitID]types.Cycle)}
}

func (p *LTI) OnAccess(q types.QubitID, cycle types.Cycle) { p.last[q] = cycle }
func (p *LTI) OnInsert(q types.QubitID, cycle types.Cycle) { p.last[q] = cycle }
func (p *LTI) OnEvict(q types.QubitID)                     { delete(p.last, q) }

func (p *LTI) SelectVictim(contents []types.QubitID, currentCycle types.Cycle) types.QubitID {
	var victim types.QubitID
	var longestIdle types.Cycle
	found := false
	oldestSeen := contents[0]
	oldestLast := p.last[oldestSeen]
	for _, q := range contents {
		idle := currentCycle - p.last[q]
		if idle >= p.threshold && (!found || idle > longestIdle) {
			victim, longestIdle, found = q, idle, true
		}
		if t := p.last[q]; t < oldestLast {
			oldestSeen, oldestLast = q, t
		}
	}
	if !found {
		return oldestSeen
	}
	return victim
}
