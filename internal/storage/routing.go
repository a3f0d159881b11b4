package storage

import "github.com/suhaskvittal/quicksilver-go/internal/types"

// Router abstracts the interconnect between compute and a set of storages
// (§4.9 ROUTING_MODEL<T>): whether a route to a given storage is free this
// cycle, and locking it for some duration once used.
type Router interface {
	CanRouteTo(s *Storage, currentCycle types.Cycle) bool
	LockRouteTo(s *Storage, untilCycle types.Cycle)
	ReadyCycle(s *Storage) types.Cycle
}

// MultiChannelBus routes to a fixed set of storages over a fixed number of
// channels, assigning each storage to channel index%numChannels (§4.9
// MULTI_CHANNEL_BUS<T>).
type MultiChannelBus struct {
	entities       []*Storage
	numChannels    int
	cycleAvailable []types.Cycle
}

// NewMultiChannelBus builds a bus over entities with numChannels channels.
// A non-positive numChannels is treated as 1.
func NewMultiChannelBus(entities []*Storage, numChannels int) *MultiChannelBus {
	if numChannels <= 0 {
		numChannels = 1
	}
	return &MultiChannelBus{
		entities:       entities,
		numChannels:    numChannels,
		cycleAvailable: make([]types.Cycle, numChannels),
	}
}

func (b *MultiChannelBus) channelIdx(s *Storage) int {
	for i, e := range b.entities {
		if e == s {
			return i % b.numChannels
		}
	}
	return 0
}

func (b *MultiChannelBus) CanRouteTo(s *Storage, currentCycle types.Cycle) bool {
	return b.cycleAvailable[b.channelIdx(s)] <= currentCycle
}

func (b *MultiChannelBus) LockRouteTo(s *Storage, untilCycle types.Cycle) {
	b.cycleAvailable[b.channelIdx(s)] = untilCycle
}

func (b *MultiChannelBus) ReadyCycle(s *Storage) types.Cycle {
	return b.cycleAvailable[b.channelIdx(s)]
}
