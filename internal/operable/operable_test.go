package operable

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

type fakeComponent struct {
	name     string
	freq     float64
	progress []int64 // consumed one per Operate call; repeats last entry after exhaustion
	calls    int
}

func (f *fakeComponent) Name() string    { return f.name }
func (f *fakeComponent) FreqKHz() float64 { return f.freq }
func (f *fakeComponent) DumpDeadlockInfo(io.Writer) {}

func (f *fakeComponent) Operate() int64 {
	i := f.calls
	if i >= len(f.progress) {
		i = len(f.progress) - 1
	}
	f.calls++
	return f.progress[i]
}

func TestClockScaleFastestComponentTicksEveryTime(t *testing.T) {
	fast := &fakeComponent{name: "fast", freq: 1000, progress: []int64{1}}
	slow := &fakeComponent{name: "slow", freq: 250, progress: []int64{1}}
	group := NewGroup(fast, slow)

	for i := 0; i < 4; i++ {
		group.TickAll()
	}

	require.Equal(t, types.Cycle(4), group.Members()[0].CurrentCycle())
	require.Equal(t, types.Cycle(1), group.Members()[1].CurrentCycle())
}

func TestZeroProgressResetsOnAnyProgress(t *testing.T) {
	c := &fakeComponent{name: "c", freq: 1000, progress: []int64{0, 0, 1, 0, 0}}
	o := New(c)
	o.clockScale = 1.0
	for i := 0; i < 5; i++ {
		o.Tick()
	}
	require.Equal(t, types.Cycle(2), o.cyclesWithNoProgress)
}

func TestDeadlockFatalAfterThreshold(t *testing.T) {
	c := &fakeComponent{name: "stuck", freq: 1000, progress: []int64{0}}
	o := New(c)
	o.clockScale = 1.0

	require.Panics(t, func() {
		for i := 0; i < MaxCyclesWithNoProgress+1; i++ {
			o.Tick()
		}
	})
}

func TestConvertCyclesBetweenFrequenciesRoundsUp(t *testing.T) {
	require.Equal(t, types.Cycle(2), ConvertCyclesBetweenFrequencies(1, 1000, 600))
	require.Equal(t, types.Cycle(1), ConvertCyclesBetweenFrequencies(1, 500, 1000))
}

func TestComputeFreqKHz(t *testing.T) {
	require.InDelta(t, 1000.0, ComputeFreqKHz(1000), 1e-9)
}
