package rotation

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suhaskvittal/quicksilver-go/internal/fixedpoint"
	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
)

// countingOracle counts how many times Synthesize is actually invoked, to
// verify the §4.4 correctness contract: concurrent schedules of the same
// key perform exactly one synthesis.
type countingOracle struct {
	calls atomic.Int64
}

func (o *countingOracle) Synthesize(angle fixedpoint.Value, precision int) []instruction.Kind {
	o.calls.Add(1)
	return []instruction.Kind{instruction.T, instruction.H}
}

func TestScheduleFindSingleRequest(t *testing.T) {
	oracle := &countingOracle{}
	m := NewManager(&ManagerConfig{Oracle: oracle, Workers: 2, CacheSize: 16})
	m.Start()
	defer m.Shutdown()

	angle := fixedpoint.FromUint64(64, 3)
	m.Schedule(angle, 10)
	got := m.Find(angle, 10)
	require.Equal(t, Taco([]instruction.Kind{instruction.T, instruction.H}), got)
	require.Equal(t, int64(1), oracle.calls.Load())
}

func TestConcurrentScheduleSameKeyOnce(t *testing.T) {
	oracle := &countingOracle{}
	m := NewManager(&ManagerConfig{Oracle: oracle, Workers: 4, CacheSize: 16})
	m.Start()
	defer m.Shutdown()

	angle := fixedpoint.FromUint64(64, 99)
	var wg sync.WaitGroup
	results := make([][]instruction.Kind, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Schedule(angle, 5)
			results[i] = m.Find(angle, 5)
		}(i)
	}
	wg.Wait()

	want := results[0]
	for _, got := range results {
		require.Equal(t, want, got)
	}
	require.Equal(t, int64(1), oracle.calls.Load())
}

func TestFindWithoutScheduleFatal(t *testing.T) {
	m := NewManager(&ManagerConfig{Oracle: &countingOracle{}, Workers: 1, CacheSize: 16})
	m.Start()
	defer m.Shutdown()
	require.Panics(t, func() { m.Find(fixedpoint.FromUint64(64, 1), 5) })
}

func TestCacheServesRepeatedFindsWithoutResynthesis(t *testing.T) {
	oracle := &countingOracle{}
	m := NewManager(&ManagerConfig{Oracle: oracle, Workers: 1, CacheSize: 16})
	m.Start()
	defer m.Shutdown()

	angle := fixedpoint.FromUint64(64, 42)
	m.Schedule(angle, 5)
	_ = m.Find(angle, 5)

	m.Schedule(angle, 5)
	_ = m.Find(angle, 5)

	require.Equal(t, int64(1), oracle.calls.Load())
}
