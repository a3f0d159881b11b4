package rotation

import (
	"runtime"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sys/unix"

	"github.com/suhaskvittal/quicksilver-go/internal/fixedpoint"
	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/simlog"
)

// key identifies a synthesis request. fixedpoint.Value is not comparable
// (it carries a slice), so the angle is keyed by its hex string.
type key struct {
	angleHex  string
	precision int
}

func keyFor(angle fixedpoint.Value, precision int) key {
	return key{angleHex: angle.HexString(), precision: precision}
}

type pending struct {
	refCount int
	ready    bool
	result   []instruction.Kind
}

// ManagerConfig configures a Manager, mirroring the teacher's config-
// struct-plus-Default* constructor pattern.
type ManagerConfig struct {
	Oracle Oracle
	// Workers is the worker-pool size.
	Workers int
	// CacheSize bounds the completed-result LRU cache.
	CacheSize int
	// CPUAffinity optionally pins worker goroutine i to
	// CPUAffinity[i % len(CPUAffinity)] (§4.6), mirroring the teacher's
	// queue runner's CPU pinning. Nil means no affinity is set.
	CPUAffinity []int
}

// DefaultManagerConfig returns a GridOracle-backed config with 4 workers
// and a 4096-entry cache.
func DefaultManagerConfig() *ManagerConfig {
	return &ManagerConfig{Oracle: GridOracle{}, Workers: 4, CacheSize: 4096}
}

// Manager is the process-wide rotation synthesis worker pool (§4.4, §5,
// §9 "global state = rotation manager singleton"). Concurrency follows
// spec.md §9's exact prescription: one mutex, one condvar workers wait on
// ("pending updated"), one condvar Find callers wait on ("value ready"),
// and a done flag checked after every wakeup.
type Manager struct {
	cfg ManagerConfig

	mu          sync.Mutex
	pendingCond *sync.Cond
	readyCond   *sync.Cond

	queue   []key
	inFlight map[key]*pending
	cache   *lru.Cache[key, []instruction.Kind]

	done bool
	wg   sync.WaitGroup
}

// NewManager constructs a Manager from cfg, defaulting a nil cfg.
func NewManager(cfg *ManagerConfig) *Manager {
	if cfg == nil {
		cfg = DefaultManagerConfig()
	}
	cache, err := lru.New[key, []instruction.Kind](cfg.CacheSize)
	if err != nil {
		simerr.Fatalf("rotation.NewManager", simerr.CodePrecondition, "invalid cache size: %v", err)
	}
	m := &Manager{cfg: *cfg, inFlight: make(map[key]*pending), cache: cache}
	m.pendingCond = sync.NewCond(&m.mu)
	m.readyCond = sync.NewCond(&m.mu)
	return m
}

// Start launches the worker pool. Must be called once before Schedule/Find.
func (m *Manager) Start() {
	for i := 0; i < m.cfg.Workers; i++ {
		m.wg.Add(1)
		go m.workerLoop(i)
	}
}

func (m *Manager) workerLoop(idx int) {
	defer m.wg.Done()
	if len(m.cfg.CPUAffinity) > 0 {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		cpu := m.cfg.CPUAffinity[idx%len(m.cfg.CPUAffinity)]
		var mask unix.CPUSet
		mask.Set(cpu)
		if err := unix.SchedSetaffinity(0, &mask); err != nil {
			simlog.Default().Warnf("rotation worker %d: failed to set CPU affinity to %d: %v", idx, cpu, err)
		}
	}

	for {
		m.mu.Lock()
		for !m.done && len(m.queue) == 0 {
			m.pendingCond.Wait()
		}
		if m.done {
			m.mu.Unlock()
			return
		}
		k := m.queue[0]
		m.queue = m.queue[1:]
		angle, precision := decodeKeyLocked(k)
		m.mu.Unlock()

		seq := Taco(m.cfg.Oracle.Synthesize(angle, precision))

		m.mu.Lock()
		if e, ok := m.inFlight[k]; ok {
			e.result = seq
			e.ready = true
			m.readyCond.Broadcast()
		}
		m.mu.Unlock()
	}
}

// decodeKeyLocked reconstructs the angle Value from its hex-string key.
// Width is recovered from the hex string length (2 hex digits per byte,
// 16 per 64-bit word).
func decodeKeyLocked(k key) (fixedpoint.Value, int) {
	width := len(k.angleHex) * 4
	return fixedpoint.FromHexString(width, k.angleHex), k.precision
}

// Schedule enqueues a synthesis request; if an identical (angle,
// precision) is already tracked (pending, not yet cached), only its
// reference count is bumped (§4.4). A request already present in the
// completed cache needs no new pending entry.
func (m *Manager) Schedule(angle fixedpoint.Value, precision int) {
	k := keyFor(angle, precision)
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cache.Get(k); ok {
		return
	}
	if e, ok := m.inFlight[k]; ok {
		e.refCount++
		return
	}
	m.inFlight[k] = &pending{refCount: 1}
	m.queue = append(m.queue, k)
	m.pendingCond.Signal()
}

// Find blocks until (angle, precision)'s result is ready, decrements its
// reference count, and frees the in-flight entry (moving it to the
// completed cache) on reaching zero. Fatal if Find is called without a
// prior matching Schedule and no cached result exists (§4.4 precondition).
func (m *Manager) Find(angle fixedpoint.Value, precision int) []instruction.Kind {
	k := keyFor(angle, precision)
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq, ok := m.cache.Get(k); ok {
		return seq
	}
	e, ok := m.inFlight[k]
	if !ok {
		simerr.Fatal("rotation.Manager.Find", simerr.CodePrecondition, "find without matching schedule")
	}
	for !e.ready && !m.done {
		m.readyCond.Wait()
	}
	if m.done && !e.ready {
		return nil
	}
	seq := e.result
	e.refCount--
	if e.refCount <= 0 {
		delete(m.inFlight, k)
		m.cache.Add(k, seq)
	}
	return seq
}

// Shutdown signals done, wakes every waiter, waits for workers to drain,
// and clears both the pending queue and the ready cache (§4.4).
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.done = true
	m.pendingCond.Broadcast()
	m.readyCond.Broadcast()
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	m.queue = nil
	m.inFlight = make(map[key]*pending)
	m.cache.Purge()
	m.mu.Unlock()
}
