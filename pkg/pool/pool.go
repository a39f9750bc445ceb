package pool

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sergioguerreroblanco-oss/worker-cola-multithread/pkg/logger"
	"github.com/sergioguerreroblanco-oss/worker-cola-multithread/pkg/queue"
	"github.com/sergioguerreroblanco-oss/worker-cola-multithread/pkg/types"
)

// Task is a unit of work: a zero-argument callable capturing its own inputs.
// Tasks are fire-and-forget; the pool knows nothing about their identity or
// result. A task that needs to report success or failure must do so through
// caller-owned state.
type Task func()

// Config defines configuration for a Pool
type Config struct {
	// PollInterval is how often Stop re-checks the queue while draining
	PollInterval time.Duration

	// DrainTimeout is the ceiling on Stop's drain wait; on expiry Stop
	// warns and proceeds with shutdown anyway
	DrainTimeout time.Duration

	// Logger is the sink for status lines (optional, defaults to logger.Default)
	Logger *logger.Logger

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// Action receives worker lifecycle events (optional, defaults to NopAction)
	Action Action
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 5 * time.Millisecond,
		DrainTimeout: time.Second,
		Logger:       logger.Default,
		Clock:        types.NewRealClock(),
		Action:       NopAction{},
	}
}

// Pool owns a fixed set of named worker goroutines that drain one shared
// task queue. The queue is borrowed: the caller constructs it before the
// pool and must keep it alive until Stop has returned. A Pool supports a
// single Start/Stop cycle; restarting a stopped pool is not supported.
type Pool struct {
	config *Config
	queue  *queue.Queue[Task]

	running atomic.Bool

	// aggregate counters, survive Stop
	totalExecuted int64
	totalFailed   int64

	// guards the worker map during start/stop and stats snapshots
	mu      sync.Mutex
	workers map[string]*worker
}

// New creates a pool bound to q. The queue must be non-nil and must outlive
// the pool. A nil config uses DefaultConfig; zero-valued fields are filled
// with defaults.
func New(q *queue.Queue[Task], config *Config) (*Pool, error) {
	if q == nil {
		return nil, fmt.Errorf("pool requires a queue, got nil")
	}

	if config == nil {
		config = DefaultConfig()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Millisecond
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = time.Second
	}
	if config.Logger == nil {
		config.Logger = logger.Default
	}
	if config.Clock == nil {
		config.Clock = types.NewRealClock()
	}
	if config.Action == nil {
		config.Action = NopAction{}
	}

	return &Pool{
		config:  config,
		queue:   q,
		workers: make(map[string]*worker),
	}, nil
}

// Start spawns n workers named "Worker 0" through "Worker n-1", each running
// the fetch-execute loop against the bound queue. Starting an already
// running pool is a silent no-op. Spawn order does not imply execution
// order.
func (p *Pool) Start(n int) error {
	if n <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", n)
	}

	if !p.running.CompareAndSwap(false, true) {
		return nil
	}

	p.config.Logger.Info("[Worker Pool] starting %d workers", n)

	p.mu.Lock()
	for i := 0; i < n; i++ {
		w := newWorker(fmt.Sprintf("Worker %d", i))
		p.workers[w.name] = w
		go p.run(w)
	}
	p.mu.Unlock()

	return nil
}

// Submit pushes task onto the bound queue. It is safe to call from any
// number of producer goroutines and never blocks, independent of the pool's
// running state: a task submitted before Start is simply queued, and one
// submitted after Stop is buffered by the closed queue without ever being
// picked up.
func (p *Pool) Submit(task Task) {
	p.queue.Push(task)
}

// Stop shuts the pool down and returns once every worker has terminated.
// The sequence is: wait for the queue to drain (bounded by DrainTimeout,
// polling every PollInterval; on expiry a warning is logged and shutdown
// proceeds), close the queue to release blocked workers, join every worker,
// clear the worker map. Tasks still queued when the ceiling expires are
// executed regardless, since workers drain the closed queue before exiting
// and Stop joins them afterwards. Stopping a pool that is not running is a
// no-op.
func (p *Pool) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}

	clock := p.config.Clock
	p.config.Logger.Info("[Worker Pool] stop requested, waiting for queued tasks")

	if !p.queue.IsEmpty() {
		start := clock.Now()
		ticker := clock.NewTicker(p.config.PollInterval)
		for !p.queue.IsEmpty() {
			if clock.Since(start) > p.config.DrainTimeout {
				p.config.Logger.Warn("[Worker Pool] timeout waiting for queue to drain, %d tasks still queued", p.queue.Len())
				break
			}
			<-ticker.C()
		}
		ticker.Stop()
	}

	p.queue.Close()
	p.config.Logger.Info("[Worker Pool] queue closed, joining workers")

	p.mu.Lock()
	joined := make([]*worker, 0, len(p.workers))
	for _, w := range p.workers {
		joined = append(joined, w)
	}
	p.mu.Unlock()

	for _, w := range joined {
		<-w.done
	}

	p.mu.Lock()
	p.workers = make(map[string]*worker)
	p.mu.Unlock()

	p.config.Logger.Info("[Worker Pool] all workers stopped")
}

// IsRunning reports whether the pool is between Start and Stop.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Size returns the number of live workers.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// Stats is a point-in-time snapshot of the pool.
type Stats struct {
	Workers       int
	QueueLength   int
	TotalExecuted int64
	TotalFailed   int64
}

// Stats returns aggregate counters. The totals are cumulative for the life
// of the pool and remain readable after Stop.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Workers:       len(p.workers),
		QueueLength:   p.queue.Len(),
		TotalExecuted: atomic.LoadInt64(&p.totalExecuted),
		TotalFailed:   atomic.LoadInt64(&p.totalFailed),
	}
}

// WorkerStats returns per-worker snapshots, ordered by worker name.
func (p *Pool) WorkerStats() []WorkerStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make([]WorkerStats, 0, len(p.workers))
	for _, w := range p.workers {
		stats = append(stats, w.stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}
