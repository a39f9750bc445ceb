package pool

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergioguerreroblanco-oss/worker-cola-multithread/internal/testutils"
	"github.com/sergioguerreroblanco-oss/worker-cola-multithread/pkg/logger"
	"github.com/sergioguerreroblanco-oss/worker-cola-multithread/pkg/queue"
)

// safeBuffer lets tests read log output while workers may still be writing.
type safeBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *safeBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *safeBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func quietConfig() *Config {
	cfg := DefaultConfig()
	cfg.Logger = logger.New(io.Discard, logger.LevelError)
	return cfg
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		queue       *queue.Queue[Task]
		config      *Config
		expectError bool
	}{
		{
			name:        "nil queue should error",
			queue:       nil,
			config:      nil,
			expectError: true,
		},
		{
			name:        "nil config should use default",
			queue:       queue.New[Task](),
			config:      nil,
			expectError: false,
		},
		{
			name:        "zero config fields are filled",
			queue:       queue.New[Task](),
			config:      &Config{},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.queue, tt.config)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, p)
			} else {
				require.NoError(t, err)
				require.NotNil(t, p)
				assert.False(t, p.IsRunning())
				assert.Equal(t, 0, p.Size())
			}
		})
	}
}

func TestPool_ExecutesAllTasks(t *testing.T) {
	for _, workers := range []int{1, 2, 4, 8} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			const tasks = 200

			q := queue.New[Task]()
			p, err := New(q, quietConfig())
			require.NoError(t, err)
			require.NoError(t, p.Start(workers))

			var counter int64
			for i := 0; i < tasks; i++ {
				p.Submit(func() {
					atomic.AddInt64(&counter, 1)
				})
			}

			p.Stop()

			assert.Equal(t, int64(tasks), atomic.LoadInt64(&counter))
			assert.True(t, q.IsEmpty())
			assert.False(t, p.IsRunning())
		})
	}
}

func TestPool_StartValidation(t *testing.T) {
	q := queue.New[Task]()
	p, err := New(q, quietConfig())
	require.NoError(t, err)

	assert.Error(t, p.Start(0))
	assert.Error(t, p.Start(-3))
	assert.False(t, p.IsRunning())
}

func TestPool_StartWhileRunningIsNoop(t *testing.T) {
	q := queue.New[Task]()
	p, err := New(q, quietConfig())
	require.NoError(t, err)

	require.NoError(t, p.Start(2))
	assert.Equal(t, 2, p.Size())

	// A second Start must not spawn more workers.
	require.NoError(t, p.Start(8))
	assert.Equal(t, 2, p.Size())

	p.Stop()
}

func TestPool_WorkerNames(t *testing.T) {
	q := queue.New[Task]()
	p, err := New(q, quietConfig())
	require.NoError(t, err)
	require.NoError(t, p.Start(3))

	stats := p.WorkerStats()
	require.Len(t, stats, 3)
	for i, ws := range stats {
		assert.Equal(t, fmt.Sprintf("Worker %d", i), ws.Name)
	}

	p.Stop()
	assert.Empty(t, p.WorkerStats())
}

func TestPool_IdempotentStop(t *testing.T) {
	q := queue.New[Task]()
	p, err := New(q, quietConfig())
	require.NoError(t, err)
	require.NoError(t, p.Start(2))

	p.Stop()
	assert.False(t, p.IsRunning())

	begin := time.Now()
	assert.NotPanics(t, p.Stop)
	assert.Less(t, time.Since(begin), 500*time.Millisecond,
		"second Stop must return immediately")
}

func TestPool_StopBeforeStartIsNoop(t *testing.T) {
	q := queue.New[Task]()
	p, err := New(q, quietConfig())
	require.NoError(t, err)

	assert.NotPanics(t, p.Stop)
	assert.False(t, q.IsClosed(), "Stop on an idle pool must not close the queue")
}

func TestPool_TaskPanicIsolation(t *testing.T) {
	const tasks = 50

	q := queue.New[Task]()
	p, err := New(q, quietConfig())
	require.NoError(t, err)
	require.NoError(t, p.Start(4))

	var counter int64
	for i := 0; i < tasks; i++ {
		i := i
		p.Submit(func() {
			if i == 10 {
				panic("task exploded")
			}
			atomic.AddInt64(&counter, 1)
		})
	}

	p.Stop()

	assert.Equal(t, int64(tasks-1), atomic.LoadInt64(&counter))

	stats := p.Stats()
	assert.Equal(t, int64(tasks-1), stats.TotalExecuted)
	assert.Equal(t, int64(1), stats.TotalFailed)
}

func TestPool_PanicIsLogged(t *testing.T) {
	buf := &safeBuffer{}
	cfg := DefaultConfig()
	cfg.Logger = logger.New(buf, logger.LevelError)

	q := queue.New[Task]()
	p, err := New(q, cfg)
	require.NoError(t, err)
	require.NoError(t, p.Start(1))

	p.Submit(func() { panic("boom") })
	p.Stop()

	out := buf.String()
	assert.Contains(t, out, "[Worker 0]")
	assert.Contains(t, out, "task panic: boom")
}

func TestPool_SubmitBeforeStart(t *testing.T) {
	q := queue.New[Task]()
	p, err := New(q, quietConfig())
	require.NoError(t, err)

	var counter int64
	for i := 0; i < 5; i++ {
		p.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}
	assert.Equal(t, 5, q.Len())

	require.NoError(t, p.Start(2))
	p.Stop()

	assert.Equal(t, int64(5), atomic.LoadInt64(&counter))
}

func TestPool_SubmitAfterStopIsAbsorbed(t *testing.T) {
	q := queue.New[Task]()
	p, err := New(q, quietConfig())
	require.NoError(t, err)
	require.NoError(t, p.Start(1))
	p.Stop()

	// The closed queue still accepts the push; no worker will run it.
	assert.NotPanics(t, func() {
		p.Submit(func() {})
	})
	assert.Equal(t, 1, q.Len())

	_, ok := q.TryPop()
	assert.True(t, ok, "late submission stays visible to TryPop")
}

func TestPool_StopWithEmptyQueueSkipsDrainWait(t *testing.T) {
	// With a mock clock, Stop would hang on the drain ticker if it polled;
	// an already-empty queue must bypass the wait entirely.
	mock := testutils.NewMockClock(t)

	cfg := quietConfig()
	cfg.Clock = testutils.NewClockWrapper(mock)

	q := queue.New[Task]()
	p, err := New(q, cfg)
	require.NoError(t, err)
	require.NoError(t, p.Start(2))

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on mock time with an empty queue")
	}
	assert.True(t, q.IsClosed())
}

func TestPool_DrainTimeoutWarnsAndProceeds(t *testing.T) {
	buf := &safeBuffer{}
	cfg := &Config{
		PollInterval: time.Millisecond,
		DrainTimeout: 20 * time.Millisecond,
		Logger:       logger.New(buf, logger.LevelInfo),
	}

	q := queue.New[Task]()
	p, err := New(q, cfg)
	require.NoError(t, err)
	require.NoError(t, p.Start(1))

	gate := make(chan struct{})
	var counter int64

	// The single worker parks on the gate while more tasks pile up, so the
	// drain wait cannot succeed within the ceiling.
	p.Submit(func() { <-gate })
	for i := 0; i < 3; i++ {
		p.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}

	stopDone := make(chan struct{})
	go func() {
		p.Stop()
		close(stopDone)
	}()

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "timeout waiting for queue to drain")
	}, 2*time.Second, 5*time.Millisecond)

	// Stop is still joining the blocked worker.
	select {
	case <-stopDone:
		t.Fatal("Stop returned while a worker was still executing")
	default:
	}

	close(gate)

	select {
	case <-stopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the worker was released")
	}

	// Tasks queued past the ceiling still ran: close happens before join.
	assert.Equal(t, int64(3), atomic.LoadInt64(&counter))
	assert.True(t, q.IsEmpty())
}

func TestPool_Stats(t *testing.T) {
	const tasks = 30

	q := queue.New[Task]()
	p, err := New(q, quietConfig())
	require.NoError(t, err)
	require.NoError(t, p.Start(3))

	var counter int64
	for i := 0; i < tasks; i++ {
		p.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}

	assert.Eventually(t, func() bool {
		return p.Stats().TotalExecuted == int64(tasks)
	}, 2*time.Second, 5*time.Millisecond)

	stats := p.Stats()
	assert.Equal(t, 3, stats.Workers)
	assert.Equal(t, int64(0), stats.TotalFailed)

	p.Stop()

	// Totals survive shutdown even though the worker map is cleared.
	stats = p.Stats()
	assert.Equal(t, 0, stats.Workers)
	assert.Equal(t, int64(tasks), stats.TotalExecuted)
}

func TestWorkerState_String(t *testing.T) {
	tests := []struct {
		state    WorkerState
		expected string
	}{
		{WorkerStateWaiting, "waiting"},
		{WorkerStateExecuting, "executing"},
		{WorkerStateTerminated, "terminated"},
		{WorkerState(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.state.String())
	}
}
