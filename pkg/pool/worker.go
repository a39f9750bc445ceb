package pool

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// WorkerState defines the state of a worker goroutine
type WorkerState int32

const (
	// WorkerStateWaiting means the worker is blocked waiting for a task
	WorkerStateWaiting WorkerState = iota
	// WorkerStateExecuting means the worker is running a task
	WorkerStateExecuting
	// WorkerStateTerminated means the worker loop has exited
	WorkerStateTerminated
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateWaiting:
		return "waiting"
	case WorkerStateExecuting:
		return "executing"
	case WorkerStateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// worker is a single named consumer goroutine owned by a Pool.
type worker struct {
	name  string
	state int32 // atomic WorkerState

	// statistics
	executed int64
	failed   int64

	// closed when the worker loop returns
	done chan struct{}
}

func newWorker(name string) *worker {
	return &worker{
		name: name,
		done: make(chan struct{}),
	}
}

// State returns the current worker state.
func (w *worker) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&w.state))
}

func (w *worker) setState(state WorkerState) {
	atomic.StoreInt32(&w.state, int32(state))
}

// run is the fetch-execute loop. It blocks in Pop, executes whatever task it
// receives, and exits only when the queue reports closed-and-empty. A worker
// never transitions out of terminated; each is single-use for one
// Start/Stop cycle.
func (p *Pool) run(w *worker) {
	defer close(w.done)

	for {
		task, ok := p.queue.Pop()
		if !ok {
			w.setState(WorkerStateTerminated)
			p.config.Logger.Debug("[%s] queue closed and drained, exiting", w.name)
			p.config.Action.WorkerStopped(w.name)
			return
		}

		w.setState(WorkerStateExecuting)
		p.execute(w, task)
		w.setState(WorkerStateWaiting)
	}
}

// execute runs a single task with panic recovery. A panicking task is
// reported through the logging sink and the action, tagged with the worker's
// identity, and never terminates the worker.
func (p *Pool) execute(w *worker, task Task) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&w.failed, 1)
			atomic.AddInt64(&p.totalFailed, 1)

			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			err := fmt.Errorf("task panic: %v", r)
			p.config.Logger.Error("[%s] %v\n%s", w.name, err, buf[:n])
			p.config.Action.TaskFailed(w.name, err)
		}
	}()

	task()

	atomic.AddInt64(&w.executed, 1)
	atomic.AddInt64(&p.totalExecuted, 1)
	p.config.Action.TaskDone(w.name)
}

// stats returns a snapshot of the worker's counters.
func (w *worker) stats() WorkerStats {
	return WorkerStats{
		Name:     w.name,
		State:    w.State(),
		Executed: atomic.LoadInt64(&w.executed),
		Failed:   atomic.LoadInt64(&w.failed),
	}
}

// WorkerStats is a point-in-time snapshot of a single worker.
type WorkerStats struct {
	Name     string
	State    WorkerState
	Executed int64
	Failed   int64
}
