/*
Package pool provides a fixed-size worker pool that drains a shared
closeable task queue.

# Overview

A Pool owns a fixed set of named worker goroutines. Producers submit
zero-argument tasks from any goroutine; workers block on the shared queue
and execute whatever they receive. Shutdown is deterministic: Stop waits
for the queue to drain (bounded), closes the queue to release blocked
workers, and returns only after every worker has terminated.

# Core Components

## Pool

Fixed-size worker pool coordinating collective start and graceful stop:
  - Deterministically named workers ("Worker 0" ... "Worker n-1")
  - Thread-safe task submission from arbitrary producers
  - Best-effort bounded drain before queue closure
  - Idempotent Start and Stop
  - Aggregate and per-worker statistics

## Worker loop

Each worker runs a fetch-execute loop with three states: waiting (blocked
in Pop), executing, terminated (queue closed and drained). A panicking
task is caught at the loop boundary, logged with the worker's identity,
and does not terminate the worker.

## Action

Strategy interface receiving task-done, task-failed, and worker-stopped
events. NopAction (default) ignores everything; LogAction reports each
event through the configured logger.

# Error Handling

Nothing from inside a task surfaces to Submit or Stop. Task panics and
drain timeouts are reported through the logging sink only; callers that
need task-level results must capture them in the task closure itself.

# Usage

	q := queue.New[pool.Task]()
	p, err := pool.New(q, nil)
	if err != nil {
		log.Fatal(err)
	}

	_ = p.Start(4)
	p.Submit(func() { fmt.Println("hello") })
	p.Stop()

The queue must be constructed before the pool and must outlive it; the
pool never takes ownership of it.
*/
package pool
