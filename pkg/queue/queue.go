// Package queue provides a closeable, synchronized FIFO queue shared by
// arbitrary producer and consumer goroutines.
package queue

import "sync"

// Queue is a generic FIFO buffer guarded by a single mutex and a condition
// variable, with an explicit closed state used as a cooperative shutdown
// signal for blocked consumers.
//
// Closing is "soft": Close stops blocked Pop calls from waiting for new
// work, but Push after Close is still accepted and buffered items are still
// drained in order. A Queue must not be copied after first use.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []T
	closed bool
}

// New creates an empty, open queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends item to the back of the queue. It never blocks and is
// accepted even after Close. At most one blocked waiter is woken, since at
// most one item became available.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.buf = append(q.buf, item)
	q.cond.Signal()
	q.mu.Unlock()
}

// Pop removes and returns the front element, blocking while the queue is
// open and empty. It returns the zero value and false only once the queue
// is closed and fully drained; until then buffered items are delivered in
// insertion order even after Close.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Re-check the predicate after every wake; Signal and Broadcast give
	// no ordering guarantee between racing waiters.
	for len(q.buf) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.buf) > 0 {
		return q.popFront(), true
	}

	var zero T
	return zero, false
}

// TryPop removes and returns the front element without blocking. It returns
// false whenever the buffer is empty, regardless of closed state.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.buf) == 0 {
		var zero T
		return zero, false
	}
	return q.popFront(), true
}

// popFront must be called with q.mu held and a non-empty buffer.
func (q *Queue[T]) popFront() T {
	item := q.buf[0]
	var zero T
	q.buf[0] = zero // release the reference for the collector
	q.buf = q.buf[1:]
	if len(q.buf) == 0 {
		q.buf = nil
	}
	return item
}

// Len returns the number of buffered elements. The value is a point-in-time
// snapshot and may be stale by the time the caller acts on it.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// IsEmpty reports whether the buffer is empty. Same snapshot caveat as Len.
func (q *Queue[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Clear discards all buffered elements without touching the closed flag.
// Callers coordinating with consumers that expect specific items to arrive
// are responsible for making this safe.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	q.buf = nil
	q.mu.Unlock()
}

// Close marks the queue closed and wakes every goroutine blocked in Pop.
// Closing an already-closed queue is a no-op. Items buffered at the time of
// the call remain retrievable.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// IsClosed reports whether Close has been called.
func (q *Queue[T]) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
