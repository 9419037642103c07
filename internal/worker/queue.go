package worker

import (
	"context"
	"sync"

	"github.com/litikesh/Patient-Record-Management-System/internal/store"
)

// Job is a unit of work run against the store on the worker goroutine.
type Job func(ctx context.Context, st *store.Store) error

// request is a queued Job plus the channel its result is delivered on.
type request struct {
	ctx   context.Context
	job   Job
	reply chan error // buffered, size 1
}

// jobQueue is a thread-safe FIFO queue of requests.
//
// The queue is unbounded so that Do never blocks on submission; callers wait
// only for their own reply.
//
// A buffered signal channel of size 1 coalesces wakeups, and closing it wakes
// the run loop for shutdown.
type jobQueue struct {
	mu       sync.Mutex
	requests []request
	closed   bool
	signal   chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		requests: make([]request, 0, 16),
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue adds a request to the back of the queue.
// Returns false if the queue is closed.
func (q *jobQueue) Enqueue(r request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.requests = append(q.requests, r)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes and returns the front request without blocking.
func (q *jobQueue) TryDequeue() (request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.requests) == 0 {
		return request{}, false
	}

	r := q.requests[0]

	// Clear the slot so the backing array does not pin the job's closure.
	q.requests[0] = request{}

	if len(q.requests) == 1 {
		q.requests = q.requests[:0]
	} else {
		q.requests = q.requests[1:]
	}
	return r, true
}

// Wait returns a channel that signals when requests may be available.
// The channel is closed once the queue is closed.
func (q *jobQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// Close stops further enqueues and wakes the run loop.
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
