package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/litikesh/Patient-Record-Management-System/internal/store"
)

// ErrClosed is returned by Do once the worker has been closed.
var ErrClosed = errors.New("worker is closed")

// Worker runs jobs against a store on a single goroutine.
//
// Thread-safety model:
//   - Do, Call, Pending, Close: safe from any goroutine
//   - jobs: run only on the worker goroutine, one at a time, FIFO
type Worker struct {
	store *store.Store
	queue *jobQueue
	done  chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Start launches the worker goroutine. The worker takes ownership of st and
// closes it in Close.
func Start(st *store.Store) *Worker {
	w := &Worker{
		store: st,
		queue: newJobQueue(),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

// Do submits job and waits for it to finish.
//
// If ctx is cancelled before the job completes, Do returns ctx.Err(). A job
// whose context is already done when the worker reaches it is skipped.
func (w *Worker) Do(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r := request{ctx: ctx, job: job, reply: make(chan error, 1)}
	if !w.queue.Enqueue(r) {
		return ErrClosed
	}

	select {
	case err := <-r.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call runs fn on w and returns its result.
func Call[T any](ctx context.Context, w *Worker, fn func(ctx context.Context, st *store.Store) (T, error)) (T, error) {
	var result T
	err := w.Do(ctx, func(ctx context.Context, st *store.Store) error {
		var err error
		result, err = fn(ctx, st)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Pending returns the number of queued jobs not yet started.
func (w *Worker) Pending() int {
	return w.queue.Len()
}

// Close stops accepting jobs, waits for queued jobs to finish, then closes
// the store. It is safe to call more than once; later calls return the first
// call's result.
func (w *Worker) Close() error {
	w.closeOnce.Do(func() {
		w.queue.Close()
		<-w.done
		if err := w.store.Close(); err != nil {
			w.closeErr = fmt.Errorf("close store: %w", err)
		}
	})
	return w.closeErr
}

// run is the worker loop. It exits once the queue is closed and drained.
func (w *Worker) run() {
	defer close(w.done)
	slog.Debug("worker starting")

	for {
		r, ok := w.queue.TryDequeue()
		if ok {
			r.reply <- w.execute(r)
			continue
		}

		<-w.queue.Wait()
		// The signal channel is closed on shutdown, so this fires immediately
		// until the queue is empty.
		if w.queue.Len() == 0 && w.isClosed() {
			slog.Debug("worker stopping: queue closed")
			return
		}
	}
}

func (w *Worker) isClosed() bool {
	w.queue.mu.Lock()
	defer w.queue.mu.Unlock()
	return w.queue.closed
}

// execute runs one job, converting a panic into an error so the loop
// survives a faulty job.
func (w *Worker) execute(r request) (err error) {
	if err := r.ctx.Err(); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("worker job panicked", "panic", p)
			err = fmt.Errorf("worker job panicked: %v", p)
		}
	}()
	return r.job(r.ctx, w.store)
}
