// Package worker owns the patient store on a dedicated goroutine.
//
// Every database call made by the records service is submitted to a Worker
// as a job. Jobs run one at a time, in submission order, on the worker's
// goroutine, so the store has exactly one user and callers never block each
// other on SQLite locks.
//
// Lifecycle:
//
//	w := worker.Start(st)   // takes ownership of st
//	err := w.Do(ctx, func(ctx context.Context, st *store.Store) error { ... })
//	w.Close()               // drains queued jobs, then closes st
//
// Do is safe from any goroutine. After Close, Do returns ErrClosed.
package worker
