package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/litikesh/Patient-Record-Management-System/internal/store"
	"github.com/litikesh/Patient-Record-Management-System/internal/worker"
)

// ErrClosed is the cause of the INITIALIZATION error returned by every
// operation after Close.
var ErrClosed = errors.New("records service is closed")

// Config configures a Service.
type Config struct {
	// Path is the SQLite database file. It is created if missing.
	Path string

	// BusyTimeout bounds how long a statement waits on a lock held by another
	// process. Zero uses store.DefaultBusyTimeout.
	BusyTimeout time.Duration

	// AtomicRegistration writes a registration's patient and medical record
	// in one transaction. When false, each insert commits on its own and a
	// failed record insert leaves the patient registered.
	AtomicRegistration bool
}

// Service is the data access layer over one patient store.
//
// Thread-safety: all methods are safe from any goroutine.
type Service struct {
	cfg   Config
	group singleflight.Group

	mu     sync.Mutex
	worker *worker.Worker
	closed bool
}

// New returns a Service for cfg. Nothing is opened until Initialize.
func New(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Initialize opens the store and starts its worker if that has not happened
// yet, and returns the worker. It is idempotent.
//
// Concurrent callers share one in-flight initialization and receive the same
// worker. A failed initialization is not remembered, so the next call tries
// again. Failures are INITIALIZATION errors.
func (s *Service) Initialize(ctx context.Context) (*worker.Worker, error) {
	if w, err := s.current(); w != nil || err != nil {
		return w, err
	}

	ch := s.group.DoChan("init", func() (any, error) {
		return s.open()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*worker.Worker), nil
	case <-ctx.Done():
		return nil, &Error{Code: ErrCodeInitialization, Message: "initialization interrupted", Err: ctx.Err()}
	}
}

// current returns the running worker, or an error once closed.
func (s *Service) current() (*worker.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &Error{Code: ErrCodeInitialization, Message: "service closed", Err: ErrClosed}
	}
	return s.worker, nil
}

// open runs inside the singleflight group.
func (s *Service) open() (*worker.Worker, error) {
	if w, err := s.current(); w != nil || err != nil {
		return w, err
	}

	if s.cfg.Path == "" {
		return nil, &Error{Code: ErrCodeInitialization, Message: "database path is empty"}
	}

	var opts []store.Option
	if s.cfg.BusyTimeout > 0 {
		opts = append(opts, store.WithBusyTimeout(s.cfg.BusyTimeout))
	}

	st, err := store.Open(s.cfg.Path, opts...)
	if err != nil {
		slog.Error("patient store failed to open", "path", s.cfg.Path, "error", err)
		return nil, &Error{Code: ErrCodeInitialization, Message: "open patient store", Err: err}
	}
	w := worker.Start(st)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = w.Close()
		return nil, &Error{Code: ErrCodeInitialization, Message: "service closed", Err: ErrClosed}
	}
	s.worker = w
	s.mu.Unlock()

	slog.Info("patient store ready", "path", s.cfg.Path)
	return w, nil
}

// Close stops the worker and closes the store. Later operations fail with an
// INITIALIZATION error wrapping ErrClosed. Close is idempotent.
func (s *Service) Close() error {
	s.mu.Lock()
	w := s.worker
	s.worker = nil
	s.closed = true
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close records service: %w", err)
	}
	slog.Debug("patient store closed", "path", s.cfg.Path)
	return nil
}
