package records

import (
	"context"
	"errors"
	"log/slog"

	"github.com/litikesh/Patient-Record-Management-System/internal/store"
	"github.com/litikesh/Patient-Record-Management-System/internal/worker"
)

// QueryResult is the envelope returned by raw queries.
//
// Success is false exactly when Error is set. Data is never nil, so it encodes
// as [] rather than null. Columns lists the result columns in statement
// order; it is not part of the JSON envelope.
type QueryResult struct {
	Success bool        `json:"success"`
	Data    []store.Row `json:"data"`
	Error   *string     `json:"error"`
	Columns []string    `json:"-"`
}

// Err returns the failure as a QUERY error, or nil on success.
func (r QueryResult) Err() error {
	if r.Error == nil {
		return nil
	}
	return &Error{Code: ErrCodeQuery, Message: *r.Error}
}

// RunQuery executes arbitrary SQL with positional parameters ($1, $2, ... or
// ?) and returns every result row. Any statement is allowed.
//
// Failures are reported inside the envelope, never as a Go error.
func (s *Service) RunQuery(ctx context.Context, query string, params ...any) QueryResult {
	return s.runQuery(ctx, query, params, func(ctx context.Context, st *store.Store) (store.Result, error) {
		return st.Query(ctx, query, params...)
	})
}

// RunReadOnlyQuery is RunQuery restricted to a single statement executed on
// a read-only connection. Statements that would modify the database fail
// inside SQLite and are reported in the envelope.
func (s *Service) RunReadOnlyQuery(ctx context.Context, query string, params ...any) QueryResult {
	return s.runQuery(ctx, query, params, func(ctx context.Context, st *store.Store) (store.Result, error) {
		return st.QueryReadOnly(ctx, query, params...)
	})
}

func (s *Service) runQuery(
	ctx context.Context,
	query string,
	params []any,
	fn func(ctx context.Context, st *store.Store) (store.Result, error),
) QueryResult {
	w, err := s.Initialize(ctx)
	if err != nil {
		return FailedQuery(UserMessage(err))
	}

	res, err := worker.Call(ctx, w, fn)
	if err != nil {
		slog.Debug("raw query failed", "query", query, "params", len(params), "error", err)
		return FailedQuery(queryMessage(err))
	}
	return QueryResult{Success: true, Data: res.Rows, Columns: res.Columns}
}

// FailedQuery returns an envelope reporting msg as the failure.
func FailedQuery(msg string) QueryResult {
	return QueryResult{Success: false, Data: []store.Row{}, Error: &msg}
}

func queryMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrEmptyQuery):
		return "Query is empty."
	case errors.Is(err, store.ErrMultipleStatements):
		return "Only one statement can be run at a time."
	case store.IsReadOnlyViolation(err):
		return "Only read-only queries are allowed."
	}
	return store.EngineMessage(err)
}
