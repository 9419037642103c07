package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Row is one result row keyed by column name.
type Row = map[string]any

// Result holds the rows of a raw query and the column order the statement
// produced. Rows is never nil.
type Result struct {
	Columns []string
	Rows    []Row
}

// Query executes arbitrary SQL with positional parameters and returns every
// result row. Statements that produce no rows (INSERT, UPDATE, DDL) are
// executed and yield no columns and no rows.
//
// There is no statement restriction here; callers that need one use
// QueryReadOnly.
func (s *Store) Query(ctx context.Context, query string, args ...any) (Result, error) {
	text, statements := rewritePlaceholders(query)
	if statements == 0 {
		return Result{}, ErrEmptyQuery
	}

	rows, err := s.db.QueryContext(ctx, text, args...)
	if err != nil {
		return Result{}, fmt.Errorf("query: %w", err)
	}
	return collectRows(rows)
}

// QueryReadOnly executes a single statement on a connection with
// PRAGMA query_only enabled and an authorizer that admits only reads.
// Writes, pragmas, ATTACH and transaction control fail inside SQLite (see
// IsReadOnlyViolation), whatever the statement text looks like.
func (s *Store) QueryReadOnly(ctx context.Context, query string, args ...any) (Result, error) {
	text, statements := rewritePlaceholders(query)
	switch {
	case statements == 0:
		return Result{}, ErrEmptyQuery
	case statements > 1:
		return Result{}, ErrMultipleStatements
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read-only query: acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return Result{}, fmt.Errorf("read-only query: enable query_only: %w", err)
	}
	// The connection goes back to the pool, so the pragma must not leak.
	// Deferred before the authorizer removal, so it runs after it.
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "PRAGMA query_only = OFF")
	}()

	if err := setAuthorizer(conn, authorizeRead); err != nil {
		return Result{}, fmt.Errorf("read-only query: install authorizer: %w", err)
	}
	defer func() {
		_ = setAuthorizer(conn, nil)
	}()

	rows, err := conn.QueryContext(ctx, text, args...)
	if err != nil {
		return Result{}, fmt.Errorf("read-only query: %w", err)
	}
	return collectRows(rows)
}

// authorizeRead admits the actions a plain SELECT needs. PRAGMA is denied
// because pragmas such as foreign_keys and journal_mode change connection or
// file state even under query_only.
func authorizeRead(action int, _, _, _ string) int {
	switch action {
	case sqlite3.SQLITE_SELECT, sqlite3.SQLITE_READ, sqlite3.SQLITE_FUNCTION, sqlite3.SQLITE_RECURSIVE:
		return sqlite3.SQLITE_OK
	}
	return sqlite3.SQLITE_DENY
}

// setAuthorizer installs fn on the driver connection behind conn; nil
// removes it.
func setAuthorizer(conn *sql.Conn, fn func(int, string, string, string) int) error {
	return conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		sc.RegisterAuthorizer(fn)
		return nil
	})
}

// collectRows drains rows into column maps.
func collectRows(rows *sql.Rows) (Result, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("query columns: %w", err)
	}

	result := Result{Columns: columns, Rows: []Row{}}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return Result{}, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// normalizeValue converts driver values into JSON-friendly Go values.
// TEXT columns may arrive as []byte; they are returned as strings.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
