package store

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrEmptyQuery is returned for raw query text with no statement in it.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrMultipleStatements is returned by QueryReadOnly for input holding more
	// than one statement.
	ErrMultipleStatements = errors.New("read-only queries accept a single statement")
)

// UniqueViolation reports whether err is a UNIQUE constraint failure and
// which column collided, e.g. "phone" for
// "UNIQUE constraint failed: patients.phone".
func UniqueViolation(err error) (column string, ok bool) {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return "", false
	}
	if se.ExtendedCode != sqlite3.ErrConstraintUnique {
		return "", false
	}
	return constraintColumn(se.Error()), true
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY constraint failure.
func IsForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// IsReadOnlyViolation reports whether err is a statement rejected by a
// read-only query: a write refused by PRAGMA query_only, or any action the
// read authorizer denies.
func IsReadOnlyViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrReadonly || se.Code == sqlite3.ErrAuth
}

// constraintColumn extracts the first column named by a constraint message.
// "UNIQUE constraint failed: patients.email" -> "email".
func constraintColumn(msg string) string {
	_, rest, found := strings.Cut(msg, "failed: ")
	if !found {
		return ""
	}
	first, _, _ := strings.Cut(rest, ",")
	first = strings.TrimSpace(first)
	if i := strings.LastIndexByte(first, '.'); i >= 0 {
		return first[i+1:]
	}
	return first
}

// EngineMessage returns the SQLite message carried by err, without the
// context added while wrapping. Errors that did not come from SQLite are
// returned as err.Error().
func EngineMessage(err error) string {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}
