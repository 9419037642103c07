package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litikesh/Patient-Record-Management-System/internal/patient"
)

func TestQuery_PositionalParameters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.InsertPatient(ctx, createTestInput(1, "John", "Doe"))
	require.NoError(t, err)

	res, err := s.Query(ctx, "SELECT COUNT(*) AS c FROM patients WHERE first_name = $1", "John")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(1), res.Rows[0]["c"])
}

func TestQuery_ParametersBindByIndex(t *testing.T) {
	s := createTestStore(t)

	res, err := s.Query(context.Background(), "SELECT $2 AS second, $1 AS first", "a", "b")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "b", res.Rows[0]["second"])
	assert.Equal(t, "a", res.Rows[0]["first"])
}

func TestQuery_RowsAreColumnMaps(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.InsertPatient(ctx, createTestInput(1, "John", "Doe"))
	require.NoError(t, err)

	res, err := s.Query(ctx, "SELECT id, first_name, weight FROM patients")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "first_name", "weight"}, res.Columns)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(1), res.Rows[0]["id"])
	assert.Equal(t, "John", res.Rows[0]["first_name"])
	assert.Nil(t, res.Rows[0]["weight"])
}

func TestQuery_StatementWithoutRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.InsertPatient(ctx, createTestInput(1, "John", "Doe"))
	require.NoError(t, err)

	res, err := s.Query(ctx, "UPDATE patients SET address = $1", "Elsewhere")
	require.NoError(t, err)
	assert.NotNil(t, res.Rows)
	assert.Empty(t, res.Rows)

	p, err := s.ReadPatient(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Elsewhere", p.Address)
}

func TestQuery_Empty(t *testing.T) {
	s := createTestStore(t)

	for _, q := range []string{"", "   ", ";", "-- nothing here"} {
		_, err := s.Query(context.Background(), q)
		assert.True(t, errors.Is(err, ErrEmptyQuery), "query %q: got %v", q, err)
	}
}

func TestQuery_SyntaxError(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Query(context.Background(), "SELEC nothing")
	require.Error(t, err)
}

func TestQueryReadOnly_Select(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.InsertPatient(ctx, createTestInput(1, "John", "Doe"))
	require.NoError(t, err)

	res, err := s.QueryReadOnly(ctx, "SELECT first_name FROM patients WHERE id = $1", 1)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "John", res.Rows[0]["first_name"])
}

func TestQueryReadOnly_RejectsWrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.InsertPatient(ctx, createTestInput(1, "John", "Doe"))
	require.NoError(t, err)

	writes := []string{
		"DELETE FROM patients",
		"UPDATE patients SET first_name = 'x'",
		"  /* looks harmless */ DROP TABLE patients",
		"WITH x AS (SELECT 1) DELETE FROM patients",
	}
	for _, q := range writes {
		_, err := s.QueryReadOnly(ctx, q)
		require.Error(t, err, q)
		assert.True(t, IsReadOnlyViolation(err), "query %q: got %v", q, err)
	}

	n, err := s.CountPatients(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestQueryReadOnly_RejectsMultipleStatements(t *testing.T) {
	s := createTestStore(t)

	_, err := s.QueryReadOnly(context.Background(), "SELECT 1; DELETE FROM patients")
	assert.True(t, errors.Is(err, ErrMultipleStatements))
}

func TestQueryReadOnly_AllowsTrailingSemicolon(t *testing.T) {
	s := createTestStore(t)

	res, err := s.QueryReadOnly(context.Background(), "SELECT 1 AS one;")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(1), res.Rows[0]["one"])
}

func TestQueryReadOnly_RestoresWritableConnection(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.QueryReadOnly(ctx, "DELETE FROM patients")
	require.Error(t, err)

	// The pool holds one connection, so this reuses the one the read-only
	// query ran on.
	_, err = s.InsertPatient(ctx, createTestInput(1, "John", "Doe"))
	require.NoError(t, err)
}

func TestQueryReadOnly_RejectsPragmas(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	pragmas := []string{
		"PRAGMA foreign_keys = OFF",
		"PRAGMA journal_mode = DELETE",
		"PRAGMA query_only = OFF",
		"PRAGMA table_info(patients)",
		"ATTACH DATABASE ':memory:' AS other",
		"BEGIN",
	}
	for _, q := range pragmas {
		_, err := s.QueryReadOnly(ctx, q)
		require.Error(t, err, q)
		assert.True(t, IsReadOnlyViolation(err), "query %q: got %v", q, err)
	}

	res, err := s.Query(ctx, "PRAGMA journal_mode")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "wal", res.Rows[0]["journal_mode"])
}

func TestQueryReadOnly_ForeignKeysStayEnforced(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id, err := s.InsertPatient(ctx, createTestInput(1, "John", "Doe"))
	require.NoError(t, err)
	_, err = s.InsertMedicalRecord(ctx, patient.RecordInput{PatientID: id, MedicalNotes: "checkup"})
	require.NoError(t, err)

	_, err = s.QueryReadOnly(ctx, "PRAGMA foreign_keys = OFF")
	require.Error(t, err)

	require.NoError(t, s.DeletePatient(ctx, id))

	res, err := s.Query(ctx, "SELECT COUNT(*) AS n FROM medical_records WHERE patient_id = $1", id)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(0), res.Rows[0]["n"])
}

func TestQueryReadOnly_AllowsFunctionsAndRecursiveCTE(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.InsertPatient(ctx, createTestInput(1, "Émile", "Zola"))
	require.NoError(t, err)

	res, err := s.QueryReadOnly(ctx, "SELECT casefold(first_name) AS f, upper(last_name) AS l FROM patients")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "émile", res.Rows[0]["f"])
	assert.Equal(t, "ZOLA", res.Rows[0]["l"])

	res, err = s.QueryReadOnly(ctx,
		"WITH RECURSIVE n(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM n WHERE x < 3) SELECT SUM(x) AS total FROM n")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(6), res.Rows[0]["total"])
}

func TestEngineMessage(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Query(context.Background(), "SELEC 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query: ")
	assert.Equal(t, `near "SELEC": syntax error`, EngineMessage(err))

	assert.Equal(t, "plain", EngineMessage(errors.New("plain")))
}
