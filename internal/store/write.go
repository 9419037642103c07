package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/litikesh/Patient-Record-Management-System/internal/patient"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InsertPatient inserts a patient row and returns its generated id.
// The statement runs in SQLite's implicit per-statement transaction.
//
// A duplicate phone or email fails with a sqlite3 UNIQUE constraint error;
// use UniqueViolation to identify the column.
func (s *Store) InsertPatient(ctx context.Context, in patient.Input) (int64, error) {
	return insertPatient(ctx, s.db, in)
}

// InsertMedicalRecord inserts a medical record and returns its generated id.
//
// The patient is checked first, inside the same transaction, because
// patient_id is nullable and the foreign key alone does not reject every bad
// reference. Returns sql.ErrNoRows (wrapped) when the patient does not exist.
func (s *Store) InsertMedicalRecord(ctx context.Context, rec patient.RecordInput) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert medical record: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := requirePatient(ctx, tx, rec.PatientID); err != nil {
		return 0, fmt.Errorf("insert medical record: %w", err)
	}

	id, err := insertMedicalRecord(ctx, tx, rec)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert medical record: commit: %w", err)
	}
	return id, nil
}

// InsertPatientWithRecord atomically inserts a patient and, when the input
// carries medical data, its first medical record. Either both rows are
// written or neither is.
//
// recordID is 0 when no record was requested.
func (s *Store) InsertPatientWithRecord(ctx context.Context, in patient.Input) (patientID, recordID int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("register patient: begin tx: %w", err)
	}
	defer tx.Rollback()

	patientID, err = insertPatient(ctx, tx, in)
	if err != nil {
		return 0, 0, err
	}

	if in.HasMedicalData() {
		recordID, err = insertMedicalRecord(ctx, tx, in.Record(patientID))
		if err != nil {
			return 0, 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("register patient: commit: %w", err)
	}
	return patientID, recordID, nil
}

// UpdatePatient replaces the mutable fields set in u.
// Returns sql.ErrNoRows (wrapped) when the patient does not exist.
func (s *Store) UpdatePatient(ctx context.Context, id int64, u patient.Update) error {
	sets, args := updateClauses(u)
	if len(sets) == 0 {
		return fmt.Errorf("update patient %d: no fields to update", id)
	}
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE patients SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("update patient %d: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update patient %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update patient %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// DeletePatient removes a patient. Its medical records are removed by the
// ON DELETE CASCADE foreign key.
// Returns sql.ErrNoRows (wrapped) when the patient does not exist.
func (s *Store) DeletePatient(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM patients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete patient %d: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete patient %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete patient %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

func insertPatient(ctx context.Context, q execer, in patient.Input) (int64, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO patients
		(first_name, last_name, date_of_birth, gender, phone, address, email,
		 weight, height, blood_group, blood_pressure)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		in.FirstName,
		in.LastName,
		in.DateOfBirth,
		in.Gender,
		in.Phone,
		in.Address,
		in.Email,
		nullFloat(in.Weight),
		nullFloat(in.Height),
		in.BloodGroup,
		in.BloodPressure,
	)
	if err != nil {
		return 0, fmt.Errorf("insert patient: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert patient: last insert id: %w", err)
	}
	return id, nil
}

func insertMedicalRecord(ctx context.Context, q execer, rec patient.RecordInput) (int64, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO medical_records
		(patient_id, medical_notes, insurance_provider, insurance_id)
		VALUES (?, ?, ?, ?)
	`,
		rec.PatientID,
		nullString(rec.MedicalNotes),
		nullString(rec.InsuranceProvider),
		nullString(rec.InsuranceID),
	)
	if err != nil {
		return 0, fmt.Errorf("insert medical record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert medical record: last insert id: %w", err)
	}
	return id, nil
}

// requirePatient returns sql.ErrNoRows when no patient has the given id.
func requirePatient(ctx context.Context, q execer, id int64) error {
	var found int64
	err := q.QueryRowContext(ctx, `SELECT id FROM patients WHERE id = ?`, id).Scan(&found)
	if err != nil {
		return fmt.Errorf("patient %d: %w", id, err)
	}
	return nil
}

// updateClauses builds SET clauses in a fixed column order.
func updateClauses(u patient.Update) ([]string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if u.Phone != nil {
		add("phone", *u.Phone)
	}
	if u.Address != nil {
		add("address", *u.Address)
	}
	if u.Email != nil {
		add("email", *u.Email)
	}
	if u.Weight != nil {
		add("weight", *u.Weight)
	}
	if u.Height != nil {
		add("height", *u.Height)
	}
	if u.BloodGroup != nil {
		add("blood_group", *u.BloodGroup)
	}
	if u.BloodPressure != nil {
		add("blood_pressure", *u.BloodPressure)
	}
	return sets, args
}

// nullString maps blank strings to NULL.
func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
