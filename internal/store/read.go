package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/litikesh/Patient-Record-Management-System/internal/patient"
)

const patientColumns = `id, first_name, last_name, date_of_birth, gender, phone, address, email,
	weight, height, blood_group, blood_pressure, created_at`

const recordColumns = `id, patient_id, medical_notes, insurance_provider, insurance_id, created_at`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ReadPatient retrieves a single patient by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadPatient(ctx context.Context, id int64) (patient.Patient, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = ?
	`, id)
	return scanPatient(row)
}

// ListPatients returns every patient, most recently registered first.
//
// Returns an empty slice (not nil) when there are no patients.
func (s *Store) ListPatients(ctx context.Context) ([]patient.Patient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	return collectPatients(rows)
}

// SearchPatientsByName returns patients whose first or last name contains
// term, ignoring case. Results are ordered by last name, then first name.
//
// The term is used as-is inside %term%, so % and _ act as LIKE wildcards.
// An empty term matches every patient.
func (s *Store) SearchPatientsByName(ctx context.Context, term string) ([]patient.Patient, error) {
	pattern := "%" + term + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE casefold(first_name) LIKE casefold(?1)
		   OR casefold(last_name) LIKE casefold(?1)
		ORDER BY last_name ASC, first_name ASC, id ASC
	`, pattern)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	return collectPatients(rows)
}

// CountPatients returns the number of registered patients.
func (s *Store) CountPatients(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

// ListMedicalRecords returns a patient's medical records, newest first.
//
// Returns an empty slice (not nil) when the patient has no records.
func (s *Store) ListMedicalRecords(ctx context.Context, patientID int64) ([]patient.MedicalRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM medical_records
		WHERE patient_id = ?
		ORDER BY created_at DESC, id DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query medical records: %w", err)
	}
	defer rows.Close()

	records := []patient.MedicalRecord{}
	for rows.Next() {
		rec, err := scanMedicalRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medical record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate medical records: %w", err)
	}
	return records, nil
}

func collectPatients(rows *sql.Rows) ([]patient.Patient, error) {
	defer rows.Close()

	patients := []patient.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}

// scanPatient scans patientColumns into a Patient.
func scanPatient(sc scanner) (patient.Patient, error) {
	var p patient.Patient
	var weight, height sql.NullFloat64

	if err := sc.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender,
		&p.Phone, &p.Address, &p.Email, &weight, &height,
		&p.BloodGroup, &p.BloodPressure, &p.CreatedAt,
	); err != nil {
		return patient.Patient{}, err
	}

	if weight.Valid {
		p.Weight = &weight.Float64
	}
	if height.Valid {
		p.Height = &height.Float64
	}
	return p, nil
}

// scanMedicalRecord scans recordColumns into a MedicalRecord.
func scanMedicalRecord(sc scanner) (patient.MedicalRecord, error) {
	var rec patient.MedicalRecord
	var notes, provider, insuranceID sql.NullString

	if err := sc.Scan(
		&rec.ID, &rec.PatientID, &notes, &provider, &insuranceID, &rec.CreatedAt,
	); err != nil {
		return patient.MedicalRecord{}, err
	}

	rec.MedicalNotes = stringPtr(notes)
	rec.InsuranceProvider = stringPtr(provider)
	rec.InsuranceID = stringPtr(insuranceID)
	return rec, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
