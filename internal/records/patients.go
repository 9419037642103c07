package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/litikesh/Patient-Record-Management-System/internal/patient"
	"github.com/litikesh/Patient-Record-Management-System/internal/store"
	"github.com/litikesh/Patient-Record-Management-System/internal/worker"
)

// Registration is the outcome of RegisterPatient.
type Registration struct {
	// PatientID is the id of the committed patient row.
	PatientID int64

	// RecordID is the id of the medical record created from the input's
	// medical fields, or 0 when none was requested or the insert failed.
	RecordID int64

	// RecordErr reports a failed medical record insert. The patient stays
	// registered. Always nil with Config.AtomicRegistration.
	RecordErr error
}

// RegisterPatient validates and stores a new patient. When in carries any
// medical or insurance data, one medical record is created for the patient.
//
// A duplicate phone or email returns a DUPLICATE_CONSTRAINT error naming the
// column; nothing is written. Other store failures return PERSISTENCE.
//
// Without Config.AtomicRegistration the patient insert commits before the
// record insert runs. If the record insert then fails, RegisterPatient still
// returns the patient id with a nil error and reports the failure in
// Registration.RecordErr.
func (s *Service) RegisterPatient(ctx context.Context, in patient.Input) (Registration, error) {
	if err := patient.Validate(in); err != nil {
		return Registration{}, validationError("register patient", err)
	}

	w, err := s.Initialize(ctx)
	if err != nil {
		return Registration{}, err
	}

	if s.cfg.AtomicRegistration {
		return s.registerAtomic(ctx, w, in)
	}

	patientID, err := worker.Call(ctx, w, func(ctx context.Context, st *store.Store) (int64, error) {
		return st.InsertPatient(ctx, in)
	})
	if err != nil {
		return Registration{}, classifyWrite("register patient", 0, err)
	}
	reg := Registration{PatientID: patientID}
	slog.Info("patient registered", "patient_id", patientID)

	if in.HasMedicalData() {
		reg.RecordID, reg.RecordErr = s.insertRecord(ctx, w, in.Record(patientID))
		if reg.RecordErr != nil {
			slog.Warn("patient registered without medical record",
				"patient_id", patientID,
				"error", reg.RecordErr,
			)
		}
	}
	return reg, nil
}

func (s *Service) registerAtomic(ctx context.Context, w *worker.Worker, in patient.Input) (Registration, error) {
	var reg Registration
	err := w.Do(ctx, func(ctx context.Context, st *store.Store) error {
		var err error
		reg.PatientID, reg.RecordID, err = st.InsertPatientWithRecord(ctx, in)
		return err
	})
	if err != nil {
		return Registration{}, classifyWrite("register patient", 0, err)
	}
	slog.Info("patient registered", "patient_id", reg.PatientID, "record_id", reg.RecordID)
	return reg, nil
}

// AddMedicalRecord stores a medical record for an existing patient and
// returns its id. Blank fields are stored as NULL.
//
// A patient id with no patient returns a REFERENCE error.
func (s *Service) AddMedicalRecord(ctx context.Context, patientID int64, notes, provider, insuranceID string) (int64, error) {
	w, err := s.Initialize(ctx)
	if err != nil {
		return 0, err
	}

	id, err := s.insertRecord(ctx, w, patient.RecordInput{
		PatientID:         patientID,
		MedicalNotes:      notes,
		InsuranceProvider: provider,
		InsuranceID:       insuranceID,
	})
	if err != nil {
		return 0, err
	}
	slog.Info("medical record added", "patient_id", patientID, "record_id", id)
	return id, nil
}

func (s *Service) insertRecord(ctx context.Context, w *worker.Worker, rec patient.RecordInput) (int64, error) {
	id, err := worker.Call(ctx, w, func(ctx context.Context, st *store.Store) (int64, error) {
		return st.InsertMedicalRecord(ctx, rec)
	})
	if err != nil {
		return 0, classifyWrite("add medical record", rec.PatientID, err)
	}
	return id, nil
}

// GetPatient returns one patient. A missing patient returns a REFERENCE
// error.
func (s *Service) GetPatient(ctx context.Context, id int64) (patient.Patient, error) {
	w, err := s.Initialize(ctx)
	if err != nil {
		return patient.Patient{}, err
	}

	p, err := worker.Call(ctx, w, func(ctx context.Context, st *store.Store) (patient.Patient, error) {
		return st.ReadPatient(ctx, id)
	})
	if err != nil {
		return patient.Patient{}, classifyWrite("get patient", id, err)
	}
	return p, nil
}

// UpdatePatient changes a patient's mutable fields. Identity fields cannot
// be changed.
//
// A missing patient returns REFERENCE; a phone or email owned by another
// patient returns DUPLICATE_CONSTRAINT.
func (s *Service) UpdatePatient(ctx context.Context, id int64, u patient.Update) error {
	if err := patient.ValidateUpdate(u); err != nil {
		return validationError("update patient", err)
	}

	w, err := s.Initialize(ctx)
	if err != nil {
		return err
	}

	err = w.Do(ctx, func(ctx context.Context, st *store.Store) error {
		return st.UpdatePatient(ctx, id, u)
	})
	if err != nil {
		return classifyWrite("update patient", id, err)
	}
	slog.Info("patient updated", "patient_id", id)
	return nil
}

// DeletePatient removes a patient and, through the cascading foreign key,
// all of their medical records. A missing patient returns REFERENCE.
func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	w, err := s.Initialize(ctx)
	if err != nil {
		return err
	}

	err = w.Do(ctx, func(ctx context.Context, st *store.Store) error {
		return st.DeletePatient(ctx, id)
	})
	if err != nil {
		return classifyWrite("delete patient", id, err)
	}
	slog.Info("patient deleted", "patient_id", id)
	return nil
}

// ListPatients returns every patient, newest first.
func (s *Service) ListPatients(ctx context.Context) ([]patient.Patient, error) {
	return s.readPatients(ctx, "list patients", func(ctx context.Context, st *store.Store) ([]patient.Patient, error) {
		return st.ListPatients(ctx)
	})
}

// SearchPatientsByName returns patients whose first or last name contains
// term, ignoring case, ordered by last name then first name.
//
// term is not escaped: % and _ match like LIKE wildcards. An empty term
// matches every patient in name order; callers wanting the newest-first list
// for a blank term call ListPatients instead.
func (s *Service) SearchPatientsByName(ctx context.Context, term string) ([]patient.Patient, error) {
	return s.readPatients(ctx, "search patients", func(ctx context.Context, st *store.Store) ([]patient.Patient, error) {
		return st.SearchPatientsByName(ctx, term)
	})
}

// CountPatients returns the number of registered patients.
func (s *Service) CountPatients(ctx context.Context) (int, error) {
	w, err := s.Initialize(ctx)
	if err != nil {
		return 0, err
	}

	n, err := worker.Call(ctx, w, func(ctx context.Context, st *store.Store) (int, error) {
		return st.CountPatients(ctx)
	})
	if err != nil {
		return 0, persistenceError("count patients", err)
	}
	return n, nil
}

// ListMedicalRecords returns a patient's medical records, newest first.
// A patient with no records, or no such patient, yields an empty slice.
func (s *Service) ListMedicalRecords(ctx context.Context, patientID int64) ([]patient.MedicalRecord, error) {
	w, err := s.Initialize(ctx)
	if err != nil {
		return nil, err
	}

	records, err := worker.Call(ctx, w, func(ctx context.Context, st *store.Store) ([]patient.MedicalRecord, error) {
		return st.ListMedicalRecords(ctx, patientID)
	})
	if err != nil {
		return nil, persistenceError("list medical records", err)
	}
	return records, nil
}

func (s *Service) readPatients(
	ctx context.Context,
	op string,
	fn func(ctx context.Context, st *store.Store) ([]patient.Patient, error),
) ([]patient.Patient, error) {
	w, err := s.Initialize(ctx)
	if err != nil {
		return nil, err
	}

	patients, err := worker.Call(ctx, w, fn)
	if err != nil {
		return nil, persistenceError(op, err)
	}
	return patients, nil
}

// classifyWrite maps a store error onto the error taxonomy. patientID is the
// patient the operation referenced, or 0 for none.
func classifyWrite(op string, patientID int64, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	if column, ok := store.UniqueViolation(err); ok {
		slog.Debug("unique constraint violated", "op", op, "column", column)
		return &Error{
			Code:    ErrCodeDuplicate,
			Message: fmt.Sprintf("%s: %s already exists", op, column),
			Field:   column,
			Err:     err,
		}
	}

	if patientID != 0 && (errors.Is(err, sql.ErrNoRows) || store.IsForeignKeyViolation(err)) {
		return &Error{
			Code:      ErrCodeReference,
			Message:   fmt.Sprintf("%s: patient %d not found", op, patientID),
			PatientID: patientID,
			Err:       err,
		}
	}

	return persistenceError(op, err)
}

// persistenceError logs err with its detail and wraps it as PERSISTENCE.
func persistenceError(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		slog.Debug("data access abandoned", "op", op, "error", err)
	} else {
		slog.Error("data access failed", "op", op, "error", err)
	}
	return &Error{Code: ErrCodePersistence, Message: op + " failed", Err: err}
}

func validationError(op string, err error) error {
	var invalid *patient.InvalidError
	if !errors.As(err, &invalid) {
		// The schema itself failed to compile.
		return persistenceError(op, err)
	}
	return &Error{
		Code:    ErrCodeValidation,
		Message: op + ": " + invalid.Error(),
		Fields:  invalid.Fields,
		Err:     err,
	}
}
