package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/litikesh/Patient-Record-Management-System/internal/broadcast"
	"github.com/litikesh/Patient-Record-Management-System/internal/patient"
	"github.com/litikesh/Patient-Record-Management-System/internal/records"
)

// State is the readiness of an App's store.
type State int

const (
	// StateLoading means Start has not finished.
	StateLoading State = iota
	// StateReady means the store is open.
	StateReady
	// StateFailed means the store could not be opened; see App.Err.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// notReadyMessage is reported by Query before the store is ready.
const notReadyMessage = "Database is not initialized. Please wait or refresh the page."

// App is one application context.
//
// Thread-safety: all methods are safe from any goroutine.
type App struct {
	records *records.Service
	channel *broadcast.Channel

	mu      sync.RWMutex
	state   State
	initErr error

	searchSeq atomic.Uint64
}

// New creates an App in StateLoading. It takes ownership of both arguments
// and closes them in Close.
func New(rs *records.Service, ch *broadcast.Channel) *App {
	return &App{records: rs, channel: ch, state: StateLoading}
}

// Start initializes the store and moves the App to StateReady, or to
// StateFailed when initialization fails. The error is also kept for Err.
func (a *App) Start(ctx context.Context) error {
	_, err := a.records.Initialize(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.state = StateFailed
		a.initErr = err
		slog.Error("application failed to start", "error", err)
		return err
	}
	a.state = StateReady
	a.initErr = nil
	return nil
}

// State returns the current readiness.
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Err returns the initialization error of a failed App.
func (a *App) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.initErr
}

// Channel returns the App's sync channel.
func (a *App) Channel() *broadcast.Channel {
	return a.channel
}

// Records returns the App's data access service.
func (a *App) Records() *records.Service {
	return a.records
}

// RegisterPatient registers a patient and announces PATIENT_ADDED with the
// submitted fields plus the new id. When the registration also created a
// medical record, MEDICAL_RECORD_ADDED follows.
func (a *App) RegisterPatient(ctx context.Context, in patient.Input) (records.Registration, error) {
	reg, err := a.records.RegisterPatient(ctx, in)
	if err != nil {
		return reg, err
	}

	payload := in.Fields()
	payload["id"] = reg.PatientID
	a.announce(broadcast.PatientAdded, payload)
	if reg.RecordID != 0 {
		a.announce(broadcast.MedicalRecordAdded, map[string]any{
			"patient_id": reg.PatientID,
			"id":         reg.RecordID,
		})
	}
	return reg, nil
}

// AddMedicalRecord stores a record and announces MEDICAL_RECORD_ADDED.
func (a *App) AddMedicalRecord(ctx context.Context, patientID int64, notes, provider, insuranceID string) (int64, error) {
	id, err := a.records.AddMedicalRecord(ctx, patientID, notes, provider, insuranceID)
	if err != nil {
		return 0, err
	}

	a.announce(broadcast.MedicalRecordAdded, map[string]any{
		"patient_id": patientID,
		"id":         id,
	})
	return id, nil
}

// UpdatePatient applies u and announces PATIENT_UPDATED with the changed
// fields plus the id.
func (a *App) UpdatePatient(ctx context.Context, id int64, u patient.Update) error {
	if err := a.records.UpdatePatient(ctx, id, u); err != nil {
		return err
	}

	payload := u.Fields()
	payload["id"] = id
	a.announce(broadcast.PatientUpdated, payload)
	return nil
}

// DeletePatient removes a patient and announces PATIENT_UPDATED with
// deleted set.
func (a *App) DeletePatient(ctx context.Context, id int64) error {
	if err := a.records.DeletePatient(ctx, id); err != nil {
		return err
	}

	a.announce(broadcast.PatientUpdated, map[string]any{
		"id":      id,
		"deleted": true,
	})
	return nil
}

// FindPatients lists every patient, newest first, when term is blank, and
// otherwise searches by name.
func (a *App) FindPatients(ctx context.Context, term string) ([]patient.Patient, error) {
	if strings.TrimSpace(term) == "" {
		return a.records.ListPatients(ctx)
	}
	return a.records.SearchPatientsByName(ctx, term)
}

// SearchResult is the outcome of Search.
type SearchResult struct {
	// Seq orders searches issued on one App.
	Seq uint64

	Term     string
	Patients []patient.Patient

	// Stale is set when a later search was issued before this one finished.
	// Callers should discard stale results.
	Stale bool
}

// Search runs FindPatients and tags the result with a request sequence.
func (a *App) Search(ctx context.Context, term string) (SearchResult, error) {
	seq := a.searchSeq.Add(1)

	patients, err := a.FindPatients(ctx, term)
	if err != nil {
		return SearchResult{Seq: seq, Term: term}, err
	}

	res := SearchResult{
		Seq:      seq,
		Term:     term,
		Patients: patients,
		Stale:    a.searchSeq.Load() != seq,
	}
	if res.Stale {
		slog.Debug("search superseded", "seq", seq, "term", term)
	}
	return res, nil
}

// Query runs a raw read-only query. Before the App is ready it fails
// without touching the store.
func (a *App) Query(ctx context.Context, query string, params ...any) records.QueryResult {
	if a.State() != StateReady {
		return records.FailedQuery(notReadyMessage)
	}
	return a.records.RunReadOnlyQuery(ctx, query, params...)
}

// Close closes the channel, then the data access service.
func (a *App) Close() error {
	a.channel.Close()
	return a.records.Close()
}

func (a *App) announce(t broadcast.EventType, payload map[string]any) {
	a.channel.Broadcast(broadcast.Event{Type: t, Payload: payload})
}
