package broadcast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// EventType names the kind of change an Event announces.
type EventType string

const (
	// PatientAdded announces a newly registered patient.
	PatientAdded EventType = "PATIENT_ADDED"

	// PatientUpdated announces a changed or deleted patient.
	PatientUpdated EventType = "PATIENT_UPDATED"

	// MedicalRecordAdded announces a new medical record.
	MedicalRecordAdded EventType = "MEDICAL_RECORD_ADDED"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case PatientAdded, PatientUpdated, MedicalRecordAdded:
		return true
	}
	return false
}

// Event is a data-change notification.
//
// Timestamp is milliseconds since the Unix epoch. Payload values decoded from
// the wire keep numbers as json.Number; use Int64 to read ids.
type Event struct {
	Type      EventType      `json:"type"`
	Payload   map[string]any `json:"payload"`
	Timestamp int64          `json:"timestamp"`
}

// Int64 returns payload[key] as an integer.
func (e Event) Int64(key string) (int64, bool) {
	switch v := e.Payload[key].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// Bool returns payload[key] as a boolean.
func (e Event) Bool(key string) bool {
	b, _ := e.Payload[key].(bool)
	return b
}

// Encode returns the wire form of e.
func Encode(e Event) ([]byte, error) {
	if e.Payload == nil {
		e.Payload = map[string]any{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return data, nil
}

// Decode parses the wire form of an event. Messages with an unknown type are
// rejected.
func Decode(data []byte) (Event, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var e Event
	if err := dec.Decode(&e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if !e.Type.Valid() {
		return Event{}, fmt.Errorf("decode event: unknown type %q", e.Type)
	}
	if e.Payload == nil {
		e.Payload = map[string]any{}
	}
	return e, nil
}
