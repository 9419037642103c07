package broadcast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType_Valid(t *testing.T) {
	assert.True(t, PatientAdded.Valid())
	assert.True(t, PatientUpdated.Valid())
	assert.True(t, MedicalRecordAdded.Valid())
	assert.False(t, EventType("PATIENT_REMOVED").Valid())
	assert.False(t, EventType("").Valid())
}

func TestEncode_WireShape(t *testing.T) {
	data, err := Encode(Event{
		Type:      MedicalRecordAdded,
		Payload:   map[string]any{"patient_id": 3, "id": 9},
		Timestamp: 1700000000123,
	})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"MEDICAL_RECORD_ADDED","payload":{"patient_id":3,"id":9},"timestamp":1700000000123}`,
		string(data),
	)
}

func TestEncode_NilPayload(t *testing.T) {
	data, err := Encode(Event{Type: PatientUpdated, Timestamp: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"PATIENT_UPDATED","payload":{},"timestamp":1}`, string(data))
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := Encode(Event{Type: PatientAdded, Payload: map[string]any{"bad": make(chan int)}})
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"PATIENT_ADDED","payload":{"id":12,"first_name":"John"},"timestamp":42}`))
	require.NoError(t, err)
	assert.Equal(t, PatientAdded, ev.Type)
	assert.Equal(t, int64(42), ev.Timestamp)
	assert.Equal(t, "John", ev.Payload["first_name"])
	assert.Equal(t, json.Number("12"), ev.Payload["id"])
}

func TestDecode_Rejects(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"type":"SOMETHING_ELSE","payload":{}}`,
		`{"payload":{}}`,
		`{"type":"PATIENT_ADDED","timestamp":"soon"}`,
	} {
		_, err := Decode([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestDecode_MissingPayload(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"PATIENT_UPDATED","timestamp":5}`))
	require.NoError(t, err)
	assert.NotNil(t, ev.Payload)
}

func TestEvent_Int64(t *testing.T) {
	ev := Event{Payload: map[string]any{
		"number": json.Number("7"),
		"int64":  int64(8),
		"int":    9,
		"float":  10.0,
		"frac":   10.5,
		"string": "11",
		"word":   "eleven",
	}}

	tests := []struct {
		key  string
		want int64
		ok   bool
	}{
		{"number", 7, true},
		{"int64", 8, true},
		{"int", 9, true},
		{"float", 10, true},
		{"frac", 0, false},
		{"string", 11, true},
		{"word", 0, false},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		got, ok := ev.Int64(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}
}

func TestEvent_Bool(t *testing.T) {
	ev := Event{Payload: map[string]any{"deleted": true, "other": "true"}}
	assert.True(t, ev.Bool("deleted"))
	assert.False(t, ev.Bool("other"))
	assert.False(t, ev.Bool("missing"))
}
