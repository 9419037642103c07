package patient

import (
	"strings"
	"time"
)

// Patient is a row of the patients table.
type Patient struct {
	ID            int64     `json:"id" yaml:"id"`
	FirstName     string    `json:"first_name" yaml:"first_name"`
	LastName      string    `json:"last_name" yaml:"last_name"`
	DateOfBirth   string    `json:"date_of_birth" yaml:"date_of_birth"`
	Gender        string    `json:"gender" yaml:"gender"`
	Phone         string    `json:"phone" yaml:"phone"`
	Address       string    `json:"address" yaml:"address"`
	Email         string    `json:"email" yaml:"email"`
	Weight        *float64  `json:"weight" yaml:"weight"`
	Height        *float64  `json:"height" yaml:"height"`
	BloodGroup    string    `json:"blood_group" yaml:"blood_group"`
	BloodPressure string    `json:"blood_pressure" yaml:"blood_pressure"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// FullName returns "First Last".
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// MedicalRecord is a row of the medical_records table.
// Nil string pointers are NULL columns.
type MedicalRecord struct {
	ID                int64     `json:"id" yaml:"id"`
	PatientID         int64     `json:"patient_id" yaml:"patient_id"`
	MedicalNotes      *string   `json:"medical_notes" yaml:"medical_notes"`
	InsuranceProvider *string   `json:"insurance_provider" yaml:"insurance_provider"`
	InsuranceID       *string   `json:"insurance_id" yaml:"insurance_id"`
	CreatedAt         time.Time `json:"created_at" yaml:"created_at"`
}

// Input is the data submitted when registering a patient.
//
// The medical fields are optional. When any of them is non-blank, registration
// also creates one MedicalRecord for the new patient.
type Input struct {
	FirstName     string   `json:"first_name" yaml:"first_name"`
	LastName      string   `json:"last_name" yaml:"last_name"`
	DateOfBirth   string   `json:"date_of_birth" yaml:"date_of_birth"`
	Gender        string   `json:"gender" yaml:"gender"`
	Phone         string   `json:"phone" yaml:"phone"`
	Address       string   `json:"address" yaml:"address"`
	Email         string   `json:"email" yaml:"email"`
	Weight        *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	Height        *float64 `json:"height,omitempty" yaml:"height,omitempty"`
	BloodGroup    string   `json:"blood_group" yaml:"blood_group"`
	BloodPressure string   `json:"blood_pressure" yaml:"blood_pressure"`

	MedicalNotes      string `json:"medical_notes,omitempty" yaml:"medical_notes,omitempty"`
	InsuranceProvider string `json:"insurance_provider,omitempty" yaml:"insurance_provider,omitempty"`
	InsuranceID       string `json:"insurance_id,omitempty" yaml:"insurance_id,omitempty"`
}

// HasMedicalData reports whether any medical or insurance field is non-blank.
func (in Input) HasMedicalData() bool {
	return strings.TrimSpace(in.MedicalNotes) != "" ||
		strings.TrimSpace(in.InsuranceProvider) != "" ||
		strings.TrimSpace(in.InsuranceID) != ""
}

// Record returns the medical record carried by the input, bound to patientID.
func (in Input) Record(patientID int64) RecordInput {
	return RecordInput{
		PatientID:         patientID,
		MedicalNotes:      in.MedicalNotes,
		InsuranceProvider: in.InsuranceProvider,
		InsuranceID:       in.InsuranceID,
	}
}

// Fields returns the input as a column-name map, the shape used for sync
// event payloads. Absent vitals are omitted.
func (in Input) Fields() map[string]any {
	m := map[string]any{
		"first_name":     in.FirstName,
		"last_name":      in.LastName,
		"date_of_birth":  in.DateOfBirth,
		"gender":         in.Gender,
		"phone":          in.Phone,
		"address":        in.Address,
		"email":          in.Email,
		"blood_group":    in.BloodGroup,
		"blood_pressure": in.BloodPressure,
	}
	if in.Weight != nil {
		m["weight"] = *in.Weight
	}
	if in.Height != nil {
		m["height"] = *in.Height
	}
	if in.MedicalNotes != "" {
		m["medical_notes"] = in.MedicalNotes
	}
	if in.InsuranceProvider != "" {
		m["insurance_provider"] = in.InsuranceProvider
	}
	if in.InsuranceID != "" {
		m["insurance_id"] = in.InsuranceID
	}
	return m
}

// RecordInput is the data for a new medical record.
// Blank strings are stored as NULL.
type RecordInput struct {
	PatientID         int64  `json:"patient_id" yaml:"patient_id"`
	MedicalNotes      string `json:"medical_notes,omitempty" yaml:"medical_notes,omitempty"`
	InsuranceProvider string `json:"insurance_provider,omitempty" yaml:"insurance_provider,omitempty"`
	InsuranceID       string `json:"insurance_id,omitempty" yaml:"insurance_id,omitempty"`
}

// Update holds replacement values for a patient's mutable fields.
// A nil field is left unchanged. Identity fields have no counterpart here.
type Update struct {
	Phone         *string  `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address       *string  `json:"address,omitempty" yaml:"address,omitempty"`
	Email         *string  `json:"email,omitempty" yaml:"email,omitempty"`
	Weight        *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	Height        *float64 `json:"height,omitempty" yaml:"height,omitempty"`
	BloodGroup    *string  `json:"blood_group,omitempty" yaml:"blood_group,omitempty"`
	BloodPressure *string  `json:"blood_pressure,omitempty" yaml:"blood_pressure,omitempty"`
}

// Fields returns the set fields as a column-name map, in no particular order.
func (u Update) Fields() map[string]any {
	m := make(map[string]any)
	if u.Phone != nil {
		m["phone"] = *u.Phone
	}
	if u.Address != nil {
		m["address"] = *u.Address
	}
	if u.Email != nil {
		m["email"] = *u.Email
	}
	if u.Weight != nil {
		m["weight"] = *u.Weight
	}
	if u.Height != nil {
		m["height"] = *u.Height
	}
	if u.BloodGroup != nil {
		m["blood_group"] = *u.BloodGroup
	}
	if u.BloodPressure != nil {
		m["blood_pressure"] = *u.BloodPressure
	}
	return m
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return len(u.Fields()) == 0
}

// BloodGroups lists the accepted blood_group values.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
