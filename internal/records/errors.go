package records

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes data access errors.
type ErrorCode string

const (
	// ErrCodeInitialization indicates the store failed to open or migrate.
	ErrCodeInitialization ErrorCode = "INITIALIZATION"

	// ErrCodeDuplicate indicates a unique phone or email violation.
	ErrCodeDuplicate ErrorCode = "DUPLICATE_CONSTRAINT"

	// ErrCodePersistence indicates any other failed write or read.
	ErrCodePersistence ErrorCode = "PERSISTENCE"

	// ErrCodeReference indicates the referenced patient does not exist.
	ErrCodeReference ErrorCode = "REFERENCE"

	// ErrCodeValidation indicates input rejected by the patient schema.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeQuery indicates a raw query failed.
	ErrCodeQuery ErrorCode = "QUERY"
)

// Error is the error type returned by Service operations.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Field names the colliding column for ErrCodeDuplicate ("phone" or "email").
	Field string

	// Fields lists the offending input fields for ErrCodeValidation.
	Fields []string

	// PatientID is the missing patient for ErrCodeReference.
	PatientID int64

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsInitializationError returns true if the store failed to boot.
func IsInitializationError(err error) bool {
	return hasCode(err, ErrCodeInitialization)
}

// IsDuplicateError returns true for a unique phone or email violation.
func IsDuplicateError(err error) bool {
	return hasCode(err, ErrCodeDuplicate)
}

// IsPersistenceError returns true for an unclassified store failure.
func IsPersistenceError(err error) bool {
	return hasCode(err, ErrCodePersistence)
}

// IsReferenceError returns true when a referenced patient does not exist.
func IsReferenceError(err error) bool {
	return hasCode(err, ErrCodeReference)
}

// IsValidationError returns true when input was rejected before the store.
func IsValidationError(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// DuplicateField returns the colliding column of a duplicate error, or "".
func DuplicateField(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code == ErrCodeDuplicate {
		return e.Field
	}
	return ""
}

// UserMessage returns text suitable for showing to the person who triggered
// err. Detail that only matters to operators is left out.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred."
	}

	switch e.Code {
	case ErrCodeInitialization:
		return "Failed to initialize database. Please refresh the page and try again."
	case ErrCodeDuplicate:
		switch e.Field {
		case "phone":
			return "Phone number already exists. Please use a different number."
		case "email":
			return "Email already exists. Please use a different email."
		}
		return "A patient with these details already exists."
	case ErrCodeReference:
		return fmt.Sprintf("Patient %d not found.", e.PatientID)
	case ErrCodeValidation:
		if len(e.Fields) == 0 {
			return "Invalid patient details."
		}
		return "Invalid patient details: " + strings.Join(e.Fields, ", ") + "."
	case ErrCodeQuery:
		return e.Message
	default:
		return "An error occurred while saving. Please try again."
	}
}
