package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/litikesh/Patient-Record-Management-System/internal/patient"
)

// JohnDoe returns a valid registration with no vitals and no medical data.
func JohnDoe() patient.Input {
	return patient.Input{
		FirstName:     "John",
		LastName:      "Doe",
		DateOfBirth:   "1990-01-01",
		Gender:        "male",
		Phone:         "9999999999",
		Address:       "1 Main St",
		Email:         "john@x.com",
		BloodGroup:    "O+",
		BloodPressure: "120/80",
	}
}

// PatientInput returns a valid registration whose phone and email are unique
// per n.
func PatientInput(n int, first, last string) patient.Input {
	return patient.Input{
		FirstName:     first,
		LastName:      last,
		DateOfBirth:   "1985-06-15",
		Gender:        "female",
		Phone:         fmt.Sprintf("77700%05d", n),
		Address:       fmt.Sprintf("%d Elm Street", n),
		Email:         fmt.Sprintf("person%d@example.org", n),
		BloodGroup:    "B+",
		BloodPressure: "118/76",
	}
}

// DBPath returns a database file path inside a per-test temp directory.
func DBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "patients.db")
}
