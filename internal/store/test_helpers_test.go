package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/litikesh/Patient-Record-Management-System/internal/patient"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestInput creates a valid registration input whose phone and email
// are unique per n.
func createTestInput(n int, first, last string) patient.Input {
	return patient.Input{
		FirstName:     first,
		LastName:      last,
		DateOfBirth:   "1985-06-15",
		Gender:        "female",
		Phone:         fmt.Sprintf("55500%05d", n),
		Address:       fmt.Sprintf("%d Main Street", n),
		Email:         fmt.Sprintf("patient%d@example.com", n),
		BloodGroup:    "A+",
		BloodPressure: "120/80",
	}
}
