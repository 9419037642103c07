package records

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litikesh/Patient-Record-Management-System/internal/patient"
	"github.com/litikesh/Patient-Record-Management-System/internal/store"
	"github.com/litikesh/Patient-Record-Management-System/internal/testutil"
	"github.com/litikesh/Patient-Record-Management-System/internal/worker"
)

func TestRegisterPatient_JohnDoe(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	reg, err := s.RegisterPatient(ctx, testutil.JohnDoe())
	require.NoError(t, err)
	assert.Equal(t, int64(1), reg.PatientID)
	assert.Zero(t, reg.RecordID, "no medical data, no record")
	assert.NoError(t, reg.RecordErr)

	patients, err := s.ListPatients(ctx)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "John Doe", patients[0].FullName())

	records, err := s.ListMedicalRecords(ctx, reg.PatientID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRegisterPatient_FreshIDs(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	seen := make(map[int64]bool)
	for i := 1; i <= 10; i++ {
		reg, err := s.RegisterPatient(ctx, testutil.PatientInput(i, "Pat", "Ient"))
		require.NoError(t, err)
		assert.Positive(t, reg.PatientID)
		assert.False(t, seen[reg.PatientID], "id %d reused", reg.PatientID)
		seen[reg.PatientID] = true
	}
}

func TestRegisterPatient_ConcurrentCallers(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	const n = 12
	ids := make([]int64, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			reg, err := s.RegisterPatient(ctx, testutil.PatientInput(i+1, "Con", "Current"))
			ids[i], errs[i] = reg.PatientID, err
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[ids[i]])
		seen[ids[i]] = true
	}

	count, err := s.CountPatients(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestRegisterPatient_WithMedicalData(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	in := testutil.JohnDoe()
	in.MedicalNotes = "Penicillin allergy"
	in.InsuranceProvider = "Acme Health"

	reg, err := s.RegisterPatient(ctx, in)
	require.NoError(t, err)
	require.NoError(t, reg.RecordErr)
	assert.Positive(t, reg.RecordID)

	records, err := s.ListMedicalRecords(ctx, reg.PatientID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].MedicalNotes)
	assert.Equal(t, "Penicillin allergy", *records[0].MedicalNotes)
	require.NotNil(t, records[0].InsuranceProvider)
	assert.Equal(t, "Acme Health", *records[0].InsuranceProvider)
	assert.Nil(t, records[0].InsuranceID)
}

func TestRegisterPatient_DuplicatePhone(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first, err := s.RegisterPatient(ctx, testutil.JohnDoe())
	require.NoError(t, err)

	dup := testutil.PatientInput(1, "Jim", "Doe")
	dup.Phone = testutil.JohnDoe().Phone
	_, err = s.RegisterPatient(ctx, dup)
	require.Error(t, err)
	assert.True(t, IsDuplicateError(err), "got %v", err)
	assert.Equal(t, "phone", DuplicateField(err))
	assert.Equal(t, "Phone number already exists. Please use a different number.", UserMessage(err))

	p, err := s.GetPatient(ctx, first.PatientID)
	require.NoError(t, err)
	assert.Equal(t, "John", p.FirstName, "first registration is unaffected")

	count, err := s.CountPatients(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegisterPatient_DuplicateEmail(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.RegisterPatient(ctx, testutil.JohnDoe())
	require.NoError(t, err)

	dup := testutil.PatientInput(1, "Jim", "Doe")
	dup.Email = testutil.JohnDoe().Email
	_, err = s.RegisterPatient(ctx, dup)
	require.Error(t, err)
	assert.True(t, IsDuplicateError(err))
	assert.Equal(t, "email", DuplicateField(err))
	assert.Equal(t, "Email already exists. Please use a different email.", UserMessage(err))
}

func TestRegisterPatient_Invalid(t *testing.T) {
	s := newTestService(t)

	in := testutil.JohnDoe()
	in.Email = "not-an-email"
	in.BloodGroup = "Z"

	_, err := s.RegisterPatient(context.Background(), in)
	require.Error(t, err)
	assert.True(t, IsValidationError(err), "got %v", err)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Contains(t, e.Fields, "blood_group")
	assert.Contains(t, e.Fields, "email")
	assert.Contains(t, UserMessage(err), "blood_group, email")
}

func TestRegisterPatient_RecordFailureKeepsPatient(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	breakRecordInserts(t, s)

	in := testutil.JohnDoe()
	in.MedicalNotes = "will fail"

	reg, err := s.RegisterPatient(ctx, in)
	require.NoError(t, err, "the patient insert committed")
	assert.Positive(t, reg.PatientID)
	assert.Zero(t, reg.RecordID)
	require.Error(t, reg.RecordErr)
	assert.True(t, IsPersistenceError(reg.RecordErr), "got %v", reg.RecordErr)

	_, err = s.GetPatient(ctx, reg.PatientID)
	assert.NoError(t, err)
}

func TestRegisterPatient_AtomicRollsBack(t *testing.T) {
	s := New(Config{Path: testutil.DBPath(t), AtomicRegistration: true})
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()
	breakRecordInserts(t, s)

	in := testutil.JohnDoe()
	in.MedicalNotes = "will fail"

	_, err := s.RegisterPatient(ctx, in)
	require.Error(t, err)
	assert.True(t, IsPersistenceError(err))

	count, err := s.CountPatients(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "the patient insert was rolled back")
}

func TestRegisterPatient_AtomicSuccess(t *testing.T) {
	s := New(Config{Path: testutil.DBPath(t), AtomicRegistration: true})
	t.Cleanup(func() { _ = s.Close() })

	in := testutil.JohnDoe()
	in.InsuranceID = "INS-42"

	reg, err := s.RegisterPatient(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reg.PatientID)
	assert.Positive(t, reg.RecordID)
	assert.NoError(t, reg.RecordErr)
}

// breakRecordInserts installs a trigger that aborts every medical record
// insert.
func breakRecordInserts(t *testing.T, s *Service) {
	t.Helper()
	w, err := s.Initialize(context.Background())
	require.NoError(t, err)
	require.NoError(t, w.Do(context.Background(), func(ctx context.Context, st *store.Store) error {
		_, err := st.DB().ExecContext(ctx, `
			CREATE TRIGGER reject_records BEFORE INSERT ON medical_records
			BEGIN SELECT RAISE(ABORT, 'records disabled'); END`)
		return err
	}))
}

func TestAddMedicalRecord(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	reg, err := s.RegisterPatient(ctx, testutil.JohnDoe())
	require.NoError(t, err)

	id, err := s.AddMedicalRecord(ctx, reg.PatientID, "Follow-up", "", "POL-1")
	require.NoError(t, err)
	assert.Positive(t, id)

	records, err := s.ListMedicalRecords(ctx, reg.PatientID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.Nil(t, records[0].InsuranceProvider)
}

func TestAddMedicalRecord_MissingPatient(t *testing.T) {
	s := newTestService(t)

	_, err := s.AddMedicalRecord(context.Background(), 404, "notes", "", "")
	require.Error(t, err)
	assert.True(t, IsReferenceError(err), "got %v", err)
	assert.Equal(t, "Patient 404 not found.", UserMessage(err))
}

func TestListPatients_NewestFirst(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	var ids []int64
	for i := 1; i <= 3; i++ {
		reg, err := s.RegisterPatient(ctx, testutil.PatientInput(i, "P", "Q"))
		require.NoError(t, err)
		ids = append(ids, reg.PatientID)
	}

	patients, err := s.ListPatients(ctx)
	require.NoError(t, err)
	require.Len(t, patients, 3)
	assert.Equal(t, []int64{ids[2], ids[1], ids[0]}, patientIDs(patients))
}

func TestSearchPatientsByName(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for i, name := range [][2]string{
		{"John", "Doe"},
		{"Alice", "Johnson"},
		{"Bob", "Smith"},
		{"Émile", "Durand"},
	} {
		_, err := s.RegisterPatient(ctx, testutil.PatientInput(i+1, name[0], name[1]))
		require.NoError(t, err)
	}

	got, err := s.SearchPatientsByName(ctx, "JOHN")
	require.NoError(t, err)
	assert.Equal(t, []string{"John Doe", "Alice Johnson"}, names(got))

	got, err = s.SearchPatientsByName(ctx, "émi")
	require.NoError(t, err)
	assert.Equal(t, []string{"Émile Durand"}, names(got))

	got, err = s.SearchPatientsByName(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetPatient_Missing(t *testing.T) {
	s := newTestService(t)
	_, err := s.GetPatient(context.Background(), 3)
	assert.True(t, IsReferenceError(err))
}

func TestUpdatePatient(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	reg, err := s.RegisterPatient(ctx, testutil.JohnDoe())
	require.NoError(t, err)

	bp := "130/85"
	require.NoError(t, s.UpdatePatient(ctx, reg.PatientID, patient.Update{BloodPressure: &bp}))

	p, err := s.GetPatient(ctx, reg.PatientID)
	require.NoError(t, err)
	assert.Equal(t, "130/85", p.BloodPressure)
}

func TestUpdatePatient_Errors(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	john, err := s.RegisterPatient(ctx, testutil.JohnDoe())
	require.NoError(t, err)
	other, err := s.RegisterPatient(ctx, testutil.PatientInput(1, "Jane", "Roe"))
	require.NoError(t, err)

	johnEmail := testutil.JohnDoe().Email
	err = s.UpdatePatient(ctx, other.PatientID, patient.Update{Email: &johnEmail})
	assert.True(t, IsDuplicateError(err), "got %v", err)
	assert.Equal(t, "email", DuplicateField(err))

	phone := "1231231234"
	err = s.UpdatePatient(ctx, 999, patient.Update{Phone: &phone})
	assert.True(t, IsReferenceError(err), "got %v", err)

	bad := "high"
	err = s.UpdatePatient(ctx, john.PatientID, patient.Update{BloodPressure: &bad})
	assert.True(t, IsValidationError(err), "got %v", err)

	err = s.UpdatePatient(ctx, john.PatientID, patient.Update{})
	assert.True(t, IsValidationError(err), "empty updates are rejected")
}

func TestDeletePatient_CascadesRecords(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	in := testutil.JohnDoe()
	in.MedicalNotes = "first"
	reg, err := s.RegisterPatient(ctx, in)
	require.NoError(t, err)
	_, err = s.AddMedicalRecord(ctx, reg.PatientID, "second", "", "")
	require.NoError(t, err)

	require.NoError(t, s.DeletePatient(ctx, reg.PatientID))

	_, err = s.GetPatient(ctx, reg.PatientID)
	assert.True(t, IsReferenceError(err))

	res := s.RunQuery(ctx, "SELECT COUNT(*) AS n FROM medical_records WHERE patient_id = $1", reg.PatientID)
	require.True(t, res.Success, "query failed: %v", res.Err())
	assert.Equal(t, int64(0), res.Data[0]["n"])

	err = s.DeletePatient(ctx, reg.PatientID)
	assert.True(t, IsReferenceError(err), "second delete finds nothing")
}

func TestOperations_CancelledContext(t *testing.T) {
	s := newTestService(t)
	_, err := s.Initialize(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.ListPatients(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOperations_AfterWorkerClosed(t *testing.T) {
	s := newTestService(t)
	w, err := s.Initialize(context.Background())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = s.ListPatients(context.Background())
	assert.True(t, IsPersistenceError(err))
	assert.ErrorIs(t, err, worker.ErrClosed)
}

func patientIDs(patients []patient.Patient) []int64 {
	ids := make([]int64, 0, len(patients))
	for _, p := range patients {
		ids = append(ids, p.ID)
	}
	return ids
}

func names(patients []patient.Patient) []string {
	out := make([]string, 0, len(patients))
	for _, p := range patients {
		out = append(out, p.FullName())
	}
	return out
}
