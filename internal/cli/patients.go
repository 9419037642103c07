package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/litikesh/Patient-Record-Management-System/internal/patient"
	"github.com/litikesh/Patient-Record-Management-System/internal/records"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or upgrade the patient database",
		Long: `Create the database file and its tables if they do not exist, and
apply pending schema migrations. Safe to run repeatedly.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}

	return cmd
}

// InitResult is the JSON payload of init.
type InitResult struct {
	Path     string `json:"path"`
	Patients int    `json:"patients"`
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	count, err := s.app.Records().CountPatients(cmd.Context())
	if err != nil {
		return s.formatter.Fail(err)
	}

	cfg, _ := opts.Config()
	result := InitResult{Path: cfg.DBPath, Patients: count}
	return s.formatter.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Database ready at %s (%d patients)\n", result.Path, result.Patients)
	})
}

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	Input  patient.Input
	Weight float64
	Height float64
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new patient",
		Long: `Register a new patient. Phone and email must be unique.

When any of --notes, --insurance-provider or --insurance-id is given, a
medical record is created for the new patient as well.

Example:
  prms register --first-name John --last-name Doe --dob 1990-01-01 \
    --gender male --phone 9999999999 --email john@x.com --address "1 Main St"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts, cmd)
		},
	}

	in := &opts.Input
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name (required)")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name (required)")
	cmd.Flags().StringVar(&in.DateOfBirth, "dob", "", "date of birth, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&in.Gender, "gender", "", "gender (required)")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number (required, unique)")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address (required, unique)")
	cmd.Flags().StringVar(&in.Address, "address", "", "postal address (required)")
	cmd.Flags().Float64Var(&opts.Weight, "weight", 0, "weight in kg")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "height in cm")
	cmd.Flags().StringVar(&in.BloodGroup, "blood-group", "", "blood group, e.g. O+")
	cmd.Flags().StringVar(&in.BloodPressure, "blood-pressure", "", "blood pressure, e.g. 120/80")
	cmd.Flags().StringVar(&in.MedicalNotes, "notes", "", "medical notes")
	cmd.Flags().StringVar(&in.InsuranceProvider, "insurance-provider", "", "insurance provider")
	cmd.Flags().StringVar(&in.InsuranceID, "insurance-id", "", "insurance policy id")

	return cmd
}

// RegisterResult is the JSON payload of register.
type RegisterResult struct {
	PatientID   int64  `json:"patient_id"`
	RecordID    int64  `json:"record_id,omitempty"`
	RecordError string `json:"record_error,omitempty"`
}

func runRegister(opts *RegisterOptions, cmd *cobra.Command) error {
	in := opts.Input
	in.Weight = changedFloat(cmd.Flags(), "weight", opts.Weight)
	in.Height = changedFloat(cmd.Flags(), "height", opts.Height)

	s, err := openSession(cmd.Context(), opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	reg, err := s.app.RegisterPatient(cmd.Context(), in)
	if err != nil {
		return s.formatter.Fail(err)
	}

	result := RegisterResult{PatientID: reg.PatientID, RecordID: reg.RecordID}
	if reg.RecordErr != nil {
		result.RecordError = records.UserMessage(reg.RecordErr)
		s.formatter.VerboseLog("medical record insert failed: %v", reg.RecordErr)
	}

	return s.formatter.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Registered patient %d (%s %s)\n", result.PatientID, in.FirstName, in.LastName)
		if result.RecordID != 0 {
			fmt.Fprintf(w, "  Medical record %d created\n", result.RecordID)
		}
		if result.RecordError != "" {
			fmt.Fprintf(w, "  Warning: medical record not saved: %s\n", result.RecordError)
		}
	})
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List all patients, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(rootOpts, "", cmd)
		},
	}

	return cmd
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search patients by name",
		Long: `Search patients whose first name or last name contains the term,
ignoring case. Each name is matched on its own, so "John Doe" matches
nobody; search for "Doe" instead. Results are ordered by last name, then
first name. A blank term lists every patient, newest first.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			term := ""
			if len(args) == 1 {
				term = args[0]
			}
			return runFind(rootOpts, term, cmd)
		},
	}

	return cmd
}

func runFind(opts *RootOptions, term string, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.app.Search(cmd.Context(), term)
	if err != nil {
		return s.formatter.Fail(err)
	}
	s.formatter.VerboseLog("Found %d patient(s)", len(res.Patients))
	if res.Patients == nil {
		res.Patients = []patient.Patient{}
	}

	return s.formatter.Render(res.Patients, func(w io.Writer) {
		writePatients(w, res.Patients)
	})
}

// PatientDetail is the JSON payload of show.
type PatientDetail struct {
	Patient        patient.Patient         `json:"patient"`
	MedicalRecords []patient.MedicalRecord `json:"medical_records"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <patient-id>",
		Short:         "Show a patient and their medical records",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runShow(rootOpts, id, cmd)
		},
	}

	return cmd
}

func runShow(opts *RootOptions, id int64, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.app.Records().GetPatient(cmd.Context(), id)
	if err != nil {
		return s.formatter.Fail(err)
	}
	recs, err := s.app.Records().ListMedicalRecords(cmd.Context(), id)
	if err != nil {
		return s.formatter.Fail(err)
	}

	detail := PatientDetail{Patient: p, MedicalRecords: recs}
	if detail.MedicalRecords == nil {
		detail.MedicalRecords = []patient.MedicalRecord{}
	}
	return s.formatter.Render(detail, func(w io.Writer) {
		writePatientDetail(w, p, recs)
	})
}

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Phone         string
	Address       string
	Email         string
	Weight        float64
	Height        float64
	BloodGroup    string
	BloodPressure string
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <patient-id>",
		Short: "Update a patient's contact details and vitals",
		Long: `Update a patient's contact details and vitals. Only the flags that are
given change; names, date of birth and gender cannot be updated.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runUpdate(opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.Address, "address", "", "postal address")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().Float64Var(&opts.Weight, "weight", 0, "weight in kg")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "height in cm")
	cmd.Flags().StringVar(&opts.BloodGroup, "blood-group", "", "blood group")
	cmd.Flags().StringVar(&opts.BloodPressure, "blood-pressure", "", "blood pressure")

	return cmd
}

func runUpdate(opts *UpdateOptions, id int64, cmd *cobra.Command) error {
	flags := cmd.Flags()
	u := patient.Update{
		Phone:         changedString(flags, "phone", opts.Phone),
		Address:       changedString(flags, "address", opts.Address),
		Email:         changedString(flags, "email", opts.Email),
		Weight:        changedFloat(flags, "weight", opts.Weight),
		Height:        changedFloat(flags, "height", opts.Height),
		BloodGroup:    changedString(flags, "blood-group", opts.BloodGroup),
		BloodPressure: changedString(flags, "blood-pressure", opts.BloodPressure),
	}
	if u.IsEmpty() {
		return NewExitError(ExitCommandError, "nothing to update: pass at least one field flag")
	}

	s, err := openSession(cmd.Context(), opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.app.UpdatePatient(cmd.Context(), id, u); err != nil {
		return s.formatter.Fail(err)
	}

	fields := u.Fields()
	fields["id"] = id
	return s.formatter.Render(fields, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Updated patient %d\n", id)
	})
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "delete <patient-id>",
		Short:         "Delete a patient and their medical records",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runDelete(rootOpts, id, cmd)
		},
	}

	return cmd
}

func runDelete(opts *RootOptions, id int64, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.app.DeletePatient(cmd.Context(), id); err != nil {
		return s.formatter.Fail(err)
	}

	return s.formatter.Render(map[string]any{"id": id, "deleted": true}, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Deleted patient %d\n", id)
	})
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid patient id %q", arg))
	}
	return id, nil
}

func changedString(flags *pflag.FlagSet, name, v string) *string {
	if !flags.Changed(name) {
		return nil
	}
	return &v
}

func changedFloat(flags *pflag.FlagSet, name string, v float64) *float64 {
	if !flags.Changed(name) {
		return nil
	}
	return &v
}
