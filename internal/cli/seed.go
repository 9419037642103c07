package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/litikesh/Patient-Record-Management-System/internal/patient"
	"github.com/litikesh/Patient-Record-Management-System/internal/records"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Register patients from a YAML fixture file",
		Long: `Register every patient listed in a YAML fixture file:

  patients:
    - first_name: John
      last_name: Doe
      date_of_birth: "1990-01-01"
      gender: male
      phone: "9999999999"
      email: john@x.com
      address: 1 Main St

The whole file is validated before anything is written. Patients whose phone
or email is already registered are skipped.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

// SeedResult is the JSON payload of seed.
type SeedResult struct {
	Registered []int64 `json:"registered"`
	Skipped    []int   `json:"skipped"` // fixture indexes rejected as duplicates
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	inputs, err := patient.LoadFixtures(path)
	if err != nil {
		if outErr := formatter.Report(ErrCodeGeneric, err.Error(), nil); outErr != nil {
			return outErr
		}
		exitErr := WrapExitError(ExitCommandError, "failed to load fixtures", err)
		exitErr.reported = true
		return exitErr
	}
	formatter.VerboseLog("Loaded %d patient(s) from %s", len(inputs), path)

	s, err := openSession(cmd.Context(), opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	result := SeedResult{Registered: []int64{}, Skipped: []int{}}
	for i, in := range inputs {
		reg, err := s.app.RegisterPatient(cmd.Context(), in)
		if records.IsDuplicateError(err) {
			s.formatter.VerboseLog("patients[%d]: %s", i, records.UserMessage(err))
			result.Skipped = append(result.Skipped, i)
			continue
		}
		if err != nil {
			return s.formatter.Fail(err)
		}
		if reg.RecordErr != nil {
			s.formatter.VerboseLog("patients[%d]: medical record not saved: %v", i, reg.RecordErr)
		}
		result.Registered = append(result.Registered, reg.PatientID)
	}

	return s.formatter.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Registered %d patient(s)", len(result.Registered))
		if len(result.Skipped) > 0 {
			fmt.Fprintf(w, ", skipped %d duplicate(s)", len(result.Skipped))
		}
		fmt.Fprintln(w)
	})
}
