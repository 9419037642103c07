package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/litikesh/Patient-Record-Management-System/internal/patient"
)

// RecordOptions holds flags for the record add command.
type RecordOptions struct {
	*RootOptions
	Notes             string
	InsuranceProvider string
	InsuranceID       string
}

// NewRecordCommand creates the record command group.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Manage medical records",
	}

	cmd.AddCommand(newRecordAddCommand(rootOpts))

	return cmd
}

func newRecordAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <patient-id>",
		Short: "Add a medical record to a patient",
		Long: `Add a medical record to an existing patient. Omitted fields are stored
as NULL.

Example:
  prms record add 1 --notes "Annual checkup" --insurance-provider Acme --insurance-id A-100`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runRecordAdd(opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Notes, "notes", "", "medical notes")
	cmd.Flags().StringVar(&opts.InsuranceProvider, "insurance-provider", "", "insurance provider")
	cmd.Flags().StringVar(&opts.InsuranceID, "insurance-id", "", "insurance policy id")

	return cmd
}

// RecordResult is the JSON payload of record add.
type RecordResult struct {
	PatientID int64 `json:"patient_id"`
	RecordID  int64 `json:"record_id"`
}

func runRecordAdd(opts *RecordOptions, patientID int64, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.app.AddMedicalRecord(cmd.Context(), patientID, opts.Notes, opts.InsuranceProvider, opts.InsuranceID)
	if err != nil {
		return s.formatter.Fail(err)
	}

	result := RecordResult{PatientID: patientID, RecordID: id}
	return s.formatter.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Added medical record %d for patient %d\n", id, patientID)
	})
}

// NewRecordsCommand creates the records command.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "records <patient-id>",
		Short:         "List a patient's medical records, newest first",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runRecords(rootOpts, id, cmd)
		},
	}

	return cmd
}

func runRecords(opts *RootOptions, patientID int64, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	recs, err := s.app.Records().ListMedicalRecords(cmd.Context(), patientID)
	if err != nil {
		return s.formatter.Fail(err)
	}
	if recs == nil {
		recs = []patient.MedicalRecord{}
	}

	return s.formatter.Render(recs, func(w io.Writer) {
		writeRecords(w, recs)
	})
}
