package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/litikesh/Patient-Record-Management-System/internal/app"
	"github.com/litikesh/Patient-Record-Management-System/internal/broadcast"
	"github.com/litikesh/Patient-Record-Management-System/internal/patient"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	PatientID int64
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow changes made by other prms processes",
		Long: `Print the patient list, then print it again whenever another prms
process using the same database registers, updates or deletes a patient.

With --patient, that patient's medical records are printed too, and again
whenever a record is added for them. If the patient is deleted, watch stops
following their records.

Runs until interrupted. In JSON mode every update is one line.

Example:
  prms watch --patient 1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.PatientID < 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid patient id %d", opts.PatientID))
			}
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.PatientID, "patient", 0, "also follow this patient's medical records")

	return cmd
}

// WatchUpdate is the JSON payload of one watch line. Event is empty for the
// view printed at startup. Patients and MedicalRecords are present only when
// they were reloaded.
type WatchUpdate struct {
	Event            broadcast.EventType     `json:"event,omitempty"`
	Timestamp        int64                   `json:"timestamp,omitempty"`
	Patients         []patient.Patient       `json:"patients,omitzero"`
	PatientID        int64                   `json:"patient_id,omitempty"`
	MedicalRecords   []patient.MedicalRecord `json:"medical_records,omitzero"`
	SelectionCleared bool                    `json:"selection_cleared,omitempty"`
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	w := &watcher{app: s.app, formatter: s.formatter, selected: opts.PatientID}
	loadedAt := s.app.Channel().Version()
	initial := app.RefreshPlan{Patients: true, Records: w.selected != 0}
	if err := w.show(ctx, broadcast.Event{}, initial); err != nil {
		return err
	}

	err = s.app.WatchSince(ctx, loadedAt, func(ev broadcast.Event) {
		if err := w.apply(ctx, ev); err != nil && ctx.Err() == nil {
			s.formatter.VerboseLog("reload after %s failed: %v", ev.Type, err)
		}
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// watcher is the view state of one watch command.
type watcher struct {
	app       *app.App
	formatter *OutputFormatter
	selected  int64
}

// apply reloads whatever ev invalidates. Events that change nothing on
// screen print nothing.
func (w *watcher) apply(ctx context.Context, ev broadcast.Event) error {
	plan := app.Refresh(ev, w.selected)
	if plan.IsZero() {
		return nil
	}
	return w.show(ctx, ev, plan)
}

func (w *watcher) show(ctx context.Context, ev broadcast.Event, plan app.RefreshPlan) error {
	update := WatchUpdate{Event: ev.Type, Timestamp: ev.Timestamp, PatientID: w.selected}

	if plan.ClearSelection {
		update.SelectionCleared = true
		w.selected = 0
	}
	if plan.Patients {
		patients, err := w.app.FindPatients(ctx, "")
		if err != nil {
			return w.formatter.Fail(err)
		}
		if patients == nil {
			patients = []patient.Patient{}
		}
		update.Patients = patients
	}
	if plan.Records && w.selected != 0 {
		recs, err := w.app.Records().ListMedicalRecords(ctx, w.selected)
		if err != nil {
			return w.formatter.Fail(err)
		}
		if recs == nil {
			recs = []patient.MedicalRecord{}
		}
		update.MedicalRecords = recs
	}

	return w.formatter.Render(update, func(out io.Writer) {
		writeWatchUpdate(out, update)
	})
}

func writeWatchUpdate(w io.Writer, u WatchUpdate) {
	if u.Event != "" {
		at := time.UnixMilli(u.Timestamp).Format("15:04:05")
		fmt.Fprintf(w, "\n[%s] %s\n", at, u.Event)
	}
	if u.SelectionCleared {
		fmt.Fprintf(w, "Patient %d was deleted; no longer following their records.\n", u.PatientID)
	}
	if u.Patients != nil {
		writePatients(w, u.Patients)
	}
	if u.MedicalRecords != nil {
		fmt.Fprintf(w, "\nMedical records for patient %d:\n", u.PatientID)
		writeRecords(w, u.MedicalRecords)
	}
}
