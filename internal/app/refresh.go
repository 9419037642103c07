package app

import (
	"context"

	"github.com/litikesh/Patient-Record-Management-System/internal/broadcast"
)

// RefreshPlan says what a view must reload after a sync event.
type RefreshPlan struct {
	// Patients is set when the patient list may have changed.
	Patients bool

	// Records is set when the selected patient's medical records changed.
	Records bool

	// ClearSelection is set when the selected patient was deleted.
	ClearSelection bool
}

// IsZero reports whether the plan requires nothing.
func (p RefreshPlan) IsZero() bool {
	return p == RefreshPlan{}
}

// Refresh classifies ev for a view showing the patient list and, when
// selected is non-zero, that patient's records.
func Refresh(ev broadcast.Event, selected int64) RefreshPlan {
	var plan RefreshPlan

	switch ev.Type {
	case broadcast.PatientAdded:
		plan.Patients = true
	case broadcast.PatientUpdated:
		plan.Patients = true
		if id, ok := ev.Int64("id"); ok && selected != 0 && id == selected && ev.Bool("deleted") {
			plan.ClearSelection = true
		}
	case broadcast.MedicalRecordAdded:
		if id, ok := ev.Int64("patient_id"); ok && selected != 0 && id == selected {
			plan.Records = true
		}
	}
	return plan
}

// Watch calls fn with the channel's last event each time it changes, until
// ctx is done. Events that arrive while fn runs collapse into the latest.
func (a *App) Watch(ctx context.Context, fn func(broadcast.Event)) error {
	return a.WatchSince(ctx, a.channel.Version(), fn)
}

// WatchSince is Watch for a view loaded while the channel was at version v.
// If the last event has been replaced since then, fn is called with it
// straight away, so a change made while the view loaded is not missed.
func (a *App) WatchSince(ctx context.Context, v uint64, fn func(broadcast.Event)) error {
	changed := a.channel.Changed()
	if a.channel.Version() != v {
		if ev, ok := a.channel.Last(); ok {
			fn(ev)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
			changed = a.channel.Changed()
			if ev, ok := a.channel.Last(); ok {
				fn(ev)
			}
		}
	}
}
