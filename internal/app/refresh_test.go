package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litikesh/Patient-Record-Management-System/internal/broadcast"
	"github.com/litikesh/Patient-Record-Management-System/internal/testutil"
)

func TestRefresh(t *testing.T) {
	tests := []struct {
		name     string
		ev       broadcast.Event
		selected int64
		want     RefreshPlan
	}{
		{
			name: "patient added",
			ev:   broadcast.Event{Type: broadcast.PatientAdded, Payload: map[string]any{"id": json.Number("4")}},
			want: RefreshPlan{Patients: true},
		},
		{
			name:     "patient updated",
			ev:       broadcast.Event{Type: broadcast.PatientUpdated, Payload: map[string]any{"id": json.Number("4")}},
			selected: 4,
			want:     RefreshPlan{Patients: true},
		},
		{
			name:     "selected patient deleted",
			ev:       broadcast.Event{Type: broadcast.PatientUpdated, Payload: map[string]any{"id": json.Number("4"), "deleted": true}},
			selected: 4,
			want:     RefreshPlan{Patients: true, ClearSelection: true},
		},
		{
			name:     "other patient deleted",
			ev:       broadcast.Event{Type: broadcast.PatientUpdated, Payload: map[string]any{"id": json.Number("5"), "deleted": true}},
			selected: 4,
			want:     RefreshPlan{Patients: true},
		},
		{
			name:     "record for selected patient",
			ev:       broadcast.Event{Type: broadcast.MedicalRecordAdded, Payload: map[string]any{"patient_id": json.Number("4"), "id": json.Number("1")}},
			selected: 4,
			want:     RefreshPlan{Records: true},
		},
		{
			name:     "record for another patient",
			ev:       broadcast.Event{Type: broadcast.MedicalRecordAdded, Payload: map[string]any{"patient_id": json.Number("9")}},
			selected: 4,
			want:     RefreshPlan{},
		},
		{
			name: "record with nothing selected",
			ev:   broadcast.Event{Type: broadcast.MedicalRecordAdded, Payload: map[string]any{"patient_id": json.Number("4")}},
			want: RefreshPlan{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Refresh(tt.ev, tt.selected)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == RefreshPlan{}, got.IsZero())
		})
	}
}

func TestWatch_ReloadsOnPeerWrites(t *testing.T) {
	hub := broadcast.NewHub()
	path := testutil.DBPath(t)
	writer := newTestApp(t, hub, path)
	viewer := newTestApp(t, hub, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []broadcast.EventType
	done := make(chan error, 1)
	go func() {
		done <- viewer.Watch(ctx, func(ev broadcast.Event) {
			mu.Lock()
			seen = append(seen, ev.Type)
			mu.Unlock()
		})
	}()

	// Give Watch a moment to subscribe before the write.
	time.Sleep(20 * time.Millisecond)
	_, err := writer.RegisterPatient(context.Background(), testutil.JohnDoe())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 2*time.Second, time.Millisecond)

	mu.Lock()
	assert.Equal(t, broadcast.PatientAdded, seen[len(seen)-1])
	mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatchSince_DeliversChangeMadeWhileLoading(t *testing.T) {
	hub := broadcast.NewHub()
	path := testutil.DBPath(t)
	writer := newTestApp(t, hub, path)
	viewer := newTestApp(t, hub, path)

	loadedAt := viewer.Channel().Version()
	changed := viewer.Channel().Changed()
	_, err := writer.RegisterPatient(context.Background(), testutil.JohnDoe())
	require.NoError(t, err)
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a sync event")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan broadcast.EventType, 4)
	done := make(chan error, 1)
	go func() {
		done <- viewer.WatchSince(ctx, loadedAt, func(ev broadcast.Event) {
			got <- ev.Type
		})
	}()

	select {
	case typ := <-got:
		assert.Equal(t, broadcast.PatientAdded, typ)
	case <-time.After(2 * time.Second):
		t.Fatal("change made before WatchSince was not delivered")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatchSince_NothingPendingAtCurrentVersion(t *testing.T) {
	viewer := newTestApp(t, broadcast.NewHub(), testutil.DBPath(t))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	err := viewer.WatchSince(ctx, viewer.Channel().Version(), func(broadcast.Event) { calls++ })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, calls)
}
