package allot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kestrelsched/calscribe/calbridge"
	"github.com/kestrelsched/calscribe/pipeline"
	"github.com/kestrelsched/calscribe/scheduler"
	"github.com/stretchr/testify/require"
)

func TestAllotSimplePlacesWithinWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]calbridge.Event{})
	}))
	defer srv.Close()

	bridge := calbridge.NewClient(srv.URL, 5*time.Second)
	a := NewAllotter(bridge, "Holidays", scheduler.DefaultOptions())

	loc := time.UTC
	win := pipeline.StandardWindow{
		Start: time.Date(2025, 11, 19, 0, 0, 0, 0, loc),
		End:   time.Date(2025, 11, 19, 23, 59, 0, 0, loc),
	}
	dur := 45 * time.Minute
	task := pipeline.ClassifiedTask{CalendarID: "home-id", Type: pipeline.TaskSimple, Title: "Call dentist", Duration: &dur}

	scheduled, err := a.AllotSimple(context.Background(), task, win, loc)
	require.NoError(t, err)
	require.Equal(t, pipeline.TaskSimple, scheduled.Type)
	require.NotNil(t, scheduled.Slot)
	require.Equal(t, 45*time.Minute, scheduled.Slot.Duration())
	require.False(t, scheduled.Slot.Start.Before(win.Start))
	require.False(t, scheduled.Slot.End.After(win.End))
}

func TestAllotComplexOrdersChildren(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]calbridge.Event{})
	}))
	defer srv.Close()

	bridge := calbridge.NewClient(srv.URL, 5*time.Second)
	a := NewAllotter(bridge, "Holidays", scheduler.DefaultOptions())

	loc := time.UTC
	win := pipeline.StandardWindow{
		Start: time.Date(2025, 11, 18, 1, 8, 55, 0, loc),
		End:   time.Date(2025, 11, 25, 23, 59, 0, 0, loc),
	}
	task := pipeline.DecomposedTask{
		ClassifiedTask: pipeline.ClassifiedTask{CalendarID: "home-id", Type: pipeline.TaskComplex, Title: "Plan Japan trip"},
		Subtasks: []pipeline.SubtaskSpec{
			{Title: "Research flights", Duration: time.Hour},
			{Title: "Book flights", Duration: 2 * time.Hour},
			{Title: "Book hotels", Duration: 90 * time.Minute},
		},
	}

	scheduled, err := a.AllotComplex(context.Background(), task, win, loc)
	require.NoError(t, err)
	require.Equal(t, pipeline.TaskComplex, scheduled.Type)
	require.Len(t, scheduled.Children, 3)
	for _, c := range scheduled.Children {
		require.Equal(t, scheduled.ID, c.ParentID)
	}
	for i := 1; i < len(scheduled.Children); i++ {
		require.False(t, scheduled.Children[i].Slot.Start.Before(scheduled.Children[i-1].Slot.End))
	}
}

func TestAllotSimpleAvoidsBusyEvent(t *testing.T) {
	loc := time.UTC
	busyStart := time.Date(2025, 11, 19, 6, 0, 0, 0, loc)
	busyEnd := time.Date(2025, 11, 19, 22, 0, 0, 0, loc)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]calbridge.Event{
			{ID: "e1", StartISO: busyStart.Format(time.RFC3339), EndISO: busyEnd.Format(time.RFC3339), CalendarTitle: "Home"},
		})
	}))
	defer srv.Close()

	bridge := calbridge.NewClient(srv.URL, 5*time.Second)
	a := NewAllotter(bridge, "Holidays", scheduler.DefaultOptions())

	win := pipeline.StandardWindow{
		Start: time.Date(2025, 11, 19, 0, 0, 0, 0, loc),
		End:   time.Date(2025, 11, 19, 23, 59, 0, 0, loc),
	}
	dur := 30 * time.Minute
	task := pipeline.ClassifiedTask{CalendarID: "home-id", Type: pipeline.TaskSimple, Title: "Quick task", Duration: &dur}

	scheduled, err := a.AllotSimple(context.Background(), task, win, loc)
	require.NoError(t, err)
	require.False(t, scheduled.Slot.Start.Before(busyEnd))
}

// TestValidateSlotRejectsBusyOverlap stages a slot the scheduler is forced
// to return that overlaps a busy interval the complement should have
// excluded (e.g. a booking made on the backend between the /events fetch
// and event creation, or a scheduler defect), and confirms validateSlot
// catches it rather than silently double-booking.
func TestValidateSlotRejectsBusyOverlap(t *testing.T) {
	loc := time.UTC
	win := pipeline.StandardWindow{
		Start: time.Date(2025, 11, 19, 0, 0, 0, 0, loc),
		End:   time.Date(2025, 11, 19, 23, 59, 0, 0, loc),
	}
	busy := []scheduler.Interval{{
		Start: time.Date(2025, 11, 19, 9, 0, 0, 0, loc),
		End:   time.Date(2025, 11, 19, 10, 0, 0, 0, loc),
	}}

	slotStart := time.Date(2025, 11, 19, 9, 30, 0, 0, loc)
	slotEnd := slotStart.Add(30 * time.Minute)

	err := validateSlot(slotStart, slotEnd, win, 30*time.Minute, busy)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
