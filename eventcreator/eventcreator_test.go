package eventcreator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kestrelsched/calscribe/calbridge"
	"github.com/kestrelsched/calscribe/pipeline"
	sqlitestore "github.com/kestrelsched/calscribe/store/db/sqlite"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsched/calscribe/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sqlitestore.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.New(db)
}

func TestCreateSimple(t *testing.T) {
	var gotNotes string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req calbridge.AddEventRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotNotes = req.Notes
		json.NewEncoder(w).Encode(calbridge.Event{ID: "evt-1", Title: req.Title})
	}))
	defer srv.Close()

	bridge := calbridge.NewClient(srv.URL, 5*time.Second)
	st := newTestStore(t)
	ec := NewEventCreator(bridge, st)

	now := time.Now()
	task := pipeline.ScheduledTask{
		ID:         "task-1",
		CalendarID: "home-id",
		Type:       pipeline.TaskSimple,
		Title:      "Call mom",
		Slot:       &pipeline.Slot{Start: now, End: now.Add(30 * time.Minute)},
	}

	result, err := ec.Create(context.Background(), task)
	require.NoError(t, err)
	require.False(t, result.Partial())
	require.Contains(t, gotNotes, "id: task-1, parent_id: null")

	mapping, err := st.GetEventMapping(context.Background(), "task-1")
	require.NoError(t, err)
	require.Equal(t, "evt-1", mapping.BackendEventID)
}

func TestCreateComplexPartialFailure(t *testing.T) {
	var mu = 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu++
		if mu == 3 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var req calbridge.AddEventRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(calbridge.Event{ID: "evt-" + req.Title, Title: req.Title})
	}))
	defer srv.Close()

	bridge := calbridge.NewClient(srv.URL, 5*time.Second)
	st := newTestStore(t)
	ec := NewEventCreator(bridge, st)
	ec.maxConcurrent = 1 // make the third POST deterministic

	now := time.Now()
	children := make([]pipeline.ScheduledChild, 5)
	for i := range children {
		children[i] = pipeline.ScheduledChild{
			ID:       "child-" + string(rune('1'+i)),
			ParentID: "parent-1",
			Title:    "Subtask " + string(rune('1'+i)),
			Slot:     pipeline.Slot{Start: now.Add(time.Duration(i) * time.Hour), End: now.Add(time.Duration(i)*time.Hour + 30*time.Minute)},
		}
	}

	task := pipeline.ScheduledTask{
		ID:         "parent-1",
		CalendarID: "home-id",
		Type:       pipeline.TaskComplex,
		Title:      "Plan trip",
		Children:   children,
	}

	result, err := ec.Create(context.Background(), task)
	require.NoError(t, err)
	require.True(t, result.Partial())
	require.Len(t, result.Failures, 1)
	require.Len(t, result.CreatedTaskIDs, 5) // parent + 4 successful children

	parent, err := st.GetTask(context.Background(), "parent-1")
	require.NoError(t, err)
	require.NotNil(t, parent)
}

func TestDeleteByTaskIDCascades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/add" {
			var req calbridge.AddEventRequest
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(calbridge.Event{ID: "evt-" + req.Title, Title: req.Title})
			return
		}
		json.NewEncoder(w).Encode(calbridge.DeleteEventResponse{Deleted: true})
	}))
	defer srv.Close()

	bridge := calbridge.NewClient(srv.URL, 5*time.Second)
	st := newTestStore(t)
	ec := NewEventCreator(bridge, st)

	now := time.Now()
	children := []pipeline.ScheduledChild{
		{ID: "c1", ParentID: "p1", Title: "A", Slot: pipeline.Slot{Start: now, End: now.Add(time.Hour)}},
		{ID: "c2", ParentID: "p1", Title: "B", Slot: pipeline.Slot{Start: now.Add(2 * time.Hour), End: now.Add(3 * time.Hour)}},
	}
	task := pipeline.ScheduledTask{ID: "p1", CalendarID: "home-id", Type: pipeline.TaskComplex, Title: "Plan", Children: children}

	_, err := ec.Create(context.Background(), task)
	require.NoError(t, err)

	result, err := ec.DeleteByTaskID(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 2, result.BackendDeletes)
	require.Len(t, result.DeletedTaskIDs, 3) // 2 children + parent

	parent, err := st.GetTask(context.Background(), "p1")
	require.NoError(t, err)
	require.Nil(t, parent)
}

func TestDeleteIdempotentWhenBackendEventAlreadyGone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/add" {
			json.NewEncoder(w).Encode(calbridge.Event{ID: "evt-1"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	bridge := calbridge.NewClient(srv.URL, 5*time.Second)
	st := newTestStore(t)
	ec := NewEventCreator(bridge, st)

	now := time.Now()
	task := pipeline.ScheduledTask{
		ID: "t1", CalendarID: "home-id", Type: pipeline.TaskSimple, Title: "X",
		Slot: &pipeline.Slot{Start: now, End: now.Add(30 * time.Minute)},
	}
	_, err := ec.Create(context.Background(), task)
	require.NoError(t, err)

	_, err = ec.DeleteByTaskID(context.Background(), "t1")
	require.NoError(t, err)

	got, err := st.GetTask(context.Background(), "t1")
	require.NoError(t, err)
	require.Nil(t, got)
}
