package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kestrelsched/calscribe/ai"
	"github.com/kestrelsched/calscribe/allot"
	"github.com/kestrelsched/calscribe/calbridge"
	"github.com/kestrelsched/calscribe/eventcreator"
	"github.com/kestrelsched/calscribe/pipeline"
	"github.com/kestrelsched/calscribe/scheduler"
	sqlitestore "github.com/kestrelsched/calscribe/store/db/sqlite"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsched/calscribe/store"
)

func newBackend(t *testing.T) (*calbridge.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/calendars":
			json.NewEncoder(w).Encode([]calbridge.Calendar{
				{ID: "home-id", Title: "Home", AllowsModifications: true},
				{ID: "work-id", Title: "Work", AllowsModifications: true},
			})
		case "/events":
			json.NewEncoder(w).Encode([]calbridge.Event{})
		case "/add":
			var req calbridge.AddEventRequest
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(calbridge.Event{ID: "evt-1", Title: req.Title})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return calbridge.NewClient(srv.URL, 5*time.Second), srv
}

func TestRunSimpleQueryEndToEnd(t *testing.T) {
	bridge, _ := newBackend(t)

	db, err := sqlitestore.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := store.New(db)

	mock := &ai.MockService{Responses: []string{
		`{"start_text": "tomorrow at 2pm", "end_text": null, "duration": "30 minutes"}`,
		`{"start_text": "November 19, 2025 2:00 pm", "end_text": null, "duration": "30 minutes"}`,
		`{"calendar_title": "Home", "type": "simple", "title": "Call mom", "is_atomic": true}`,
	}}

	o := New(
		pipeline.NewSlotExtractor(mock),
		pipeline.NewAbsoluteResolver(mock),
		pipeline.NewTimeStandardizer(),
		pipeline.NewDifficultyAnalyzer(mock),
		pipeline.NewDecomposer(mock),
		allot.NewAllotter(bridge, "Holidays", scheduler.DefaultOptions()),
		eventcreator.NewEventCreator(bridge, st),
		bridge,
	)

	loc := time.UTC
	now := time.Date(2025, 11, 18, 0, 0, 0, 0, loc)
	q := pipeline.Query{Text: "Call mom tomorrow at 2pm for 30 minutes", TZ: loc}

	result, trace, err := o.Run(context.Background(), q, now)
	require.NoError(t, err)
	require.False(t, trace.HasError())
	require.Equal(t, pipeline.TaskSimple, result.Scheduled.Type)
	require.False(t, result.Created.Partial())
}

func TestRunTraceRecordsFailingStage(t *testing.T) {
	bridge, _ := newBackend(t)
	db, err := sqlitestore.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := store.New(db)

	mock := &ai.MockService{Responses: []string{"not json"}}

	o := New(
		pipeline.NewSlotExtractor(mock),
		pipeline.NewAbsoluteResolver(mock),
		pipeline.NewTimeStandardizer(),
		pipeline.NewDifficultyAnalyzer(mock),
		pipeline.NewDecomposer(mock),
		allot.NewAllotter(bridge, "Holidays", scheduler.DefaultOptions()),
		eventcreator.NewEventCreator(bridge, st),
		bridge,
	)

	loc := time.UTC
	now := time.Date(2025, 11, 18, 0, 0, 0, 0, loc)
	q := pipeline.Query{Text: "garbage garbage", TZ: loc}

	_, trace, err := o.Run(context.Background(), q, now)
	require.Error(t, err)
	require.True(t, trace.HasError())
	require.Equal(t, StatusError, trace.Records[0].Status)
}
