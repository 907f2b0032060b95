package sqlite

import (
	"context"
	"testing"

	"github.com/kestrelsched/calscribe/store"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndGetTask(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateTask(ctx, &store.Task{ID: "t1", Title: "Call mom"})
	require.NoError(t, err)
	require.Equal(t, "t1", created.ID)

	got, err := db.GetTask(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Call mom", got.Title)
	require.Nil(t, got.ParentID)
}

func TestListTasksByParentID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.CreateTask(ctx, &store.Task{ID: "parent", Title: "Plan trip"})
	require.NoError(t, err)
	parentID := "parent"
	_, err = db.CreateTask(ctx, &store.Task{ID: "child1", Title: "Book flights", ParentID: &parentID})
	require.NoError(t, err)
	_, err = db.CreateTask(ctx, &store.Task{ID: "child2", Title: "Book hotel", ParentID: &parentID})
	require.NoError(t, err)

	children, err := db.ListTasks(ctx, &store.FindTask{ParentID: &parentID})
	require.NoError(t, err)
	require.Len(t, children, 2)
}

func TestEventMappingRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.CreateTask(ctx, &store.Task{ID: "t1", Title: "Call mom"})
	require.NoError(t, err)
	_, err = db.CreateEventMapping(ctx, &store.EventMapping{TaskID: "t1", BackendEventID: "evt-1", CalendarID: "home-id"})
	require.NoError(t, err)

	mapping, err := db.GetEventMapping(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, mapping)
	require.Equal(t, "evt-1", mapping.BackendEventID)
}

func TestGetEventMappingAbsentReturnsNil(t *testing.T) {
	db := newTestDB(t)
	mapping, err := db.GetEventMapping(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, mapping)
}

func TestDeleteTaskRemovesMapping(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.CreateTask(ctx, &store.Task{ID: "t1", Title: "Call mom"})
	require.NoError(t, err)
	_, err = db.CreateEventMapping(ctx, &store.EventMapping{TaskID: "t1", BackendEventID: "evt-1", CalendarID: "home-id"})
	require.NoError(t, err)

	require.NoError(t, db.DeleteTask(ctx, "t1"))

	got, err := db.GetTask(ctx, "t1")
	require.NoError(t, err)
	require.Nil(t, got)

	mapping, err := db.GetEventMapping(ctx, "t1")
	require.NoError(t, err)
	require.Nil(t, mapping)
}
