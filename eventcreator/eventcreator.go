// Package eventcreator implements EC, the side-effecting leaf that turns a
// ScheduledTask into backend calendar events and persisted rows, and
// cascades deletes back out of both (spec.md §4.8).
package eventcreator

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrelsched/calscribe/calbridge"
	"github.com/kestrelsched/calscribe/pipeline"
	"github.com/kestrelsched/calscribe/store"
	"golang.org/x/sync/errgroup"
)

// SubtaskFailure records one child event POST that failed; the sibling
// successes and the parent row remain committed (spec.md §4.8, §7
// EC_PARTIAL).
type SubtaskFailure struct {
	TaskID string
	Title  string
	Err    error
}

// Result reports what EC actually committed for one ScheduledTask.
type Result struct {
	CreatedTaskIDs []string
	Failures       []SubtaskFailure
}

// Partial reports whether any child failed to create.
func (r Result) Partial() bool { return len(r.Failures) > 0 }

// EventCreator is EC.
type EventCreator struct {
	bridge *calbridge.Client
	store  *store.Store
	// maxConcurrent bounds how many subtask POSTs run at once for a
	// single complex task.
	maxConcurrent int
}

// NewEventCreator builds an EventCreator against bridge and st.
func NewEventCreator(bridge *calbridge.Client, st *store.Store) *EventCreator {
	return &EventCreator{bridge: bridge, store: st, maxConcurrent: 4}
}

// noteFor renders the reconciliation-key note format pinned in spec.md §6.
func noteFor(taskID string, parentID *string) string {
	if parentID == nil {
		return fmt.Sprintf("id: %s, parent_id: null", taskID)
	}
	return fmt.Sprintf("id: %s, parent_id: %s", taskID, *parentID)
}

// Create commits a ScheduledTask: one backend event plus one tasks/event_map
// row pair for a simple task, or a parent row plus one event+row pair per
// child for a complex task.
func (e *EventCreator) Create(ctx context.Context, task pipeline.ScheduledTask) (Result, error) {
	if task.Type == pipeline.TaskSimple {
		return e.createSimple(ctx, task)
	}
	return e.createComplex(ctx, task)
}

func (e *EventCreator) createSimple(ctx context.Context, task pipeline.ScheduledTask) (Result, error) {
	ev, err := e.bridge.AddEvent(ctx, calbridge.AddEventRequest{
		Title:      task.Title,
		StartISO:   task.Slot.Start.Format(time.RFC3339),
		EndISO:     task.Slot.End.Format(time.RFC3339),
		Notes:      noteFor(task.ID, nil),
		CalendarID: task.CalendarID,
	})
	if err != nil {
		return Result{}, err
	}

	if _, err := e.store.CreateTask(ctx, &store.Task{ID: task.ID, Title: task.Title}); err != nil {
		return Result{}, err
	}
	if _, err := e.store.CreateEventMapping(ctx, &store.EventMapping{
		TaskID:         task.ID,
		BackendEventID: ev.ID,
		CalendarID:     task.CalendarID,
	}); err != nil {
		return Result{}, err
	}

	return Result{CreatedTaskIDs: []string{task.ID}}, nil
}

// createComplex inserts the parent row first (it carries no backend
// event), then creates each child concurrently, bounded by maxConcurrent,
// committing its tasks+event_map rows immediately after its POST succeeds
// so a later sibling failure can't roll back an earlier success (spec.md
// §9: commit per child after each successful POST).
func (e *EventCreator) createComplex(ctx context.Context, task pipeline.ScheduledTask) (Result, error) {
	if _, err := e.store.CreateTask(ctx, &store.Task{ID: task.ID, Title: task.Title}); err != nil {
		return Result{}, err
	}

	result := Result{CreatedTaskIDs: []string{task.ID}}

	type outcome struct {
		taskID string
		failed *SubtaskFailure
	}
	outcomes := make([]outcome, len(task.Children))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)

	for i, child := range task.Children {
		i, child := i, child
		g.Go(func() error {
			ev, err := e.bridge.AddEvent(gctx, calbridge.AddEventRequest{
				Title:      child.Title,
				StartISO:   child.Slot.Start.Format(time.RFC3339),
				EndISO:     child.Slot.End.Format(time.RFC3339),
				Notes:      noteFor(child.ID, &child.ParentID),
				CalendarID: task.CalendarID,
			})
			if err != nil {
				outcomes[i] = outcome{failed: &SubtaskFailure{TaskID: child.ID, Title: child.Title, Err: err}}
				return nil
			}

			parentID := child.ParentID
			if _, err := e.store.CreateTask(gctx, &store.Task{ID: child.ID, Title: child.Title, ParentID: &parentID}); err != nil {
				outcomes[i] = outcome{failed: &SubtaskFailure{TaskID: child.ID, Title: child.Title, Err: err}}
				return nil
			}
			if _, err := e.store.CreateEventMapping(gctx, &store.EventMapping{
				TaskID:         child.ID,
				BackendEventID: ev.ID,
				CalendarID:     task.CalendarID,
			}); err != nil {
				outcomes[i] = outcome{failed: &SubtaskFailure{TaskID: child.ID, Title: child.Title, Err: err}}
				return nil
			}

			outcomes[i] = outcome{taskID: child.ID}
			return nil
		})
	}
	_ = g.Wait() // subtask failures are captured per-outcome, never aborting siblings

	for _, o := range outcomes {
		if o.failed != nil {
			result.Failures = append(result.Failures, *o.failed)
		} else {
			result.CreatedTaskIDs = append(result.CreatedTaskIDs, o.taskID)
		}
	}
	return result, nil
}

// DeleteResult reports what a cascade delete actually removed.
type DeleteResult struct {
	DeletedTaskIDs []string
	BackendDeletes int
}

// DeleteByTaskID deletes a task by id. If it is a complex parent, every
// child's backend event and row are cascade-deleted first, then the
// parent row. A backend "not found" on delete is treated as success for
// the DB row (spec.md §4.8: deletion is idempotent).
func (e *EventCreator) DeleteByTaskID(ctx context.Context, taskID string) (DeleteResult, error) {
	children, err := e.store.Children(ctx, taskID)
	if err != nil {
		return DeleteResult{}, err
	}

	result := DeleteResult{}
	for _, child := range children {
		if err := e.deleteOne(ctx, child.ID); err != nil {
			return result, err
		}
		result.DeletedTaskIDs = append(result.DeletedTaskIDs, child.ID)
		result.BackendDeletes++
	}

	mapping, err := e.store.GetEventMapping(ctx, taskID)
	if err != nil {
		return result, err
	}
	if mapping != nil {
		if err := e.deleteOne(ctx, taskID); err != nil {
			return result, err
		}
		result.BackendDeletes++
	} else if err := e.store.DeleteTask(ctx, taskID); err != nil {
		return result, err
	}
	result.DeletedTaskIDs = append(result.DeletedTaskIDs, taskID)

	return result, nil
}

// DeleteByParentID deletes only the children of parentID, leaving the
// parent row in place.
func (e *EventCreator) DeleteByParentID(ctx context.Context, parentID string) (DeleteResult, error) {
	children, err := e.store.Children(ctx, parentID)
	if err != nil {
		return DeleteResult{}, err
	}

	result := DeleteResult{}
	for _, child := range children {
		if err := e.deleteOne(ctx, child.ID); err != nil {
			return result, err
		}
		result.DeletedTaskIDs = append(result.DeletedTaskIDs, child.ID)
		result.BackendDeletes++
	}
	return result, nil
}

// deleteOne deletes a single task's backend event (if mapped) and its DB
// rows. A 4xx from the backend delete (event already gone) is not
// escalated: the DB rows still get removed.
func (e *EventCreator) deleteOne(ctx context.Context, taskID string) error {
	mapping, err := e.store.GetEventMapping(ctx, taskID)
	if err != nil {
		return err
	}
	if mapping != nil {
		if _, err := e.bridge.DeleteEvent(ctx, mapping.BackendEventID); err != nil {
			if statusErr, isHTTPErr := err.(*calbridge.HTTPStatusError); !isHTTPErr || statusErr.StatusCode >= 500 {
				return err
			}
		}
	}
	return e.store.DeleteTask(ctx, taskID)
}
