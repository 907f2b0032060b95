// Package store defines the persistence contract pinned in spec.md §6: two
// tables, tasks and event_map, and the operations the rest of calscribe
// needs against them.
package store

// Task is a row of the tasks table. ParentID is nil for both simple tasks
// and complex parents; it is set only on a complex task's children.
type Task struct {
	ID       string
	Title    string
	ParentID *string
}

// EventMapping is a row of the event_map table, linking a persisted task
// to its backend calendar event. Parent rows of a complex task never have
// an EventMapping (spec.md §4.8).
type EventMapping struct {
	TaskID         string
	BackendEventID string
	CalendarID     string
}

// TaskWithMapping is a Task joined with its EventMapping, if any.
type TaskWithMapping struct {
	Task
	Mapping *EventMapping
}

// FindTask filters ListTasks.
type FindTask struct {
	ID       *string
	ParentID *string // matches rows whose ParentID equals this value
}
