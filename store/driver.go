package store

import (
	"context"
	"database/sql"
)

// Driver is the interface a concrete database backend implements. Today
// only a SQLite driver exists (store/db/sqlite), matching the single
// embedded-store requirement of spec.md §6, but keeping calscribe's
// business logic against an interface keeps that swap painless.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// CreateTask inserts a tasks row. create.ID is caller-assigned (a
	// pipeline-minted UUID), not database-generated.
	CreateTask(ctx context.Context, create *Task) (*Task, error)
	// ListTasks returns tasks matching find, in insertion order.
	ListTasks(ctx context.Context, find *FindTask) ([]*Task, error)
	// GetTask returns a single task by id, or nil if absent.
	GetTask(ctx context.Context, id string) (*Task, error)
	// DeleteTask removes a single tasks row (and its event_map row, if
	// any) by id. Does not cascade; callers cascade explicitly.
	DeleteTask(ctx context.Context, id string) error

	// CreateEventMapping inserts an event_map row.
	CreateEventMapping(ctx context.Context, create *EventMapping) (*EventMapping, error)
	// GetEventMapping returns the mapping for taskID, or nil if absent.
	GetEventMapping(ctx context.Context, taskID string) (*EventMapping, error)
	// DeleteEventMapping removes the event_map row for taskID, if any.
	DeleteEventMapping(ctx context.Context, taskID string) error
}
