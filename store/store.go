package store

import (
	"context"
)

// Store provides persistence access to tasks and their backend event
// mappings. It delegates every operation to a Driver, mirroring the
// teacher's thin-wrapper-over-driver shape, minus the caching layer that
// has no analogue for calscribe's append-mostly, personal-scale workload.
type Store struct {
	driver Driver
}

// New wraps driver in a Store.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

// GetDriver exposes the underlying Driver, mainly for tests that need raw
// SQL access.
func (s *Store) GetDriver() Driver {
	return s.driver
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateTask(ctx context.Context, create *Task) (*Task, error) {
	return s.driver.CreateTask(ctx, create)
}

func (s *Store) ListTasks(ctx context.Context, find *FindTask) ([]*Task, error) {
	return s.driver.ListTasks(ctx, find)
}

func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	return s.driver.GetTask(ctx, id)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.driver.DeleteTask(ctx, id)
}

func (s *Store) CreateEventMapping(ctx context.Context, create *EventMapping) (*EventMapping, error) {
	return s.driver.CreateEventMapping(ctx, create)
}

func (s *Store) GetEventMapping(ctx context.Context, taskID string) (*EventMapping, error) {
	return s.driver.GetEventMapping(ctx, taskID)
}

func (s *Store) DeleteEventMapping(ctx context.Context, taskID string) error {
	return s.driver.DeleteEventMapping(ctx, taskID)
}

// Children returns every task whose ParentID equals parentID, in
// insertion order.
func (s *Store) Children(ctx context.Context, parentID string) ([]*Task, error) {
	return s.driver.ListTasks(ctx, &FindTask{ParentID: &parentID})
}
