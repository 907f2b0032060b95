package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kestrelsched/calscribe/store"
)

func (d *DB) CreateTask(ctx context.Context, create *store.Task) (*store.Task, error) {
	stmt := `INSERT INTO tasks (id, title, parent_id) VALUES (` + placeholders(3) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, create.ID, create.Title, create.ParentID); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return create, nil
}

func (d *DB) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find != nil {
		if v := find.ID; v != nil {
			where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
		}
		if v := find.ParentID; v != nil {
			where, args = append(where, "parent_id = "+placeholder(len(args)+1)), append(args, *v)
		}
	}

	query := `SELECT id, title, parent_id FROM tasks WHERE ` + strings.Join(where, " AND ") + ` ORDER BY rowid ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*store.Task
	for rows.Next() {
		t := &store.Task{}
		var parentID sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &parentID); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if parentID.Valid {
			t.ParentID = &parentID.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (d *DB) GetTask(ctx context.Context, id string) (*store.Task, error) {
	tasks, err := d.ListTasks(ctx, &store.FindTask{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return tasks[0], nil
}

func (d *DB) DeleteTask(ctx context.Context, id string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM event_map WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("delete event_map for task: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (d *DB) CreateEventMapping(ctx context.Context, create *store.EventMapping) (*store.EventMapping, error) {
	stmt := `INSERT INTO event_map (task_id, backend_event_id, calendar_id) VALUES (` + placeholders(3) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, create.TaskID, create.BackendEventID, create.CalendarID); err != nil {
		return nil, fmt.Errorf("create event mapping: %w", err)
	}
	return create, nil
}

func (d *DB) GetEventMapping(ctx context.Context, taskID string) (*store.EventMapping, error) {
	row := d.db.QueryRowContext(ctx, `SELECT task_id, backend_event_id, calendar_id FROM event_map WHERE task_id = ?`, taskID)

	m := &store.EventMapping{}
	if err := row.Scan(&m.TaskID, &m.BackendEventID, &m.CalendarID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event mapping: %w", err)
	}
	return m, nil
}

func (d *DB) DeleteEventMapping(ctx context.Context, taskID string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM event_map WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("delete event mapping: %w", err)
	}
	return nil
}
