// Package sqlite is the store.Driver implementation backing calscribe's
// persistence contract: two tables, tasks and event_map (spec.md §6). A
// single-writer discipline (one open connection) is enough at
// personal-calendar scale and keeps the cross-HTTP-call commit pattern of
// eventcreator simple (spec.md §5, §9).
package sqlite

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// DB wraps a *sql.DB opened against the SQLite file at path.
type DB struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	parent_id TEXT NULL REFERENCES tasks(id)
);
CREATE TABLE IF NOT EXISTS event_map (
	task_id TEXT PRIMARY KEY REFERENCES tasks(id),
	backend_event_id TEXT NOT NULL,
	calendar_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_parent_id ON tasks(parent_id);
`

// NewDB opens (creating if absent) a SQLite database at path and applies
// the schema. Only one writer connection is kept open at a time.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "apply schema")
	}

	return &DB{db: sqlDB}, nil
}

// GetDB implements store.Driver.
func (d *DB) GetDB() *sql.DB { return d.db }

// Close implements store.Driver.
func (d *DB) Close() error { return d.db.Close() }

// placeholder returns a placeholder for SQLite (uses ?).
func placeholder(int) string { return "?" }

// placeholders returns n comma-joined placeholders.
func placeholders(n int) string {
	list := make([]string, n)
	for i := range list {
		list[i] = "?"
	}
	return strings.Join(list, ", ")
}
