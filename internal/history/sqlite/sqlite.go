package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/cronbeat/cronbeat/internal/history"
)

// Sink appends run events to a SQLite table.
type Sink struct {
	db *sql.DB
}

// New opens (or creates) a SQLite run log at path.
func New(path string) (*Sink, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	s := &Sink{db: d}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = d.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS run_history(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			occurred_at TIMESTAMP NOT NULL,
			task_id TEXT NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP NULL,
			elapsed_seconds REAL NOT NULL,
			breached BOOLEAN NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_run_history_task ON run_history(task_id, occurred_at);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sink) Send(ctx context.Context, e history.Event) error {
	var end any
	if e.EndTime != nil {
		end = e.EndTime.UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_history(type, occurred_at, task_id, start_time, end_time, elapsed_seconds, breached, description)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?);`,
		string(e.Type), e.OccurredAt.UTC(), e.TaskID, e.StartTime.UTC(), end, e.ElapsedSeconds, e.Breached, e.Description)
	return err
}

func (s *Sink) Close() error { return s.db.Close() }
