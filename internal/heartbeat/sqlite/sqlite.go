package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cronbeat/cronbeat/internal/heartbeat"
)

// DB implements heartbeat.Store for SQLite (modernc.org/sqlite driver,
// CGO-free). Path is a filesystem path; use ":memory:" for in-memory.

type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS task_heartbeat(
			task_id TEXT PRIMARY KEY,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP NULL,
			description TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_task_heartbeat_end_time ON task_heartbeat(end_time);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) PutStart(ctx context.Context, taskID string, start time.Time, description string) error {
	if taskID == "" {
		return fmt.Errorf("put start: empty task id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_heartbeat(task_id, start_time, end_time, description, updated_at)
		VALUES(?, ?, NULL, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			start_time=excluded.start_time,
			end_time=NULL,
			description=excluded.description,
			updated_at=excluded.updated_at;`,
		taskID, start.UTC(), description, time.Now().UTC())
	return err
}

func (s *DB) MergeCompletion(ctx context.Context, taskID string, end time.Time) (heartbeat.Record, error) {
	// The WHERE clause makes the merge atomic for the key: only an open
	// generation (end_time IS NULL) can be completed.
	res, err := s.db.ExecContext(ctx, `
		UPDATE task_heartbeat
		SET end_time=?, updated_at=?
		WHERE task_id=? AND end_time IS NULL;`,
		end.UTC(), time.Now().UTC(), taskID)
	if err != nil {
		return heartbeat.Record{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return heartbeat.Record{}, err
	}
	if n == 0 {
		return heartbeat.Record{}, fmt.Errorf("%w: %s", heartbeat.ErrRecordMissing, taskID)
	}
	return s.Get(ctx, taskID)
}

func (s *DB) Get(ctx context.Context, taskID string) (heartbeat.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT task_id, start_time, end_time, description, updated_at
		FROM task_heartbeat WHERE task_id=?;`, taskID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return heartbeat.Record{}, fmt.Errorf("%w: %s", heartbeat.ErrNotFound, taskID)
	}
	return rec, err
}

func (s *DB) List(ctx context.Context) ([]heartbeat.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, start_time, end_time, description, updated_at
		FROM task_heartbeat ORDER BY task_id;`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make([]heartbeat.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (heartbeat.Record, error) {
	var rec heartbeat.Record
	var end sql.NullTime
	if err := s.Scan(&rec.TaskID, &rec.StartTime, &end, &rec.Description, &rec.UpdatedAt); err != nil {
		return heartbeat.Record{}, err
	}
	if end.Valid {
		t := end.Time
		rec.EndTime = &t
	}
	return rec, nil
}
