package lease

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a Locker backed by a SQLite table, letting independent driver
// processes on one host share mutual exclusion through a common file.
type SQLite struct {
	db    *sql.DB
	owner string
	now   func() time.Time
}

func NewSQLite(path string) (*SQLite, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	s := &SQLite{db: d, owner: DefaultOwner(), now: time.Now}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = d.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS task_lease(
			task_id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			expires_at TIMESTAMP NOT NULL
		);`)
	return err
}

func (s *SQLite) Acquire(ctx context.Context, taskID string, ttl time.Duration) (*Lease, error) {
	if taskID == "" {
		return nil, fmt.Errorf("acquire lease: empty task id")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("acquire lease: ttl must be > 0")
	}
	now := s.now().UTC()
	exp := now.Add(ttl)
	// The conditional upsert claims the row only when no live lease exists;
	// zero rows affected means another owner still holds it.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO task_lease(task_id, owner, expires_at)
		VALUES(?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			owner=excluded.owner,
			expires_at=excluded.expires_at
		WHERE task_lease.expires_at <= ?;`,
		taskID, s.owner, exp, now)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, taskID)
	}
	return &Lease{TaskID: taskID, Owner: s.owner, ExpiresAt: exp, locker: s}, nil
}

func (s *SQLite) release(ctx context.Context, taskID, owner string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM task_lease WHERE task_id=? AND owner=?;`, taskID, owner)
	return err
}

func (s *SQLite) Close() error { return s.db.Close() }
