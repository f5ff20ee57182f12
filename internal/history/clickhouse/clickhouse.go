package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/cronbeat/cronbeat/internal/history"
)

// executor is the slice of driver.Conn the sink needs.
type executor interface {
	Exec(ctx context.Context, query string, args ...any) error
	Close() error
}

var _ executor = (driver.Conn)(nil)

// Sink sends run events to ClickHouse using the official ClickHouse Go client.
type Sink struct {
	conn  executor
	table string
}

func New(addr, table string) (*Sink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: "default",
			Password: "",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Sink{
		conn:  conn,
		table: table,
	}, nil
}

func (s *Sink) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Sink) Send(ctx context.Context, e history.Event) error {
	query := fmt.Sprintf(`INSERT INTO %s (type, occurred_at, task_id, start_time, end_time, elapsed_seconds, breached, description) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s.table)

	var end time.Time
	if e.EndTime != nil {
		end = e.EndTime.UTC()
	}
	err := s.conn.Exec(ctx, query,
		string(e.Type),
		e.OccurredAt.UTC(),
		e.TaskID,
		e.StartTime.UTC(),
		end,
		e.ElapsedSeconds,
		e.Breached,
		e.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event into ClickHouse: %w", err)
	}

	return nil
}
