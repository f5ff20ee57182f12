package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/cronbeat/cronbeat/internal/history"
)

func TestSQLiteSinkAppend(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("open sink: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	start := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	end := start.Add(11 * time.Minute)
	events := []history.Event{
		{Type: history.EventStart, OccurredAt: start, TaskID: "billing", StartTime: start, Description: "monthly billing"},
		{Type: history.EventCompletion, OccurredAt: end, TaskID: "billing", StartTime: start, EndTime: &end, ElapsedSeconds: 660, Breached: true},
	}
	for _, e := range events {
		if err := s.Send(ctx, e); err != nil {
			t.Fatalf("send %s: %v", e.Type, err)
		}
	}

	// The log is append-only: both events must be present, in order.
	rows, err := s.db.QueryContext(ctx, `SELECT type, task_id, breached FROM run_history ORDER BY id;`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer func() { _ = rows.Close() }()
	var got []string
	for rows.Next() {
		var typ, task string
		var breached bool
		if err := rows.Scan(&typ, &task, &breached); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, typ)
		if task != "billing" {
			t.Fatalf("unexpected task: %s", task)
		}
		if typ == "completion" && !breached {
			t.Fatalf("breach flag lost")
		}
	}
	if len(got) != 2 || got[0] != "start" || got[1] != "completion" {
		t.Fatalf("unexpected event sequence: %v", got)
	}
}
