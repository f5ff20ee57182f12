package clickhouse

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cronbeat/cronbeat/internal/history"
)

type fakeExecutor struct {
	query string
	args  []any
	err   error
}

func (f *fakeExecutor) Exec(_ context.Context, query string, args ...any) error {
	f.query = query
	f.args = args
	return f.err
}

func (f *fakeExecutor) Close() error { return nil }

func TestSinkSend(t *testing.T) {
	fe := &fakeExecutor{}
	s := &Sink{conn: fe, table: "run_history"}

	start := time.Date(2025, 4, 1, 2, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	e := history.Event{
		Type:           history.EventCompletion,
		OccurredAt:     end,
		TaskID:         "daily-report",
		StartTime:      start,
		EndTime:        &end,
		ElapsedSeconds: 90,
		Breached:       true,
		Description:    "nightly",
	}
	if err := s.Send(context.Background(), e); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(fe.query, "INSERT INTO run_history") {
		t.Fatalf("unexpected query: %s", fe.query)
	}
	if len(fe.args) != 8 {
		t.Fatalf("expected 8 args, got %d", len(fe.args))
	}
	if fe.args[2] != "daily-report" {
		t.Fatalf("task arg: %v", fe.args[2])
	}
	if fe.args[6] != true {
		t.Fatalf("breached arg: %v", fe.args[6])
	}
}

func TestSinkSendOpenEndTime(t *testing.T) {
	fe := &fakeExecutor{}
	s := &Sink{conn: fe, table: "run_history"}

	e := history.Event{
		Type:       history.EventStart,
		OccurredAt: time.Now().UTC(),
		TaskID:     "sweeper",
		StartTime:  time.Now().UTC(),
	}
	if err := s.Send(context.Background(), e); err != nil {
		t.Fatalf("send: %v", err)
	}
	// A start event has no end time yet; the sink writes the zero value.
	if ts, ok := fe.args[4].(time.Time); !ok || !ts.IsZero() {
		t.Fatalf("end time arg: %v", fe.args[4])
	}
}
