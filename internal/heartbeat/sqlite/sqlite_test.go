package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cronbeat/cronbeat/internal/heartbeat"
)

func TestSQLiteLifecycle(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	start := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	if err := db.PutStart(ctx, "billing", start, "monthly billing"); err != nil {
		t.Fatalf("put start: %v", err)
	}
	rec, err := db.Get(ctx, "billing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !rec.InFlight() || rec.Description != "monthly billing" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	end := start.Add(11 * time.Minute)
	merged, err := db.MergeCompletion(ctx, "billing", end)
	if err != nil {
		t.Fatalf("merge completion: %v", err)
	}
	if merged.EndTime == nil || !merged.EndTime.Equal(end) {
		t.Fatalf("unexpected merged record: %+v", merged)
	}
	if merged.Elapsed() != 11*time.Minute {
		t.Fatalf("unexpected elapsed: %s", merged.Elapsed())
	}

	// Completed generation cannot complete again.
	if _, err := db.MergeCompletion(ctx, "billing", end.Add(time.Minute)); !errors.Is(err, heartbeat.ErrRecordMissing) {
		t.Fatalf("expected ErrRecordMissing on second completion, got %v", err)
	}

	// A fresh start opens a new generation with a cleared end time.
	start2 := start.Add(time.Hour)
	if err := db.PutStart(ctx, "billing", start2, "monthly billing"); err != nil {
		t.Fatalf("put start 2: %v", err)
	}
	rec2, err := db.Get(ctx, "billing")
	if err != nil {
		t.Fatalf("get 2: %v", err)
	}
	if !rec2.StartTime.Equal(start2) || rec2.EndTime != nil {
		t.Fatalf("generation not reset: %+v", rec2)
	}
}

func TestSQLiteCompletionWithoutStart(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if _, err := db.MergeCompletion(ctx, "ghost", time.Now()); !errors.Is(err, heartbeat.ErrRecordMissing) {
		t.Fatalf("expected ErrRecordMissing, got %v", err)
	}
	if _, err := db.Get(ctx, "ghost"); !errors.Is(err, heartbeat.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteList(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	for _, id := range []string{"b", "a"} {
		if err := db.PutStart(ctx, id, now, ""); err != nil {
			t.Fatalf("put start %s: %v", id, err)
		}
	}
	recs, err := db.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 || recs[0].TaskID != "a" || recs[1].TaskID != "b" {
		t.Fatalf("unexpected list: %+v", recs)
	}
}
