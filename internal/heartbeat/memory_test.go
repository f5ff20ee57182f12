package heartbeat

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := m.PutStart(ctx, "a", start, "nightly rollup"); err != nil {
		t.Fatalf("put start: %v", err)
	}
	rec, err := m.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !rec.InFlight() {
		t.Fatalf("expected in-flight record: %+v", rec)
	}
	if rec.Description != "nightly rollup" {
		t.Fatalf("description lost: %+v", rec)
	}

	end := start.Add(9 * time.Minute)
	merged, err := m.MergeCompletion(ctx, "a", end)
	if err != nil {
		t.Fatalf("merge completion: %v", err)
	}
	if merged.EndTime == nil || !merged.EndTime.Equal(end) {
		t.Fatalf("unexpected end time: %+v", merged)
	}
	if merged.Elapsed() != 9*time.Minute {
		t.Fatalf("unexpected elapsed: %s", merged.Elapsed())
	}

	// Round-trip: Get must reflect the merge.
	got, err := m.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get after merge: %v", err)
	}
	if !got.StartTime.Equal(start) || got.EndTime == nil || !got.EndTime.Equal(end) {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestMemoryCompletionWithoutStart(t *testing.T) {
	m := NewMemory()
	if _, err := m.MergeCompletion(context.Background(), "ghost", time.Now()); !errors.Is(err, ErrRecordMissing) {
		t.Fatalf("expected ErrRecordMissing, got %v", err)
	}
}

func TestMemorySecondCompletionRejected(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	start := time.Now().UTC()
	if err := m.PutStart(ctx, "a", start, ""); err != nil {
		t.Fatalf("put start: %v", err)
	}
	if _, err := m.MergeCompletion(ctx, "a", start.Add(time.Minute)); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	// A completed generation cannot complete again.
	if _, err := m.MergeCompletion(ctx, "a", start.Add(2*time.Minute)); !errors.Is(err, ErrRecordMissing) {
		t.Fatalf("expected ErrRecordMissing on second completion, got %v", err)
	}
}

func TestMemoryNewStartResetsGeneration(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := m.PutStart(ctx, "a", t0, "gen1"); err != nil {
		t.Fatalf("put start 1: %v", err)
	}
	if _, err := m.MergeCompletion(ctx, "a", t0.Add(time.Minute)); err != nil {
		t.Fatalf("merge 1: %v", err)
	}
	t1 := t0.Add(time.Hour)
	if err := m.PutStart(ctx, "a", t1, "gen2"); err != nil {
		t.Fatalf("put start 2: %v", err)
	}
	rec, err := m.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !rec.StartTime.Equal(t1) || rec.EndTime != nil || rec.Description != "gen2" {
		t.Fatalf("new generation not established: %+v", rec)
	}
}

func TestMemoryGetMissingAndList(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, err := m.Get(ctx, "none"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	now := time.Now().UTC()
	for _, id := range []string{"b", "a", "c"} {
		if err := m.PutStart(ctx, id, now, ""); err != nil {
			t.Fatalf("put start %s: %v", id, err)
		}
	}
	recs, err := m.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 3 || recs[0].TaskID != "a" || recs[2].TaskID != "c" {
		t.Fatalf("unexpected list: %+v", recs)
	}
}
