package cronbeat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMonitorFacadeLifecycle(t *testing.T) {
	reg, err := NewRegistry(time.UTC, []Entry{
		{Name: "backup", Frequency: 24 * time.Hour, RuntimeThreshold: time.Hour},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	now := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m, err := New(Options{Registry: reg, Store: NewMemoryStore(), Now: clock})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	if err := m.SignalStart(ctx, "backup", "nightly backup"); err != nil {
		t.Fatalf("start: %v", err)
	}
	now = now.Add(30 * time.Minute)
	res, err := m.SignalCompletion(ctx, "backup")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if res.Breached || res.Elapsed != 30*time.Minute {
		t.Fatalf("result: %+v", res)
	}

	st, err := m.Status(ctx, "backup")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.InFlight || st.Breached {
		t.Fatalf("status: %+v", st)
	}
	all, err := m.StatusAll(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("status all: %v %v", all, err)
	}
	m.Wait()
}

func TestMonitorFacadeErrors(t *testing.T) {
	reg, err := NewRegistry(time.UTC, []Entry{
		{Name: "a", Frequency: time.Hour, RuntimeThreshold: time.Minute},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	m, err := New(Options{Registry: reg, Store: NewMemoryStore()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	if err := m.SignalStart(ctx, "ghost", ""); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if _, err := m.SignalCompletion(ctx, "a"); !errors.Is(err, ErrRecordMissing) {
		t.Fatalf("expected ErrRecordMissing, got %v", err)
	}
}

func TestTryBeginFacade(t *testing.T) {
	reg, err := NewRegistry(time.UTC, []Entry{
		{Name: "sync", Frequency: time.Hour, RuntimeThreshold: 5 * time.Minute},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	m, err := New(Options{Registry: reg, Store: NewMemoryStore(), Locker: NewMemoryLocker()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	ls, err := m.TryBegin(ctx, "sync", "")
	if err != nil {
		t.Fatalf("try begin: %v", err)
	}
	if _, err := m.TryBegin(ctx, "sync", ""); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if _, err := m.SignalCompletion(ctx, "sync"); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if err := ls.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := m.TryBegin(ctx, "sync", ""); err != nil {
		t.Fatalf("try begin after release: %v", err)
	}
}

func TestLoadConfigFacade(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cronbeat.toml")
	body := `
[[tasks]]
name = "backup"
frequency = "24h"
runtime_threshold = "1h"
fixed_run_times = ["03:00"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	reg, err := c.Registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if _, err := reg.Lookup("backup"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
}
