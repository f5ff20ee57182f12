package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("03:15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tod.Hour != 3 || tod.Minute != 15 {
		t.Fatalf("unexpected time of day: %+v", tod)
	}
	for _, bad := range []string{"", "3", "25:00", "12:60", "aa:bb"} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	reg, err := New(time.UTC, []Entry{
		{Name: "a", Frequency: time.Hour, RuntimeThreshold: 10 * time.Minute},
		{Name: "b", Frequency: 30 * time.Minute, RuntimeThreshold: 5 * time.Minute},
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	e, err := reg.Lookup("a")
	if err != nil {
		t.Fatalf("lookup a: %v", err)
	}
	if e.RuntimeThreshold != 10*time.Minute {
		t.Fatalf("unexpected threshold: %s", e.RuntimeThreshold)
	}
	if _, err := reg.Lookup("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestRegistryRejectsDuplicatesAndInvalid(t *testing.T) {
	if _, err := New(time.UTC, []Entry{
		{Name: "a", Frequency: time.Hour, RuntimeThreshold: time.Minute},
		{Name: "a", Frequency: time.Hour, RuntimeThreshold: time.Minute},
	}); err == nil {
		t.Fatalf("expected error for duplicate name")
	}
	if _, err := New(time.UTC, []Entry{{Name: "", Frequency: time.Hour, RuntimeThreshold: time.Minute}}); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := New(time.UTC, []Entry{{Name: "x", Frequency: 0, RuntimeThreshold: time.Minute}}); err == nil {
		t.Fatalf("expected error for zero frequency")
	}
	if _, err := New(time.UTC, []Entry{{Name: "x", Frequency: time.Hour, RuntimeThreshold: 0}}); err == nil {
		t.Fatalf("expected error for zero threshold")
	}
}

func TestThresholdAboveFrequencyIsWarningNotError(t *testing.T) {
	e := Entry{Name: "slow", Frequency: time.Minute, RuntimeThreshold: time.Hour}
	if err := e.Validate(); err != nil {
		t.Fatalf("validate should pass: %v", err)
	}
	if ws := e.Warnings(); len(ws) != 1 {
		t.Fatalf("expected one warning, got %v", ws)
	}
	// Registry construction must still succeed.
	if _, err := New(time.UTC, []Entry{e}); err != nil {
		t.Fatalf("new registry: %v", err)
	}
}

func TestFixedRunTimeFor(t *testing.T) {
	e := Entry{
		Name:             "report",
		Frequency:        12 * time.Hour,
		RuntimeThreshold: time.Hour,
		FixedRunTimes:    []TimeOfDay{{Hour: 3, Minute: 0}, {Hour: 15, Minute: 0}},
	}
	start := time.Date(2025, 6, 1, 15, 4, 0, 0, time.UTC)
	got, ok := e.FixedRunTimeFor(start, time.UTC)
	if !ok {
		t.Fatalf("expected a fixed run time")
	}
	if got.Hour() != 15 || got.Minute() != 0 {
		t.Fatalf("expected 15:00, got %s", got)
	}

	// Before the first fixed time of the day there is no applicable slot.
	early := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	if _, ok := e.FixedRunTimeFor(early, time.UTC); ok {
		t.Fatalf("expected no fixed run time before 03:00")
	}

	// No fixed run times declared.
	plain := Entry{Name: "p", Frequency: time.Hour, RuntimeThreshold: time.Minute}
	if _, ok := plain.FixedRunTimeFor(start, time.UTC); ok {
		t.Fatalf("expected no fixed run time for interval-only task")
	}
}
