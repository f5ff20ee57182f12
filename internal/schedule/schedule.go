package schedule

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned by Registry.Lookup for task names that were not
// declared at load time. Monitoring cannot evaluate a threshold for an
// unknown task, so callers must treat this as a configuration error.
var ErrNotFound = errors.New("task not found in schedule registry")

// TimeOfDay is a wall-clock time in the registry's reference timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q (want HH:MM)", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Entry declares the execution constraints for one task. Entries are
// immutable after registry construction.
// StandardLogSink and ErrorLogSink are opaque destination identifiers; the
// monitoring core never interprets them.
type Entry struct {
	Name             string
	Frequency        time.Duration
	RuntimeThreshold time.Duration
	FixedRunTimes    []TimeOfDay
	StandardLogSink  string
	ErrorLogSink     string
}

// Validate checks hard constraints on the entry. The soft constraint
// runtime_threshold < frequency is handled separately by Warnings, since a
// violation degrades alert quality but does not stop monitoring.
func (e Entry) Validate() error {
	if e.Name == "" {
		return errors.New("schedule entry requires a name")
	}
	if e.Frequency <= 0 {
		return fmt.Errorf("task %s: frequency must be > 0", e.Name)
	}
	if e.RuntimeThreshold <= 0 {
		return fmt.Errorf("task %s: runtime_threshold must be > 0", e.Name)
	}
	return nil
}

// Warnings returns non-fatal configuration findings for the entry.
func (e Entry) Warnings() []string {
	var ws []string
	if e.RuntimeThreshold >= e.Frequency {
		ws = append(ws, fmt.Sprintf("task %s: runtime_threshold %s is not below frequency %s; a run may still be in flight when the next is due",
			e.Name, e.RuntimeThreshold, e.Frequency))
	}
	return ws
}

// FixedRunTimeFor returns the latest declared fixed run time at or before
// start, resolved on start's calendar day in loc. ok is false when the entry
// declares no fixed run times or none has occurred yet that day.
func (e Entry) FixedRunTimeFor(start time.Time, loc *time.Location) (time.Time, bool) {
	if len(e.FixedRunTimes) == 0 {
		return time.Time{}, false
	}
	local := start.In(loc)
	var best time.Time
	var ok bool
	for _, tod := range e.FixedRunTimes {
		candidate := time.Date(local.Year(), local.Month(), local.Day(), tod.Hour, tod.Minute, 0, 0, loc)
		if candidate.After(local) {
			continue
		}
		if !ok || candidate.After(best) {
			best = candidate
			ok = true
		}
	}
	return best, ok
}

// Registry is the static, load-time table of schedule entries, keyed by task
// name. It is immutable after New and safe for concurrent reads.
type Registry struct {
	loc     *time.Location
	entries map[string]Entry
}

// New builds a registry from entries. Duplicate names and invalid entries
// are rejected; soft findings (threshold >= frequency) are logged as
// warnings and do not fail construction. A nil loc defaults to UTC.
func New(loc *time.Location, entries []Entry) (*Registry, error) {
	if loc == nil {
		loc = time.UTC
	}
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := m[e.Name]; dup {
			return nil, fmt.Errorf("duplicate task %s in schedule registry", e.Name)
		}
		for _, w := range e.Warnings() {
			slog.Warn("schedule configuration warning", "task", e.Name, "detail", w)
		}
		m[e.Name] = e
	}
	return &Registry{loc: loc, entries: m}, nil
}

// Location returns the reference timezone for fixed run times.
func (r *Registry) Location() *time.Location { return r.loc }

// Lookup returns the entry for name or ErrNotFound.
func (r *Registry) Lookup(name string) (Entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e, nil
}

// Names returns all registered task names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns all entries, ordered by name.
func (r *Registry) All() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, n := range r.Names() {
		out = append(out, r.entries[n])
	}
	return out
}

// Len reports the number of registered tasks.
func (r *Registry) Len() int { return len(r.entries) }
