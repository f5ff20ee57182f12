package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cronbeat/cronbeat/internal/heartbeat"
	"github.com/cronbeat/cronbeat/internal/schedule"
)

// TaskStatus joins a schedule entry with the task's latest heartbeat record.
// Breached is true for a completed run whose elapsed time exceeded the
// threshold, and also for an in-flight run that has already been going
// longer than the threshold: a task that started and went silent is the
// same overrun failure class, just not yet completed.
type TaskStatus struct {
	TaskID      string        `json:"task_id"`
	Description string        `json:"description,omitempty"`
	StartTime   *time.Time    `json:"start_time,omitempty"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
	InFlight    bool          `json:"in_flight"`
	Threshold   time.Duration `json:"threshold"`
	Frequency   time.Duration `json:"frequency"`
	Breached    bool          `json:"breached"`
}

// Reader is the read-only query surface backing dashboards and the status
// API. It performs no writes and caches nothing.
type Reader struct {
	registry *schedule.Registry
	store    heartbeat.Store
	now      func() time.Time
}

func NewReader(registry *schedule.Registry, store heartbeat.Store, now func() time.Time) *Reader {
	if now == nil {
		now = time.Now
	}
	return &Reader{registry: registry, store: store, now: now}
}

// Get returns the status for one task. Unknown tasks yield
// schedule.ErrNotFound.
func (r *Reader) Get(ctx context.Context, taskID string) (TaskStatus, error) {
	entry, err := r.registry.Lookup(taskID)
	if err != nil {
		return TaskStatus{}, err
	}
	rec, err := r.store.Get(ctx, taskID)
	if err != nil && !errors.Is(err, heartbeat.ErrNotFound) {
		return TaskStatus{}, fmt.Errorf("read heartbeat for %s: %w", taskID, err)
	}
	return r.join(entry, rec), nil
}

// List returns one status per registered task, ordered by task name. Tasks
// that never signalled a start appear with zero run state; the status
// surface reflects configuration, not just observed traffic.
func (r *Reader) List(ctx context.Context) ([]TaskStatus, error) {
	recs, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list heartbeats: %w", err)
	}
	byID := make(map[string]heartbeat.Record, len(recs))
	for _, rec := range recs {
		byID[rec.TaskID] = rec
	}
	out := make([]TaskStatus, 0, r.registry.Len())
	for _, entry := range r.registry.All() {
		out = append(out, r.join(entry, byID[entry.Name]))
	}
	return out, nil
}

func (r *Reader) join(entry schedule.Entry, rec heartbeat.Record) TaskStatus {
	st := TaskStatus{
		TaskID:      entry.Name,
		Description: rec.Description,
		Threshold:   entry.RuntimeThreshold,
		Frequency:   entry.Frequency,
	}
	if rec.StartTime.IsZero() {
		return st
	}
	start := rec.StartTime
	st.StartTime = &start
	switch {
	case rec.EndTime != nil:
		st.EndTime = rec.EndTime
		st.Elapsed = rec.Elapsed()
		st.Breached = st.Elapsed > entry.RuntimeThreshold
	default:
		st.InFlight = true
		st.Elapsed = r.now().Sub(rec.StartTime)
		st.Breached = st.Elapsed > entry.RuntimeThreshold
	}
	return st
}
