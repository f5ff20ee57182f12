package heartbeat

import (
	"context"
	"errors"
	"time"
)

// Record is the latest known lifecycle state for one task. The store keeps
// only the most recent generation: every PutStart replaces StartTime and
// clears EndTime. EndTime is nil while a run is in flight.
// UpdatedAt should be in UTC.

type Record struct {
	TaskID      string     `json:"task_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Description string     `json:"description,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// InFlight reports whether the record's current generation has started but
// not completed.
func (r Record) InFlight() bool {
	return !r.StartTime.IsZero() && r.EndTime == nil
}

// Elapsed returns the completed run's duration. It is only meaningful when
// EndTime is set.
func (r Record) Elapsed() time.Duration {
	if r.EndTime == nil {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

var (
	// ErrNotFound is returned by Get when no record exists for the task.
	ErrNotFound = errors.New("heartbeat record not found")
	// ErrRecordMissing is returned by MergeCompletion when there is no open
	// generation to complete: either no PutStart ever happened, the stored
	// start time is missing, or the generation already completed. It signals
	// a protocol violation by the driver or data loss in the store.
	ErrRecordMissing = errors.New("no started heartbeat record to complete")
)

// Store persists the last heartbeat record per task. Implementations must
// make each single-key read-modify-write atomic: MergeCompletion for a task
// never observes a partially written record for that same task. No cross-key
// guarantee is required.

type Store interface {
	EnsureSchema(ctx context.Context) error
	// PutStart unconditionally overwrites the record for taskID with a new
	// generation, clearing any previous end time.
	PutStart(ctx context.Context, taskID string, start time.Time, description string) error
	// MergeCompletion sets end on the current open generation and returns
	// the merged record. Fails with ErrRecordMissing when there is no open
	// generation.
	MergeCompletion(ctx context.Context, taskID string, end time.Time) (Record, error)
	Get(ctx context.Context, taskID string) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Close() error
}
