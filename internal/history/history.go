package history

import (
	"context"
	"time"
)

// EventType defines the kind of run lifecycle event.
type EventType string

const (
	EventStart      EventType = "start"
	EventCompletion EventType = "completion"
)

// Event is one appended entry of the run log. The heartbeat store keeps only
// the latest generation per task; sinks receiving these events are the
// external retention the core deliberately does not provide.
type Event struct {
	Type           EventType  `json:"type"`
	OccurredAt     time.Time  `json:"occurred_at"`
	TaskID         string     `json:"task_id"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	ElapsedSeconds float64    `json:"elapsed_seconds,omitempty"`
	Breached       bool       `json:"breached"`
	Description    string     `json:"description,omitempty"`
}

// Sink is a destination for run events (analytics/statistics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
