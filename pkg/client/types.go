package client

import "time"

// StartRequest represents a start signal for one task run.
type StartRequest struct {
	TaskID      string `json:"task_id"`
	Description string `json:"description,omitempty"`
}

// CompleteRequest represents a completion signal for the open run of a task.
type CompleteRequest struct {
	TaskID string `json:"task_id"`
}

// CompletionResult is the threshold verdict returned by the daemon on
// completion.
type CompletionResult struct {
	TaskID    string        `json:"task_id"`
	Elapsed   time.Duration `json:"elapsed"`
	Threshold time.Duration `json:"threshold"`
	Breached  bool          `json:"breached"`
}

// TaskStatus represents the monitoring view of a single task.
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

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
