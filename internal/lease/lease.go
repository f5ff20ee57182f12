package lease

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrAlreadyRunning is returned by Acquire when another live lease holds the
// task.
var ErrAlreadyRunning = errors.New("task lease already held")

// Lease is a time-bounded exclusive claim on one task. Holding a live lease
// means no other driver instance may run the task until the lease is
// released or its TTL expires.
type Lease struct {
	TaskID    string
	Owner     string
	ExpiresAt time.Time

	locker Locker
}

// Release gives up the lease. Releasing an expired or already-released
// lease is a no-op.
func (l *Lease) Release(ctx context.Context) error {
	if l == nil || l.locker == nil {
		return nil
	}
	return l.locker.release(ctx, l.TaskID, l.Owner)
}

// Locker hands out per-task leases. Expired leases are reclaimable by any
// caller.
type Locker interface {
	// Acquire claims taskID for ttl. Fails with ErrAlreadyRunning when a
	// live lease exists for the task.
	Acquire(ctx context.Context, taskID string, ttl time.Duration) (*Lease, error)
	release(ctx context.Context, taskID, owner string) error
	Close() error
}

// DefaultOwner identifies this process for lease ownership.
func DefaultOwner() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
