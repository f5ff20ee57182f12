package lease

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	owner     string
	expiresAt time.Time
}

// Memory is an in-process Locker. Suitable when all driver invocations for
// a task share one process.
type Memory struct {
	mu    sync.Mutex
	owner string
	held  map[string]memoryEntry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		owner: DefaultOwner(),
		held:  make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (m *Memory) Acquire(_ context.Context, taskID string, ttl time.Duration) (*Lease, error) {
	if taskID == "" {
		return nil, fmt.Errorf("acquire lease: empty task id")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("acquire lease: ttl must be > 0")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if cur, ok := m.held[taskID]; ok && cur.expiresAt.After(now) {
		return nil, fmt.Errorf("%w: %s (owner %s until %s)", ErrAlreadyRunning, taskID, cur.owner, cur.expiresAt.Format(time.RFC3339))
	}
	exp := now.Add(ttl)
	m.held[taskID] = memoryEntry{owner: m.owner, expiresAt: exp}
	return &Lease{TaskID: taskID, Owner: m.owner, ExpiresAt: exp, locker: m}, nil
}

func (m *Memory) release(_ context.Context, taskID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.held[taskID]; ok && cur.owner == owner {
		delete(m.held, taskID)
	}
	return nil
}

func (m *Memory) Close() error { return nil }
