package heartbeat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Store keeping records in a map. The single mutex
// makes every read-modify-write atomic across all keys, which is stronger
// than the per-key contract requires.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]Record
}

func NewMemory() *Memory {
	return &Memory{recs: make(map[string]Record)}
}

func (m *Memory) EnsureSchema(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) PutStart(_ context.Context, taskID string, start time.Time, description string) error {
	if taskID == "" {
		return fmt.Errorf("put start: empty task id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[taskID] = Record{
		TaskID:      taskID,
		StartTime:   start,
		EndTime:     nil,
		Description: description,
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}

func (m *Memory) MergeCompletion(_ context.Context, taskID string, end time.Time) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[taskID]
	if !ok || rec.StartTime.IsZero() || rec.EndTime != nil {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordMissing, taskID)
	}
	e := end
	rec.EndTime = &e
	rec.UpdatedAt = time.Now().UTC()
	m.recs[taskID] = rec
	return rec, nil
}

func (m *Memory) Get(_ context.Context, taskID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[taskID]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}
	return rec, nil
}

func (m *Memory) List(context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.recs))
	for _, rec := range m.recs {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out, nil
}
