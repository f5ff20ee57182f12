package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cronbeat/cronbeat/internal/heartbeat"
	"github.com/cronbeat/cronbeat/internal/history"
	"github.com/cronbeat/cronbeat/internal/lease"
	"github.com/cronbeat/cronbeat/internal/metrics"
	"github.com/cronbeat/cronbeat/internal/notifier"
	"github.com/cronbeat/cronbeat/internal/schedule"
)

const defaultNotifyTimeout = 5 * time.Second

// Result is returned to the driver after a completion signal.
type Result struct {
	TaskID    string        `json:"task_id"`
	Elapsed   time.Duration `json:"elapsed"`
	Threshold time.Duration `json:"threshold"`
	Breached  bool          `json:"breached"`
}

// Options configures a Monitor. Registry and Store are required; the rest
// are optional collaborators.
type Options struct {
	Registry *schedule.Registry
	Store    heartbeat.Store
	Notifier notifier.Notifier
	History  history.Sink
	Locker   lease.Locker
	// Now overrides the time source, for tests.
	Now func() time.Time
	// NotifyTimeout bounds each alert delivery attempt (default 5s).
	NotifyTimeout time.Duration
}

// Monitor implements the runtime-monitoring protocol: the external driver
// brackets each task run with SignalStart and SignalCompletion, and the
// monitor evaluates elapsed runtime against the task's declared threshold
// on completion. The monitor holds no per-task state between calls; every
// operation re-reads the persisted heartbeat record.
type Monitor struct {
	registry      *schedule.Registry
	store         heartbeat.Store
	notifier      notifier.Notifier
	history       history.Sink
	locker        lease.Locker
	now           func() time.Time
	notifyTimeout time.Duration

	wg sync.WaitGroup
}

func New(opts Options) (*Monitor, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("monitor requires a schedule registry")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("monitor requires a heartbeat store")
	}
	m := &Monitor{
		registry:      opts.Registry,
		store:         opts.Store,
		notifier:      opts.Notifier,
		history:       opts.History,
		locker:        opts.Locker,
		now:           opts.Now,
		notifyTimeout: opts.NotifyTimeout,
	}
	if m.notifier == nil {
		m.notifier = notifier.Slog{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.notifyTimeout <= 0 {
		m.notifyTimeout = defaultNotifyTimeout
	}
	return m, nil
}

// SignalStart records the beginning of a new run generation for taskID.
// Unknown tasks are rejected up front: monitoring cannot evaluate a
// threshold that was never declared.
func (m *Monitor) SignalStart(ctx context.Context, taskID, description string) error {
	if _, err := m.registry.Lookup(taskID); err != nil {
		return err
	}
	start := m.now()
	if err := m.store.PutStart(ctx, taskID, start, description); err != nil {
		return fmt.Errorf("record start for %s: %w", taskID, err)
	}
	metrics.IncStart(taskID)
	m.emitHistory(ctx, history.Event{
		Type:        history.EventStart,
		OccurredAt:  start,
		TaskID:      taskID,
		StartTime:   start,
		Description: description,
	})
	slog.Debug("task start signalled", "task", taskID)
	return nil
}

// SignalCompletion closes the current run generation for taskID, computes
// the elapsed runtime and evaluates it against the declared threshold.
// The completion record is durable before any alerting is attempted, so a
// notification outage can never lose monitoring state.
func (m *Monitor) SignalCompletion(ctx context.Context, taskID string) (Result, error) {
	end := m.now()
	rec, err := m.store.MergeCompletion(ctx, taskID, end)
	if err != nil {
		return Result{}, fmt.Errorf("record completion for %s: %w", taskID, err)
	}

	entry, err := m.registry.Lookup(taskID)
	if err != nil {
		return Result{}, err
	}

	elapsed := rec.Elapsed()
	res := Result{
		TaskID:    taskID,
		Elapsed:   elapsed,
		Threshold: entry.RuntimeThreshold,
		Breached:  elapsed > entry.RuntimeThreshold,
	}
	metrics.IncCompletion(taskID, res.Breached, elapsed.Seconds())

	if res.Breached {
		msg := m.alertMessage(entry, rec, elapsed)
		m.notifyAsync(taskID, msg)
	}

	m.emitHistory(ctx, history.Event{
		Type:           history.EventCompletion,
		OccurredAt:     end,
		TaskID:         taskID,
		StartTime:      rec.StartTime,
		EndTime:        rec.EndTime,
		ElapsedSeconds: elapsed.Seconds(),
		Breached:       res.Breached,
		Description:    rec.Description,
	})

	slog.Info("task completion signalled", "task", taskID, "elapsed", elapsed, "breached", res.Breached)
	return res, nil
}

// TryBegin acquires the task's exclusion lease and then signals the start.
// It fails with lease.ErrAlreadyRunning when another live lease holds the
// task, giving drivers an opt-in safeguard against overlapping runs. The
// lease TTL is the declared frequency: a run is expected to finish before
// the next one is due.
func (m *Monitor) TryBegin(ctx context.Context, taskID, description string) (*lease.Lease, error) {
	if m.locker == nil {
		return nil, fmt.Errorf("no locker configured")
	}
	entry, err := m.registry.Lookup(taskID)
	if err != nil {
		return nil, err
	}
	l, err := m.locker.Acquire(ctx, taskID, entry.Frequency)
	if err != nil {
		return nil, err
	}
	if err := m.SignalStart(ctx, taskID, description); err != nil {
		_ = l.Release(ctx)
		return nil, err
	}
	return l, nil
}

// Wait blocks until all in-flight alert deliveries have finished. Intended
// for shutdown paths and tests.
func (m *Monitor) Wait() { m.wg.Wait() }

func (m *Monitor) alertMessage(entry schedule.Entry, rec heartbeat.Record, elapsed time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "task %s exceeded its runtime threshold: ran %s, threshold %s, declared frequency %s",
		entry.Name, elapsed, entry.RuntimeThreshold, entry.Frequency)
	if fixed, ok := entry.FixedRunTimeFor(rec.StartTime, m.registry.Location()); ok {
		fmt.Fprintf(&b, ", scheduled run at %s", fixed.Format("15:04"))
	}
	return b.String()
}

// notifyAsync delivers the alert off the driver's call path with a bounded
// timeout. Delivery failure is reported, never propagated: the heartbeat
// write already succeeded.
func (m *Monitor) notifyAsync(taskID, msg string) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.notifyTimeout)
		defer cancel()
		if err := m.notifier.Send(ctx, msg); err != nil {
			metrics.IncNotifierFailure(taskID)
			slog.Error("alert delivery failed", "task", taskID, "error", err)
		}
	}()
}

func (m *Monitor) emitHistory(ctx context.Context, e history.Event) {
	if m.history == nil {
		return
	}
	if err := m.history.Send(ctx, e); err != nil {
		slog.Warn("history sink write failed", "task", e.TaskID, "type", e.Type, "error", err)
	}
}
