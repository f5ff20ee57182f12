package cronbeat

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/cronbeat/cronbeat/internal/config"
	"github.com/cronbeat/cronbeat/internal/heartbeat"
	hbfactory "github.com/cronbeat/cronbeat/internal/heartbeat/factory"
	"github.com/cronbeat/cronbeat/internal/history"
	histfactory "github.com/cronbeat/cronbeat/internal/history/factory"
	"github.com/cronbeat/cronbeat/internal/lease"
	"github.com/cronbeat/cronbeat/internal/metrics"
	"github.com/cronbeat/cronbeat/internal/monitor"
	"github.com/cronbeat/cronbeat/internal/notifier"
	"github.com/cronbeat/cronbeat/internal/schedule"
	iapi "github.com/cronbeat/cronbeat/internal/server"
	"github.com/cronbeat/cronbeat/internal/status"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Entry = schedule.Entry

type TimeOfDay = schedule.TimeOfDay

type Registry = schedule.Registry

type Record = heartbeat.Record

type Store = heartbeat.Store

type Result = monitor.Result

type TaskStatus = status.TaskStatus

type Notifier = notifier.Notifier

type NotifierFunc = notifier.Func

type NotifierConfig = notifier.Config

type HistorySink = history.Sink

type HistoryEvent = history.Event

type Lease = lease.Lease

type Locker = lease.Locker

// Errors surfaced by the monitoring protocol.
var (
	ErrTaskNotFound   = schedule.ErrNotFound
	ErrRecordMissing  = heartbeat.ErrRecordMissing
	ErrAlreadyRunning = lease.ErrAlreadyRunning
)

// Options configures a Monitor. Registry and Store are required.
type Options = monitor.Options

// Monitor is a thin facade over internal/monitor.Monitor plus the
// read-only status surface. It provides a stable public API for embedding.
type Monitor struct {
	inner  *monitor.Monitor
	reader *status.Reader
}

func New(opts Options) (*Monitor, error) {
	inner, err := monitor.New(opts)
	if err != nil {
		return nil, err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Monitor{inner: inner, reader: status.NewReader(opts.Registry, opts.Store, now)}, nil
}

func (m *Monitor) SignalStart(ctx context.Context, taskID, description string) error {
	return m.inner.SignalStart(ctx, taskID, description)
}

func (m *Monitor) SignalCompletion(ctx context.Context, taskID string) (Result, error) {
	return m.inner.SignalCompletion(ctx, taskID)
}

func (m *Monitor) TryBegin(ctx context.Context, taskID, description string) (*Lease, error) {
	return m.inner.TryBegin(ctx, taskID, description)
}

func (m *Monitor) Status(ctx context.Context, taskID string) (TaskStatus, error) {
	return m.reader.Get(ctx, taskID)
}

func (m *Monitor) StatusAll(ctx context.Context) ([]TaskStatus, error) {
	return m.reader.List(ctx)
}

// Wait blocks until all in-flight alert deliveries have drained.
func (m *Monitor) Wait() { m.inner.Wait() }

// Construction helpers

func NewRegistry(loc *time.Location, entries []Entry) (*Registry, error) {
	return schedule.New(loc, entries)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) { return schedule.ParseTimeOfDay(s) }

// NewStore builds a heartbeat store from a DSN. Supported schemes:
// memory://, sqlite://path, postgres://..., or a bare filesystem path
// which is treated as sqlite.
func NewStore(dsn string) (Store, error) { return hbfactory.NewStoreFromDSN(dsn) }

func NewMemoryStore() Store { return heartbeat.NewMemory() }

// NewHistorySink builds a run-history sink from a DSN. Supported schemes:
// sqlite://, postgres://, clickhouse://host?table=, opensearch://host/index.
func NewHistorySink(dsn string) (HistorySink, error) { return histfactory.NewSinkFromDSN(dsn) }

func NewNotifier(c NotifierConfig) (Notifier, error) { return notifier.NewFromConfig(c) }

func NewMemoryLocker() Locker { return lease.NewMemory() }

func NewSQLiteLocker(path string) (Locker, error) { return lease.NewSQLite(path) }

func LoadConfig(path string) (*cfg.Config, error) {
	return cfg.Load(path)
}

// NewHTTPServer starts an HTTP server exposing the signaling and status API
// backed by the given monitor.
func NewHTTPServer(addr, basePath string, m *Monitor) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, m.inner, m.reader)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
