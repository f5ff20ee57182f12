package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	taskStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cronbeat",
			Subsystem: "task",
			Name:      "starts_total",
			Help:      "Number of signalled task starts.",
		}, []string{"task"},
	)
	taskCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cronbeat",
			Subsystem: "task",
			Name:      "completions_total",
			Help:      "Number of signalled task completions, labelled by breach outcome.",
		}, []string{"task", "breached"},
	)
	taskRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cronbeat",
			Subsystem: "task",
			Name:      "run_duration_seconds",
			Help:      "Observed elapsed wall-clock time per completed run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"task"},
	)
	taskInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cronbeat",
			Subsystem: "task",
			Name:      "in_flight",
			Help:      "Whether a run of the task is currently in flight (1) or not (0).",
		}, []string{"task"},
	)
	notifierFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cronbeat",
			Subsystem: "notifier",
			Name:      "failures_total",
			Help:      "Number of alert deliveries that failed.",
		}, []string{"task"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{taskStarts, taskCompletions, taskRunDuration, taskInFlight, notifierFailures}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncStart(task string) {
	if regOK.Load() {
		taskStarts.WithLabelValues(task).Inc()
		taskInFlight.WithLabelValues(task).Set(1)
	}
}

func IncCompletion(task string, breached bool, seconds float64) {
	if regOK.Load() {
		label := "false"
		if breached {
			label = "true"
		}
		taskCompletions.WithLabelValues(task, label).Inc()
		taskRunDuration.WithLabelValues(task).Observe(seconds)
		taskInFlight.WithLabelValues(task).Set(0)
	}
}

func IncNotifierFailure(task string) {
	if regOK.Load() {
		notifierFailures.WithLabelValues(task).Inc()
	}
}
