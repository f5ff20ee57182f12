package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterAndHelpers(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	// Second call is a no-op.
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}

	IncStart("demo")
	IncCompletion("demo", true, 12.5)
	IncNotifierFailure("demo")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	want := map[string]bool{
		"cronbeat_task_starts_total":         false,
		"cronbeat_task_completions_total":    false,
		"cronbeat_task_run_duration_seconds": false,
		"cronbeat_task_in_flight":            false,
		"cronbeat_notifier_failures_total":   false,
	}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("metric %s not gathered", name)
		}
	}
}

func TestHandlerNotNil(t *testing.T) {
	if Handler() == nil {
		t.Fatalf("nil metrics handler")
	}
}
