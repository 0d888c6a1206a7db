package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.BuildsTotal == nil {
		t.Error("BuildsTotal not initialized")
	}
	if r.StepDuration == nil {
		t.Error("StepDuration not initialized")
	}
	if r.SpikesTotal == nil {
		t.Error("SpikesTotal not initialized")
	}
	if r.StreamSubscribers == nil {
		t.Error("StreamSubscribers not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordStep(t *testing.T) {
	r := NewRegistry()

	r.RecordStep(10*time.Microsecond, 3)
	r.RecordStep(12*time.Microsecond, 0)

	if got := testutil.ToFloat64(r.StepsTotal); got != 2 {
		t.Errorf("Expected 2 steps, got %v", got)
	}
	if got := testutil.ToFloat64(r.SpikesTotal); got != 3 {
		t.Errorf("Expected 3 spikes, got %v", got)
	}
}

func TestRecordBuild(t *testing.T) {
	r := NewRegistry()

	r.RecordBuild("ok", 5*time.Millisecond, 100, 1, 3)
	r.RecordBuild("error", time.Millisecond, 0, 0, 0)

	if got := testutil.ToFloat64(r.BuildsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("Expected 1 ok build, got %v", got)
	}
	if got := testutil.ToFloat64(r.BuiltNeurons); got != 100 {
		t.Errorf("Expected 100 built neurons, got %v", got)
	}
	if got := testutil.ToFloat64(r.BuildsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("Expected 1 error build, got %v", got)
	}
}

func TestRecordProbeSample(t *testing.T) {
	r := NewRegistry()

	r.RecordProbeSample("decoded", 10)
	r.RecordProbeSample("decoded", 5)

	if got := testutil.ToFloat64(r.ProbeSamplesTotal.WithLabelValues("decoded")); got != 15 {
		t.Errorf("Expected 15 samples, got %v", got)
	}
}

func TestUpdateSystemMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics(time.Now().Add(-time.Second))

	if got := testutil.ToFloat64(r.UptimeSeconds); got < 1 {
		t.Errorf("Expected uptime >= 1s, got %v", got)
	}
	if got := testutil.ToFloat64(r.GoRoutines); got <= 0 {
		t.Errorf("Expected positive goroutine count, got %v", got)
	}
}
