// Package metrics exposes prometheus instrumentation for the simulation
// engine: build, run, streaming and process-level metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the engine
type Registry struct {
	// Build Metrics
	BuildsTotal     *prometheus.CounterVec
	BuildDuration   prometheus.Histogram
	BuiltNeurons    prometheus.Gauge
	BuiltEnsembles  prometheus.Gauge
	BuiltProbes     prometheus.Gauge
	DecoderSolves   *prometheus.CounterVec
	DecoderSolveRMSE prometheus.Histogram

	// Run Metrics
	ActiveSimulators  prometheus.Gauge
	StepsTotal        prometheus.Counter
	StepDuration      prometheus.Histogram
	SpikesTotal       prometheus.Counter
	ProbeSamplesTotal *prometheus.CounterVec
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram

	// Stream Metrics
	StreamFramesTotal  *prometheus.CounterVec
	StreamDroppedTotal prometheus.Counter
	StreamSubscribers  prometheus.Gauge

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initBuildMetrics()
	r.initRunMetrics()
	r.initStreamMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
