package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRunMetrics() {
	r.ActiveSimulators = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "nengo_active_simulators",
			Help: "Number of open simulators",
		},
	)

	r.StepsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "nengo_steps_total",
			Help: "Total number of simulation steps executed",
		},
	)

	r.StepDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nengo_step_duration_seconds",
			Help:    "Wall-clock duration of a single simulation step",
			Buckets: []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.1},
		},
	)

	r.SpikesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "nengo_spikes_total",
			Help: "Total number of spikes emitted across all ensembles",
		},
	)

	r.ProbeSamplesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nengo_probe_samples_total",
			Help: "Total number of samples recorded per probe",
		},
		[]string{"probe"},
	)

	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nengo_runs_total",
			Help: "Total number of simulation runs",
		},
		[]string{"status"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nengo_run_duration_seconds",
			Help:    "Wall-clock duration of simulation runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
		},
	)
}
