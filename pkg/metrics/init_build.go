package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initBuildMetrics() {
	r.BuildsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nengo_builds_total",
			Help: "Total number of model builds",
		},
		[]string{"status"},
	)

	r.BuildDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nengo_build_duration_seconds",
			Help:    "Model build duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	r.BuiltNeurons = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "nengo_built_neurons",
			Help: "Number of neurons in the most recently built model",
		},
	)

	r.BuiltEnsembles = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "nengo_built_ensembles",
			Help: "Number of ensembles in the most recently built model",
		},
	)

	r.BuiltProbes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "nengo_built_probes",
			Help: "Number of probes in the most recently built model",
		},
	)

	r.DecoderSolves = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nengo_decoder_solves_total",
			Help: "Total number of decoder solver invocations",
		},
		[]string{"solver", "status"},
	)

	r.DecoderSolveRMSE = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nengo_decoder_solve_rmse",
			Help:    "Residual RMSE of decoder solves",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
	)
}
