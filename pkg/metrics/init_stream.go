package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStreamMetrics() {
	r.StreamFramesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nengo_stream_frames_total",
			Help: "Total number of probe frames published to the stream",
		},
		[]string{"probe"},
	)

	r.StreamDroppedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "nengo_stream_dropped_total",
			Help: "Total number of probe frames dropped by slow subscribers",
		},
	)

	r.StreamSubscribers = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "nengo_stream_subscribers",
			Help: "Number of in-process probe stream subscribers",
		},
	)
}
