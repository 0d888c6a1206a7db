package metrics

import (
	"runtime"
	"time"
)

// RecordBuild records a model build with its duration
func (r *Registry) RecordBuild(status string, duration time.Duration, neurons, ensembles, probes int) {
	r.BuildsTotal.WithLabelValues(status).Inc()
	r.BuildDuration.Observe(duration.Seconds())
	if status == "ok" {
		r.BuiltNeurons.Set(float64(neurons))
		r.BuiltEnsembles.Set(float64(ensembles))
		r.BuiltProbes.Set(float64(probes))
	}
}

// RecordDecoderSolve records a decoder solver invocation
func (r *Registry) RecordDecoderSolve(solver, status string, rmse float64) {
	r.DecoderSolves.WithLabelValues(solver, status).Inc()
	if status == "ok" {
		r.DecoderSolveRMSE.Observe(rmse)
	}
}

// RecordStep records a single simulation step
func (r *Registry) RecordStep(duration time.Duration, spikes int) {
	r.StepsTotal.Inc()
	r.StepDuration.Observe(duration.Seconds())
	if spikes > 0 {
		r.SpikesTotal.Add(float64(spikes))
	}
}

// RecordRun records a completed simulation run
func (r *Registry) RecordRun(status string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(status).Inc()
	r.RunDuration.Observe(duration.Seconds())
}

// RecordProbeSample records samples taken for a probe
func (r *Registry) RecordProbeSample(probe string, n int) {
	r.ProbeSamplesTotal.WithLabelValues(probe).Add(float64(n))
}

// RecordStreamFrame records a published probe frame
func (r *Registry) RecordStreamFrame(probe string) {
	r.StreamFramesTotal.WithLabelValues(probe).Inc()
}

// UpdateSystemMetrics refreshes process-level gauges
func (r *Registry) UpdateSystemMetrics(startTime time.Time) {
	r.UptimeSeconds.Set(time.Since(startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}
