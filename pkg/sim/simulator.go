// Package sim builds networks into runnable state and advances them with a
// fixed time step. A build samples each ensemble's tuning, solves the
// decoders every connection and decoded probe needs, and allocates the
// filter and neuron state; Run then advances everything step by step,
// recording probe rows and publishing them to live subscribers.
package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/goodluckcjj/nengo/pkg/logging"
	"github.com/goodluckcjj/nengo/pkg/metrics"
	"github.com/goodluckcjj/nengo/pkg/model"
	"github.com/goodluckcjj/nengo/pkg/stream"
	"github.com/goodluckcjj/nengo/pkg/validation"
)

// DefaultDt is the simulation time step in seconds.
const DefaultDt = 0.001

// ErrClosed is returned by operations on a closed simulator.
var ErrClosed = fmt.Errorf("simulator is closed")

// ErrUnknownProbe is returned when a probe name or handle does not belong
// to the simulated network.
var ErrUnknownProbe = fmt.Errorf("unknown probe")

// Simulator advances a built network through time. It is safe for one
// goroutine to run while others read probe data or subscribe to frames.
type Simulator struct {
	mu sync.Mutex

	net     *model.Network
	dt      float64
	log     logging.Logger
	metrics *metrics.Registry
	pubsub  *stream.PubSub

	bn     *builtNetwork
	step   uint64
	closed bool
}

// Option configures a Simulator at creation.
type Option func(*Simulator)

// WithDt overrides the simulation time step (default 1 ms).
func WithDt(dt float64) Option {
	return func(s *Simulator) { s.dt = dt }
}

// WithLogger sets the simulator's logger.
func WithLogger(log logging.Logger) Option {
	return func(s *Simulator) { s.log = log }
}

// WithMetrics sets the metrics registry build and run statistics go to.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Simulator) { s.metrics = reg }
}

// NewSimulator builds net and returns a simulator positioned at t=0.
func NewSimulator(net *model.Network, opts ...Option) (*Simulator, error) {
	s := &Simulator{
		net:     net,
		dt:      DefaultDt,
		log:     logging.DefaultLogger(),
		metrics: metrics.DefaultRegistry(),
		pubsub:  stream.NewPubSub(),
	}
	for _, opt := range opts {
		opt(s)
	}

	v := validation.New("simulator")
	v.PositiveFloat("dt", s.dt)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	bn, err := build(net, s.dt, s.log, s.metrics)
	if err != nil {
		s.metrics.RecordBuild("error", time.Since(start), 0, 0, 0)
		return nil, fmt.Errorf("build %q: %w", net.Name(), err)
	}
	s.bn = bn
	s.metrics.RecordBuild("ok", time.Since(start), net.NeuronCount(), len(net.Ensembles()), len(net.Probes()))
	s.log.Info("network built",
		logging.Network(net.Name()),
		logging.Neurons(net.NeuronCount()),
		logging.Count(len(net.Connections())),
		logging.Latency(time.Since(start)))
	return s, nil
}

// Dt returns the simulation time step.
func (s *Simulator) Dt() float64 { return s.dt }

// Time returns the current simulated time in seconds.
func (s *Simulator) Time() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.step) * s.dt
}

// Steps returns the number of steps taken since creation or the last Reset.
func (s *Simulator) Steps() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Run advances the simulation by a duration in simulated seconds.
func (s *Simulator) Run(seconds float64) error {
	return s.RunContext(context.Background(), seconds)
}

// RunContext advances by a duration in simulated seconds, stopping early
// if ctx is cancelled.
func (s *Simulator) RunContext(ctx context.Context, seconds float64) error {
	if seconds < 0 {
		return fmt.Errorf("run duration must be non-negative, got %v", seconds)
	}
	steps := uint64(math.Round(seconds / s.dt))
	return s.runSteps(ctx, steps)
}

// RunSteps advances the simulation by an exact number of steps.
func (s *Simulator) RunSteps(n uint64) error {
	return s.runSteps(context.Background(), n)
}

// Step advances the simulation by a single step.
func (s *Simulator) Step() error {
	return s.runSteps(context.Background(), 1)
}

func (s *Simulator) runSteps(ctx context.Context, n uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	start := time.Now()
	for i := uint64(0); i < n; i++ {
		if err := ctx.Err(); err != nil {
			s.metrics.RecordRun("cancelled", time.Since(start))
			return err
		}
		s.stepOnce()
	}
	s.metrics.RecordRun("ok", time.Since(start))
	s.log.Debug("run finished",
		logging.Network(s.net.Name()),
		logging.Steps(s.step),
		logging.SimTime(float64(s.step)*s.dt),
		logging.Latency(time.Since(start)))
	return nil
}

// stepOnce advances everything by dt. Connections read the spike output of
// the previous step, so transmission carries a one-step delay.
func (s *Simulator) stepOnce() {
	stepStart := time.Now()
	s.step++
	t := float64(s.step) * s.dt

	for _, bnode := range s.bn.nodes {
		copy(bnode.value, bnode.node.Output.Eval(t))
	}

	for _, be := range s.bn.ensembles {
		for i := range be.input {
			be.input[i] = 0
		}
	}

	for _, bc := range s.bn.connections {
		s.transmit(bc)
	}

	spikes := 0
	for _, be := range s.bn.ensembles {
		for j := range be.current {
			be.current[j] = floats.Dot(be.scaledEncoders[j], be.input) + be.bias[j]
		}
		be.ens.Neurons.Step(s.dt, be.current, be.output, be.state)
		for _, o := range be.output {
			if o != 0 {
				spikes++
			}
		}
	}

	for _, bp := range s.bn.probes {
		s.record(bp, t)
	}

	s.metrics.RecordStep(time.Since(stepStart), spikes)
}

func (s *Simulator) transmit(bc *builtConnection) {
	switch {
	case bc.preNode != nil:
		if bc.conn.Function != nil {
			copy(bc.decoded, bc.conn.Function(bc.preNode.value))
		} else {
			copy(bc.decoded, bc.preNode.value)
		}
	case bc.preEns != nil:
		applyDecoders(bc.decoders, bc.preEns.output, bc.decoded)
	}

	value := bc.decoded
	if bc.transform != nil {
		for i, row := range bc.transform {
			bc.value[i] = floats.Dot(row, bc.decoded)
		}
		value = bc.value
	}
	if bc.syn != nil {
		value = bc.syn.Step(value)
	}

	floats.Add(bc.post.input, value)
}

func (s *Simulator) record(bp *builtProbe, t float64) {
	row := bp.sample()
	if bp.syn != nil {
		row = bp.syn.Step(row)
	}
	if s.step%bp.everySteps != 0 {
		return
	}

	stored := make([]float64, len(row))
	copy(stored, row)
	bp.times = append(bp.times, t)
	bp.rows = append(bp.rows, stored)

	s.metrics.RecordProbeSample(bp.probe.ObjectName(), 1)
	s.pubsub.Publish(stream.Frame{
		Probe:  bp.probe.ObjectName(),
		Step:   s.step,
		Time:   t,
		Values: stored,
	})
	s.metrics.RecordStreamFrame(bp.probe.ObjectName())
}

// Data returns the rows recorded by a probe so far. The result is a copy;
// mutating it does not affect the recording.
func (s *Simulator) Data(p *model.Probe) ([][]float64, error) {
	return s.DataByName(p.ObjectName())
}

// DataByName returns recorded rows by probe name.
func (s *Simulator) DataByName(name string) ([][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp, ok := s.bn.probeIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProbe, name)
	}
	out := make([][]float64, len(bp.rows))
	for i, row := range bp.rows {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out, nil
}

// Times returns the sample times of a probe's recorded rows.
func (s *Simulator) Times(p *model.Probe) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp, ok := s.bn.probeIndex[p.ObjectName()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProbe, p.ObjectName())
	}
	out := make([]float64, len(bp.times))
	copy(out, bp.times)
	return out, nil
}

// Trange returns every step time simulated so far: dt, 2·dt, ..., t.
func (s *Simulator) Trange() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, s.step)
	for i := range out {
		out[i] = float64(i+1) * s.dt
	}
	return out
}

// SubscribeProbe delivers live frames for one probe until ctx is cancelled
// or the subscription is dropped.
func (s *Simulator) SubscribeProbe(ctx context.Context, name string) (*stream.Subscription, error) {
	s.mu.Lock()
	if _, ok := s.bn.probeIndex[name]; !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownProbe, name)
	}
	s.mu.Unlock()
	return s.pubsub.Subscribe(ctx, name)
}

// Encoders returns the sampled encoder vectors of an ensemble
// (NNeurons x Dims rows).
func (s *Simulator) Encoders(e *model.Ensemble) ([][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	be, ok := s.bn.ensembleIndex[e.ObjectID()]
	if !ok {
		return nil, fmt.Errorf("ensemble %q was not part of the build", e.ObjectName())
	}
	out := make([][]float64, len(be.encoders))
	for i, row := range be.encoders {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out, nil
}

// GainBias returns the per-neuron gain and bias sampled at build time.
func (s *Simulator) GainBias(e *model.Ensemble) (gain, bias []float64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	be, ok := s.bn.ensembleIndex[e.ObjectID()]
	if !ok {
		return nil, nil, fmt.Errorf("ensemble %q was not part of the build", e.ObjectName())
	}
	gain = make([]float64, len(be.gain))
	bias = make([]float64, len(be.bias))
	copy(gain, be.gain)
	copy(bias, be.bias)
	return gain, bias, nil
}

// Reset rewinds the simulator to t=0, clearing neuron state, filter state
// and all recorded probe data. Decoders and sampled tuning are kept.
func (s *Simulator) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.step = 0
	for _, be := range s.bn.ensembles {
		be.state.Reset()
		for i := range be.input {
			be.input[i] = 0
		}
		for i := range be.output {
			be.output[i] = 0
		}
	}
	for _, bc := range s.bn.connections {
		if bc.syn != nil {
			bc.syn.Reset()
		}
	}
	for _, bp := range s.bn.probes {
		if bp.syn != nil {
			bp.syn.Reset()
		}
		bp.times = nil
		bp.rows = nil
	}
	s.log.Debug("simulator reset", logging.Network(s.net.Name()))
	return nil
}

// Close releases the simulator and disconnects all live subscribers.
// Recorded data remains readable.
func (s *Simulator) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.pubsub.Shutdown()
	return nil
}
