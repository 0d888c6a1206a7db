package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/goodluckcjj/nengo/pkg/synapses"
)

// Attribute selects which signal of a target a probe records.
type Attribute string

const (
	// Decoded records the target's represented (decoded) output
	Decoded Attribute = "decoded"
	// Spikes records raw spike impulses, one column per neuron
	Spikes Attribute = "spikes"
	// Voltage records membrane potentials, one column per neuron
	Voltage Attribute = "voltage"
	// Input records the summed post-synaptic input to an ensemble
	Input Attribute = "input"
)

// Probe records a signal over simulated time for later inspection.
type Probe struct {
	id   string
	name string

	// Target is the probed object
	Target Object
	// Attr selects the recorded signal
	Attr Attribute
	// Synapse optionally filters the recorded signal; nil records raw
	Synapse synapses.Synapse
	// SampleEvery throttles recording to one row per interval in seconds;
	// 0 records every step
	SampleEvery float64
}

// ProbeOption configures a Probe.
type ProbeOption func(*Probe)

// WithProbeSynapse filters the recorded signal.
func WithProbeSynapse(s synapses.Synapse) ProbeOption {
	return func(p *Probe) { p.Synapse = s }
}

// WithSampleEvery records one sample per interval instead of every step.
func WithSampleEvery(seconds float64) ProbeOption {
	return func(p *Probe) { p.SampleEvery = seconds }
}

// Probe attaches a recorder to a target signal. The probe name is derived
// from the target and attribute, so a target can carry one probe per
// attribute; use distinct networks for more exotic setups.
func (n *Network) Probe(target Object, attr Attribute, opts ...ProbeOption) (*Probe, error) {
	if !n.contains(target) {
		return nil, fmt.Errorf("probe: target %w", ErrNotInNetwork)
	}

	switch attr {
	case Decoded:
		// valid on ensembles and nodes
	case Spikes, Voltage, Input:
		if _, ok := target.(*Ensemble); !ok {
			return nil, fmt.Errorf("probe: %w: %q on non-ensemble %q", ErrUnknownAttribute, attr, target.ObjectName())
		}
	default:
		return nil, fmt.Errorf("probe: %w: %q", ErrUnknownAttribute, attr)
	}

	p := &Probe{
		id:     uuid.NewString(),
		name:   target.ObjectName() + "." + string(attr),
		Target: target,
		Attr:   attr,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.SampleEvery < 0 {
		return nil, fmt.Errorf("probe %q: sample interval must be non-negative, got %g", p.name, p.SampleEvery)
	}
	if p.Synapse != nil {
		if err := p.Synapse.Validate(); err != nil {
			return nil, fmt.Errorf("probe %q: %w", p.name, err)
		}
	}
	if err := n.registerDerived(p.name, p); err != nil {
		return nil, err
	}
	n.probes = append(n.probes, p)
	return p, nil
}

// Columns returns the number of columns the probe records per sample.
func (p *Probe) Columns() int {
	switch p.Attr {
	case Spikes, Voltage:
		return p.Target.(*Ensemble).NNeurons
	case Input:
		return p.Target.(*Ensemble).Dims
	default:
		return p.Target.SizeOut()
	}
}

// ObjectID returns the unique ID assigned at creation
func (p *Probe) ObjectID() string { return p.id }

// ObjectName returns the derived probe name (target.attribute)
func (p *Probe) ObjectName() string { return p.name }

// SizeIn is always 0: probes are passive observers
func (p *Probe) SizeIn() int { return 0 }

// SizeOut returns the recorded width
func (p *Probe) SizeOut() int { return p.Columns() }
