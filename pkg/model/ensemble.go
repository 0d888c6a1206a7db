package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/goodluckcjj/nengo/pkg/dists"
	"github.com/goodluckcjj/nengo/pkg/neurons"
	"github.com/goodluckcjj/nengo/pkg/validation"
)

// Ensemble declares a population of neurons collectively representing a
// vector within a ball of the given radius. Per-neuron tuning (max rate,
// intercept, encoder direction) is sampled at build time from the attached
// distributions unless fixed encoders are supplied.
type Ensemble struct {
	id   string
	name string

	// NNeurons is the population size
	NNeurons int
	// Dims is the represented dimensionality
	Dims int
	// Radius scales the represented range; values within ±Radius per axis
	// are encoded accurately
	Radius float64
	// Neurons is the neuron model shared by the population
	Neurons neurons.Model
	// MaxRates samples each neuron's firing rate at the edge of the range
	MaxRates dists.Distribution
	// Intercepts samples where each neuron starts firing
	Intercepts dists.Distribution
	// Encoders optionally fixes the preferred-direction vectors
	// (NNeurons x Dims); nil means sampled on the unit hypersphere
	Encoders [][]float64
	// Seed fixes this ensemble's sampling; 0 derives from the network seed
	Seed int64
}

// EnsembleOption configures an Ensemble at creation.
type EnsembleOption func(*Ensemble)

// WithRadius sets the represented range scale (default 1).
func WithRadius(radius float64) EnsembleOption {
	return func(e *Ensemble) { e.Radius = radius }
}

// WithNeurons sets the neuron model (default spiking LIF).
func WithNeurons(model neurons.Model) EnsembleOption {
	return func(e *Ensemble) { e.Neurons = model }
}

// WithMaxRates sets the max firing rate distribution (default Uniform 200-400 Hz).
func WithMaxRates(d dists.Distribution) EnsembleOption {
	return func(e *Ensemble) { e.MaxRates = d }
}

// WithIntercepts sets the intercept distribution (default Uniform -1 to 0.9).
func WithIntercepts(d dists.Distribution) EnsembleOption {
	return func(e *Ensemble) { e.Intercepts = d }
}

// WithEncoders fixes the encoder matrix instead of sampling it.
func WithEncoders(encoders [][]float64) EnsembleOption {
	return func(e *Ensemble) { e.Encoders = encoders }
}

// WithEnsembleSeed fixes the ensemble's private sampling seed.
func WithEnsembleSeed(seed int64) EnsembleOption {
	return func(e *Ensemble) { e.Seed = seed }
}

// AddEnsemble declares a population of nNeurons neurons representing a
// dims-dimensional value.
func (n *Network) AddEnsemble(name string, nNeurons, dims int, opts ...EnsembleOption) (*Ensemble, error) {
	e := &Ensemble{
		id:         uuid.NewString(),
		name:       name,
		NNeurons:   nNeurons,
		Dims:       dims,
		Radius:     1,
		Neurons:    neurons.NewLIF(),
		MaxRates:   dists.Uniform{Low: 200, High: 400},
		Intercepts: dists.Uniform{Low: -1, High: 0.9},
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.validate(); err != nil {
		return nil, fmt.Errorf("ensemble %q: %w", name, err)
	}
	if err := n.register(name, e); err != nil {
		return nil, err
	}
	n.ensembles = append(n.ensembles, e)
	return e, nil
}

func (e *Ensemble) validate() error {
	v := validation.New("Ensemble").
		Positive("NNeurons", e.NNeurons).
		Positive("Dims", e.Dims).
		PositiveFloat("Radius", e.Radius).
		Custom("Neurons", func() error {
			if e.Neurons == nil {
				return fmt.Errorf("neuron model is required")
			}
			return e.Neurons.Validate()
		}).
		Custom("MaxRates", func() error { return e.MaxRates.Validate() }).
		Custom("Intercepts", func() error { return e.Intercepts.Validate() })

	if e.Encoders != nil {
		v.Custom("Encoders", func() error {
			if len(e.Encoders) != e.NNeurons {
				return fmt.Errorf("%w: %d encoder rows for %d neurons", ErrDimensionMismatch, len(e.Encoders), e.NNeurons)
			}
			for i, row := range e.Encoders {
				if len(row) != e.Dims {
					return fmt.Errorf("%w: encoder row %d has %d dims, want %d", ErrDimensionMismatch, i, len(row), e.Dims)
				}
			}
			return nil
		})
	}
	return v.Validate()
}

// ObjectID returns the unique ID assigned at creation
func (e *Ensemble) ObjectID() string { return e.id }

// ObjectName returns the ensemble name
func (e *Ensemble) ObjectName() string { return e.name }

// SizeIn returns the represented input dimensionality
func (e *Ensemble) SizeIn() int { return e.Dims }

// SizeOut returns the represented output dimensionality
func (e *Ensemble) SizeOut() int { return e.Dims }
