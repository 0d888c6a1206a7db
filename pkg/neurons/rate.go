package neurons

import (
	"fmt"

	"github.com/goodluckcjj/nengo/pkg/validation"
)

// LIFRate is the deterministic rate version of the LIF model: its output is
// the analytic steady-state firing rate with no spiking noise.
type LIFRate struct {
	LIF
}

// NewLIFRate returns a rate LIF model with default parameters.
func NewLIFRate() *LIFRate {
	m := &LIFRate{}
	m.Defaults()
	return m
}

// InitState allocates no dynamic state; the model is memoryless
func (m *LIFRate) InitState(n int) *State {
	return &State{}
}

// Step outputs steady-state rates directly
func (m *LIFRate) Step(dt float64, current, output []float64, st *State) {
	m.Rates(current, output)
}

// RectifiedLinear is a rate model with output Amplitude * max(J, 0).
type RectifiedLinear struct {
	// Amplitude scales the output rate
	Amplitude float64
}

// NewRectifiedLinear returns a rectified linear model with unit amplitude.
func NewRectifiedLinear() *RectifiedLinear {
	r := &RectifiedLinear{}
	r.Defaults()
	return r
}

// Defaults sets unit amplitude
func (r *RectifiedLinear) Defaults() {
	r.Amplitude = 1
}

// Validate checks model parameters
func (r *RectifiedLinear) Validate() error {
	return validation.New("RectifiedLinear").
		PositiveFloat("Amplitude", r.Amplitude).
		Validate()
}

// InitState allocates no dynamic state; the model is memoryless
func (r *RectifiedLinear) InitState(n int) *State {
	return &State{}
}

// Step outputs rectified rates directly
func (r *RectifiedLinear) Step(dt float64, current, output []float64, st *State) {
	r.Rates(current, output)
}

// Rates computes Amplitude * max(J, 0) per neuron
func (r *RectifiedLinear) Rates(current, output []float64) {
	for i, j := range current {
		if j > 0 {
			output[i] = r.Amplitude * j
		} else {
			output[i] = 0
		}
	}
}

// GainBias solves for gain and bias so each neuron reaches its max rate at
// the edge of the unit range and turns on at its intercept.
func (r *RectifiedLinear) GainBias(maxRates, intercepts []float64) ([]float64, []float64, error) {
	if len(maxRates) != len(intercepts) {
		return nil, nil, fmt.Errorf("relu gain/bias: %d max rates but %d intercepts", len(maxRates), len(intercepts))
	}

	gain := make([]float64, len(maxRates))
	bias := make([]float64, len(maxRates))
	for i := range maxRates {
		if intercepts[i] >= 1 {
			return nil, nil, fmt.Errorf("relu gain/bias: intercept %g at index %d must be below 1", intercepts[i], i)
		}
		gain[i] = maxRates[i] / (r.Amplitude * (1 - intercepts[i]))
		bias[i] = -gain[i] * intercepts[i]
	}
	return gain, bias, nil
}
