// Package synapses implements the temporal filters applied to signals as
// they cross connections and probes.
//
// Filters are declared as parameter structs (Lowpass, Alpha) and turned into
// stateful Step objects at build time, one per filtered signal, advancing in
// lockstep with the simulation timestep.
package synapses

import (
	"math"

	"github.com/goodluckcjj/nengo/pkg/validation"
)

// Synapse describes a filter to apply to a transmitted signal.
type Synapse interface {
	// MakeStep allocates filter state for a signal of the given width,
	// discretized at timestep dt
	MakeStep(dims int, dt float64) Step
	// Validate checks filter parameters
	Validate() error
}

// Step is an allocated filter advancing one timestep per call.
type Step interface {
	// Step feeds one input sample and returns the filtered output.
	// The returned slice is internal state and must not be retained.
	Step(input []float64) []float64
	// Reset clears filter state
	Reset()
}

// Lowpass is a first-order exponential filter with time constant Tau.
// Tau of zero is a passthrough.
type Lowpass struct {
	Tau float64 // seconds
}

// Validate checks the time constant
func (l Lowpass) Validate() error {
	return validation.New("Lowpass").
		NonNegativeFloat("Tau", l.Tau).
		Validate()
}

// MakeStep discretizes the filter with a zero-order hold
func (l Lowpass) MakeStep(dims int, dt float64) Step {
	if l.Tau <= 0 {
		return &passthroughStep{out: make([]float64, dims)}
	}
	return &lowpassStep{
		decay: math.Exp(-dt / l.Tau),
		out:   make([]float64, dims),
	}
}

type lowpassStep struct {
	decay float64
	out   []float64
}

func (s *lowpassStep) Step(input []float64) []float64 {
	for i := range s.out {
		s.out[i] = s.decay*s.out[i] + (1-s.decay)*input[i]
	}
	return s.out
}

func (s *lowpassStep) Reset() {
	for i := range s.out {
		s.out[i] = 0
	}
}

type passthroughStep struct {
	out []float64
}

func (s *passthroughStep) Step(input []float64) []float64 {
	copy(s.out, input)
	return s.out
}

func (s *passthroughStep) Reset() {
	for i := range s.out {
		s.out[i] = 0
	}
}

// Alpha is a second-order critically damped filter, realized as two cascaded
// first-order stages with the same time constant. Its impulse response rises
// smoothly before decaying, unlike the lowpass step discontinuity.
type Alpha struct {
	Tau float64 // seconds
}

// Validate checks the time constant
func (a Alpha) Validate() error {
	return validation.New("Alpha").
		NonNegativeFloat("Tau", a.Tau).
		Validate()
}

// MakeStep discretizes the filter as a lowpass cascade
func (a Alpha) MakeStep(dims int, dt float64) Step {
	if a.Tau <= 0 {
		return &passthroughStep{out: make([]float64, dims)}
	}
	decay := math.Exp(-dt / a.Tau)
	return &alphaStep{
		decay: decay,
		mid:   make([]float64, dims),
		out:   make([]float64, dims),
	}
}

type alphaStep struct {
	decay float64
	mid   []float64
	out   []float64
}

func (s *alphaStep) Step(input []float64) []float64 {
	for i := range s.out {
		s.mid[i] = s.decay*s.mid[i] + (1-s.decay)*input[i]
		s.out[i] = s.decay*s.out[i] + (1-s.decay)*s.mid[i]
	}
	return s.out
}

func (s *alphaStep) Reset() {
	for i := range s.mid {
		s.mid[i] = 0
		s.out[i] = 0
	}
}

// Filt applies a synapse offline to a recorded sample matrix (rows are
// timesteps), returning a new matrix of the same shape.
func Filt(syn Synapse, data [][]float64, dt float64) [][]float64 {
	if len(data) == 0 {
		return nil
	}
	step := syn.MakeStep(len(data[0]), dt)
	out := make([][]float64, len(data))
	for i, row := range data {
		filtered := step.Step(row)
		out[i] = append([]float64(nil), filtered...)
	}
	return out
}
