// Package signals provides time-varying input generators for model nodes.
package signals

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"

	"github.com/goodluckcjj/nengo/pkg/validation"
)

// Signal is a deterministic function of simulated time.
type Signal interface {
	// Eval returns the signal value at time t (seconds)
	Eval(t float64) []float64
	// Dimensions returns the output dimensionality
	Dimensions() int
}

// Sine produces amplitude * sin(2*pi*frequency*t + phase) in one dimension.
type Sine struct {
	Amplitude float64
	Frequency float64 // Hz
	Phase     float64 // radians
}

func (s Sine) Eval(t float64) []float64 {
	return []float64{s.Amplitude * math.Sin(2*math.Pi*s.Frequency*t+s.Phase)}
}

func (s Sine) Dimensions() int { return 1 }

// Validate checks sine parameters
func (s Sine) Validate() error {
	return validation.New("Sine").
		PositiveFloat("Frequency", s.Frequency).
		Validate()
}

// Constant produces a fixed vector.
type Constant struct {
	Value []float64
}

func (c Constant) Eval(t float64) []float64 {
	out := make([]float64, len(c.Value))
	copy(out, c.Value)
	return out
}

func (c Constant) Dimensions() int { return len(c.Value) }

// Validate checks that the constant carries at least one dimension
func (c Constant) Validate() error {
	return validation.New("Constant").
		Positive("Value", len(c.Value)).
		Validate()
}

// Ramp produces Start + Slope*t in one dimension.
type Ramp struct {
	Start float64
	Slope float64
}

func (r Ramp) Eval(t float64) []float64 {
	return []float64{r.Start + r.Slope*t}
}

func (r Ramp) Dimensions() int { return 1 }

// Piecewise holds a value until the next breakpoint time.
// Before the first breakpoint the output is zero.
type Piecewise struct {
	times  []float64
	values [][]float64
	dims   int
}

// NewPiecewise builds a piecewise-constant signal from time -> value pairs.
// All values must share the same dimensionality.
func NewPiecewise(points map[float64][]float64) (*Piecewise, error) {
	v := validation.New("Piecewise").Positive("points", len(points))
	if err := v.Validate(); err != nil {
		return nil, err
	}

	times := make([]float64, 0, len(points))
	for t := range points {
		times = append(times, t)
	}
	sort.Float64s(times)

	dims := len(points[times[0]])
	values := make([][]float64, len(times))
	for i, t := range times {
		val := points[t]
		if len(val) != dims {
			return nil, validation.New("Piecewise").
				Custom("points", func() error {
					return errDimensions(dims, len(val))
				}).Validate()
		}
		values[i] = append([]float64(nil), val...)
	}

	return &Piecewise{times: times, values: values, dims: dims}, nil
}

func (p *Piecewise) Eval(t float64) []float64 {
	out := make([]float64, p.dims)
	idx := sort.SearchFloat64s(p.times, t)
	// SearchFloat64s returns the first index with times[i] >= t; step back
	// unless t exactly hits a breakpoint.
	if idx < len(p.times) && p.times[idx] == t {
		copy(out, p.values[idx])
		return out
	}
	if idx == 0 {
		return out
	}
	copy(out, p.values[idx-1])
	return out
}

func (p *Piecewise) Dimensions() int { return p.dims }

// WhiteNoise produces gaussian noise with the given RMS amplitude.
// Output is reproducible for a fixed seed: the generator is re-derived from
// the step index so Eval is a pure function of t.
type WhiteNoise struct {
	RMS  float64
	Dims int
	Seed uint64
}

func (w WhiteNoise) Eval(t float64) []float64 {
	d := w.Dims
	if d == 0 {
		d = 1
	}
	// Hash time bits with the seed so each instant gets its own stream.
	bits := math.Float64bits(t)
	rng := rand.New(rand.NewSource(w.Seed ^ bits*0x9e3779b97f4a7c15))
	out := make([]float64, d)
	for i := range out {
		out[i] = w.RMS * rng.NormFloat64()
	}
	return out
}

func (w WhiteNoise) Dimensions() int {
	if w.Dims == 0 {
		return 1
	}
	return w.Dims
}

func errDimensions(want, got int) error {
	return &DimensionError{Want: want, Got: got}
}

// DimensionError reports a dimensionality mismatch between signal values.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: want %d, got %d", e.Want, e.Got)
}
