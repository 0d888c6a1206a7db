// Package dists provides the parameter distributions used to sample neuron
// properties (max firing rates, intercepts) and encoders.
package dists

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/goodluckcjj/nengo/pkg/validation"
)

// Distribution produces n samples from a scalar distribution.
// All sampling takes an explicit source so runs are reproducible per seed.
type Distribution interface {
	Sample(n int, src rand.Source) []float64
	Validate() error
}

// Uniform samples uniformly from [Low, High).
type Uniform struct {
	Low  float64
	High float64
}

// Sample draws n uniform values
func (u Uniform) Sample(n int, src rand.Source) []float64 {
	d := distuv.Uniform{Min: u.Low, Max: u.High, Src: src}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}

// Validate checks distribution bounds
func (u Uniform) Validate() error {
	return validation.New("Uniform").
		Custom("High", func() error {
			if u.High <= u.Low {
				return fmt.Errorf("high bound %g must exceed low bound %g", u.High, u.Low)
			}
			return nil
		}).
		Validate()
}

// Gaussian samples from a normal distribution.
type Gaussian struct {
	Mean   float64
	StdDev float64
}

// Sample draws n normal values
func (g Gaussian) Sample(n int, src rand.Source) []float64 {
	d := distuv.Normal{Mu: g.Mean, Sigma: g.StdDev, Src: src}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}

// Validate checks distribution parameters
func (g Gaussian) Validate() error {
	return validation.New("Gaussian").
		PositiveFloat("StdDev", g.StdDev).
		Validate()
}

// Choice samples uniformly from a fixed set of options.
type Choice struct {
	Options []float64
}

// Sample draws n values from the option set
func (c Choice) Sample(n int, src rand.Source) []float64 {
	rng := rand.New(src)
	out := make([]float64, n)
	for i := range out {
		out[i] = c.Options[rng.Intn(len(c.Options))]
	}
	return out
}

// Validate checks that at least one option exists
func (c Choice) Validate() error {
	return validation.New("Choice").
		Positive("Options", len(c.Options)).
		Validate()
}

// UnitSphere samples n points uniformly on the surface of the d-dimensional
// unit hypersphere. For d == 1 this degenerates to a fair choice of ±1.
func UnitSphere(n, d int, src rand.Source) [][]float64 {
	rng := rand.New(src)
	out := make([][]float64, n)
	for i := range out {
		p := make([]float64, d)
		if d == 1 {
			if rng.Float64() < 0.5 {
				p[0] = -1
			} else {
				p[0] = 1
			}
			out[i] = p
			continue
		}
		// Normalized gaussian vector is uniform on the sphere.
		// Resample the rare near-zero vector to avoid blowup.
		for {
			norm := 0.0
			for j := range p {
				p[j] = rng.NormFloat64()
				norm += p[j] * p[j]
			}
			norm = math.Sqrt(norm)
			if norm > 1e-12 {
				for j := range p {
					p[j] /= norm
				}
				break
			}
		}
		out[i] = p
	}
	return out
}

// UnitBall samples n points uniformly inside the d-dimensional unit ball.
// Used for decoder evaluation points.
func UnitBall(n, d int, src rand.Source) [][]float64 {
	rng := rand.New(src)
	pts := UnitSphere(n, d, rand.NewSource(rng.Uint64()))
	for i := range pts {
		// Radius distributed as U^(1/d) makes volume-uniform samples.
		r := math.Pow(rng.Float64(), 1/float64(d))
		for j := range pts[i] {
			pts[i][j] *= r
		}
	}
	return pts
}
