// Package solvers computes linear decoders that map population activity
// back to represented values.
package solvers

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/goodluckcjj/nengo/pkg/validation"
)

// Info reports solve quality.
type Info struct {
	// RMSES holds the residual root-mean-square error per output dimension
	RMSES []float64
}

// RMSE returns the mean residual error across output dimensions.
func (i Info) RMSE() float64 {
	if len(i.RMSES) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range i.RMSES {
		sum += r
	}
	return sum / float64(len(i.RMSES))
}

// Solver computes decoders D (nNeurons x dims) from an activity matrix A
// (nPoints x nNeurons) and a target matrix Y (nPoints x dims), minimizing
// ||A*D - Y||.
type Solver interface {
	Solve(activities, targets *mat.Dense) (*mat.Dense, Info, error)
	Name() string
}

// LstsqL2 solves least squares with L2 regularization scaled to the largest
// activity, the standard choice for decoding noisy spike trains.
type LstsqL2 struct {
	// Reg is the regularization as a fraction of the maximum activity
	Reg float64
}

// NewLstsqL2 returns the solver with default regularization.
func NewLstsqL2() LstsqL2 {
	return LstsqL2{Reg: 0.1}
}

// Name identifies the solver in logs and metrics
func (s LstsqL2) Name() string { return "lstsq_l2" }

// Validate checks solver parameters
func (s LstsqL2) Validate() error {
	return validation.New("LstsqL2").
		NonNegativeFloat("Reg", s.Reg).
		Validate()
}

// Solve computes regularized least-squares decoders via the normal
// equations: (AᵀA + m·σ²·I) D = AᵀY with σ = Reg·max|A|.
func (s LstsqL2) Solve(activities, targets *mat.Dense) (*mat.Dense, Info, error) {
	m, n := activities.Dims()
	mt, d := targets.Dims()
	if m != mt {
		return nil, Info{}, fmt.Errorf("lstsq_l2: %d activity rows but %d target rows", m, mt)
	}
	if m == 0 || n == 0 {
		return nil, Info{}, fmt.Errorf("lstsq_l2: empty activity matrix (%dx%d)", m, n)
	}

	sigma := s.Reg * maxAbs(activities)

	var gram mat.Dense
	gram.Mul(activities.T(), activities)
	ridge := float64(m) * sigma * sigma
	for i := 0; i < n; i++ {
		gram.Set(i, i, gram.At(i, i)+ridge)
	}

	var aty mat.Dense
	aty.Mul(activities.T(), targets)

	decoders := mat.NewDense(n, d, nil)
	if err := decoders.Solve(&gram, &aty); err != nil {
		// A singular gram matrix means the ridge was too small for this
		// activity scale; escalate once before giving up.
		for i := 0; i < n; i++ {
			gram.Set(i, i, gram.At(i, i)+1e-8*float64(m))
		}
		if err := decoders.Solve(&gram, &aty); err != nil {
			return nil, Info{}, fmt.Errorf("lstsq_l2: normal equations singular: %w", err)
		}
	}

	return decoders, residuals(activities, decoders, targets), nil
}

// residuals computes per-dimension RMSE of A*D against Y.
func residuals(activities, decoders, targets *mat.Dense) Info {
	var approx mat.Dense
	approx.Mul(activities, decoders)

	m, d := targets.Dims()
	rmses := make([]float64, d)
	for j := 0; j < d; j++ {
		sum := 0.0
		for i := 0; i < m; i++ {
			diff := approx.At(i, j) - targets.At(i, j)
			sum += diff * diff
		}
		rmses[j] = math.Sqrt(sum / float64(m))
	}
	return Info{RMSES: rmses}
}

func maxAbs(m *mat.Dense) float64 {
	rows, cols := m.Dims()
	max := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := math.Abs(m.At(i, j)); v > max {
				max = v
			}
		}
	}
	return max
}
