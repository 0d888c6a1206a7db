package solvers

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/goodluckcjj/nengo/pkg/dists"
	"github.com/goodluckcjj/nengo/pkg/neurons"
)

// buildTuning evaluates a small LIF population over sample points, the same
// activity matrix the builder hands to a solver.
func buildTuning(t *testing.T, nNeurons, nPoints int, seed uint64) (*mat.Dense, *mat.Dense, [][]float64) {
	t.Helper()

	src := rand.NewSource(seed)
	lif := neurons.NewLIF()

	maxRates := dists.Uniform{Low: 200, High: 400}.Sample(nNeurons, src)
	intercepts := dists.Uniform{Low: -0.9, High: 0.9}.Sample(nNeurons, src)
	gain, bias, err := lif.GainBias(maxRates, intercepts)
	if err != nil {
		t.Fatalf("GainBias failed: %v", err)
	}
	encoders := dists.UnitSphere(nNeurons, 1, src)

	points := dists.UnitBall(nPoints, 1, src)
	activities := mat.NewDense(nPoints, nNeurons, nil)
	targets := mat.NewDense(nPoints, 1, nil)

	current := make([]float64, nNeurons)
	rates := make([]float64, nNeurons)
	for p, x := range points {
		for i := 0; i < nNeurons; i++ {
			current[i] = gain[i]*encoders[i][0]*x[0] + bias[i]
		}
		lif.Rates(current, rates)
		activities.SetRow(p, rates)
		targets.Set(p, 0, x[0])
	}
	return activities, targets, points
}

func TestLstsqL2_DecodesIdentity(t *testing.T) {
	activities, targets, _ := buildTuning(t, 60, 400, 1)

	solver := NewLstsqL2()
	decoders, info, err := solver.Solve(activities, targets)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	rows, cols := decoders.Dims()
	if rows != 60 || cols != 1 {
		t.Fatalf("Expected 60x1 decoders, got %dx%d", rows, cols)
	}
	// 60 neurons decode the identity on [-1,1] to a few percent
	if info.RMSE() > 0.05 {
		t.Errorf("Decode RMSE %g too large", info.RMSE())
	}
}

func TestLstsqL2_RegularizationTradesAccuracy(t *testing.T) {
	activities, targets, _ := buildTuning(t, 40, 300, 2)

	_, tight, err := LstsqL2{Reg: 0.01}.Solve(activities, targets)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	_, loose, err := LstsqL2{Reg: 0.5}.Solve(activities, targets)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if tight.RMSE() >= loose.RMSE() {
		t.Errorf("Lower regularization should fit tighter: %g vs %g", tight.RMSE(), loose.RMSE())
	}
}

func TestLstsqL2_ShapeMismatch(t *testing.T) {
	a := mat.NewDense(10, 5, nil)
	y := mat.NewDense(9, 1, nil)
	if _, _, err := NewLstsqL2().Solve(a, y); err == nil {
		t.Error("Expected error for mismatched row counts")
	}
}

func TestLstsqL2_Deterministic(t *testing.T) {
	activities, targets, _ := buildTuning(t, 30, 200, 3)

	d1, _, err := NewLstsqL2().Solve(activities, targets)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	d2, _, err := NewLstsqL2().Solve(activities, targets)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if !mat.EqualApprox(d1, d2, 1e-15) {
		t.Error("Same inputs should produce identical decoders")
	}
}

func TestInfo_RMSE(t *testing.T) {
	info := Info{RMSES: []float64{0.1, 0.3}}
	if math.Abs(info.RMSE()-0.2) > 1e-12 {
		t.Errorf("Expected mean 0.2, got %g", info.RMSE())
	}
	if (Info{}).RMSE() != 0 {
		t.Error("Empty info should report 0")
	}
}
