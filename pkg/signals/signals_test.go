package signals

import (
	"math"
	"testing"
)

func TestSine_Eval(t *testing.T) {
	s := Sine{Amplitude: 2, Frequency: 1}

	if got := s.Eval(0)[0]; math.Abs(got) > 1e-12 {
		t.Errorf("sin at t=0 should be 0, got %g", got)
	}
	if got := s.Eval(0.25)[0]; math.Abs(got-2) > 1e-9 {
		t.Errorf("Expected peak 2 at quarter period, got %g", got)
	}
	if s.Dimensions() != 1 {
		t.Errorf("Expected 1 dimension, got %d", s.Dimensions())
	}
}

func TestSine_Phase(t *testing.T) {
	s := Sine{Amplitude: 1, Frequency: 1, Phase: math.Pi / 2}
	if got := s.Eval(0)[0]; math.Abs(got-1) > 1e-12 {
		t.Errorf("Expected cos-like start at 1, got %g", got)
	}
}

func TestConstant_EvalCopies(t *testing.T) {
	c := Constant{Value: []float64{0.5, -0.5}}

	out := c.Eval(1.0)
	out[0] = 99
	if c.Value[0] != 0.5 {
		t.Error("Eval must not expose internal storage")
	}
	if c.Dimensions() != 2 {
		t.Errorf("Expected 2 dimensions, got %d", c.Dimensions())
	}
}

func TestRamp_Eval(t *testing.T) {
	r := Ramp{Start: -1, Slope: 2}
	if got := r.Eval(0.5)[0]; math.Abs(got) > 1e-12 {
		t.Errorf("Expected 0 at t=0.5, got %g", got)
	}
}

func TestPiecewise_Eval(t *testing.T) {
	p, err := NewPiecewise(map[float64][]float64{
		0.1: {1},
		0.3: {-1},
	})
	if err != nil {
		t.Fatalf("NewPiecewise failed: %v", err)
	}

	cases := []struct {
		t    float64
		want float64
	}{
		{0.0, 0},
		{0.05, 0},
		{0.1, 1},
		{0.2, 1},
		{0.3, -1},
		{0.9, -1},
	}
	for _, c := range cases {
		if got := p.Eval(c.t)[0]; got != c.want {
			t.Errorf("Eval(%g) = %g, want %g", c.t, got, c.want)
		}
	}
}

func TestPiecewise_DimensionMismatch(t *testing.T) {
	_, err := NewPiecewise(map[float64][]float64{
		0.0: {1},
		0.5: {1, 2},
	})
	if err == nil {
		t.Fatal("Expected dimension mismatch error")
	}
}

func TestWhiteNoise_Deterministic(t *testing.T) {
	w := WhiteNoise{RMS: 0.5, Seed: 7}

	a := w.Eval(0.123)
	b := w.Eval(0.123)
	if a[0] != b[0] {
		t.Error("Eval should be deterministic for a fixed (seed, t)")
	}

	c := w.Eval(0.124)
	if a[0] == c[0] {
		t.Error("Different times should produce different noise")
	}
}
