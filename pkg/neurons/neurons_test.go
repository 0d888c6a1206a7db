package neurons

import (
	"math"
	"testing"
)

func TestLIF_GainBiasRoundTrip(t *testing.T) {
	lif := NewLIF()

	maxRates := []float64{200, 300, 400}
	intercepts := []float64{-0.5, 0, 0.5}

	gain, bias, err := lif.GainBias(maxRates, intercepts)
	if err != nil {
		t.Fatalf("GainBias failed: %v", err)
	}

	gotRates, gotIcepts := lif.MaxRatesIntercepts(gain, bias)
	for i := range maxRates {
		if math.Abs(gotRates[i]-maxRates[i]) > 1e-6 {
			t.Errorf("Max rate %d: got %g, want %g", i, gotRates[i], maxRates[i])
		}
		if math.Abs(gotIcepts[i]-intercepts[i]) > 1e-9 {
			t.Errorf("Intercept %d: got %g, want %g", i, gotIcepts[i], intercepts[i])
		}
	}
}

func TestLIF_GainBiasRejectsBadParams(t *testing.T) {
	lif := NewLIF()

	if _, _, err := lif.GainBias([]float64{600}, []float64{0}); err == nil {
		t.Error("Expected error for rate beyond refractory limit (500 Hz at 2ms)")
	}
	if _, _, err := lif.GainBias([]float64{100}, []float64{1.0}); err == nil {
		t.Error("Expected error for intercept at 1")
	}
	if _, _, err := lif.GainBias([]float64{100, 200}, []float64{0}); err == nil {
		t.Error("Expected error for mismatched lengths")
	}
}

func TestLIF_RatesBelowThreshold(t *testing.T) {
	lif := NewLIF()

	out := make([]float64, 3)
	lif.Rates([]float64{0, 0.5, 1.0}, out)
	for i, r := range out {
		if r != 0 {
			t.Errorf("Current %d at or below threshold should give rate 0, got %g", i, r)
		}
	}
}

// Drive a single LIF neuron with constant current and compare the observed
// spike count against the analytic rate.
func TestLIF_SpikeRateMatchesAnalytic(t *testing.T) {
	lif := NewLIF()
	dt := 0.001

	for _, j := range []float64{1.5, 2, 5, 10} {
		st := lif.InitState(1)
		current := []float64{j}
		output := []float64{0}

		spikes := 0
		steps := 10000 // 10 seconds
		for i := 0; i < steps; i++ {
			lif.Step(dt, current, output, st)
			if output[0] > 0 {
				spikes++
			}
		}
		observed := float64(spikes) / (float64(steps) * dt)

		want := make([]float64, 1)
		lif.Rates(current, want)

		// dt-discretization costs a little accuracy; 2% is plenty tight
		if math.Abs(observed-want[0]) > 0.02*want[0] {
			t.Errorf("J=%g: observed rate %g, analytic %g", j, observed, want[0])
		}
	}
}

func TestLIF_RefractoryBlocksSpiking(t *testing.T) {
	lif := NewLIF()
	dt := 0.0001

	st := lif.InitState(1)
	current := []float64{20} // strong drive
	output := []float64{0}

	var spikeSteps []int
	for i := 0; i < 1000; i++ {
		lif.Step(dt, current, output, st)
		if output[0] > 0 {
			spikeSteps = append(spikeSteps, i)
		}
	}

	if len(spikeSteps) < 2 {
		t.Fatalf("Expected multiple spikes, got %d", len(spikeSteps))
	}
	minGap := int(lif.TauRef/dt) - 1
	for i := 1; i < len(spikeSteps); i++ {
		if gap := spikeSteps[i] - spikeSteps[i-1]; gap < minGap {
			t.Fatalf("Inter-spike gap %d steps violates %d-step refractory window", gap, minGap)
		}
	}
}

func TestLIF_SpikeAmplitude(t *testing.T) {
	lif := NewLIF()
	dt := 0.001

	st := lif.InitState(1)
	output := []float64{0}
	for i := 0; i < 100; i++ {
		lif.Step(dt, []float64{5}, output, st)
		if output[0] > 0 {
			// Impulse integrates to Amplitude over one dt
			if math.Abs(output[0]*dt-lif.Amplitude) > 1e-12 {
				t.Fatalf("Spike impulse %g * dt != amplitude %g", output[0], lif.Amplitude)
			}
			return
		}
	}
	t.Fatal("Neuron never spiked under constant suprathreshold drive")
}

func TestLIF_MinVoltageClip(t *testing.T) {
	lif := NewLIF()
	dt := 0.001

	st := lif.InitState(1)
	output := []float64{0}
	for i := 0; i < 100; i++ {
		lif.Step(dt, []float64{-10}, output, st)
	}
	if st.Voltage[0] < lif.MinVoltage {
		t.Errorf("Voltage %g fell below MinVoltage %g", st.Voltage[0], lif.MinVoltage)
	}
}

func TestLIFRate_StepEqualsRates(t *testing.T) {
	m := NewLIFRate()

	current := []float64{0.5, 1.5, 3}
	want := make([]float64, 3)
	m.Rates(current, want)

	got := make([]float64, 3)
	m.Step(0.001, current, got, m.InitState(3))

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Step output %d = %g, want rate %g", i, got[i], want[i])
		}
	}
}

func TestRectifiedLinear_GainBias(t *testing.T) {
	r := NewRectifiedLinear()

	gain, bias, err := r.GainBias([]float64{100}, []float64{-0.5})
	if err != nil {
		t.Fatalf("GainBias failed: %v", err)
	}

	// At the intercept the neuron is silent
	out := make([]float64, 1)
	r.Rates([]float64{gain[0]*-0.5 + bias[0]}, out)
	if math.Abs(out[0]) > 1e-9 {
		t.Errorf("Expected 0 rate at intercept, got %g", out[0])
	}

	// At x=1 the neuron fires at its max rate
	r.Rates([]float64{gain[0]*1 + bias[0]}, out)
	if math.Abs(out[0]-100) > 1e-9 {
		t.Errorf("Expected 100 Hz at x=1, got %g", out[0])
	}
}

func TestModelValidate(t *testing.T) {
	bad := &LIF{TauRC: -1, TauRef: 0.002, Amplitude: 1}
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for negative TauRC")
	}
	if err := NewLIF().Validate(); err != nil {
		t.Errorf("Default LIF should validate: %v", err)
	}
	if err := NewRectifiedLinear().Validate(); err != nil {
		t.Errorf("Default RectifiedLinear should validate: %v", err)
	}
}
