package neurons

import (
	"fmt"
	"math"

	"github.com/goodluckcjj/nengo/pkg/validation"
)

// LIF is the spiking leaky integrate-and-fire model. The membrane voltage
// decays toward the input current with time constant TauRC; crossing the
// threshold (normalized to 1) emits a spike and holds the neuron in a
// refractory window of TauRef seconds. Spike times are interpolated within
// the step so firing rates stay accurate across timestep sizes.
type LIF struct {
	// TauRC is the membrane RC time constant in seconds
	TauRC float64
	// TauRef is the absolute refractory period in seconds
	TauRef float64
	// MinVoltage clips hyperpolarization; 0 disallows negative voltage
	MinVoltage float64
	// Amplitude scales the integral of each spike impulse
	Amplitude float64
}

// NewLIF returns a LIF model with default parameters.
func NewLIF() *LIF {
	l := &LIF{}
	l.Defaults()
	return l
}

// Defaults sets standard LIF parameters: 20 ms membrane time constant,
// 2 ms refractory period, unit spike amplitude.
func (l *LIF) Defaults() {
	l.TauRC = 0.02
	l.TauRef = 0.002
	l.MinVoltage = 0
	l.Amplitude = 1
}

// Validate checks LIF parameters
func (l *LIF) Validate() error {
	return validation.New("LIF").
		PositiveFloat("TauRC", l.TauRC).
		NonNegativeFloat("TauRef", l.TauRef).
		PositiveFloat("Amplitude", l.Amplitude).
		Custom("MinVoltage", func() error {
			if l.MinVoltage > 0 {
				return fmt.Errorf("min voltage %g must not exceed the resting potential 0", l.MinVoltage)
			}
			return nil
		}).
		Validate()
}

// InitState allocates voltage and refractory arrays for n neurons
func (l *LIF) InitState(n int) *State {
	return NewState(n)
}

// Step advances the membrane dynamics one timestep of dt seconds.
func (l *LIF) Step(dt float64, current, output []float64, st *State) {
	for i := range current {
		ref := st.RefractoryTime[i] - dt

		// Portion of this step spent integrating rather than refractory
		delta := dt - ref
		if delta < 0 {
			delta = 0
		} else if delta > dt {
			delta = dt
		}

		v := st.Voltage[i]
		j := current[i]
		v += (j - v) * -math.Expm1(-delta/l.TauRC)

		if v > 1 {
			output[i] = l.Amplitude / dt
			// Interpolate the threshold crossing inside the step, so the
			// refractory window starts at the true spike time.
			tSpike := dt + l.TauRC*math.Log1p(-(v-1)/(j-1))
			ref = l.TauRef + tSpike
			v = 0
		} else {
			output[i] = 0
			if v < l.MinVoltage {
				v = l.MinVoltage
			}
		}

		st.Voltage[i] = v
		st.RefractoryTime[i] = ref
	}
}

// Rates computes the analytic steady-state firing rate for each current.
func (l *LIF) Rates(current, output []float64) {
	for i, j := range current {
		if j > 1 {
			output[i] = l.Amplitude / (l.TauRef + l.TauRC*math.Log1p(1/(j-1)))
		} else {
			output[i] = 0
		}
	}
}

// GainBias solves for gain and bias from max rates and intercepts.
// Each neuron fires at maxRates[i] when driven at the edge of the unit
// range, and starts firing exactly at intercepts[i].
func (l *LIF) GainBias(maxRates, intercepts []float64) ([]float64, []float64, error) {
	if len(maxRates) != len(intercepts) {
		return nil, nil, fmt.Errorf("lif gain/bias: %d max rates but %d intercepts", len(maxRates), len(intercepts))
	}

	gain := make([]float64, len(maxRates))
	bias := make([]float64, len(maxRates))
	for i := range maxRates {
		rate := maxRates[i]
		icept := intercepts[i]

		if rate <= 0 {
			return nil, nil, fmt.Errorf("lif gain/bias: max rate %g at index %d must be positive", rate, i)
		}
		if l.TauRef > 0 && rate > 1/l.TauRef {
			return nil, nil, fmt.Errorf("lif gain/bias: max rate %g at index %d exceeds refractory limit %g", rate, i, 1/l.TauRef)
		}
		if icept >= 1 {
			return nil, nil, fmt.Errorf("lif gain/bias: intercept %g at index %d must be below 1", icept, i)
		}

		// Current that produces the max rate, inverted from the rate equation
		jMax := 1 / (1 - math.Exp((l.TauRef-1/rate)/l.TauRC))
		gain[i] = (jMax - 1) / (1 - icept)
		bias[i] = 1 - gain[i]*icept
	}
	return gain, bias, nil
}

// MaxRatesIntercepts inverts GainBias, recovering the max rate and
// intercept implied by each gain/bias pair.
func (l *LIF) MaxRatesIntercepts(gain, bias []float64) ([]float64, []float64) {
	maxRates := make([]float64, len(gain))
	intercepts := make([]float64, len(gain))
	jMax := make([]float64, len(gain))
	for i := range gain {
		intercepts[i] = (1 - bias[i]) / gain[i]
		jMax[i] = gain[i] + bias[i]
	}
	l.Rates(jMax, maxRates)
	return maxRates, intercepts
}
