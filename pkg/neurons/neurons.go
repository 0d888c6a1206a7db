// Package neurons implements the neuron models that drive ensemble dynamics:
// spiking and rate leaky integrate-and-fire, and a rectified linear model.
//
// All models map an input current J (already gain-scaled and biased) to an
// output activity. Spiking models emit impulses of area Amplitude per spike;
// rate models emit steady-state firing rates directly.
package neurons

// State holds per-neuron dynamic state for spiking models.
type State struct {
	// Voltage is the membrane potential, normalized so threshold is 1
	Voltage []float64
	// RefractoryTime is the remaining refractory window per neuron
	RefractoryTime []float64
}

// Model is the interface all neuron models implement.
type Model interface {
	// InitState allocates fresh dynamic state for n neurons
	InitState(n int) *State

	// Step advances the model one timestep. current and output must have
	// equal length matching the state size. For spiking models output
	// holds spike impulses (Amplitude/dt at spike steps, 0 otherwise);
	// for rate models it holds firing rates.
	Step(dt float64, current, output []float64, st *State)

	// Rates computes steady-state firing rates for the given currents
	Rates(current, output []float64)

	// GainBias solves for the gain and bias that give each neuron the
	// requested maximum firing rate at the edge of the unit range and
	// firing onset at its intercept.
	GainBias(maxRates, intercepts []float64) (gain, bias []float64, err error)

	// Validate checks model parameters
	Validate() error
}

// NewState allocates state for n neurons with zero voltage and no
// refractory carry-over.
func NewState(n int) *State {
	return &State{
		Voltage:        make([]float64, n),
		RefractoryTime: make([]float64, n),
	}
}

// Reset zeroes all dynamic state in place.
func (s *State) Reset() {
	for i := range s.Voltage {
		s.Voltage[i] = 0
		s.RefractoryTime[i] = 0
	}
}

// Len returns the number of neurons the state covers.
func (s *State) Len() int {
	return len(s.Voltage)
}
