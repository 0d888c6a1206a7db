// Package analysis provides offline helpers for recorded simulation data:
// spike extraction, error measures, tuning curves and the encoder-similarity
// ordering used to make raster plots readable.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/goodluckcjj/nengo/pkg/neurons"
)

// SpikeEvent is one neuron firing at one sample time.
type SpikeEvent struct {
	Neuron int
	Time   float64
}

// SpikeEvents extracts firing events from a recorded spike matrix
// (rows over time, one column per neuron). Any nonzero entry counts as a
// spike; times supplies the sample time per row.
func SpikeEvents(spikes [][]float64, times []float64) ([]SpikeEvent, error) {
	if len(spikes) != len(times) {
		return nil, fmt.Errorf("analysis: %d spike rows but %d times", len(spikes), len(times))
	}
	var events []SpikeEvent
	for i, row := range spikes {
		for j, v := range row {
			if v != 0 {
				events = append(events, SpikeEvent{Neuron: j, Time: times[i]})
			}
		}
	}
	return events, nil
}

// SpikeCounts sums the spikes fired by each neuron across a recording.
func SpikeCounts(spikes [][]float64) []int {
	if len(spikes) == 0 {
		return nil
	}
	counts := make([]int, len(spikes[0]))
	for _, row := range spikes {
		for j, v := range row {
			if v != 0 {
				counts[j]++
			}
		}
	}
	return counts
}

// RMSE computes the root-mean-square error between two recordings of the
// same shape, pooled over all rows and columns.
func RMSE(actual, target [][]float64) (float64, error) {
	if len(actual) != len(target) {
		return 0, fmt.Errorf("analysis: %d rows vs %d rows", len(actual), len(target))
	}
	var sumSq float64
	n := 0
	for i := range actual {
		if len(actual[i]) != len(target[i]) {
			return 0, fmt.Errorf("analysis: row %d has %d cols vs %d", i, len(actual[i]), len(target[i]))
		}
		for j := range actual[i] {
			d := actual[i][j] - target[i][j]
			sumSq += d * d
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return math.Sqrt(sumSq / float64(n)), nil
}

// SimilarityOrder returns a permutation of neuron indices that places
// neurons with similar preferred directions next to each other, which turns
// an arbitrary raster into visible bands. One-dimensional encoders sort by
// value; higher dimensions chain greedily by cosine similarity starting
// from the first neuron.
func SimilarityOrder(encoders [][]float64) []int {
	n := len(encoders)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if n == 0 {
		return order
	}

	if len(encoders[0]) == 1 {
		sort.SliceStable(order, func(a, b int) bool {
			return encoders[order[a]][0] > encoders[order[b]][0]
		})
		return order
	}

	used := make([]bool, n)
	order[0] = 0
	used[0] = true
	for i := 1; i < n; i++ {
		prev := encoders[order[i-1]]
		best, bestSim := -1, math.Inf(-1)
		for j := 0; j < n; j++ {
			if used[j] {
				continue
			}
			sim := cosine(prev, encoders[j])
			if sim > bestSim {
				best, bestSim = j, sim
			}
		}
		order[i] = best
		used[best] = true
	}
	return order
}

// ReorderColumns permutes the columns of a recording so column i of the
// result is column order[i] of the input. Used with SimilarityOrder to
// sort spike rasters.
func ReorderColumns(data [][]float64, order []int) ([][]float64, error) {
	out := make([][]float64, len(data))
	for i, row := range data {
		if len(order) != len(row) {
			return nil, fmt.Errorf("analysis: order has %d entries but row %d has %d cols", len(order), i, len(row))
		}
		out[i] = make([]float64, len(row))
		for j, src := range order {
			out[i][j] = row[src]
		}
	}
	return out, nil
}

// TuningCurves evaluates each neuron's steady-state firing rate at the
// given input points. gain, bias and encoders come from the build (see the
// simulator's GainBias and Encoders accessors); points are rows in the
// represented space.
func TuningCurves(m neurons.Model, gain, bias []float64, encoders [][]float64, points [][]float64) ([][]float64, error) {
	n := len(gain)
	if len(bias) != n || len(encoders) != n {
		return nil, fmt.Errorf("analysis: gain/bias/encoders lengths %d/%d/%d differ", len(gain), len(bias), len(encoders))
	}

	rates := make([][]float64, len(points))
	current := make([]float64, n)
	for i, x := range points {
		for j := 0; j < n; j++ {
			if len(encoders[j]) != len(x) {
				return nil, fmt.Errorf("analysis: encoder %d has %d dims but point has %d", j, len(encoders[j]), len(x))
			}
			current[j] = gain[j]*floats.Dot(encoders[j], x) + bias[j]
		}
		rates[i] = make([]float64, n)
		m.Rates(current, rates[i])
	}
	return rates, nil
}

func cosine(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
