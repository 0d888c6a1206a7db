package sim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/goodluckcjj/nengo/pkg/logging"
	"github.com/goodluckcjj/nengo/pkg/model"
	"github.com/goodluckcjj/nengo/pkg/neurons"
	"github.com/goodluckcjj/nengo/pkg/signals"
	"github.com/goodluckcjj/nengo/pkg/synapses"
)

func quietOpts(extra ...Option) []Option {
	return append([]Option{WithLogger(logging.NewNopLogger())}, extra...)
}

// buildConstantNetwork wires a constant input into a single ensemble with
// a decoded probe, the smallest network that exercises the full pipeline.
func buildConstantNetwork(t *testing.T, value float64, nNeurons int) (*model.Network, *model.Probe) {
	t.Helper()
	net := model.New("constant", model.WithSeed(7))

	in, err := net.AddNode("input", signals.Constant{Value: []float64{value}})
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	ens, err := net.AddEnsemble("neurons", nNeurons, 1)
	if err != nil {
		t.Fatalf("AddEnsemble failed: %v", err)
	}
	if _, err := net.Connect(in, ens); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	probe, err := net.Probe(ens, model.Decoded,
		model.WithProbeSynapse(synapses.Lowpass{Tau: 0.01}))
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	return net, probe
}

func TestSimulator_RepresentsConstant(t *testing.T) {
	net, probe := buildConstantNetwork(t, 0.5, 100)

	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	defer s.Close()

	if err := s.Run(0.5); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := s.Data(probe)
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}
	if len(data) != 500 {
		t.Fatalf("Expected 500 rows, got %d", len(data))
	}

	// Average over the settled second half
	var sum float64
	for _, row := range data[250:] {
		sum += row[0]
	}
	mean := sum / 250
	if math.Abs(mean-0.5) > 0.1 {
		t.Errorf("Decoded mean %.3f, want 0.5 ± 0.1", mean)
	}
}

func TestSimulator_TracksSine(t *testing.T) {
	net := model.New("sine", model.WithSeed(11))
	in, _ := net.AddNode("input", signals.Sine{Amplitude: 0.8, Frequency: 1})
	ens, _ := net.AddEnsemble("neurons", 100, 1)
	if _, err := net.Connect(in, ens); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	probe, _ := net.Probe(ens, model.Decoded,
		model.WithProbeSynapse(synapses.Lowpass{Tau: 0.01}))

	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	defer s.Close()

	if err := s.Run(1.0); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, _ := s.Data(probe)
	times, _ := s.Times(probe)

	// After the filters settle the decoded trace should follow the input
	// closely; the filter lag at 1 Hz is well under the tolerance.
	var sumSq float64
	count := 0
	for i := 200; i < len(data); i++ {
		want := 0.8 * math.Sin(2*math.Pi*times[i])
		diff := data[i][0] - want
		sumSq += diff * diff
		count++
	}
	rmse := math.Sqrt(sumSq / float64(count))
	if rmse > 0.2 {
		t.Errorf("Decoded sine RMSE %.3f, want < 0.2", rmse)
	}
}

func TestSimulator_CommunicationChannel(t *testing.T) {
	net := model.New("channel", model.WithSeed(3))
	in, _ := net.AddNode("input", signals.Constant{Value: []float64{0.6}})
	a, _ := net.AddEnsemble("a", 80, 1)
	b, _ := net.AddEnsemble("b", 80, 1)
	if _, err := net.Connect(in, a); err != nil {
		t.Fatalf("Connect input failed: %v", err)
	}
	if _, err := net.Connect(a, b, model.WithSynapse(synapses.Lowpass{Tau: 0.01})); err != nil {
		t.Fatalf("Connect a->b failed: %v", err)
	}
	probe, _ := net.Probe(b, model.Decoded,
		model.WithProbeSynapse(synapses.Lowpass{Tau: 0.01}))

	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	defer s.Close()

	if err := s.Run(0.6); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, _ := s.Data(probe)
	var sum float64
	n := 0
	for _, row := range data[400:] {
		sum += row[0]
		n++
	}
	mean := sum / float64(n)
	if math.Abs(mean-0.6) > 0.15 {
		t.Errorf("Relayed value %.3f, want 0.6 ± 0.15", mean)
	}
}

func TestSimulator_TransformScales(t *testing.T) {
	net := model.New("transform", model.WithSeed(5))
	in, _ := net.AddNode("input", signals.Constant{Value: []float64{0.25}})
	ens, _ := net.AddEnsemble("neurons", 100, 1)
	if _, err := net.Connect(in, ens, model.WithTransform([][]float64{{2}})); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	probe, _ := net.Probe(ens, model.Decoded,
		model.WithProbeSynapse(synapses.Lowpass{Tau: 0.01}))

	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	defer s.Close()

	if err := s.Run(0.5); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, _ := s.Data(probe)
	var sum float64
	for _, row := range data[250:] {
		sum += row[0]
	}
	mean := sum / 250
	if math.Abs(mean-0.5) > 0.1 {
		t.Errorf("Transformed value %.3f, want 0.5 ± 0.1", mean)
	}
}

func TestSimulator_FunctionOnConnection(t *testing.T) {
	net := model.New("square", model.WithSeed(9))
	in, _ := net.AddNode("input", signals.Constant{Value: []float64{0.7}})
	ens, _ := net.AddEnsemble("neurons", 100, 1)
	square := func(x []float64) []float64 { return []float64{x[0] * x[0]} }
	if _, err := net.Connect(in, ens, model.WithFunction(square, 1)); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	probe, _ := net.Probe(ens, model.Decoded,
		model.WithProbeSynapse(synapses.Lowpass{Tau: 0.01}))

	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	defer s.Close()

	if err := s.Run(0.5); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, _ := s.Data(probe)
	var sum float64
	for _, row := range data[250:] {
		sum += row[0]
	}
	mean := sum / 250
	if math.Abs(mean-0.49) > 0.1 {
		t.Errorf("f(0.7)=0.49 decoded as %.3f, want ± 0.1", mean)
	}
}

func TestSimulator_Deterministic(t *testing.T) {
	run := func() [][]float64 {
		net, probe := buildConstantNetwork(t, 0.3, 50)
		s, err := NewSimulator(net, quietOpts()...)
		if err != nil {
			t.Fatalf("NewSimulator failed: %v", err)
		}
		defer s.Close()
		if err := s.Run(0.2); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		data, _ := s.Data(probe)
		return data
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("Row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("Runs diverge at row %d col %d: %v vs %v", i, j, first[i][j], second[i][j])
			}
		}
	}
}

func TestSimulator_SpikeProbe(t *testing.T) {
	net := model.New("spikes", model.WithSeed(13))
	in, _ := net.AddNode("input", signals.Constant{Value: []float64{0.9}})
	ens, _ := net.AddEnsemble("neurons", 20, 1)
	if _, err := net.Connect(in, ens); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	probe, _ := net.Probe(ens, model.Spikes)

	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	defer s.Close()

	if err := s.Run(0.5); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, _ := s.Data(probe)
	if len(data) != 500 {
		t.Fatalf("Expected 500 rows, got %d", len(data))
	}
	if len(data[0]) != 20 {
		t.Fatalf("Expected 20 columns, got %d", len(data[0]))
	}

	// With a strong input some neurons must fire, and every spike value
	// is either zero or the impulse amplitude 1/dt.
	total := 0
	for _, row := range data {
		for _, v := range row {
			if v == 0 {
				continue
			}
			total++
			if math.Abs(v-1000) > 1e-9 {
				t.Fatalf("Spike amplitude %v, want 1/dt = 1000", v)
			}
		}
	}
	if total == 0 {
		t.Error("No spikes recorded for a strongly driven population")
	}
}

func TestSimulator_SampleEvery(t *testing.T) {
	net := model.New("throttled", model.WithSeed(2))
	in, _ := net.AddNode("input", signals.Constant{Value: []float64{0.1}})
	ens, _ := net.AddEnsemble("neurons", 10, 1)
	if _, err := net.Connect(in, ens); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	probe, _ := net.Probe(ens, model.Decoded, model.WithSampleEvery(0.01))

	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	defer s.Close()

	if err := s.Run(0.1); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, _ := s.Data(probe)
	if len(data) != 10 {
		t.Errorf("Expected 10 throttled rows over 100 steps, got %d", len(data))
	}
	times, _ := s.Times(probe)
	if len(times) > 0 && math.Abs(times[0]-0.01) > 1e-9 {
		t.Errorf("First sample at t=%v, want 0.01", times[0])
	}
}

func TestSimulator_DataReturnsCopies(t *testing.T) {
	net, probe := buildConstantNetwork(t, 0.2, 20)
	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	defer s.Close()
	if err := s.Run(0.05); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, _ := s.Data(probe)
	original := data[0][0]
	data[0][0] = 42

	again, _ := s.Data(probe)
	if again[0][0] != original {
		t.Error("Mutating returned data changed the recording")
	}
}

func TestSimulator_TrangeAndTime(t *testing.T) {
	net, _ := buildConstantNetwork(t, 0.1, 10)
	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	defer s.Close()

	if err := s.RunSteps(10); err != nil {
		t.Fatalf("RunSteps failed: %v", err)
	}

	tr := s.Trange()
	if len(tr) != 10 {
		t.Fatalf("Expected 10 times, got %d", len(tr))
	}
	if math.Abs(tr[0]-0.001) > 1e-12 || math.Abs(tr[9]-0.01) > 1e-12 {
		t.Errorf("Trange endpoints %v..%v, want 0.001..0.01", tr[0], tr[9])
	}
	if got := s.Time(); math.Abs(got-0.01) > 1e-12 {
		t.Errorf("Time() = %v, want 0.01", got)
	}
	if got := s.Steps(); got != 10 {
		t.Errorf("Steps() = %d, want 10", got)
	}
}

func TestSimulator_ResetReplays(t *testing.T) {
	net, probe := buildConstantNetwork(t, 0.4, 40)
	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	defer s.Close()

	if err := s.Run(0.1); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	first, _ := s.Data(probe)

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if s.Steps() != 0 {
		t.Fatalf("Steps() = %d after reset, want 0", s.Steps())
	}
	if data, _ := s.Data(probe); len(data) != 0 {
		t.Fatalf("Probe data survived reset: %d rows", len(data))
	}

	if err := s.Run(0.1); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	second, _ := s.Data(probe)

	if len(first) != len(second) {
		t.Fatalf("Row counts differ after reset: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i][0] != second[i][0] {
			t.Fatalf("Replay diverges at row %d: %v vs %v", i, first[i][0], second[i][0])
		}
	}
}

func TestSimulator_RunContextCancel(t *testing.T) {
	net, _ := buildConstantNetwork(t, 0.1, 10)
	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.RunContext(ctx, 1.0); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSimulator_ClosedRejectsRun(t *testing.T) {
	net, _ := buildConstantNetwork(t, 0.1, 10)
	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	s.Close()

	if err := s.Run(0.01); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	// Double close is harmless
	if err := s.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}

func TestSimulator_SubscribeProbe(t *testing.T) {
	net, probe := buildConstantNetwork(t, 0.5, 30)
	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	defer s.Close()

	sub, err := s.SubscribeProbe(context.Background(), probe.ObjectName())
	if err != nil {
		t.Fatalf("SubscribeProbe failed: %v", err)
	}

	if err := s.RunSteps(5); err != nil {
		t.Fatalf("RunSteps failed: %v", err)
	}

	select {
	case f := <-sub.C():
		if f.Probe != probe.ObjectName() || f.Step != 1 {
			t.Errorf("Unexpected first frame: %+v", f)
		}
	case <-time.After(time.Second):
		t.Fatal("No frame delivered")
	}

	if _, err := s.SubscribeProbe(context.Background(), "nope"); err == nil {
		t.Error("Expected error for unknown probe")
	}
}

func TestSimulator_InvalidDt(t *testing.T) {
	net, _ := buildConstantNetwork(t, 0.1, 10)
	if _, err := NewSimulator(net, quietOpts(WithDt(0))...); err == nil {
		t.Error("Expected error for zero dt")
	}
	if _, err := NewSimulator(net, quietOpts(WithDt(-0.001))...); err == nil {
		t.Error("Expected error for negative dt")
	}
}

func TestSimulator_RejectsVoltageProbeOnRateModel(t *testing.T) {
	net := model.New("rate", model.WithSeed(3))
	ens, err := net.AddEnsemble("neurons", 10, 1, model.WithNeurons(neurons.NewLIFRate()))
	if err != nil {
		t.Fatalf("AddEnsemble failed: %v", err)
	}
	if _, err := net.Probe(ens, model.Voltage,
		model.WithProbeSynapse(synapses.Lowpass{Tau: 0.01})); err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	_, err = NewSimulator(net, quietOpts()...)
	if !errors.Is(err, model.ErrUnknownAttribute) {
		t.Errorf("Expected ErrUnknownAttribute for rate-model voltage probe, got %v", err)
	}
}

func TestSimulator_EncodersAndGainBias(t *testing.T) {
	net := model.New("introspect", model.WithSeed(21))
	ens, _ := net.AddEnsemble("neurons", 30, 2)

	s, err := NewSimulator(net, quietOpts()...)
	if err != nil {
		t.Fatalf("NewSimulator failed: %v", err)
	}
	defer s.Close()

	enc, err := s.Encoders(ens)
	if err != nil {
		t.Fatalf("Encoders failed: %v", err)
	}
	if len(enc) != 30 || len(enc[0]) != 2 {
		t.Fatalf("Encoder shape %dx%d, want 30x2", len(enc), len(enc[0]))
	}
	for i, row := range enc {
		norm := math.Hypot(row[0], row[1])
		if math.Abs(norm-1) > 1e-9 {
			t.Fatalf("Encoder %d has norm %v, want 1", i, norm)
		}
	}

	gain, bias, err := s.GainBias(ens)
	if err != nil {
		t.Fatalf("GainBias failed: %v", err)
	}
	if len(gain) != 30 || len(bias) != 30 {
		t.Fatalf("GainBias lengths %d/%d, want 30", len(gain), len(bias))
	}
	for i := range gain {
		if gain[i] <= 0 {
			t.Fatalf("Gain %d = %v, want positive", i, gain[i])
		}
	}
}
