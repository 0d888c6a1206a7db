// Package config loads simulation scenarios from YAML and turns them into
// runnable networks.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goodluckcjj/nengo/pkg/dists"
	"github.com/goodluckcjj/nengo/pkg/model"
	"github.com/goodluckcjj/nengo/pkg/neurons"
	"github.com/goodluckcjj/nengo/pkg/signals"
	"github.com/goodluckcjj/nengo/pkg/synapses"
	"github.com/goodluckcjj/nengo/pkg/validation"
)

// Config is a complete scenario: the network under simulation, how long to
// run it, and what to do with the recorded data afterwards.
type Config struct {
	Network     NetworkConfig      `yaml:"network" validate:"required"`
	Simulation  SimulationConfig   `yaml:"simulation"`
	Nodes       []NodeConfig       `yaml:"nodes" validate:"dive"`
	Ensembles   []EnsembleConfig   `yaml:"ensembles" validate:"dive"`
	Connections []ConnectionConfig `yaml:"connections" validate:"dive"`
	Probes      []ProbeConfig      `yaml:"probes" validate:"dive"`
	Export      ExportConfig       `yaml:"export"`
	Stream      StreamConfig       `yaml:"stream"`
}

// NetworkConfig names and seeds the network.
type NetworkConfig struct {
	Name string `yaml:"name" validate:"required"`
	Seed int64  `yaml:"seed"`
}

// SimulationConfig sets the time step and run length.
type SimulationConfig struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
}

// SignalConfig selects and parameterizes a node's output signal.
type SignalConfig struct {
	Kind string `yaml:"kind" validate:"required,oneof=sine constant ramp piecewise whitenoise"`

	// sine
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
	Phase     float64 `yaml:"phase"`

	// constant
	Value []float64 `yaml:"value"`

	// ramp
	Start float64 `yaml:"start"`
	Slope float64 `yaml:"slope"`

	// piecewise: breakpoint time -> value
	Points map[float64][]float64 `yaml:"points"`

	// whitenoise
	RMS        float64 `yaml:"rms"`
	Dimensions int     `yaml:"dimensions"`
	Seed       uint64  `yaml:"seed"`
}

// NodeConfig declares an input node.
type NodeConfig struct {
	Name   string       `yaml:"name" validate:"required"`
	Signal SignalConfig `yaml:"signal" validate:"required"`
}

// RangeConfig is a uniform distribution over [Low, High].
type RangeConfig struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// EnsembleConfig declares a neuron population.
type EnsembleConfig struct {
	Name       string       `yaml:"name" validate:"required"`
	Neurons    int          `yaml:"neurons" validate:"gt=0"`
	Dimensions int          `yaml:"dimensions" validate:"gt=0"`
	Radius     float64      `yaml:"radius"`
	Model      string       `yaml:"model" validate:"omitempty,oneof=lif lif_rate relu"`
	TauRC      float64      `yaml:"tau_rc"`
	TauRef     float64      `yaml:"tau_ref"`
	MaxRates   *RangeConfig `yaml:"max_rates"`
	Intercepts *RangeConfig `yaml:"intercepts"`
	Seed       int64        `yaml:"seed"`
}

// ConnectionConfig wires a node or ensemble into an ensemble.
type ConnectionConfig struct {
	Pre        string      `yaml:"pre" validate:"required"`
	Post       string      `yaml:"post" validate:"required"`
	Synapse    *float64    `yaml:"synapse"`
	Transform  [][]float64 `yaml:"transform"`
	EvalPoints int         `yaml:"eval_points" validate:"gte=0"`
}

// ProbeConfig attaches a recorder to a named object.
type ProbeConfig struct {
	Target      string   `yaml:"target" validate:"required"`
	Attr        string   `yaml:"attr" validate:"required,oneof=decoded spikes voltage input"`
	Synapse     *float64 `yaml:"synapse"`
	SampleEvery float64  `yaml:"sample_every" validate:"gte=0"`
}

// ExportConfig controls what happens to recorded data after a run.
type ExportConfig struct {
	Directory string `yaml:"directory"`
	CSV       bool   `yaml:"csv"`
	Recording bool   `yaml:"recording"`
}

// StreamConfig enables live frame publishing over an NNG pub socket.
type StreamConfig struct {
	Address string `yaml:"address"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates scenario YAML.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Simulation.Dt == 0 {
		c.Simulation.Dt = 0.001
	}
	if c.Simulation.Duration == 0 {
		c.Simulation.Duration = 1.0
	}
	if c.Network.Seed == 0 {
		c.Network.Seed = 1
	}
	for i := range c.Ensembles {
		e := &c.Ensembles[i]
		if e.Radius == 0 {
			e.Radius = 1
		}
		if e.Model == "" {
			e.Model = "lif"
		}
	}
}

// Validate checks the scenario beyond what struct tags can express:
// positive timings, resolvable names and consistent signal parameters.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	v := validation.New("scenario")
	v.Required("network.name", c.Network.Name)
	v.PositiveFloat("simulation.dt", c.Simulation.Dt)
	v.PositiveFloat("simulation.duration", c.Simulation.Duration)

	names := make(map[string]bool)
	for _, n := range c.Nodes {
		if names[n.Name] {
			v.Custom("nodes", dupErr(n.Name))
		}
		names[n.Name] = true
	}
	for _, e := range c.Ensembles {
		if names[e.Name] {
			v.Custom("ensembles", dupErr(e.Name))
		}
		names[e.Name] = true
	}

	for i, conn := range c.Connections {
		field := fmt.Sprintf("connections[%d]", i)
		if !names[conn.Pre] {
			v.Custom(field, unknownErr("pre", conn.Pre))
		}
		if !names[conn.Post] {
			v.Custom(field, unknownErr("post", conn.Post))
		}
		if conn.Synapse != nil && *conn.Synapse < 0 {
			v.NonNegativeFloat(field+".synapse", *conn.Synapse)
		}
	}
	for i, p := range c.Probes {
		field := fmt.Sprintf("probes[%d]", i)
		if !names[p.Target] {
			v.Custom(field, unknownErr("target", p.Target))
		}
		if p.Synapse != nil && *p.Synapse < 0 {
			v.NonNegativeFloat(field+".synapse", *p.Synapse)
		}
	}

	return v.Validate()
}

func dupErr(name string) func() error {
	return func() error { return fmt.Errorf("duplicate name %q", name) }
}

func unknownErr(role, name string) func() error {
	return func() error { return fmt.Errorf("%s references unknown object %q", role, name) }
}

// BuildNetwork constructs the model described by the scenario.
func (c *Config) BuildNetwork() (*model.Network, error) {
	net := model.New(c.Network.Name, model.WithSeed(c.Network.Seed))

	for _, nc := range c.Nodes {
		signal, err := buildSignal(nc.Signal)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", nc.Name, err)
		}
		if _, err := net.AddNode(nc.Name, signal); err != nil {
			return nil, err
		}
	}

	for _, ec := range c.Ensembles {
		opts := []model.EnsembleOption{model.WithRadius(ec.Radius)}
		nm, err := buildNeuronModel(ec)
		if err != nil {
			return nil, fmt.Errorf("ensemble %q: %w", ec.Name, err)
		}
		opts = append(opts, model.WithNeurons(nm))
		if ec.MaxRates != nil {
			opts = append(opts, model.WithMaxRates(dists.Uniform{Low: ec.MaxRates.Low, High: ec.MaxRates.High}))
		}
		if ec.Intercepts != nil {
			opts = append(opts, model.WithIntercepts(dists.Uniform{Low: ec.Intercepts.Low, High: ec.Intercepts.High}))
		}
		if ec.Seed != 0 {
			opts = append(opts, model.WithEnsembleSeed(ec.Seed))
		}
		if _, err := net.AddEnsemble(ec.Name, ec.Neurons, ec.Dimensions, opts...); err != nil {
			return nil, err
		}
	}

	for _, cc := range c.Connections {
		pre := net.Lookup(cc.Pre)
		post := net.Lookup(cc.Post)
		var opts []model.ConnectionOption
		if cc.Synapse != nil {
			opts = append(opts, model.WithSynapse(synapses.Lowpass{Tau: *cc.Synapse}))
		}
		if cc.Transform != nil {
			opts = append(opts, model.WithTransform(cc.Transform))
		}
		if cc.EvalPoints > 0 {
			opts = append(opts, model.WithEvalPoints(cc.EvalPoints))
		}
		if _, err := net.Connect(pre, post, opts...); err != nil {
			return nil, err
		}
	}

	for _, pc := range c.Probes {
		target := net.Lookup(pc.Target)
		var opts []model.ProbeOption
		if pc.Synapse != nil {
			opts = append(opts, model.WithProbeSynapse(synapses.Lowpass{Tau: *pc.Synapse}))
		}
		if pc.SampleEvery > 0 {
			opts = append(opts, model.WithSampleEvery(pc.SampleEvery))
		}
		if _, err := net.Probe(target, model.Attribute(pc.Attr), opts...); err != nil {
			return nil, err
		}
	}

	return net, nil
}

func buildSignal(sc SignalConfig) (signals.Signal, error) {
	switch sc.Kind {
	case "sine":
		s := signals.Sine{Amplitude: sc.Amplitude, Frequency: sc.Frequency, Phase: sc.Phase}
		if s.Amplitude == 0 {
			s.Amplitude = 1
		}
		return s, s.Validate()
	case "constant":
		s := signals.Constant{Value: sc.Value}
		return s, s.Validate()
	case "ramp":
		return signals.Ramp{Start: sc.Start, Slope: sc.Slope}, nil
	case "piecewise":
		return signals.NewPiecewise(sc.Points)
	case "whitenoise":
		return signals.WhiteNoise{RMS: sc.RMS, Dims: sc.Dimensions, Seed: sc.Seed}, nil
	default:
		return nil, fmt.Errorf("unknown signal kind %q", sc.Kind)
	}
}

func buildNeuronModel(ec EnsembleConfig) (neurons.Model, error) {
	switch ec.Model {
	case "lif", "":
		lif := neurons.NewLIF()
		if ec.TauRC > 0 {
			lif.TauRC = ec.TauRC
		}
		if ec.TauRef > 0 {
			lif.TauRef = ec.TauRef
		}
		return lif, lif.Validate()
	case "lif_rate":
		lif := neurons.NewLIF()
		if ec.TauRC > 0 {
			lif.TauRC = ec.TauRC
		}
		if ec.TauRef > 0 {
			lif.TauRef = ec.TauRef
		}
		rate := &neurons.LIFRate{LIF: *lif}
		return rate, rate.Validate()
	case "relu":
		relu := neurons.NewRectifiedLinear()
		return relu, relu.Validate()
	default:
		return nil, fmt.Errorf("unknown neuron model %q", ec.Model)
	}
}
