package sim

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/goodluckcjj/nengo/pkg/dists"
	"github.com/goodluckcjj/nengo/pkg/logging"
	"github.com/goodluckcjj/nengo/pkg/metrics"
	"github.com/goodluckcjj/nengo/pkg/model"
	"github.com/goodluckcjj/nengo/pkg/neurons"
	"github.com/goodluckcjj/nengo/pkg/solvers"
	"github.com/goodluckcjj/nengo/pkg/synapses"
)

// DefaultEvalPoints is the number of decoder evaluation points used when a
// connection does not specify its own.
const DefaultEvalPoints = 500

// builtEnsemble carries the sampled tuning and the per-step state of one
// ensemble. scaledEncoders already folds in gain and radius, so the input
// current is scaledEncoders·x + bias.
type builtEnsemble struct {
	ens *model.Ensemble

	gain           []float64
	bias           []float64
	scaledEncoders [][]float64
	encoders       [][]float64

	state   *neurons.State
	input   []float64
	current []float64
	output  []float64
}

// builtNode evaluates a node's signal once per step into value.
type builtNode struct {
	node  *model.Node
	value []float64
}

// builtConnection is the runtime form of a connection. For ensemble
// sources the function is folded into decoders; the transform, when
// present, is applied after decoding.
type builtConnection struct {
	conn *model.Connection

	preEns  *builtEnsemble
	preNode *builtNode
	post    *builtEnsemble

	decoders  [][]float64
	transform [][]float64
	syn       synapses.Step

	decoded []float64
	value   []float64
}

// builtProbe records one signal. sample returns the raw row for the
// current step; the optional synapse filters it before storage.
type builtProbe struct {
	probe      *model.Probe
	everySteps uint64
	syn        synapses.Step
	sample     func() []float64

	times []float64
	rows  [][]float64
}

type builtNetwork struct {
	ensembles   []*builtEnsemble
	nodes       []*builtNode
	connections []*builtConnection
	probes      []*builtProbe

	ensembleIndex map[string]*builtEnsemble
	nodeIndex     map[string]*builtNode
	probeIndex    map[string]*builtProbe
}

// build samples tuning curves, solves decoders and allocates all run-time
// state for the network at the given time step.
func build(net *model.Network, dt float64, log logging.Logger, reg *metrics.Registry) (*builtNetwork, error) {
	bn := &builtNetwork{
		ensembleIndex: make(map[string]*builtEnsemble),
		nodeIndex:     make(map[string]*builtNode),
		probeIndex:    make(map[string]*builtProbe),
	}

	for i, ens := range net.Ensembles() {
		seed := ens.Seed
		if seed == 0 {
			seed = net.Seed() + int64(i) + 1
		}
		be, err := buildEnsemble(ens, seed)
		if err != nil {
			return nil, fmt.Errorf("ensemble %q: %w", ens.ObjectName(), err)
		}
		bn.ensembles = append(bn.ensembles, be)
		bn.ensembleIndex[ens.ObjectID()] = be
		log.Debug("built ensemble",
			logging.Ensemble(ens.ObjectName()),
			logging.Neurons(ens.NNeurons),
			logging.Dimensions(ens.Dims),
			logging.Seed(seed))
	}

	for _, node := range net.Nodes() {
		bnode := &builtNode{node: node, value: make([]float64, node.SizeOut())}
		bn.nodes = append(bn.nodes, bnode)
		bn.nodeIndex[node.ObjectID()] = bnode
	}

	for i, conn := range net.Connections() {
		bc, err := buildConnection(bn, conn, dt, net.Seed()+int64(i)+7919, reg)
		if err != nil {
			return nil, fmt.Errorf("connection %q: %w", conn.Name(), err)
		}
		bn.connections = append(bn.connections, bc)
	}

	for _, probe := range net.Probes() {
		bp, err := buildProbe(bn, probe, dt, net.Seed(), reg)
		if err != nil {
			return nil, fmt.Errorf("probe %q: %w", probe.ObjectName(), err)
		}
		bn.probes = append(bn.probes, bp)
		bn.probeIndex[probe.ObjectName()] = bp
	}

	return bn, nil
}

func buildEnsemble(ens *model.Ensemble, seed int64) (*builtEnsemble, error) {
	src := rand.NewSource(uint64(seed))
	n, d := ens.NNeurons, ens.Dims

	maxRates := ens.MaxRates.Sample(n, src)
	intercepts := ens.Intercepts.Sample(n, src)

	gain, bias, err := ens.Neurons.GainBias(maxRates, intercepts)
	if err != nil {
		return nil, err
	}

	var encoders [][]float64
	if ens.Encoders != nil {
		encoders = make([][]float64, n)
		for i, row := range ens.Encoders {
			encoders[i] = normalize(row)
		}
	} else {
		encoders = dists.UnitSphere(n, d, src)
	}

	scaled := make([][]float64, n)
	for i := range scaled {
		scaled[i] = make([]float64, d)
		for j := range scaled[i] {
			scaled[i][j] = gain[i] * encoders[i][j] / ens.Radius
		}
	}

	return &builtEnsemble{
		ens:            ens,
		gain:           gain,
		bias:           bias,
		scaledEncoders: scaled,
		encoders:       encoders,
		state:          ens.Neurons.InitState(n),
		input:          make([]float64, d),
		current:        make([]float64, n),
		output:         make([]float64, n),
	}, nil
}

func buildConnection(bn *builtNetwork, conn *model.Connection, dt float64, seed int64, reg *metrics.Registry) (*builtConnection, error) {
	post, ok := bn.ensembleIndex[conn.Post.ObjectID()]
	if !ok {
		return nil, fmt.Errorf("post ensemble %q not built", conn.Post.ObjectName())
	}

	bc := &builtConnection{
		conn:      conn,
		post:      post,
		transform: conn.Transform,
		value:     make([]float64, conn.TransmitSize()),
	}
	if conn.Synapse != nil {
		bc.syn = conn.Synapse.MakeStep(conn.TransmitSize(), dt)
	}

	switch pre := conn.Pre.(type) {
	case *model.Node:
		bc.preNode = bn.nodeIndex[pre.ObjectID()]
		size := pre.SizeOut()
		if conn.Function != nil {
			size = conn.FunctionSize
		}
		bc.decoded = make([]float64, size)
	case *model.Ensemble:
		bc.preEns = bn.ensembleIndex[pre.ObjectID()]
		size := pre.SizeOut()
		if conn.Function != nil {
			size = conn.FunctionSize
		}
		decoders, info, err := solveDecoders(bc.preEns, conn.Function, size, conn.Solver, evalPoints(conn.EvalPoints), seed)
		if err != nil {
			reg.RecordDecoderSolve(conn.Solver.Name(), "error", 0)
			return nil, err
		}
		reg.RecordDecoderSolve(conn.Solver.Name(), "ok", info.RMSE())
		bc.decoders = decoders
		bc.decoded = make([]float64, size)
	default:
		return nil, fmt.Errorf("%w: unsupported source %q", model.ErrInvalidTarget, conn.Pre.ObjectName())
	}

	return bc, nil
}

func buildProbe(bn *builtNetwork, probe *model.Probe, dt float64, netSeed int64, reg *metrics.Registry) (*builtProbe, error) {
	bp := &builtProbe{
		probe:      probe,
		everySteps: sampleSteps(probe.SampleEvery, dt),
	}
	if probe.Synapse != nil {
		bp.syn = probe.Synapse.MakeStep(probe.Columns(), dt)
	}

	switch target := probe.Target.(type) {
	case *model.Node:
		if probe.Attr != model.Decoded {
			return nil, fmt.Errorf("%w: nodes only expose the decoded attribute", model.ErrUnknownAttribute)
		}
		bnode := bn.nodeIndex[target.ObjectID()]
		bp.sample = func() []float64 { return bnode.value }

	case *model.Ensemble:
		be := bn.ensembleIndex[target.ObjectID()]
		switch probe.Attr {
		case model.Spikes:
			bp.sample = func() []float64 { return be.output }
		case model.Voltage:
			if len(be.state.Voltage) != target.NNeurons {
				return nil, fmt.Errorf("%w: %q: neuron model %T keeps no membrane voltage", model.ErrUnknownAttribute, probe.ObjectName(), target.Neurons)
			}
			bp.sample = func() []float64 { return be.state.Voltage }
		case model.Input:
			bp.sample = func() []float64 { return be.input }
		case model.Decoded:
			decoders, info, err := solveDecoders(be, nil, target.SizeOut(), solvers.NewLstsqL2(), DefaultEvalPoints, netSeed+int64(len(bn.probes))+104729)
			if err != nil {
				reg.RecordDecoderSolve("lstsq_l2", "error", 0)
				return nil, err
			}
			reg.RecordDecoderSolve("lstsq_l2", "ok", info.RMSE())
			decoded := make([]float64, target.SizeOut())
			bp.sample = func() []float64 {
				applyDecoders(decoders, be.output, decoded)
				return decoded
			}
		default:
			return nil, fmt.Errorf("%w: %q", model.ErrUnknownAttribute, probe.Attr)
		}

	default:
		return nil, fmt.Errorf("%w: cannot probe %q", model.ErrInvalidTarget, probe.Target.ObjectName())
	}

	return bp, nil
}

// solveDecoders computes the linear readout that reconstructs fn(x) (or x
// itself when fn is nil) from the ensemble's firing rates, evaluated at
// points drawn from the represented ball.
func solveDecoders(be *builtEnsemble, fn func([]float64) []float64, size int, solver solvers.Solver, nPoints int, seed int64) ([][]float64, solvers.Info, error) {
	src := rand.NewSource(uint64(seed))
	n := be.ens.NNeurons
	d := be.ens.Dims

	points := dists.UnitBall(nPoints, d, src)
	for _, p := range points {
		floats.Scale(be.ens.Radius, p)
	}

	activities := mat.NewDense(nPoints, n, nil)
	current := make([]float64, n)
	rates := make([]float64, n)
	for i, x := range points {
		for j := 0; j < n; j++ {
			current[j] = floats.Dot(be.scaledEncoders[j], x) + be.bias[j]
		}
		be.ens.Neurons.Rates(current, rates)
		activities.SetRow(i, rates)
	}

	targets := mat.NewDense(nPoints, size, nil)
	for i, x := range points {
		y := x
		if fn != nil {
			y = fn(x)
			if len(y) != size {
				return nil, solvers.Info{}, fmt.Errorf("%w: function returned %d values, want %d", model.ErrDimensionMismatch, len(y), size)
			}
		}
		targets.SetRow(i, y)
	}

	dec, info, err := solver.Solve(activities, targets)
	if err != nil {
		return nil, info, err
	}

	decoders := make([][]float64, n)
	for j := 0; j < n; j++ {
		decoders[j] = make([]float64, size)
		for k := 0; k < size; k++ {
			decoders[j][k] = dec.At(j, k)
		}
	}
	return decoders, info, nil
}

// applyDecoders computes out = decodersᵀ·activity.
func applyDecoders(decoders [][]float64, activity, out []float64) {
	for k := range out {
		out[k] = 0
	}
	for j, row := range decoders {
		a := activity[j]
		if a == 0 {
			continue
		}
		for k, w := range row {
			out[k] += w * a
		}
	}
}

func evalPoints(n int) int {
	if n <= 0 {
		return DefaultEvalPoints
	}
	return n
}

func sampleSteps(every, dt float64) uint64 {
	if every <= 0 {
		return 1
	}
	steps := uint64(math.Round(every / dt))
	if steps < 1 {
		steps = 1
	}
	return steps
}

func normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	norm := floats.Norm(out, 2)
	if norm > 0 {
		floats.Scale(1/norm, out)
	}
	return out
}
