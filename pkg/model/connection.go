package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/goodluckcjj/nengo/pkg/solvers"
	"github.com/goodluckcjj/nengo/pkg/synapses"
)

// DefaultSynapseTau is the synaptic time constant applied to connections
// that do not specify one.
const DefaultSynapseTau = 0.005

// Connection transmits a value from Pre to Post, optionally through a
// function of the decoded value and a linear transform, smoothed by a
// synapse filter. When Pre is an ensemble the function is folded into the
// decoders at build time.
type Connection struct {
	id   string
	name string

	// Pre is the source object (ensemble or node)
	Pre Object
	// Post is the destination ensemble
	Post Object
	// Function maps the decoded pre value; nil means identity
	Function func([]float64) []float64
	// FunctionSize is the output dimensionality of Function
	FunctionSize int
	// Transform is an optional linear map applied after the function
	// (rows x cols = post size x function size)
	Transform [][]float64
	// Synapse filters the transmitted value
	Synapse synapses.Synapse
	// Solver computes decoders when Pre is an ensemble
	Solver solvers.Solver
	// EvalPoints is the number of decoder evaluation points (0 = default)
	EvalPoints int
}

// ConnectionOption configures a Connection.
type ConnectionOption func(*Connection)

// WithSynapse sets the connection's synapse filter.
func WithSynapse(s synapses.Synapse) ConnectionOption {
	return func(c *Connection) { c.Synapse = s }
}

// WithFunction computes a function of the decoded pre value. size is the
// function's output dimensionality.
func WithFunction(fn func([]float64) []float64, size int) ConnectionOption {
	return func(c *Connection) {
		c.Function = fn
		c.FunctionSize = size
	}
}

// WithTransform applies a linear map after the (optional) function.
func WithTransform(transform [][]float64) ConnectionOption {
	return func(c *Connection) { c.Transform = transform }
}

// WithSolver overrides the decoder solver.
func WithSolver(s solvers.Solver) ConnectionOption {
	return func(c *Connection) { c.Solver = s }
}

// WithEvalPoints sets the number of decoder evaluation points.
func WithEvalPoints(n int) ConnectionOption {
	return func(c *Connection) { c.EvalPoints = n }
}

// Connect wires pre to post. Both endpoints must belong to this network,
// and the transmitted dimensionality must match the post input size.
func (n *Network) Connect(pre, post Object, opts ...ConnectionOption) (*Connection, error) {
	if !n.contains(pre) {
		return nil, fmt.Errorf("connect: pre %w", ErrNotInNetwork)
	}
	if !n.contains(post) {
		return nil, fmt.Errorf("connect: post %w", ErrNotInNetwork)
	}
	if _, ok := post.(*Ensemble); !ok {
		return nil, fmt.Errorf("connect: %w: post must be an ensemble, got %q", ErrInvalidTarget, post.ObjectName())
	}

	c := &Connection{
		id:      uuid.NewString(),
		name:    pre.ObjectName() + "->" + post.ObjectName(),
		Pre:     pre,
		Post:    post,
		Synapse: synapses.Lowpass{Tau: DefaultSynapseTau},
		Solver:  solvers.NewLstsqL2(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("connection %q: %w", c.name, err)
	}
	n.connections = append(n.connections, c)
	return c, nil
}

// TransmitSize returns the dimensionality the connection delivers to post.
func (c *Connection) TransmitSize() int {
	size := c.Pre.SizeOut()
	if c.Function != nil {
		size = c.FunctionSize
	}
	if c.Transform != nil {
		size = len(c.Transform)
	}
	return size
}

func (c *Connection) validate() error {
	if c.Function != nil && c.FunctionSize <= 0 {
		return fmt.Errorf("%w: function output size must be positive", ErrDimensionMismatch)
	}

	inSize := c.Pre.SizeOut()
	if c.Function != nil {
		inSize = c.FunctionSize
	}
	if c.Transform != nil {
		if len(c.Transform) == 0 {
			return fmt.Errorf("%w: empty transform", ErrDimensionMismatch)
		}
		for i, row := range c.Transform {
			if len(row) != inSize {
				return fmt.Errorf("%w: transform row %d has %d cols, want %d", ErrDimensionMismatch, i, len(row), inSize)
			}
		}
	}

	if got, want := c.TransmitSize(), c.Post.SizeIn(); got != want {
		return fmt.Errorf("%w: connection delivers %d dims but %q expects %d", ErrDimensionMismatch, got, c.Post.ObjectName(), want)
	}

	if c.Synapse != nil {
		if err := c.Synapse.Validate(); err != nil {
			return err
		}
	}
	if c.EvalPoints < 0 {
		return fmt.Errorf("eval points must be non-negative, got %d", c.EvalPoints)
	}
	return nil
}

// ObjectID returns the unique ID assigned at creation
func (c *Connection) ObjectID() string { return c.id }

// Name returns the derived connection name (pre->post)
func (c *Connection) Name() string { return c.name }
