// Package model provides the declarative model layer: networks of neuron
// ensembles and input nodes, wired by filtered connections and observed
// through probes. A model is pure description; pkg/sim turns it into a
// runnable simulation.
package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goodluckcjj/nengo/pkg/validation"
)

var (
	// ErrDuplicateName is returned when two objects share a name
	ErrDuplicateName = errors.New("duplicate object name")
	// ErrDimensionMismatch is returned when connected sizes disagree
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrUnknownAttribute is returned for an unsupported probe attribute
	ErrUnknownAttribute = errors.New("unknown probe attribute")
	// ErrNotInNetwork is returned when an endpoint belongs elsewhere
	ErrNotInNetwork = errors.New("object does not belong to this network")
	// ErrInvalidTarget is returned for an unconnectable endpoint
	ErrInvalidTarget = errors.New("invalid connection target")
)

// Object is any named model element that can terminate a connection or be
// probed.
type Object interface {
	// ObjectID returns the unique ID assigned at creation
	ObjectID() string
	// ObjectName returns the human-readable name, unique per network
	ObjectName() string
	// SizeIn returns the represented input dimensionality (0 = no input)
	SizeIn() int
	// SizeOut returns the represented output dimensionality
	SizeOut() int
}

// Network is a container of model objects. Constructors enforce name
// uniqueness and dimension compatibility up front, so a network that builds
// without error is structurally sound.
type Network struct {
	id   string
	name string
	seed int64

	ensembles   []*Ensemble
	nodes       []*Node
	connections []*Connection
	probes      []*Probe
	names       map[string]Object
}

// NetworkOption configures a Network at creation.
type NetworkOption func(*Network)

// WithSeed fixes the network's base random seed for reproducible builds.
func WithSeed(seed int64) NetworkOption {
	return func(n *Network) { n.seed = seed }
}

// New creates an empty named network.
func New(name string, opts ...NetworkOption) *Network {
	n := &Network{
		id:    uuid.NewString(),
		name:  name,
		seed:  1,
		names: make(map[string]Object),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name returns the network name
func (n *Network) Name() string { return n.name }

// ID returns the network's unique ID
func (n *Network) ID() string { return n.id }

// Seed returns the base random seed
func (n *Network) Seed() int64 { return n.seed }

// Ensembles returns the declared ensembles in creation order
func (n *Network) Ensembles() []*Ensemble { return n.ensembles }

// Nodes returns the declared nodes in creation order
func (n *Network) Nodes() []*Node { return n.nodes }

// Connections returns the declared connections in creation order
func (n *Network) Connections() []*Connection { return n.connections }

// Probes returns the declared probes in creation order
func (n *Network) Probes() []*Probe { return n.probes }

// Lookup returns the object with the given name, or nil.
func (n *Network) Lookup(name string) Object {
	return n.names[name]
}

// NeuronCount returns the total neuron count across all ensembles.
func (n *Network) NeuronCount() int {
	total := 0
	for _, e := range n.ensembles {
		total += e.NNeurons
	}
	return total
}

// register claims a name for an object.
func (n *Network) register(name string, obj Object) error {
	if err := validation.ValidateName(name); err != nil {
		return err
	}
	if _, exists := n.names[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	n.names[name] = obj
	return nil
}

// registerDerived claims a name the network composed itself, such as a
// probe's "target.attribute". The parts were validated when the target was
// registered, so only uniqueness is checked; the dot separator also keeps
// derived names out of the user namespace, which forbids dots.
func (n *Network) registerDerived(name string, obj Object) error {
	if _, exists := n.names[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	n.names[name] = obj
	return nil
}

// contains reports whether obj was created by this network.
func (n *Network) contains(obj Object) bool {
	if obj == nil {
		return false
	}
	got, ok := n.names[obj.ObjectName()]
	return ok && got == obj
}
