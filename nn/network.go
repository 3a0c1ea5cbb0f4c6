package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"fashionnet/nn/layers"
)

// Layer defines a single unit in the network.
type Layer interface {
	Forward(x *mat.Dense) (*mat.Dense, error)
	// Backward takes the gradient of the loss with respect to the layer's
	// output and returns the gradient with respect to its input.
	Backward(grad *mat.Dense) (*mat.Dense, error)
}

// Network is an ordered stack of fully-connected layers: for each hidden
// width a Linear, a ReLU and a Dropout, then an output Linear whose logits
// Forward converts to log-probabilities.
type Network struct {
	layers   []Layer
	linears  []*layers.Linear
	dropouts []*layers.Dropout
	training bool
}

// NewNetwork builds the layer stack. hidden may be empty, in which case the
// network degenerates to a single inputSize→outputSize linear classifier.
func NewNetwork(inputSize, outputSize int, hidden []int, dropProb float64) (*Network, error) {
	if inputSize <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("input size %d must be positive", inputSize)}
	}
	if outputSize <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("output size %d must be positive", outputSize)}
	}
	for i, h := range hidden {
		if h <= 0 {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("hidden layer %d width %d must be positive", i, h)}
		}
	}
	if dropProb < 0 || dropProb > 1 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("drop probability %g outside [0,1]", dropProb)}
	}

	net := &Network{}
	prev := inputSize
	for _, h := range hidden {
		lin := layers.NewLinear(prev, h)
		drop := layers.NewDropout(dropProb)
		net.layers = append(net.layers, lin, layers.NewReLU(), drop)
		net.linears = append(net.linears, lin)
		net.dropouts = append(net.dropouts, drop)
		prev = h
	}
	out := layers.NewLinear(prev, outputSize)
	net.layers = append(net.layers, out)
	net.linears = append(net.linears, out)
	return net, nil
}

// SetTraining switches between training and evaluation mode. Only dropout
// behaviour depends on the mode.
func (n *Network) SetTraining(training bool) {
	n.training = training
	for _, d := range n.dropouts {
		d.SetTraining(training)
	}
}

func (n *Network) Training() bool { return n.training }

// Forward runs x (batch, inputSize) through the stack and returns row-wise
// log-probabilities of shape (batch, outputSize).
func (n *Network) Forward(x *mat.Dense) (*mat.Dense, error) {
	out := x
	var err error
	for _, layer := range n.layers {
		out, err = layer.Forward(out)
		if err != nil {
			return nil, err
		}
	}
	return LogSoftmax(out), nil
}

// Backward propagates a logit-space gradient through the layers in reverse
// order. The loss supplies the combined log-softmax and loss gradient, so
// the stack itself starts at the output linear.
func (n *Network) Backward(grad *mat.Dense) error {
	var err error
	for i := len(n.layers) - 1; i >= 0; i-- {
		grad, err = n.layers[i].Backward(grad)
		if err != nil {
			return err
		}
	}
	return nil
}

// InputSize is read from the constructed layers, not the constructor
// arguments; Save depends on these matching the real parameter shapes.
func (n *Network) InputSize() int { return n.linears[0].InDim() }

func (n *Network) OutputSize() int { return n.linears[len(n.linears)-1].OutDim() }

// HiddenSizes returns the output widths of the hidden linears in order.
func (n *Network) HiddenSizes() []int {
	sizes := make([]int, 0, len(n.linears)-1)
	for _, l := range n.linears[:len(n.linears)-1] {
		sizes = append(sizes, l.OutDim())
	}
	return sizes
}

// Linears exposes the parameterised layers in stack order for the
// optimizer and for checkpointing.
func (n *Network) Linears() []*layers.Linear { return n.linears }

// Dropouts exposes the dropout layers in stack order.
func (n *Network) Dropouts() []*layers.Dropout { return n.dropouts }
