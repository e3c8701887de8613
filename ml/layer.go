package ml

import "fmt"

const (
	ActLinear ActivationType = iota
	ActRelu
	ActSigmoid
	ActSoftmax
)

var activationMap = map[string]ActivationType{
	"linear":  ActLinear,
	"sigmoid": ActSigmoid,
	"relu":    ActRelu,
	"softmax": ActSoftmax,
}

// -------- TYPE DEFINITIONS -------- //
type ActivationType int
type LayerOption func(*LayerConfig)

// LayerConfig holds the blueprint for a layer
type LayerConfig struct {
	Neurons    int
	IsInput    bool
	Activation ActivationType
}

// LayerState holds per-layer optimizer state (first/second moments for
// Adam, velocities for Momentum).
type LayerState struct {
	mW, vW *Matrix
	mB, vB *Matrix
}

type Layer struct {
	Weights *Matrix
	Biases  *Matrix

	// Forward State
	Z *Matrix
	A *Matrix

	// Backward State
	dZ      *Matrix
	ActType ActivationType
}

// GradientSet holds the calculated gradients for one layer
type GradientSet struct {
	dW *Matrix
	db *Matrix
}

// ------- LAYER CONFIG HELPERS ------- //
// Input defines the entry point dimensions
func Input(size int) LayerConfig {
	return LayerConfig{
		Neurons:    size,
		IsInput:    true,
		Activation: ActLinear,
	}
}

// Dense defines a fully connected layer. Default activation is ReLU;
// override with Activation("softmax") etc.
func Dense(size int, opts ...LayerOption) LayerConfig {
	d := LayerConfig{
		Neurons:    size,
		IsInput:    false,
		Activation: ActRelu,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Activation selects the activation by name ("linear", "relu", "sigmoid", "softmax").
func Activation(name string) LayerOption {
	return func(cfg *LayerConfig) {
		act, ok := activationMap[name]
		if !ok {
			panic(fmt.Sprintf("Unknown activation %q", name))
		}
		cfg.Activation = act
	}
}

// Relu as a plain function, for ApplyFunc call sites and benchmarks.
func Relu(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
