// Package neural implements the neural-network model artifact: a
// feedforward network stored as layer weights, biases and activation tags.
// The process holds a single active computational-graph session; loading an
// artifact clears it first so state never leaks between calls.
package neural

import (
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/dsxlab/analytics-extension/internal/pipeline"
)

// Layer holds fitted weights for one dense layer. Weights is [out][in].
type Layer struct {
	Weights    [][]float64
	Biases     []float64
	Activation string // sigmoid, relu, linear, softmax
}

// Network is a feedforward network artifact.
type Network struct {
	Layers []Layer

	acts []func([]float64) []float64 // built forward pass, not serialized
}

var session struct {
	sync.Mutex
	active *Network
}

// ClearSession drops the process-wide active graph. Called before every
// load to avoid cross-call contamination.
func ClearSession() {
	session.Lock()
	session.active = nil
	session.Unlock()
}

// Load clears the graph session, decodes a gob network artifact and builds
// its prediction path before returning. Only one load holds the session at
// a time; concurrent hosts must serialize neural loads.
func Load(r io.Reader) (*Network, error) {
	session.Lock()
	defer session.Unlock()
	session.active = nil

	var n Network
	if err := gob.NewDecoder(r).Decode(&n); err != nil {
		return nil, fmt.Errorf("decoding network artifact: %w", err)
	}
	if err := n.build(); err != nil {
		return nil, err
	}
	session.active = &n
	return &n, nil
}

// Encode writes the network as a gob artifact.
func (n *Network) Encode(w io.Writer) error {
	return gob.NewEncoder(w).Encode(n)
}

// build validates layer shapes and resolves activation functions so the
// forward pass is callable without further checks.
func (n *Network) build() error {
	if len(n.Layers) == 0 {
		return fmt.Errorf("network artifact has no layers")
	}
	n.acts = make([]func([]float64) []float64, len(n.Layers))
	for i, layer := range n.Layers {
		if len(layer.Weights) == 0 {
			return fmt.Errorf("layer %d has no weights", i)
		}
		if len(layer.Biases) != len(layer.Weights) {
			return fmt.Errorf("layer %d: %d bias terms for %d units", i, len(layer.Biases), len(layer.Weights))
		}
		if i > 0 {
			prev := len(n.Layers[i-1].Weights)
			if len(layer.Weights[0]) != prev {
				return fmt.Errorf("layer %d expects %d inputs, previous layer emits %d", i, len(layer.Weights[0]), prev)
			}
		}
		act, err := activation(layer.Activation)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		n.acts[i] = act
	}
	return nil
}

func activation(name string) (func([]float64) []float64, error) {
	switch name {
	case "", "linear":
		return func(z []float64) []float64 { return z }, nil
	case "sigmoid":
		return mapEach(func(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }), nil
	case "relu":
		return mapEach(func(x float64) float64 {
			if x > 0 {
				return x
			}
			return 0
		}), nil
	case "softmax":
		return softmax, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}

func mapEach(f func(float64) float64) func([]float64) []float64 {
	return func(z []float64) []float64 {
		out := make([]float64, len(z))
		for i, v := range z {
			out[i] = f(v)
		}
		return out
	}
}

func softmax(z []float64) []float64 {
	max := z[0]
	for _, v := range z[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(z))
	sum := 0.0
	for i, v := range z {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Forward runs the built prediction path over row-major input.
func (n *Network) Forward(X [][]float64) ([][]float64, error) {
	if n.acts == nil {
		if err := n.build(); err != nil {
			return nil, err
		}
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(n.Layers[0].Weights[0]) {
			return nil, fmt.Errorf("network expects %d features, got %d", len(n.Layers[0].Weights[0]), len(row))
		}
		a := row
		for li, layer := range n.Layers {
			z := make([]float64, len(layer.Weights))
			for u, w := range layer.Weights {
				sum := layer.Biases[u]
				for j, v := range a {
					sum += w[j] * v
				}
				z[u] = sum
			}
			a = n.acts[li](z)
		}
		out[i] = a
	}
	return out, nil
}

// Invoke satisfies the loaded-model capability shared with the classical
// backend. Networks only expose the forward pass.
func (n *Network) Invoke(method string, m *pipeline.Matrix) ([][]float64, error) {
	if method != "predict" {
		return nil, fmt.Errorf("network models do not support method %q", method)
	}
	X, err := m.Numeric()
	if err != nil {
		return nil, err
	}
	return n.Forward(X)
}
