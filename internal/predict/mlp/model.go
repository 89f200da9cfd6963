// Package mlp loads and runs the pre-trained cruise behavior models. A
// model definition is a JSON document of dense layers; inference is a
// feed-forward pass over gonum matrices. Loaded networks are immutable and
// safe for concurrent Run calls.
package mlp

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Model is the handle the evaluator invokes per lane sequence. lane is the
// 4×P lane-geometry matrix, obs the 1×N obstacle+interaction row vector.
// Row 0 of the output holds [probability, timeToLaneCenter, ...].
type Model interface {
	Run(lane, obs *mat.Dense) (*mat.Dense, error)
}

// Activation names an elementwise nonlinearity.
type Activation string

const (
	ActivationLinear  Activation = "linear"
	ActivationRelu    Activation = "relu"
	ActivationSigmoid Activation = "sigmoid"
	ActivationTanh    Activation = "tanh"
)

func (a Activation) fn() (func(float64) float64, error) {
	switch a {
	case ActivationLinear, "":
		return func(x float64) float64 { return x }, nil
	case ActivationRelu:
		return func(x float64) float64 { return math.Max(0, x) }, nil
	case ActivationSigmoid:
		return func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }, nil
	case ActivationTanh:
		return math.Tanh, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", a)
	}
}

// LayerDefinition is one dense layer: y = act(x·W + b), with W given as
// [input][output] rows.
type LayerDefinition struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation Activation  `json:"activation,omitempty"`
}

// Definition is the serialized form of a cruise model. The lane branch runs
// over the flattened lane-geometry matrix, the obstacle branch over the
// obstacle row vector; head layers run over the concatenated branch
// outputs. Branches may be empty, in which case their input passes through
// unchanged.
type Definition struct {
	Name           string            `json:"name"`
	LaneLayers     []LayerDefinition `json:"lane_layers,omitempty"`
	ObstacleLayers []LayerDefinition `json:"obstacle_layers,omitempty"`
	HeadLayers     []LayerDefinition `json:"head_layers"`
}

type layer struct {
	weights *mat.Dense // in×out
	bias    []float64
	act     func(float64) float64
}

// Network is a loaded feed-forward cruise model.
type Network struct {
	name     string
	lane     []layer
	obstacle []layer
	head     []layer
}

// Name returns the model name from the definition.
func (n *Network) Name() string { return n.name }

// Load reads and parses a model definition file.
func Load(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	net, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse model file %s: %w", path, err)
	}
	return net, nil
}

// Parse builds a Network from a JSON model definition, validating layer
// dimension chaining within each branch.
func Parse(data []byte) (*Network, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	if len(def.HeadLayers) == 0 {
		return nil, fmt.Errorf("model %q has no head layers", def.Name)
	}

	net := &Network{name: def.Name}
	var err error
	if net.lane, err = buildBranch("lane", def.LaneLayers); err != nil {
		return nil, err
	}
	if net.obstacle, err = buildBranch("obstacle", def.ObstacleLayers); err != nil {
		return nil, err
	}
	if net.head, err = buildBranch("head", def.HeadLayers); err != nil {
		return nil, err
	}

	last := net.head[len(net.head)-1]
	if _, out := last.weights.Dims(); out < 2 {
		return nil, fmt.Errorf("model %q head output dimension %d, need at least 2", def.Name, out)
	}
	return net, nil
}

func buildBranch(name string, defs []LayerDefinition) ([]layer, error) {
	layers := make([]layer, 0, len(defs))
	prevOut := -1
	for i, ld := range defs {
		if len(ld.Weights) == 0 {
			return nil, fmt.Errorf("%s layer %d has no weights", name, i)
		}
		in := len(ld.Weights)
		out := len(ld.Weights[0])
		if out == 0 {
			return nil, fmt.Errorf("%s layer %d has empty weight rows", name, i)
		}
		flat := make([]float64, 0, in*out)
		for r, row := range ld.Weights {
			if len(row) != out {
				return nil, fmt.Errorf("%s layer %d row %d has %d columns, want %d", name, i, r, len(row), out)
			}
			flat = append(flat, row...)
		}
		if len(ld.Bias) != out {
			return nil, fmt.Errorf("%s layer %d bias length %d, want %d", name, i, len(ld.Bias), out)
		}
		if prevOut >= 0 && in != prevOut {
			return nil, fmt.Errorf("%s layer %d input %d does not chain from previous output %d", name, i, in, prevOut)
		}
		act, err := ld.Activation.fn()
		if err != nil {
			return nil, fmt.Errorf("%s layer %d: %w", name, i, err)
		}
		layers = append(layers, layer{
			weights: mat.NewDense(in, out, flat),
			bias:    append([]float64(nil), ld.Bias...),
			act:     act,
		})
		prevOut = out
	}
	return layers, nil
}

// Run executes the forward pass. The lane matrix is flattened row-major
// before entering the lane branch.
func (n *Network) Run(lane, obs *mat.Dense) (*mat.Dense, error) {
	laneOut, err := forward("lane", n.lane, flatten(lane))
	if err != nil {
		return nil, err
	}
	obsOut, err := forward("obstacle", n.obstacle, rowCopy(obs))
	if err != nil {
		return nil, err
	}
	head, err := forward("head", n.head, append(laneOut, obsOut...))
	if err != nil {
		return nil, err
	}
	return mat.NewDense(1, len(head), head), nil
}

func forward(name string, layers []layer, x []float64) ([]float64, error) {
	for i, l := range layers {
		in, out := l.weights.Dims()
		if len(x) != in {
			return nil, fmt.Errorf("%s layer %d expects input of %d, got %d", name, i, in, len(x))
		}
		xv := mat.NewDense(1, len(x), x)
		var y mat.Dense
		y.Mul(xv, l.weights)
		next := make([]float64, out)
		row := y.RawRowView(0)
		for j := 0; j < out; j++ {
			next[j] = l.act(row[j] + l.bias[j])
		}
		x = next
	}
	return x, nil
}

func flatten(m *mat.Dense) []float64 {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}

func rowCopy(m *mat.Dense) []float64 {
	if m == nil {
		return nil
	}
	return append([]float64(nil), m.RawRowView(0)...)
}
