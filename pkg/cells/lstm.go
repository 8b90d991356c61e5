package cells

import (
	"context"
	"fmt"

	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/tensor"
)

// TypeLSTM is the serialization identifier of LSTMCell.
const TypeLSTM = "lstm"

// LSTMConfig configures an LSTMCell.
type LSTMConfig struct {
	Units int `json:"units" yaml:"units" mapstructure:"units"`

	// OutputUnits, when positive, projects the hidden state to this width
	// on output. The cell then declares an explicit output size; without it
	// the output width falls back to the leading state width.
	OutputUnits int    `json:"output_units,omitempty" yaml:"output_units,omitempty" mapstructure:"output_units"`
	DType       string `json:"dtype,omitempty" yaml:"dtype,omitempty" mapstructure:"dtype"`
	Seed        int64  `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
}

// LSTMCell keeps two state tensors, the hidden state h and the cell state c:
//
//	i  = sigmoid(x·Wi + h·Ui + bi)
//	f  = sigmoid(x·Wf + h·Uf + bf)
//	g  = tanh(x·Wg + h·Ug + bg)
//	o  = sigmoid(x·Wo + h·Uo + bo)
//	c' = f∘c + i∘g
//	h' = o∘tanh(c')
//
// The output is h', optionally projected to OutputUnits.
type LSTMCell struct {
	cfg   LSTMConfig
	dtype tensor.DType

	built          bool
	wi, wf, wg, wo *tensor.Tensor
	ui, uf, ug, uo *tensor.Tensor
	bi, bf, bg, bo *tensor.Tensor
	proj           *tensor.Tensor
}

// NewLSTM validates the config and returns an unbuilt cell.
func NewLSTM(cfg LSTMConfig) (*LSTMCell, error) {
	if cfg.Units <= 0 {
		return nil, fmt.Errorf("lstm cell: units %d, must be positive", cfg.Units)
	}
	if cfg.OutputUnits < 0 {
		return nil, fmt.Errorf("lstm cell: output units %d, must not be negative", cfg.OutputUnits)
	}
	dtype, err := tensor.ParseDType(cfg.DType)
	if err != nil {
		return nil, fmt.Errorf("lstm cell: %w", err)
	}
	return &LSTMCell{cfg: cfg, dtype: dtype}, nil
}

// StateShape declares two state tensors: hidden and cell state.
func (c *LSTMCell) StateShape() domain.StateShape {
	return domain.SeqOf(c.cfg.Units, c.cfg.Units)
}

// OutputSize declares the projection width when one is configured.
func (c *LSTMCell) OutputSize() (int, bool) {
	if c.cfg.OutputUnits > 0 {
		return c.cfg.OutputUnits, true
	}
	return 0, false
}

// InitialState generates zero h and c tensors in the cell's own precision.
func (c *LSTMCell) InitialState(batchSize int) (domain.State, error) {
	if batchSize <= 0 {
		return domain.State{}, fmt.Errorf("lstm cell: batch size %d, must be positive", batchSize)
	}
	return domain.Nested(
		domain.Leaf(tensor.Zeros(batchSize, c.cfg.Units, c.dtype)),
		domain.Leaf(tensor.Zeros(batchSize, c.cfg.Units, c.dtype)),
	), nil
}

// Built reports whether the cell's weights have been allocated.
func (c *LSTMCell) Built() bool {
	return c.built
}

// Build allocates the gate weights for the given input width.
func (c *LSTMCell) Build(shape domain.InputShape) error {
	if c.built {
		return nil
	}
	if shape.Features <= 0 {
		return &domain.ShapeError{Reason: fmt.Sprintf("lstm cell build with input shape %s", shape)}
	}
	rng := newRNG(c.cfg.Seed)
	in, units := shape.Features, c.cfg.Units
	c.wi, c.wf, c.wg, c.wo = glorot(rng, in, units, c.dtype), glorot(rng, in, units, c.dtype), glorot(rng, in, units, c.dtype), glorot(rng, in, units, c.dtype)
	c.ui, c.uf, c.ug, c.uo = glorot(rng, units, units, c.dtype), glorot(rng, units, units, c.dtype), glorot(rng, units, units, c.dtype), glorot(rng, units, units, c.dtype)
	c.bi, c.bf, c.bg, c.bo = tensor.Zeros(1, units, c.dtype), tensor.Zeros(1, units, c.dtype), tensor.Zeros(1, units, c.dtype), tensor.Zeros(1, units, c.dtype)
	if c.cfg.OutputUnits > 0 {
		c.proj = glorot(rng, units, c.cfg.OutputUnits, c.dtype)
	}
	c.built = true
	return nil
}

// Step advances the cell by one timestep.
func (c *LSTMCell) Step(ctx context.Context, input *tensor.Tensor, state domain.State) (*tensor.Tensor, domain.State, error) {
	if !c.built {
		if err := c.Build(domain.InputShape{Batch: input.Rows(), Features: input.Cols()}); err != nil {
			return nil, domain.State{}, err
		}
	}
	prev := state.Tensors()
	if len(prev) != 2 {
		return nil, domain.State{}, fmt.Errorf("lstm cell: state holds %d tensors, expected 2", len(prev))
	}
	h, cc := prev[0], prev[1]

	i, err := c.gate(input, h, c.wi, c.ui, c.bi)
	if err != nil {
		return nil, domain.State{}, err
	}
	i = i.Sigmoid()

	f, err := c.gate(input, h, c.wf, c.uf, c.bf)
	if err != nil {
		return nil, domain.State{}, err
	}
	f = f.Sigmoid()

	g, err := c.gate(input, h, c.wg, c.ug, c.bg)
	if err != nil {
		return nil, domain.State{}, err
	}
	g = g.Tanh()

	o, err := c.gate(input, h, c.wo, c.uo, c.bo)
	if err != nil {
		return nil, domain.State{}, err
	}
	o = o.Sigmoid()

	fc, err := f.Mul(cc)
	if err != nil {
		return nil, domain.State{}, err
	}
	ig, err := i.Mul(g)
	if err != nil {
		return nil, domain.State{}, err
	}
	nextC, err := fc.Add(ig)
	if err != nil {
		return nil, domain.State{}, err
	}
	nextH, err := o.Mul(nextC.Tanh())
	if err != nil {
		return nil, domain.State{}, err
	}

	out := nextH
	if c.proj != nil {
		out, err = nextH.MatMul(c.proj)
		if err != nil {
			return nil, domain.State{}, err
		}
	}

	return out, domain.Nested(domain.Leaf(nextH), domain.Leaf(nextC)), nil
}

// gate computes x·W + h·U + b.
func (c *LSTMCell) gate(x, h, w, u, b *tensor.Tensor) (*tensor.Tensor, error) {
	xw, err := x.MatMul(w)
	if err != nil {
		return nil, err
	}
	hu, err := h.MatMul(u)
	if err != nil {
		return nil, err
	}
	sum, err := xw.Add(hu)
	if err != nil {
		return nil, err
	}
	return sum.AddRow(b)
}

// CellType implements domain.Configurable.
func (c *LSTMCell) CellType() string { return TypeLSTM }

// Config implements domain.Configurable.
func (c *LSTMCell) Config() map[string]any {
	cfg := map[string]any{"units": c.cfg.Units}
	if c.cfg.OutputUnits > 0 {
		cfg["output_units"] = c.cfg.OutputUnits
	}
	if c.cfg.DType != "" {
		cfg["dtype"] = c.cfg.DType
	}
	if c.cfg.Seed != 0 {
		cfg["seed"] = c.cfg.Seed
	}
	return cfg
}
