package cells

import (
	"context"
	"fmt"

	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/tensor"
)

// TypeGRU is the serialization identifier of GRUCell.
const TypeGRU = "gru"

// GRUConfig configures a GRUCell.
type GRUConfig struct {
	Units int `json:"units" yaml:"units" mapstructure:"units"`

	// RecurrentDropout is applied to the recurrent contribution in
	// expectation form (scaling by 1-p) when stepping in training mode, so
	// runs stay deterministic and replayable.
	RecurrentDropout float64 `json:"recurrent_dropout,omitempty" yaml:"recurrent_dropout,omitempty" mapstructure:"recurrent_dropout"`
	DType            string  `json:"dtype,omitempty" yaml:"dtype,omitempty" mapstructure:"dtype"`
	Seed             int64   `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
}

// GRUCell is a gated recurrent unit with a single state tensor:
//
//	z  = sigmoid(x·Wz + h·Uz + bz)
//	r  = sigmoid(x·Wr + h·Ur + br)
//	h~ = tanh(x·Wh + (r∘h)·Uh + bh)
//	h' = (1-z)∘h + z∘h~
//
// It is training-aware: the training flag enables recurrent dropout.
type GRUCell struct {
	cfg   GRUConfig
	dtype tensor.DType

	built      bool
	wz, wr, wh *tensor.Tensor
	uz, ur, uh *tensor.Tensor
	bz, br, bh *tensor.Tensor
}

// NewGRU validates the config and returns an unbuilt cell.
func NewGRU(cfg GRUConfig) (*GRUCell, error) {
	if cfg.Units <= 0 {
		return nil, fmt.Errorf("gru cell: units %d, must be positive", cfg.Units)
	}
	if cfg.RecurrentDropout < 0 || cfg.RecurrentDropout >= 1 {
		return nil, fmt.Errorf("gru cell: recurrent dropout %v, must be in [0, 1)", cfg.RecurrentDropout)
	}
	dtype, err := tensor.ParseDType(cfg.DType)
	if err != nil {
		return nil, fmt.Errorf("gru cell: %w", err)
	}
	return &GRUCell{cfg: cfg, dtype: dtype}, nil
}

// StateShape declares a single state tensor of Units width.
func (c *GRUCell) StateShape() domain.StateShape {
	return domain.Of(c.cfg.Units)
}

// Built reports whether the cell's weights have been allocated.
func (c *GRUCell) Built() bool {
	return c.built
}

// Build allocates the gate weights for the given input width.
func (c *GRUCell) Build(shape domain.InputShape) error {
	if c.built {
		return nil
	}
	if shape.Features <= 0 {
		return &domain.ShapeError{Reason: fmt.Sprintf("gru cell build with input shape %s", shape)}
	}
	rng := newRNG(c.cfg.Seed)
	in, units := shape.Features, c.cfg.Units
	c.wz, c.wr, c.wh = glorot(rng, in, units, c.dtype), glorot(rng, in, units, c.dtype), glorot(rng, in, units, c.dtype)
	c.uz, c.ur, c.uh = glorot(rng, units, units, c.dtype), glorot(rng, units, units, c.dtype), glorot(rng, units, units, c.dtype)
	c.bz, c.br, c.bh = tensor.Zeros(1, units, c.dtype), tensor.Zeros(1, units, c.dtype), tensor.Zeros(1, units, c.dtype)
	c.built = true
	return nil
}

// Step advances the cell without training mode.
func (c *GRUCell) Step(ctx context.Context, input *tensor.Tensor, state domain.State) (*tensor.Tensor, domain.State, error) {
	return c.StepTraining(ctx, input, state, false)
}

// StepTraining advances the cell, applying recurrent dropout when training.
func (c *GRUCell) StepTraining(ctx context.Context, input *tensor.Tensor, state domain.State, training bool) (*tensor.Tensor, domain.State, error) {
	if !c.built {
		if err := c.Build(domain.InputShape{Batch: input.Rows(), Features: input.Cols()}); err != nil {
			return nil, domain.State{}, err
		}
	}
	prev := state.Tensors()
	if len(prev) != 1 {
		return nil, domain.State{}, fmt.Errorf("gru cell: state holds %d tensors, expected 1", len(prev))
	}

	h := prev[0]
	rec := h
	if training && c.cfg.RecurrentDropout > 0 {
		rec = h.Scale(1 - c.cfg.RecurrentDropout)
	}

	z, err := c.gate(input, rec, c.wz, c.uz, c.bz)
	if err != nil {
		return nil, domain.State{}, err
	}
	z = z.Sigmoid()

	r, err := c.gate(input, rec, c.wr, c.ur, c.br)
	if err != nil {
		return nil, domain.State{}, err
	}
	r = r.Sigmoid()

	rh, err := r.Mul(rec)
	if err != nil {
		return nil, domain.State{}, err
	}
	cand, err := c.gate(input, rh, c.wh, c.uh, c.bh)
	if err != nil {
		return nil, domain.State{}, err
	}
	cand = cand.Tanh()

	keep, err := z.Apply(func(v float64) float64 { return 1 - v }).Mul(h)
	if err != nil {
		return nil, domain.State{}, err
	}
	update, err := z.Mul(cand)
	if err != nil {
		return nil, domain.State{}, err
	}
	next, err := keep.Add(update)
	if err != nil {
		return nil, domain.State{}, err
	}

	return next, domain.Leaf(next), nil
}

// gate computes x·W + h·U + b.
func (c *GRUCell) gate(x, h, w, u, b *tensor.Tensor) (*tensor.Tensor, error) {
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
func (c *GRUCell) CellType() string { return TypeGRU }

// Config implements domain.Configurable.
func (c *GRUCell) Config() map[string]any {
	cfg := map[string]any{"units": c.cfg.Units}
	if c.cfg.RecurrentDropout != 0 {
		cfg["recurrent_dropout"] = c.cfg.RecurrentDropout
	}
	if c.cfg.DType != "" {
		cfg["dtype"] = c.cfg.DType
	}
	if c.cfg.Seed != 0 {
		cfg["seed"] = c.cfg.Seed
	}
	return cfg
}
