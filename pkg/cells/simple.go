package cells

import (
	"context"
	"fmt"

	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/tensor"
)

// TypeSimple is the serialization identifier of SimpleCell.
const TypeSimple = "simple"

// SimpleConfig configures a SimpleCell.
type SimpleConfig struct {
	Units      int    `json:"units" yaml:"units" mapstructure:"units"`
	Activation string `json:"activation,omitempty" yaml:"activation,omitempty" mapstructure:"activation"`
	DType      string `json:"dtype,omitempty" yaml:"dtype,omitempty" mapstructure:"dtype"`
	Seed       int64  `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
}

// SimpleCell is an Elman-style recurrent cell:
//
//	h' = act(x·W + h·U + b)
//
// with a single state tensor that doubles as the output.
type SimpleCell struct {
	cfg   SimpleConfig
	dtype tensor.DType
	act   func(*tensor.Tensor) *tensor.Tensor

	built   bool
	w, u, b *tensor.Tensor
}

// NewSimple validates the config and returns an unbuilt cell.
func NewSimple(cfg SimpleConfig) (*SimpleCell, error) {
	if cfg.Units <= 0 {
		return nil, fmt.Errorf("simple cell: units %d, must be positive", cfg.Units)
	}
	act, err := activation(cfg.Activation)
	if err != nil {
		return nil, fmt.Errorf("simple cell: %w", err)
	}
	dtype, err := tensor.ParseDType(cfg.DType)
	if err != nil {
		return nil, fmt.Errorf("simple cell: %w", err)
	}
	return &SimpleCell{cfg: cfg, dtype: dtype, act: act}, nil
}

// StateShape declares a single state tensor of Units width.
func (c *SimpleCell) StateShape() domain.StateShape {
	return domain.Of(c.cfg.Units)
}

// Built reports whether the cell's weights have been allocated.
func (c *SimpleCell) Built() bool {
	return c.built
}

// Build allocates the weights for the given input width. Building an
// already-built cell is a no-op.
func (c *SimpleCell) Build(shape domain.InputShape) error {
	if c.built {
		return nil
	}
	if shape.Features <= 0 {
		return &domain.ShapeError{Reason: fmt.Sprintf("simple cell build with input shape %s", shape)}
	}
	rng := newRNG(c.cfg.Seed)
	c.w = glorot(rng, shape.Features, c.cfg.Units, c.dtype)
	c.u = glorot(rng, c.cfg.Units, c.cfg.Units, c.dtype)
	c.b = tensor.Zeros(1, c.cfg.Units, c.dtype)
	c.built = true
	return nil
}

// Step advances the cell by one timestep.
func (c *SimpleCell) Step(ctx context.Context, input *tensor.Tensor, state domain.State) (*tensor.Tensor, domain.State, error) {
	if !c.built {
		if err := c.Build(domain.InputShape{Batch: input.Rows(), Features: input.Cols()}); err != nil {
			return nil, domain.State{}, err
		}
	}
	prev := state.Tensors()
	if len(prev) != 1 {
		return nil, domain.State{}, fmt.Errorf("simple cell: state holds %d tensors, expected 1", len(prev))
	}

	xw, err := input.MatMul(c.w)
	if err != nil {
		return nil, domain.State{}, err
	}
	hu, err := prev[0].MatMul(c.u)
	if err != nil {
		return nil, domain.State{}, err
	}
	z, err := xw.Add(hu)
	if err != nil {
		return nil, domain.State{}, err
	}
	z, err = z.AddRow(c.b)
	if err != nil {
		return nil, domain.State{}, err
	}

	h := c.act(z)
	return h, domain.Leaf(h), nil
}

// CellType implements domain.Configurable.
func (c *SimpleCell) CellType() string { return TypeSimple }

// Config implements domain.Configurable.
func (c *SimpleCell) Config() map[string]any {
	cfg := map[string]any{"units": c.cfg.Units}
	if c.cfg.Activation != "" {
		cfg["activation"] = c.cfg.Activation
	}
	if c.cfg.DType != "" {
		cfg["dtype"] = c.cfg.DType
	}
	if c.cfg.Seed != 0 {
		cfg["seed"] = c.cfg.Seed
	}
	return cfg
}
