package cellstack

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"

	"github.com/cellstack/cellstack/internal/runtime"
	"github.com/cellstack/cellstack/pkg/cells"
	"github.com/cellstack/cellstack/pkg/codec"
	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/registry"
	"github.com/cellstack/cellstack/pkg/tensor"
)

// TypeStack is the serialization identifier of Stack. Because a stack is
// itself a cell, stacks nest inside other stacks transparently.
const TypeStack = "stack"

// Stack chains an ordered sequence of recurrent cells into one logical cell.
// It satisfies the full cell contract itself (step, state shape, output
// size, initial state and build), so an outer sequence driver can treat the
// whole stack exactly like a single cell, and stacks can nest.
type Stack struct {
	rt *runtime.Composite
}

// Option configures a Stack.
type Option = runtime.Option

// WithName sets a display name used in logs and the serialized config.
func WithName(name string) Option { return runtime.WithName(name) }

// WithDType sets the working precision for zero-filled initial states.
func WithDType(dtype tensor.DType) Option { return runtime.WithDType(dtype) }

// WithLogger sets a structured logger for the stack.
func WithLogger(logger *slog.Logger) Option { return runtime.WithLogger(logger) }

// WithLifecycleHooks registers observability callbacks for build and step.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return runtime.WithLifecycleHooks(hooks)
}

// New validates the cells and assembles a stack. Validation is eager and
// fails fast: an invalid candidate fails construction entirely.
func New(cellSeq []domain.Cell, opts ...Option) (*Stack, error) {
	rt, err := runtime.New(cellSeq, opts...)
	if err != nil {
		return nil, err
	}
	return &Stack{rt: rt}, nil
}

// Step advances every cell by one timestep, threading the output of each
// cell into the next and returning the final output with the new state.
func (s *Stack) Step(ctx context.Context, input *tensor.Tensor, state domain.State) (*tensor.Tensor, domain.State, error) {
	return s.rt.Step(ctx, input, state)
}

// StepTraining is Step with a training-mode flag. The flag reaches only the
// cells that declared the training capability.
func (s *Stack) StepTraining(ctx context.Context, input *tensor.Tensor, state domain.State, training bool) (*tensor.Tensor, domain.State, error) {
	return s.rt.StepTraining(ctx, input, state, training)
}

// StateShape returns the per-tensor widths of all member cells, in order.
func (s *Stack) StateShape() domain.StateShape {
	return s.rt.StateShape()
}

// OutputSize resolves the stack's output width from its last cell.
func (s *Stack) OutputSize() (int, bool) {
	return s.rt.OutputSize()
}

// InitialState produces the starting state for a batch: one element per
// cell, using each cell's own generator when present and zero tensors
// otherwise.
func (s *Stack) InitialState(batchSize int) (domain.State, error) {
	return s.rt.InitialState(batchSize)
}

// Build runs the one-time shape-dependent construction pass.
func (s *Stack) Build(shape domain.InputShape) error {
	return s.rt.Build(context.Background(), shape)
}

// BuildContext is Build with a context for lifecycle hooks.
func (s *Stack) BuildContext(ctx context.Context, shape domain.InputShape) error {
	return s.rt.Build(ctx, shape)
}

// Built reports whether the stack has completed its build pass.
func (s *Stack) Built() bool {
	return s.rt.Built()
}

// Cells returns the ordered cell sequence. The slice must not be mutated.
func (s *Stack) Cells() []domain.Cell {
	return s.rt.Cells()
}

// Len returns the number of cells in the stack.
func (s *Stack) Len() int {
	return s.rt.Len()
}

// Name returns the stack's display name.
func (s *Stack) Name() string {
	return s.rt.Name()
}

// DType returns the working precision for zero-filled initial states.
func (s *Stack) DType() tensor.DType {
	return s.rt.DType()
}

// CellType implements the serialization type identifier.
func (s *Stack) CellType() string { return TypeStack }

// Describe captures the stack as a descriptor: one descriptor per member
// cell, in order, merged with the stack's own base configuration. A member
// without a serialization config fails the whole operation.
func (s *Stack) Describe() (registry.Descriptor, error) {
	members := s.rt.Cells()
	descs := make([]map[string]any, 0, len(members))
	for i, cell := range members {
		d, err := registry.Serialize(cell)
		if err != nil {
			return registry.Descriptor{}, fmt.Errorf("serialize cell %d: %w", i, err)
		}
		descs = append(descs, map[string]any{"type": d.Type, "config": d.Config})
	}

	config := map[string]any{"cells": descs}
	if s.rt.Name() != "" {
		config["name"] = s.rt.Name()
	}
	if s.rt.DType() != tensor.Float32 {
		config["dtype"] = string(s.rt.DType())
	}
	return registry.Descriptor{Type: TypeStack, Config: config}, nil
}

// stackConfig is the wire form of a Stack's reconstruction config.
type stackConfig struct {
	Cells []registry.Descriptor `mapstructure:"cells"`
	Name  string                `mapstructure:"name"`
	DType string                `mapstructure:"dtype"`
}

// Register installs the Stack factory, enabling nested stacks to round-trip.
func Register(r *registry.Registry) {
	r.Register(TypeStack, func(r *registry.Registry, config map[string]any) (domain.Cell, error) {
		var cfg stackConfig
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(config); err != nil {
			return nil, fmt.Errorf("decode stack config: %w", err)
		}

		members, err := r.DeserializeAll(cfg.Cells, nil)
		if err != nil {
			return nil, err
		}

		var opts []Option
		if cfg.Name != "" {
			opts = append(opts, WithName(cfg.Name))
		}
		if cfg.DType != "" {
			dtype, err := tensor.ParseDType(cfg.DType)
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithDType(dtype))
		}
		return New(members, opts...)
	})
}

// DefaultRegistry returns a registry with the built-in cells and the stack
// type installed.
func DefaultRegistry() *registry.Registry {
	r := registry.New()
	cells.Register(r)
	Register(r)
	return r
}

// NewCodec returns a document codec over the default registry.
func NewCodec(opts ...codec.Option) *codec.Codec {
	return codec.New(DefaultRegistry(), opts...)
}
