package domain

import (
	"context"

	"github.com/cellstack/cellstack/pkg/tensor"
)

// Cell is the required capability set of a single-step recurrent unit:
// consume the current input and prior state, produce an output and the new
// state. Implementations must be purely functional with respect to state:
// nothing may be retained across calls except through the returned State.
type Cell interface {
	// Step advances the cell by one timestep.
	Step(ctx context.Context, input *tensor.Tensor, state State) (*tensor.Tensor, State, error)

	// StateShape describes the width of each internal state tensor.
	StateShape() StateShape
}

// OutputSizer is the optional capability of declaring an output width
// explicitly. The boolean reports whether a width is declared; undeclared
// cells fall back to their state shape (see ResolveOutputSize).
type OutputSizer interface {
	OutputSize() (int, bool)
}

// InitialStater is the optional capability of generating a custom initial
// state for a batch. Cells without it get zero-filled tensors shaped from
// their state shape.
type InitialStater interface {
	InitialState(batchSize int) (State, error)
}

// Buildable is the optional capability of one-time, shape-dependent
// construction. Build is invoked at most once per cell with the input shape
// the cell will first process.
type Buildable interface {
	Build(shape InputShape) error
}

// TrainingStepper is the optional capability of honoring a training-mode
// flag. Its presence is detected once, at composite construction; cells
// without it are stepped through the plain Step and never see the flag.
type TrainingStepper interface {
	StepTraining(ctx context.Context, input *tensor.Tensor, state State, training bool) (*tensor.Tensor, State, error)
}

// Configurable is the optional capability of describing the cell for
// serialization: a stable type identifier and a reconstruction config.
type Configurable interface {
	CellType() string
	Config() map[string]any
}
