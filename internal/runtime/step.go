package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/tensor"
)

// stepFn is a cell's resolved entry point. The training flag is forwarded
// to training-aware cells and dropped for all others.
type stepFn func(ctx context.Context, input *tensor.Tensor, state domain.State, training bool) (*tensor.Tensor, domain.State, error)

// resolveEntry picks a cell's entry point once, at construction.
func resolveEntry(cell domain.Cell) stepFn {
	if ts, ok := cell.(domain.TrainingStepper); ok {
		return ts.StepTraining
	}
	return func(ctx context.Context, input *tensor.Tensor, state domain.State, _ bool) (*tensor.Tensor, domain.State, error) {
		return cell.Step(ctx, input, state)
	}
}

// Step advances every cell by one timestep without training mode.
func (c *Composite) Step(ctx context.Context, input *tensor.Tensor, state domain.State) (*tensor.Tensor, domain.State, error) {
	return c.StepTraining(ctx, input, state, false)
}

// StepTraining threads input and state through the cells in order: the
// output of each cell is the input of the next, and each cell's new state
// is accumulated positionally into the returned State. The call is purely
// functional: the given state is never mutated, so states can be
// checkpointed and replayed by an outer driver.
//
// The first call triggers the build pass for the input's shape.
func (c *Composite) StepTraining(ctx context.Context, input *tensor.Tensor, state domain.State, training bool) (*tensor.Tensor, domain.State, error) {
	if input == nil {
		return nil, domain.State{}, fmt.Errorf("step input is nil")
	}
	if err := c.ensureBuilt(ctx, domain.InputShape{Batch: input.Rows(), Features: input.Cols()}); err != nil {
		return nil, domain.State{}, err
	}
	if got := state.Len(); got != len(c.cells) {
		return nil, domain.State{}, fmt.Errorf("state has %d elements for %d cells", got, len(c.cells))
	}

	current := input
	newStates := make([]domain.State, len(c.cells))
	for i := range c.cells {
		c.emitStep(ctx, i, training)

		out, next, err := c.entries[i](ctx, current, state.At(i), training)
		if err != nil {
			return nil, domain.State{}, fmt.Errorf("step cell %d (%s): %w", i, c.types[i], err)
		}
		current = out
		newStates[i] = next
	}

	return current, domain.Nested(newStates...), nil
}

func (c *Composite) emitStep(ctx context.Context, index int, training bool) {
	if c.hooks.OnCellStep == nil {
		return
	}
	c.hooks.OnCellStep(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCellStep},
		CellIndex: index,
		CellType:  c.types[index],
		Training:  training,
	})
}
