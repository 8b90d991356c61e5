package runtime

import (
	"fmt"

	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/tensor"
)

// InitialState produces the composite's starting state for a batch: one
// element per cell, in order. A cell with its own generator is used
// verbatim; any other cell gets one zero-filled (batch, width) tensor per
// declared state width, in the composite's working precision.
func (c *Composite) InitialState(batchSize int) (domain.State, error) {
	if batchSize <= 0 {
		return domain.State{}, fmt.Errorf("batch size %d, must be positive", batchSize)
	}

	elems := make([]domain.State, len(c.cells))
	for i, cell := range c.cells {
		if gen, ok := cell.(domain.InitialStater); ok {
			st, err := gen.InitialState(batchSize)
			if err != nil {
				return domain.State{}, fmt.Errorf("initial state of cell %d (%s): %w", i, c.types[i], err)
			}
			elems[i] = st
			continue
		}
		elems[i] = zeroState(cell.StateShape(), batchSize, c.dtype)
	}
	return domain.Nested(elems...), nil
}

// zeroState builds the default state element for a cell: a leaf for the
// scalar shape form, a nested sequence of leaves otherwise.
func zeroState(shape domain.StateShape, batchSize int, dtype tensor.DType) domain.State {
	if shape.IsSingle() {
		return domain.Leaf(tensor.Zeros(batchSize, shape.Leading(), dtype))
	}
	dims := shape.Dims()
	elems := make([]domain.State, len(dims))
	for j, d := range dims {
		elems[j] = domain.Leaf(tensor.Zeros(batchSize, d, dtype))
	}
	return domain.Nested(elems...)
}
