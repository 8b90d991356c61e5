// Package cells provides the reference recurrent cells shipped with
// cellstack: a simple (Elman) cell, a gated recurrent unit and an LSTM.
// Between them they exercise every optional cell capability: lazy build,
// declared output sizes, custom initial state and training-aware stepping.
package cells

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cellstack/cellstack/pkg/tensor"
)

const (
	ActivationTanh    = "tanh"
	ActivationSigmoid = "sigmoid"
	ActivationReLU    = "relu"
)

// activation resolves a named elementwise activation.
func activation(name string) (func(*tensor.Tensor) *tensor.Tensor, error) {
	switch name {
	case "", ActivationTanh:
		return (*tensor.Tensor).Tanh, nil
	case ActivationSigmoid:
		return (*tensor.Tensor).Sigmoid, nil
	case ActivationReLU:
		return func(t *tensor.Tensor) *tensor.Tensor {
			return t.Apply(func(v float64) float64 { return math.Max(0, v) })
		}, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}

// glorot fills a (rows, cols) weight tensor with a seeded uniform draw
// scaled by fan-in and fan-out, so builds are reproducible for a seed.
func glorot(rng *rand.Rand, rows, cols int, dtype tensor.DType) *tensor.Tensor {
	limit := math.Sqrt(6.0 / float64(rows+cols))
	t := tensor.Zeros(rows, cols, dtype)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			t.Set(i, j, (rng.Float64()*2-1)*limit)
		}
	}
	return t
}

func newRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed))
}
