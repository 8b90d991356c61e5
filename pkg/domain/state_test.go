package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/tensor"
)

func TestState_LeafAndNested(t *testing.T) {
	a := tensor.Zeros(2, 4, tensor.Float32)
	b := tensor.Zeros(2, 8, tensor.Float32)

	leaf := domain.Leaf(a)
	assert.True(t, leaf.IsLeaf())
	assert.Equal(t, 1, leaf.Len())
	assert.Same(t, a, leaf.Tensor())
	assert.Same(t, a, leaf.At(0).Tensor())

	nested := domain.Nested(domain.Leaf(a), domain.Nested(domain.Leaf(b), domain.Leaf(b)))
	assert.False(t, nested.IsLeaf())
	assert.Equal(t, 2, nested.Len())
	assert.Equal(t, 2, nested.At(1).Len())

	flat := nested.Tensors()
	require.Len(t, flat, 3)
	assert.Same(t, a, flat[0])
	assert.Same(t, b, flat[1])
}

func TestFromTensors(t *testing.T) {
	a := tensor.Zeros(2, 4, tensor.Float32)
	b := tensor.Zeros(2, 4, tensor.Float32)

	// Scalar shape restores a leaf.
	st, err := domain.FromTensors(domain.Of(4), []*tensor.Tensor{a})
	require.NoError(t, err)
	assert.True(t, st.IsLeaf())

	// Sequence shape restores a nested state of leaves.
	st, err = domain.FromTensors(domain.SeqOf(4, 4), []*tensor.Tensor{a, b})
	require.NoError(t, err)
	assert.False(t, st.IsLeaf())
	assert.Equal(t, 2, st.Len())

	// Arity mismatch fails.
	_, err = domain.FromTensors(domain.SeqOf(4, 4), []*tensor.Tensor{a})
	assert.Error(t, err)
}

func TestState_JSONRoundTrip(t *testing.T) {
	a, _ := tensor.FromRows([][]float64{{1, 2}}, tensor.Float64)
	b, _ := tensor.FromRows([][]float64{{3}}, tensor.Float64)

	orig := domain.Nested(domain.Leaf(a), domain.Nested(domain.Leaf(b), domain.Leaf(b)))

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var back domain.State
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 2, back.Len())
	assert.True(t, back.At(0).IsLeaf())
	assert.Equal(t, 2, back.At(1).Len())
	assert.Equal(t, 1.0, back.At(0).Tensor().At(0, 0))
	assert.Equal(t, 3.0, back.At(1).At(0).Tensor().At(0, 0))
}
