package tensor_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellstack/cellstack/pkg/tensor"
)

func TestZeros(t *testing.T) {
	z := tensor.Zeros(3, 4, tensor.Float32)
	assert.Equal(t, 3, z.Rows())
	assert.Equal(t, 4, z.Cols())
	assert.Equal(t, tensor.Float32, z.DType())
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			assert.Zero(t, z.At(i, j))
		}
	}
}

func TestFromRows_RaggedRows(t *testing.T) {
	_, err := tensor.FromRows([][]float64{{1, 2}, {3}}, tensor.Float64)
	assert.Error(t, err)
}

func TestMatMul(t *testing.T) {
	a, err := tensor.FromRows([][]float64{{1, 2}, {3, 4}}, tensor.Float64)
	require.NoError(t, err)
	b, err := tensor.FromRows([][]float64{{5, 6}, {7, 8}}, tensor.Float64)
	require.NoError(t, err)

	c, err := a.MatMul(b)
	require.NoError(t, err)
	assert.Equal(t, 19.0, c.At(0, 0))
	assert.Equal(t, 22.0, c.At(0, 1))
	assert.Equal(t, 43.0, c.At(1, 0))
	assert.Equal(t, 50.0, c.At(1, 1))
}

func TestMatMul_ShapeMismatch(t *testing.T) {
	a := tensor.Zeros(2, 3, tensor.Float64)
	b := tensor.Zeros(2, 3, tensor.Float64)
	_, err := a.MatMul(b)
	assert.ErrorContains(t, err, "matmul shape mismatch")
}

func TestElementwise(t *testing.T) {
	a, _ := tensor.FromRows([][]float64{{1, -2}}, tensor.Float64)
	b, _ := tensor.FromRows([][]float64{{3, 4}}, tensor.Float64)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, 4.0, sum.At(0, 0))
	assert.Equal(t, 2.0, sum.At(0, 1))

	prod, err := a.Mul(b)
	require.NoError(t, err)
	assert.Equal(t, 3.0, prod.At(0, 0))
	assert.Equal(t, -8.0, prod.At(0, 1))

	scaled := a.Scale(2)
	assert.Equal(t, 2.0, scaled.At(0, 0))

	// Originals untouched.
	assert.Equal(t, 1.0, a.At(0, 0))
}

func TestAddRow(t *testing.T) {
	a := tensor.Zeros(2, 3, tensor.Float64)
	bias, _ := tensor.FromRows([][]float64{{1, 2, 3}}, tensor.Float64)

	out, err := a.AddRow(bias)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		assert.Equal(t, 1.0, out.At(i, 0))
		assert.Equal(t, 3.0, out.At(i, 2))
	}
}

func TestActivations(t *testing.T) {
	a, _ := tensor.FromRows([][]float64{{0}}, tensor.Float64)
	assert.Equal(t, 0.0, a.Tanh().At(0, 0))
	assert.Equal(t, 0.5, a.Sigmoid().At(0, 0))
}

func TestFloat32Narrowing(t *testing.T) {
	a := tensor.Zeros(1, 1, tensor.Float32)
	a.Set(0, 0, 0.1)
	assert.Equal(t, float64(float32(0.1)), a.At(0, 0))
}

func TestJSONRoundTrip(t *testing.T) {
	a, _ := tensor.FromRows([][]float64{{1.5, 2.5}, {3.5, 4.5}}, tensor.Float64)

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var back tensor.Tensor
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, a.Rows(), back.Rows())
	assert.Equal(t, a.Cols(), back.Cols())
	assert.Equal(t, a.DType(), back.DType())
	assert.Equal(t, a.At(1, 0), back.At(1, 0))
}

func TestJSON_BadPayload(t *testing.T) {
	var back tensor.Tensor
	err := json.Unmarshal([]byte(`{"dtype":"float64","rows":2,"cols":2,"data":[1]}`), &back)
	assert.Error(t, err)
}
