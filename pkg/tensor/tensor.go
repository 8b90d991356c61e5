// Package tensor provides the minimal dense numeric runtime the cell stack
// operates on: rank-2 tensors with a working precision tag, zero-filled
// allocation, elementwise ops and the activations recurrent cells need.
package tensor

import (
	"encoding/json"
	"fmt"
	"math"
)

// DType identifies the working numeric precision of a tensor.
type DType string

const (
	Float32 DType = "float32"
	Float64 DType = "float64"
)

// ParseDType converts a string form (as found in config documents) to a DType.
// The empty string defaults to Float32.
func ParseDType(s string) (DType, error) {
	switch DType(s) {
	case Float32:
		return Float32, nil
	case Float64:
		return Float64, nil
	case "":
		return Float32, nil
	default:
		return "", fmt.Errorf("unknown dtype %q", s)
	}
}

// Tensor is a dense rank-2 tensor in row-major order.
// Values are stored as float64; the DType records the intended precision
// and is applied by narrowing on every op for Float32 tensors.
type Tensor struct {
	rows, cols int
	dtype      DType
	data       []float64
}

// Zeros allocates a zero-filled (rows, cols) tensor in the given precision.
func Zeros(rows, cols int, dtype DType) *Tensor {
	return &Tensor{
		rows:  rows,
		cols:  cols,
		dtype: dtype,
		data:  make([]float64, rows*cols),
	}
}

// FromRows builds a tensor from row slices. All rows must share a length.
func FromRows(rows [][]float64, dtype DType) (*Tensor, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("tensor needs at least one row")
	}
	cols := len(rows[0])
	t := Zeros(len(rows), cols, dtype)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), cols)
		}
		for j, v := range row {
			t.Set(i, j, v)
		}
	}
	return t, nil
}

// Rows returns the first dimension (batch) of the tensor.
func (t *Tensor) Rows() int { return t.rows }

// Cols returns the second dimension (features) of the tensor.
func (t *Tensor) Cols() int { return t.cols }

// DType returns the tensor's working precision.
func (t *Tensor) DType() DType { return t.dtype }

// At returns the value at (i, j).
func (t *Tensor) At(i, j int) float64 {
	return t.data[i*t.cols+j]
}

// Set stores v at (i, j), narrowing through the tensor's precision.
func (t *Tensor) Set(i, j int, v float64) {
	if t.dtype == Float32 {
		v = float64(float32(v))
	}
	t.data[i*t.cols+j] = v
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	out := Zeros(t.rows, t.cols, t.dtype)
	copy(out.data, t.data)
	return out
}

// SameShape reports whether both tensors have identical dimensions.
func (t *Tensor) SameShape(o *Tensor) bool {
	return t.rows == o.rows && t.cols == o.cols
}

// MatMul computes t · o for (m,k)·(k,n) tensors.
func (t *Tensor) MatMul(o *Tensor) (*Tensor, error) {
	if t.cols != o.rows {
		return nil, fmt.Errorf("matmul shape mismatch: (%d,%d) x (%d,%d)", t.rows, t.cols, o.rows, o.cols)
	}
	out := Zeros(t.rows, o.cols, t.dtype)
	for i := 0; i < t.rows; i++ {
		for k := 0; k < t.cols; k++ {
			a := t.data[i*t.cols+k]
			if a == 0 {
				continue
			}
			for j := 0; j < o.cols; j++ {
				out.data[i*o.cols+j] += a * o.data[k*o.cols+j]
			}
		}
	}
	out.narrow()
	return out, nil
}

// Add computes the elementwise sum of two same-shaped tensors.
func (t *Tensor) Add(o *Tensor) (*Tensor, error) {
	if !t.SameShape(o) {
		return nil, fmt.Errorf("add shape mismatch: (%d,%d) vs (%d,%d)", t.rows, t.cols, o.rows, o.cols)
	}
	out := t.Clone()
	for i := range out.data {
		out.data[i] += o.data[i]
	}
	out.narrow()
	return out, nil
}

// Mul computes the elementwise (Hadamard) product of two same-shaped tensors.
func (t *Tensor) Mul(o *Tensor) (*Tensor, error) {
	if !t.SameShape(o) {
		return nil, fmt.Errorf("mul shape mismatch: (%d,%d) vs (%d,%d)", t.rows, t.cols, o.rows, o.cols)
	}
	out := t.Clone()
	for i := range out.data {
		out.data[i] *= o.data[i]
	}
	out.narrow()
	return out, nil
}

// AddRow adds a (1, cols) bias row to every row of the tensor.
func (t *Tensor) AddRow(bias *Tensor) (*Tensor, error) {
	if bias.rows != 1 || bias.cols != t.cols {
		return nil, fmt.Errorf("bias shape mismatch: (%d,%d) for tensor with %d columns", bias.rows, bias.cols, t.cols)
	}
	out := t.Clone()
	for i := 0; i < t.rows; i++ {
		for j := 0; j < t.cols; j++ {
			out.data[i*t.cols+j] += bias.data[j]
		}
	}
	out.narrow()
	return out, nil
}

// Scale multiplies every element by s.
func (t *Tensor) Scale(s float64) *Tensor {
	out := t.Clone()
	for i := range out.data {
		out.data[i] *= s
	}
	out.narrow()
	return out
}

// Apply returns a new tensor with fn applied elementwise.
func (t *Tensor) Apply(fn func(float64) float64) *Tensor {
	out := t.Clone()
	for i := range out.data {
		out.data[i] = fn(out.data[i])
	}
	out.narrow()
	return out
}

// Tanh applies the hyperbolic tangent elementwise.
func (t *Tensor) Tanh() *Tensor {
	return t.Apply(math.Tanh)
}

// Sigmoid applies the logistic function elementwise.
func (t *Tensor) Sigmoid() *Tensor {
	return t.Apply(func(v float64) float64 {
		return 1.0 / (1.0 + math.Exp(-v))
	})
}

func (t *Tensor) narrow() {
	if t.dtype != Float32 {
		return
	}
	for i, v := range t.data {
		t.data[i] = float64(float32(v))
	}
}

type wireTensor struct {
	DType DType     `json:"dtype"`
	Rows  int       `json:"rows"`
	Cols  int       `json:"cols"`
	Data  []float64 `json:"data"`
}

// MarshalJSON encodes the tensor for checkpoints and the HTTP wire format.
func (t *Tensor) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireTensor{DType: t.dtype, Rows: t.rows, Cols: t.cols, Data: t.data})
}

// UnmarshalJSON decodes a tensor from its wire form.
func (t *Tensor) UnmarshalJSON(b []byte) error {
	var w wireTensor
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Rows*w.Cols != len(w.Data) {
		return fmt.Errorf("tensor payload has %d values for shape (%d,%d)", len(w.Data), w.Rows, w.Cols)
	}
	dtype, err := ParseDType(string(w.DType))
	if err != nil {
		return err
	}
	t.rows, t.cols, t.dtype, t.data = w.Rows, w.Cols, dtype, w.Data
	t.narrow()
	return nil
}
