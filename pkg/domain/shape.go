package domain

import "fmt"

// StateShape describes the width of each internal state tensor of a cell.
// It is either a single width (one state tensor) or an ordered sequence of
// widths (one per state tensor). The zero value is invalid.
type StateShape struct {
	dims   []int
	single bool
}

// Of returns the shape of a cell with a single state tensor of the given width.
func Of(dim int) StateShape {
	return StateShape{dims: []int{dim}, single: true}
}

// SeqOf returns the shape of a cell holding one state tensor per width, in order.
func SeqOf(dims ...int) StateShape {
	out := make([]int, len(dims))
	copy(out, dims)
	return StateShape{dims: out}
}

// IsSingle reports whether the shape declares exactly one state tensor
// via the scalar form (as opposed to a singleton sequence).
func (s StateShape) IsSingle() bool {
	return s.single
}

// Dims returns the widths normalized to an ordered sequence.
// The scalar form yields a singleton.
func (s StateShape) Dims() []int {
	out := make([]int, len(s.dims))
	copy(out, s.dims)
	return out
}

// Arity returns the number of state tensors the shape declares.
func (s StateShape) Arity() int {
	return len(s.dims)
}

// Leading returns the first width of the shape. For the scalar form this is
// the width itself.
func (s StateShape) Leading() int {
	if len(s.dims) == 0 {
		return 0
	}
	return s.dims[0]
}

// Validate reports whether the shape is well formed: at least one width,
// every width positive.
func (s StateShape) Validate() error {
	if len(s.dims) == 0 {
		return &ShapeError{Reason: "state shape declares no widths"}
	}
	for i, d := range s.dims {
		if d <= 0 {
			return &ShapeError{Reason: fmt.Sprintf("state shape width %d is %d, must be positive", i, d)}
		}
	}
	return nil
}

func (s StateShape) String() string {
	if s.single && len(s.dims) == 1 {
		return fmt.Sprintf("%d", s.dims[0])
	}
	return fmt.Sprintf("%v", s.dims)
}

// InputShape is the (batch, features) shape handed to a cell's build hook.
type InputShape struct {
	Batch    int `json:"batch"`
	Features int `json:"features"`
}

func (s InputShape) String() string {
	return fmt.Sprintf("(%d, %d)", s.Batch, s.Features)
}

// ResolveOutputSize computes the effective output width of a cell.
// Precedence: a declared output size if the cell exposes one, else the
// leading width of a sequence-form state shape, else the single width.
func ResolveOutputSize(c Cell) (int, error) {
	if sizer, ok := c.(OutputSizer); ok {
		if n, declared := sizer.OutputSize(); declared {
			if n <= 0 {
				return 0, &ShapeError{Reason: fmt.Sprintf("declared output size %d, must be positive", n)}
			}
			return n, nil
		}
	}
	shape := c.StateShape()
	if err := shape.Validate(); err != nil {
		return 0, err
	}
	return shape.Leading(), nil
}
