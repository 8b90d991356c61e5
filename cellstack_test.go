package cellstack_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellstack/cellstack"
	"github.com/cellstack/cellstack/pkg/cells"
	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/tensor"
)

func newStack(t *testing.T, opts ...cellstack.Option) *cellstack.Stack {
	t.Helper()
	simple, err := cells.NewSimple(cells.SimpleConfig{Units: 4, Seed: 1})
	require.NoError(t, err)
	gru, err := cells.NewGRU(cells.GRUConfig{Units: 8, Seed: 2})
	require.NoError(t, err)
	lstm, err := cells.NewLSTM(cells.LSTMConfig{Units: 8, OutputUnits: 16, Seed: 3})
	require.NoError(t, err)

	s, err := cellstack.New([]domain.Cell{simple, gru, lstm}, opts...)
	require.NoError(t, err)
	return s
}

func TestStack_EndToEnd(t *testing.T) {
	s := newStack(t, cellstack.WithName("demo"))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "demo", s.Name())
	assert.Equal(t, []int{4, 8, 8, 8}, s.StateShape().Dims())

	n, ok := s.OutputSize()
	require.True(t, ok)
	assert.Equal(t, 16, n)

	state, err := s.InitialState(2)
	require.NoError(t, err)
	require.Equal(t, 3, state.Len())

	input, err := tensor.FromRows([][]float64{{0.1, 0.2, 0.3}, {-0.1, 0.0, 0.1}}, tensor.Float32)
	require.NoError(t, err)

	out, next, err := s.Step(context.Background(), input, state)
	require.NoError(t, err)
	assert.True(t, s.Built())
	assert.Equal(t, 2, out.Rows())
	assert.Equal(t, 16, out.Cols())
	require.Equal(t, 3, next.Len())

	// Stepping again with the new state keeps the shapes stable.
	out2, _, err := s.Step(context.Background(), input, next)
	require.NoError(t, err)
	assert.Equal(t, 16, out2.Cols())
}

func TestStack_RebuildShapeMismatch(t *testing.T) {
	s := newStack(t)

	require.NoError(t, s.Build(domain.InputShape{Batch: 2, Features: 3}))
	require.NoError(t, s.Build(domain.InputShape{Batch: 2, Features: 3}))

	err := s.Build(domain.InputShape{Batch: 2, Features: 5})
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestStack_DescribeRoundTrip(t *testing.T) {
	s := newStack(t, cellstack.WithName("demo"), cellstack.WithDType(tensor.Float64))
	c := cellstack.NewCodec()

	doc, err := c.EncodeYAML(s)
	require.NoError(t, err)

	back, err := c.DecodeYAML(doc)
	require.NoError(t, err)

	restored, ok := back.(*cellstack.Stack)
	require.True(t, ok, "descriptor reconstructs a stack")
	assert.Equal(t, "demo", restored.Name())
	assert.Equal(t, tensor.Float64, restored.DType())
	assert.Equal(t, 3, restored.Len())
	assert.Equal(t, s.StateShape().Dims(), restored.StateShape().Dims())

	n, declared := restored.OutputSize()
	require.True(t, declared)
	assert.Equal(t, 16, n)

	// A restored stack is unbuilt and steps from scratch.
	assert.False(t, restored.Built())
	st, err := restored.InitialState(1)
	require.NoError(t, err)
	input, err := tensor.FromRows([][]float64{{1, 2}}, tensor.Float32)
	require.NoError(t, err)
	out, _, err := restored.Step(context.Background(), input, st)
	require.NoError(t, err)
	assert.Equal(t, 16, out.Cols())
}

func TestStack_Nesting(t *testing.T) {
	inner := newStack(t)

	simple, err := cells.NewSimple(cells.SimpleConfig{Units: 4, Seed: 5})
	require.NoError(t, err)
	outer, err := cellstack.New([]domain.Cell{simple, inner})
	require.NoError(t, err)

	// The inner stack is exactly one element of the outer state.
	state, err := outer.InitialState(2)
	require.NoError(t, err)
	require.Equal(t, 2, state.Len())
	assert.Equal(t, 3, state.At(1).Len())

	n, ok := outer.OutputSize()
	require.True(t, ok)
	assert.Equal(t, 16, n)

	input, err := tensor.FromRows([][]float64{{1, 0}, {0, 1}}, tensor.Float32)
	require.NoError(t, err)
	out, next, err := outer.Step(context.Background(), input, state)
	require.NoError(t, err)
	assert.Equal(t, 16, out.Cols())
	assert.Equal(t, 2, next.Len())
}

func TestStack_NestedRoundTrip(t *testing.T) {
	inner := newStack(t, cellstack.WithName("inner"))
	simple, err := cells.NewSimple(cells.SimpleConfig{Units: 4})
	require.NoError(t, err)
	outer, err := cellstack.New([]domain.Cell{simple, inner}, cellstack.WithName("outer"))
	require.NoError(t, err)

	c := cellstack.NewCodec()
	doc, err := c.EncodeJSON(outer)
	require.NoError(t, err)

	back, err := c.DecodeJSON(doc)
	require.NoError(t, err)

	restored := back.(*cellstack.Stack)
	assert.Equal(t, "outer", restored.Name())
	require.Equal(t, 2, restored.Len())

	nested, ok := restored.Cells()[1].(*cellstack.Stack)
	require.True(t, ok, "nested stack survives the round trip")
	assert.Equal(t, "inner", nested.Name())
	assert.Equal(t, 3, nested.Len())
}

// bareCell has no serialization config, so describing a stack containing it fails.
type bareCell struct{}

func (bareCell) Step(ctx context.Context, input *tensor.Tensor, state domain.State) (*tensor.Tensor, domain.State, error) {
	return input, state, nil
}

func (bareCell) StateShape() domain.StateShape { return domain.Of(2) }

func TestStack_DescribeFailsOnOpaqueMember(t *testing.T) {
	s, err := cellstack.New([]domain.Cell{bareCell{}})
	require.NoError(t, err)

	_, err = s.Describe()
	require.ErrorIs(t, err, domain.ErrNotSerializable)
	assert.Contains(t, err.Error(), "serialize cell 0")
}

func TestStack_TrainingFlag(t *testing.T) {
	gru, err := cells.NewGRU(cells.GRUConfig{Units: 4, RecurrentDropout: 0.5, Seed: 2})
	require.NoError(t, err)
	s, err := cellstack.New([]domain.Cell{gru})
	require.NoError(t, err)

	input, err := tensor.FromRows([][]float64{{1, -1}}, tensor.Float64)
	require.NoError(t, err)
	prev, err := tensor.FromRows([][]float64{{0.5, -0.5, 0.25, 0.75}}, tensor.Float64)
	require.NoError(t, err)
	state := domain.Nested(domain.Leaf(prev))

	plain, _, err := s.Step(context.Background(), input, state)
	require.NoError(t, err)
	trained, _, err := s.StepTraining(context.Background(), input, state, true)
	require.NoError(t, err)

	differs := false
	for j := 0; j < 4; j++ {
		if plain.At(0, j) != trained.At(0, j) {
			differs = true
		}
	}
	assert.True(t, differs)
}
