package cellstack_test

import (
	"context"
	"fmt"
	"log"

	"github.com/cellstack/cellstack"
	"github.com/cellstack/cellstack/pkg/cells"
	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/tensor"
)

// ExampleNew demonstrates assembling a stack from built-in cells and stepping
// it through one timestep.
func ExampleNew() {
	// 1. Create the member cells. Order matters: each cell feeds the next.
	simple, err := cells.NewSimple(cells.SimpleConfig{Units: 4, Seed: 1})
	if err != nil {
		log.Fatal(err)
	}
	lstm, err := cells.NewLSTM(cells.LSTMConfig{Units: 8, OutputUnits: 16, Seed: 2})
	if err != nil {
		log.Fatal(err)
	}

	// 2. Assemble the stack. It behaves like a single cell.
	stack, err := cellstack.New([]domain.Cell{simple, lstm}, cellstack.WithName("demo"))
	if err != nil {
		log.Fatal(err)
	}

	// 3. Generate the initial state for a batch of one sequence.
	state, err := stack.InitialState(1)
	if err != nil {
		log.Fatal(err)
	}

	// 4. Step. The first input builds the stack for its feature width.
	input, err := tensor.FromRows([][]float64{{0.1, 0.2, 0.3}}, tensor.Float32)
	if err != nil {
		log.Fatal(err)
	}
	output, _, err := stack.Step(context.Background(), input, state)
	if err != nil {
		log.Fatal(err)
	}

	size, _ := stack.OutputSize()
	fmt.Println("output width:", size)
	fmt.Println("output shape:", output.Rows(), "x", output.Cols())
	// Output:
	// output width: 16
	// output shape: 1 x 16
}

// ExampleStack_Describe shows the serialization round trip: a stack is
// captured as a YAML document and reconstructed from it.
func ExampleStack_Describe() {
	gru, err := cells.NewGRU(cells.GRUConfig{Units: 8})
	if err != nil {
		log.Fatal(err)
	}
	stack, err := cellstack.New([]domain.Cell{gru}, cellstack.WithName("tiny"))
	if err != nil {
		log.Fatal(err)
	}

	codec := cellstack.NewCodec()
	doc, err := codec.EncodeYAML(stack)
	if err != nil {
		log.Fatal(err)
	}

	restored, err := codec.DecodeYAML(doc)
	if err != nil {
		log.Fatal(err)
	}

	back := restored.(*cellstack.Stack)
	fmt.Println("name:", back.Name())
	fmt.Println("cells:", back.Len())
	// Output:
	// name: tiny
	// cells: 1
}
