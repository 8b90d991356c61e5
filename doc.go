// Package cellstack composes single-step recurrent cells into one logical
// composite cell, so a sequence-scanning driver can treat a stack of cells
// exactly like a single cell.
//
// The stack validates the cell contract once at construction, builds each
// cell lazily the first time an input shape is seen, threads per-cell state
// through the pipeline functionally, resolves the stack's output width from
// its last cell, and round-trips its full structure through a typed
// descriptor registry. Because the stack satisfies the cell contract
// itself, stacks nest inside other stacks transparently.
//
// Basic usage:
//
//	a, _ := cells.NewGRU(cells.GRUConfig{Units: 8})
//	b, _ := cells.NewLSTM(cells.LSTMConfig{Units: 16})
//	stack, err := cellstack.New([]domain.Cell{a, b})
//	if err != nil {
//		// a candidate violated the cell contract
//	}
//	state, _ := stack.InitialState(batchSize)
//	for _, input := range sequence {
//		output, state, err = stack.Step(ctx, input, state)
//	}
//
// The pkg/runner package provides the outer sequence driver, including
// durable checkpointing; pkg/adapters/http serves a stack over HTTP.
package cellstack
