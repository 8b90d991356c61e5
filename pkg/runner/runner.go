// Package runner drives a cell stack across a timestep sequence: it feeds
// one input tensor per step, threads the state functionally, and optionally
// checkpoints progress so interrupted runs can resume where they stopped.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cellstack/cellstack"
	"github.com/cellstack/cellstack/internal/logging"
	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/ports"
	"github.com/cellstack/cellstack/pkg/tensor"
)

// Runner executes a stack over input sequences.
type Runner struct {
	// Stack is the composite cell to drive.
	Stack *cellstack.Stack

	// Store is the persistence adapter for durable runs.
	// If nil, runs are ephemeral.
	Store ports.CheckpointStore

	// CheckpointEvery saves a checkpoint after every N steps when a store
	// is configured. Zero checkpoints only at the end of the run.
	CheckpointEvery int

	// Training forwards the training-mode flag to training-aware cells.
	Training bool

	// Logger is used for internal debug logging. If nil, a no-op logger is used.
	Logger *slog.Logger
}

// Result is the outcome of a completed run.
type Result struct {
	RunID  string
	Steps  int
	Output *tensor.Tensor
	State  domain.State
}

// NewRunner creates a runner over a stack.
func NewRunner(stack *cellstack.Stack) *Runner {
	return &Runner{
		Stack:  stack,
		Logger: logging.NewNop(),
	}
}

// Run scans the input sequence through the stack, one tensor per timestep.
//
// If runID is empty a fresh ID is generated. When a store is configured and
// already holds a checkpoint for the run, the scan resumes after the
// checkpointed step instead of replaying the whole sequence; the remaining
// inputs must then be positioned accordingly.
func (r *Runner) Run(ctx context.Context, runID string, steps []*tensor.Tensor) (*Result, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("run needs at least one input step")
	}
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	state, start, err := r.resolveInitialState(ctx, runID, steps[0].Rows())
	if err != nil {
		return nil, err
	}
	if start >= len(steps) {
		return nil, fmt.Errorf("checkpoint at step %d but sequence has %d steps", start, len(steps))
	}

	logger.Debug("starting run", "run_id", runID, "steps", len(steps), "resume_at", start)

	var output *tensor.Tensor
	for i := start; i < len(steps); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		output, state, err = r.Stack.StepTraining(ctx, steps[i], state, r.Training)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		done := i + 1
		if r.Store != nil && r.CheckpointEvery > 0 && done%r.CheckpointEvery == 0 && done < len(steps) {
			if err := r.save(ctx, runID, done, state); err != nil {
				return nil, err
			}
		}
	}

	if r.Store != nil {
		if err := r.save(ctx, runID, len(steps), state); err != nil {
			return nil, err
		}
	}

	return &Result{RunID: runID, Steps: len(steps), Output: output, State: state}, nil
}

// resolveInitialState loads a checkpoint when one exists, else generates the
// stack's initial state for the batch.
func (r *Runner) resolveInitialState(ctx context.Context, runID string, batchSize int) (domain.State, int, error) {
	if r.Store != nil {
		cp, err := r.Store.Load(ctx, runID)
		switch {
		case err == nil:
			return cp.State, cp.Step, nil
		case errors.Is(err, domain.ErrRunNotFound):
			// fresh run
		default:
			return domain.State{}, 0, fmt.Errorf("load checkpoint: %w", err)
		}
	}

	state, err := r.Stack.InitialState(batchSize)
	if err != nil {
		return domain.State{}, 0, err
	}
	return state, 0, nil
}

func (r *Runner) save(ctx context.Context, runID string, step int, state domain.State) error {
	cp := &domain.Checkpoint{RunID: runID, Step: step, State: state, UpdatedAt: nowUTC()}
	if err := r.Store.Save(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint at step %d: %w", step, err)
	}
	return nil
}
