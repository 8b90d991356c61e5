// Package ports defines the interfaces through which the library talks to
// pluggable infrastructure, and reusable contract suites that verify
// implementations against them.
package ports

import (
	"context"

	"github.com/cellstack/cellstack/pkg/domain"
)

// CheckpointStore persists run checkpoints, enabling stop-and-resume of
// long sequence scans. Implementations must return domain.ErrRunNotFound
// for unknown run IDs.
type CheckpointStore interface {
	// Save persists the checkpoint for its run ID.
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// Load retrieves the latest checkpoint for a run ID.
	Load(ctx context.Context, runID string) (*domain.Checkpoint, error)

	// Delete removes the checkpoint for a run ID.
	Delete(ctx context.Context, runID string) error

	// List returns the run IDs with a stored checkpoint.
	List(ctx context.Context) ([]string, error)
}
