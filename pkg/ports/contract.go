package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellstack/cellstack/pkg/domain"
	"github.com/cellstack/cellstack/pkg/tensor"
)

// RunCheckpointStoreContract verifies that a CheckpointStore implementation
// adheres to the interface contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	checkpoint := func(id string, step int) *domain.Checkpoint {
		return &domain.Checkpoint{
			RunID: id,
			Step:  step,
			State: domain.Nested(
				domain.Leaf(tensor.Zeros(2, 4, tensor.Float32)),
				domain.Nested(
					domain.Leaf(tensor.Zeros(2, 8, tensor.Float32)),
					domain.Leaf(tensor.Zeros(2, 8, tensor.Float32)),
				),
			),
			UpdatedAt: time.Now().UTC(),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, checkpoint(runID, 7))
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, runID, loaded.RunID)
		assert.Equal(t, 7, loaded.Step)
		require.Equal(t, 2, loaded.State.Len())
		assert.True(t, loaded.State.At(0).IsLeaf())
		assert.Equal(t, 2, loaded.State.At(1).Len())
		assert.Equal(t, 4, loaded.State.At(0).Tensor().Cols())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, checkpoint(runID, 1)))

		err := store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, checkpoint(id1, 1)))
		require.NoError(t, store.Save(ctx, checkpoint(id2, 2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
