// Package memory provides an in-process CheckpointStore, used as the
// default when no durable backend is configured and as the reference
// implementation of the store contract.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cellstack/cellstack/pkg/domain"
)

// Store implements ports.CheckpointStore with a mutex-guarded map.
type Store struct {
	mu   sync.RWMutex
	runs map[string]domain.Checkpoint
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		runs: make(map[string]domain.Checkpoint),
	}
}

// Save persists the checkpoint, overwriting any previous one for the run.
func (s *Store) Save(ctx context.Context, cp *domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[cp.RunID] = *cp
	return nil
}

// Load retrieves the checkpoint for a run ID.
func (s *Store) Load(ctx context.Context, runID string) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	out := cp
	return &out, nil
}

// Delete removes the checkpoint for a run ID.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, runID)
	return nil
}

// List returns the stored run IDs, sorted for stable output.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.runs))
	for id := range s.runs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
