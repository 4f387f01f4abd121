package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/colonyops/abroad/internal/core/journey"
)

// SnapshotStore implements journey.Store with one JSON file per profile.
type SnapshotStore struct {
	path string
	mu   sync.RWMutex
}

var _ journey.Store = (*SnapshotStore)(nil)

// NewSnapshotStore returns a store that keeps the snapshot of profileID at
// <dir>/<profileID>.json.
func NewSnapshotStore(dir, profileID string) *SnapshotStore {
	return &SnapshotStore{path: filepath.Join(dir, profileID+".json")}
}

// Load returns the persisted snapshot or journey.ErrNoSnapshot.
func (s *SnapshotStore) Load(ctx context.Context) (journey.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap journey.Snapshot
	found, err := readJSON(s.path, &snap)
	if err != nil {
		return journey.Snapshot{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	if !found {
		return journey.Snapshot{}, journey.ErrNoSnapshot
	}
	return snap, nil
}

// Save replaces the snapshot file.
func (s *SnapshotStore) Save(ctx context.Context, snap journey.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSON(s.path, snap); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// Clear removes the snapshot file.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	return nil
}
