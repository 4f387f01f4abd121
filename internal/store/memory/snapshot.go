// Package memory provides process-local journey stores. State is lost when the
// process exits.
package memory

import (
	"context"

	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/pkg/kv"
)

// Snapshots holds journey snapshots for many profiles in memory.
type Snapshots struct {
	data *kv.Store[string, journey.Snapshot]
}

// NewSnapshots creates an empty in-memory snapshot registry.
func NewSnapshots() *Snapshots {
	return &Snapshots{data: kv.New[string, journey.Snapshot]()}
}

// For returns the journey.Store for a single profile.
func (s *Snapshots) For(profileID string) *SnapshotStore {
	return &SnapshotStore{data: s.data, key: profileID}
}

// SnapshotStore implements journey.Store for one profile.
type SnapshotStore struct {
	data *kv.Store[string, journey.Snapshot]
	key  string
}

var _ journey.Store = (*SnapshotStore)(nil)

// NewSnapshotStore returns a standalone in-memory journey.Store.
func NewSnapshotStore() *SnapshotStore {
	return NewSnapshots().For("default")
}

// Load returns a copy of the stored snapshot or journey.ErrNoSnapshot.
func (s *SnapshotStore) Load(ctx context.Context) (journey.Snapshot, error) {
	snap, ok := s.data.Get(s.key)
	if !ok {
		return journey.Snapshot{}, journey.ErrNoSnapshot
	}
	return snap.Clone(), nil
}

// Save stores a copy of snap.
func (s *SnapshotStore) Save(ctx context.Context, snap journey.Snapshot) error {
	s.data.Set(s.key, snap.Clone())
	return nil
}

// Clear removes the stored snapshot.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	s.data.Delete(s.key)
	return nil
}
