package stores

import (
	"context"
	"fmt"

	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/internal/core/kv"
)

// SnapshotNamespace is the KV namespace holding journey snapshots keyed by
// profile ID.
const SnapshotNamespace = "journey"

// SnapshotStore implements journey.Store for one profile on top of a KV store.
type SnapshotStore struct {
	snaps     *kv.TypedKV[journey.Snapshot]
	profileID string
}

var _ journey.Store = (*SnapshotStore)(nil)

// NewSnapshotStore returns a snapshot store for the given profile.
func NewSnapshotStore(store kv.KV, profileID string) *SnapshotStore {
	return &SnapshotStore{
		snaps:     kv.Scoped[journey.Snapshot](store, SnapshotNamespace),
		profileID: profileID,
	}
}

// Load returns the persisted snapshot or journey.ErrNoSnapshot.
func (s *SnapshotStore) Load(ctx context.Context) (journey.Snapshot, error) {
	snap, err := s.snaps.Get(ctx, s.profileID)
	if IsNotFoundError(err) {
		return journey.Snapshot{}, journey.ErrNoSnapshot
	}
	if err != nil {
		return journey.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

// Save replaces the persisted snapshot.
func (s *SnapshotStore) Save(ctx context.Context, snap journey.Snapshot) error {
	if err := s.snaps.Set(ctx, s.profileID, snap); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Clear removes the persisted snapshot.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	if err := s.snaps.Delete(ctx, s.profileID); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}
