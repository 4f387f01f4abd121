package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/internal/data/db"
)

// CurrentProfileKey is the KV key holding the ID of the current profile.
const CurrentProfileKey = "session:current"

// ProfileStore implements journey.ProfileStore using SQLite. The current
// profile pointer lives in the KV table so it commits with the profile row.
type ProfileStore struct {
	db  *db.DB
	now func() time.Time
}

var _ journey.ProfileStore = (*ProfileStore)(nil)

// NewProfileStore creates a new SQLite-backed profile store.
func NewProfileStore(db *db.DB) *ProfileStore {
	return &ProfileStore{db: db, now: time.Now}
}

// Create inserts the profile and points the session at it in one transaction,
// assigning an ID and creation time when unset.
func (s *ProfileStore) Create(ctx context.Context, p journey.Profile) (journey.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}

	pointer, err := json.Marshal(p.ID)
	if err != nil {
		return journey.Profile{}, fmt.Errorf("failed to encode current profile: %w", err)
	}

	err = s.db.WithTx(ctx, func(q *db.Queries) error {
		if err := q.CreateProfile(ctx, db.CreateProfileParams{
			ID:            p.ID,
			Name:          p.Name,
			TargetCountry: p.TargetCountry,
			StudyLevel:    string(p.StudyLevel),
			StartDate:     p.StartDate.UnixNano(),
			CreatedAt:     p.CreatedAt.UnixNano(),
		}); err != nil {
			return err
		}

		now := s.now().UnixNano()
		return q.KVSet(ctx, db.KVSetParams{
			Key:       CurrentProfileKey,
			Value:     pointer,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return journey.Profile{}, fmt.Errorf("failed to create profile: %w", err)
	}

	return p, nil
}

// CurrentID returns the ID the session points at, or journey.ErrNoProfile.
func (s *ProfileStore) CurrentID(ctx context.Context) (string, error) {
	row, err := s.db.Queries().KVGet(ctx, CurrentProfileKey)
	if IsNotFoundError(err) {
		return "", journey.ErrNoProfile
	}
	if err != nil {
		return "", fmt.Errorf("failed to get current profile: %w", err)
	}

	var id string
	if err := json.Unmarshal(row.Value, &id); err != nil {
		return "", fmt.Errorf("failed to decode current profile: %w", err)
	}
	return id, nil
}

// Get returns a profile by ID. Returns journey.ErrProfileNotFound if not found.
func (s *ProfileStore) Get(ctx context.Context, id string) (journey.Profile, error) {
	row, err := s.db.Queries().GetProfile(ctx, id)
	if IsNotFoundError(err) {
		return journey.Profile{}, journey.ErrProfileNotFound
	}
	if err != nil {
		return journey.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}

	return rowToProfile(row), nil
}

// Delete removes a profile by ID and clears the session pointer when it
// refers to that profile. Returns journey.ErrProfileNotFound if not found.
func (s *ProfileStore) Delete(ctx context.Context, id string) error {
	var deleted int64
	err := s.db.WithTx(ctx, func(q *db.Queries) error {
		n, err := q.DeleteProfile(ctx, id)
		if err != nil {
			return err
		}
		deleted = n

		row, err := q.KVGet(ctx, CurrentProfileKey)
		if IsNotFoundError(err) {
			return nil
		}
		if err != nil {
			return err
		}

		var current string
		if err := json.Unmarshal(row.Value, &current); err != nil || current == id {
			return q.KVDelete(ctx, CurrentProfileKey)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if deleted == 0 {
		return journey.ErrProfileNotFound
	}
	return nil
}

func rowToProfile(row db.Profile) journey.Profile {
	return journey.Profile{
		ID:            row.ID,
		Name:          row.Name,
		TargetCountry: row.TargetCountry,
		StudyLevel:    journey.StudyLevel(row.StudyLevel),
		StartDate:     time.Unix(0, row.StartDate),
		CreatedAt:     time.Unix(0, row.CreatedAt),
	}
}
