package journey

import "context"

// Store persists the phase and document state of a single journey.
type Store interface {
	// Load returns the persisted snapshot.
	// Returns ErrNoSnapshot if nothing has been saved.
	Load(ctx context.Context) (Snapshot, error)

	// Save replaces the persisted snapshot.
	Save(ctx context.Context, snap Snapshot) error

	// Clear removes the persisted snapshot. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// ProfileStore persists onboarding profiles and which one is current.
type ProfileStore interface {
	// Create persists a new profile and makes it current in one write. The
	// store populates ID and CreatedAt if not set.
	Create(ctx context.Context, p Profile) (Profile, error)

	// CurrentID returns the ID of the current profile.
	// Returns ErrNoProfile if no profile is current.
	CurrentID(ctx context.Context) (string, error)

	// Get returns a profile by ID.
	// Returns ErrProfileNotFound if the profile does not exist.
	Get(ctx context.Context, id string) (Profile, error)

	// Delete removes a profile by ID and, in the same write, clears the current
	// pointer when it refers to id. Returns ErrProfileNotFound if the profile
	// does not exist; the pointer is still cleared.
	Delete(ctx context.Context, id string) error
}
