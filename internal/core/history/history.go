// Package history defines the journey activity log.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNotFound is returned when a history entry does not exist.
var ErrNotFound = errors.New("history entry not found")

// Kind names the activity an entry records.
type Kind string

const (
	KindProfileCreated  Kind = "profile.created"
	KindTaskToggled     Kind = "journey.task-toggled"
	KindPhaseChanged    Kind = "journey.phase-changed"
	KindPhaseUnlocked   Kind = "journey.phase-unlocked"
	KindDocumentChanged Kind = "journey.document-changed"
	KindReset           Kind = "journey.reset"
)

// Entry represents one recorded journey activity.
type Entry struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	Kind      Kind      `json:"kind"`
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Store persists activity entries, newest first.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	Save(ctx context.Context, entry Entry, maxEntries int) error
	Clear(ctx context.Context) error
}

// Query selects entries from a history list.
type Query struct {
	ProfileID string // required; entries of other profiles are skipped
	Kind      string // doublestar pattern, e.g. "journey.*"; empty matches all
	Limit     int    // max entries; 0 means no limit
}

// Filter returns the entries matching q, preserving order.
func Filter(entries []Entry, q Query) ([]Entry, error) {
	if q.Kind != "" && !doublestar.ValidatePattern(q.Kind) {
		return nil, fmt.Errorf("invalid kind pattern %q", q.Kind)
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ProfileID != q.ProfileID {
			continue
		}
		if q.Kind != "" {
			ok, err := doublestar.Match(q.Kind, string(e.Kind))
			if err != nil {
				return nil, fmt.Errorf("match kind: %w", err)
			}
			if !ok {
				continue
			}
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}
