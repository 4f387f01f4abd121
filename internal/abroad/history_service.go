package abroad

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/abroad/internal/core/eventbus"
	"github.com/colonyops/abroad/internal/core/history"
	"github.com/colonyops/abroad/internal/core/journey"
)

// HistoryService records journey events as activity entries and serves them
// back to the CLI.
type HistoryService struct {
	store      history.Store
	maxEntries int
	log        zerolog.Logger
	now        func() time.Time
	newID      func() string
}

// NewHistoryService creates a new HistoryService. maxEntries of 0 keeps every
// entry.
func NewHistoryService(store history.Store, maxEntries int, log zerolog.Logger) *HistoryService {
	return &HistoryService{
		store:      store,
		maxEntries: maxEntries,
		log:        log.With().Str("component", "history").Logger(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Register subscribes the recorder to all journey events.
func (s *HistoryService) Register(bus *eventbus.EventBus) {
	bus.SubscribeProfileCreated(func(p eventbus.ProfileCreatedPayload) {
		s.record(p.Profile.ID, history.KindProfileCreated, p.Profile.Name,
			fmt.Sprintf("%s in %s", p.Profile.StudyLevel, p.Profile.TargetCountry))
	})

	bus.SubscribeTaskToggled(func(p eventbus.TaskToggledPayload) {
		detail := "reopened"
		if p.Transition.Completed {
			detail = "completed"
		}
		s.record(p.ProfileID, history.KindTaskToggled, p.TaskTitle, detail)
	})

	bus.SubscribePhaseChanged(func(p eventbus.PhaseChangedPayload) {
		s.record(p.ProfileID, history.KindPhaseChanged, p.Title, fmt.Sprintf("%s → %s", p.From, p.To))
	})

	bus.SubscribePhaseUnlocked(func(p eventbus.PhaseUnlockedPayload) {
		s.record(p.ProfileID, history.KindPhaseUnlocked, p.Title, string(journey.StatusNotStarted))
	})

	bus.SubscribeDocumentChanged(func(p eventbus.DocumentChangedPayload) {
		s.record(p.ProfileID, history.KindDocumentChanged, p.Name, fmt.Sprintf("%s → %s", p.From, p.To))
	})

	bus.SubscribeJourneyReset(func(p eventbus.JourneyResetPayload) {
		s.record(p.ProfileID, history.KindReset, "journey", "")
	})
}

// List returns the entries matching q, newest first.
func (s *HistoryService) List(ctx context.Context, q history.Query) ([]history.Entry, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return history.Filter(entries, q)
}

// Clear removes every entry.
func (s *HistoryService) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func (s *HistoryService) record(profileID string, kind history.Kind, subject, detail string) {
	entry := history.Entry{
		ID:        s.newID(),
		ProfileID: profileID,
		Kind:      kind,
		Subject:   subject,
		Detail:    detail,
		Timestamp: s.now().UTC(),
	}

	if err := s.store.Save(context.Background(), entry, s.maxEntries); err != nil {
		s.log.Error().Err(err).Str("kind", string(kind)).Msg("failed to record history entry")
	}
}
