package abroad

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/abroad/internal/core/eventbus"
	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/internal/core/validate"
	"github.com/colonyops/abroad/internal/data/stores"
)

var (
	// ErrAlreadyOnboarded is returned by Onboard when a journey is in progress.
	ErrAlreadyOnboarded = errors.New("a journey is already in progress; run 'abroad reset' to start over")

	// ErrBusy is returned when another process held the database write lock
	// for longer than database.busy_timeout.
	ErrBusy = errors.New("the abroad database is busy; another abroad command may be running, try again")
)

// SnapshotStoreFunc returns the journey.Store for a profile.
type SnapshotStoreFunc func(profileID string) journey.Store

// Journey is a loaded profile and its engine.
type Journey struct {
	Profile journey.Profile
	Engine  *journey.Engine
}

// JourneyService ties profiles, the current-session pointer and per-profile
// engines together and publishes journey events.
type JourneyService struct {
	profiles  journey.ProfileStore
	snapshots SnapshotStoreFunc
	seed      journey.Seed
	bus       *eventbus.EventBus
	log       zerolog.Logger
	nextSteps int
	now       func() time.Time
}

// NewJourneyService creates a new JourneyService.
func NewJourneyService(
	profiles journey.ProfileStore,
	snapshots SnapshotStoreFunc,
	seed journey.Seed,
	bus *eventbus.EventBus,
	nextSteps int,
	log zerolog.Logger,
) *JourneyService {
	return &JourneyService{
		profiles:  profiles,
		snapshots: snapshots,
		seed:      seed,
		bus:       bus,
		log:       log.With().Str("component", "journey-service").Logger(),
		nextSteps: nextSteps,
		now:       time.Now,
	}
}

// Onboard validates the form, creates the profile, points the session at it
// and saves the seeded journey.
func (s *JourneyService) Onboard(ctx context.Context, in validate.ProfileInput) (Journey, error) {
	if err := validate.Profile(in, s.now()); err != nil {
		return Journey{}, err
	}

	if _, err := s.currentID(ctx); err == nil {
		return Journey{}, ErrAlreadyOnboarded
	} else if !errors.Is(err, journey.ErrNoProfile) {
		return Journey{}, err
	}

	profile, err := s.profiles.Create(ctx, journey.Profile{
		Name:          in.Name,
		TargetCountry: in.TargetCountry,
		StudyLevel:    in.StudyLevel,
		StartDate:     in.StartDate,
	})
	if err != nil {
		return Journey{}, busyErr(fmt.Errorf("create profile: %w", err))
	}

	engine := journey.NewEngine(s.snapshots(profile.ID), s.seed)
	if err := engine.Load(ctx); err != nil {
		s.discardProfile(ctx, profile.ID)
		return Journey{}, busyErr(err)
	}

	s.log.Info().Str("profile_id", profile.ID).Msg("profile created")
	s.bus.PublishProfileCreated(eventbus.ProfileCreatedPayload{Profile: profile})

	return Journey{Profile: profile, Engine: engine}, nil
}

// Current loads the journey of the current session.
// Returns journey.ErrNoProfile if nobody has onboarded.
func (s *JourneyService) Current(ctx context.Context) (Journey, error) {
	id, err := s.currentID(ctx)
	if err != nil {
		return Journey{}, err
	}

	profile, err := s.profiles.Get(ctx, id)
	if errors.Is(err, journey.ErrProfileNotFound) {
		s.log.Warn().Str("profile_id", id).Msg("session points at a missing profile")
		return Journey{}, journey.ErrNoProfile
	}
	if err != nil {
		return Journey{}, err
	}

	engine := journey.NewEngine(s.snapshots(id), s.seed)
	if err := engine.Load(ctx); err != nil {
		return Journey{}, busyErr(err)
	}

	return Journey{Profile: profile, Engine: engine}, nil
}

// ToggleTask flips a task of the current journey. Tasks in a locked phase
// cannot be toggled. Unknown IDs are reported as applied == false.
func (s *JourneyService) ToggleTask(ctx context.Context, phaseID, taskID string) (journey.Transition, bool, error) {
	j, err := s.Current(ctx)
	if err != nil {
		return journey.Transition{}, false, err
	}

	phase, ok := j.Engine.Phase(phaseID)
	if !ok || !phase.HasTask(taskID) {
		s.log.Debug().Str("phase_id", phaseID).Str("task_id", taskID).Msg("toggle: unknown phase or task")
		return journey.Transition{}, false, nil
	}
	if phase.Status == journey.StatusLocked {
		return journey.Transition{}, false, fmt.Errorf("%w: %q unlocks when the previous phase is complete", journey.ErrPhaseLocked, phase.Title)
	}

	tr, applied, err := j.Engine.ToggleTask(ctx, phaseID, taskID)
	if err != nil || !applied {
		return tr, applied, busyErr(err)
	}

	s.bus.PublishTaskToggled(eventbus.TaskToggledPayload{
		ProfileID:  j.Profile.ID,
		TaskTitle:  taskTitle(phase, taskID),
		Transition: tr,
	})

	if tr.Changed() {
		s.bus.PublishPhaseChanged(eventbus.PhaseChangedPayload{
			ProfileID: j.Profile.ID,
			PhaseID:   phase.ID,
			Title:     phase.Title,
			From:      tr.From,
			To:        tr.To,
		})
	}

	for _, id := range tr.Unlocked {
		unlocked, _ := j.Engine.Phase(id)
		s.bus.PublishPhaseUnlocked(eventbus.PhaseUnlockedPayload{
			ProfileID: j.Profile.ID,
			PhaseID:   id,
			Title:     unlocked.Title,
		})
	}

	return tr, true, nil
}

// SetDocumentStatus replaces the status of a document of the current journey.
func (s *JourneyService) SetDocumentStatus(ctx context.Context, docID string, status journey.DocumentStatus) (bool, error) {
	j, err := s.Current(ctx)
	if err != nil {
		return false, err
	}

	var before journey.Document
	for _, d := range j.Engine.Documents() {
		if d.ID == docID {
			before = d
			break
		}
	}

	applied, err := j.Engine.SetDocumentStatus(ctx, docID, status)
	if err != nil || !applied {
		if err == nil {
			s.log.Debug().Str("document_id", docID).Msg("set document: unknown document")
		}
		return applied, busyErr(err)
	}

	s.bus.PublishDocumentChanged(eventbus.DocumentChangedPayload{
		ProfileID:  j.Profile.ID,
		DocumentID: docID,
		Name:       before.Name,
		From:       before.Status,
		To:         status,
	})

	return true, nil
}

// Reset clears the journey, then deletes the profile together with the
// session pointer.
func (s *JourneyService) Reset(ctx context.Context) error {
	id, err := s.currentID(ctx)
	if err != nil {
		return err
	}

	engine := journey.NewEngine(s.snapshots(id), s.seed)
	if err := engine.Reset(ctx); err != nil {
		return busyErr(err)
	}

	if err := s.profiles.Delete(ctx, id); err != nil && !errors.Is(err, journey.ErrProfileNotFound) {
		return busyErr(fmt.Errorf("delete profile: %w", err))
	}

	s.log.Info().Str("profile_id", id).Msg("journey reset")
	s.bus.PublishJourneyReset(eventbus.JourneyResetPayload{ProfileID: id})

	return nil
}

// Reconcile checks the current journey's phase statuses against their tasks.
// When fix is set and issues were found, the corrected statuses are saved.
func (s *JourneyService) Reconcile(ctx context.Context, fix bool) ([]string, error) {
	j, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	snap := j.Engine.Snapshot()
	phases, issues := journey.Reconcile(snap.Phases)
	if len(issues) == 0 || !fix {
		return issues, nil
	}

	snap.Phases = phases
	if err := j.Engine.Replace(ctx, snap); err != nil {
		return issues, busyErr(fmt.Errorf("save reconciled journey: %w", err))
	}

	s.log.Info().Str("profile_id", j.Profile.ID).Int("fixed", len(issues)).Msg("journey reconciled")
	return issues, nil
}

// Summary builds the dashboard view of j as of now.
func (s *JourneyService) Summary(j Journey) journey.Summary {
	return journey.Summarize(j.Engine.Phases(), j.Engine.Documents(), j.Profile.StartDate, s.now(), s.nextSteps)
}

// ExportVersion is the current export document version.
const ExportVersion = 1

// Export is a portable copy of a journey.
type Export struct {
	Version    int              `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Profile    journey.Profile  `json:"profile"`
	Journey    journey.Snapshot `json:"journey"`
}

// Export returns the current journey as a portable document.
func (s *JourneyService) Export(ctx context.Context) (Export, error) {
	j, err := s.Current(ctx)
	if err != nil {
		return Export{}, err
	}

	return Export{
		Version:    ExportVersion,
		ExportedAt: s.now().UTC(),
		Profile:    j.Profile,
		Journey:    j.Engine.Snapshot(),
	}, nil
}

// Import restores an exported journey. When nobody has onboarded, the exported
// profile is recreated first; otherwise the current profile keeps its identity
// and only the phase and document state is replaced. The journey is checked
// before anything is written, and a recreated profile is removed again if the
// journey cannot be saved.
func (s *JourneyService) Import(ctx context.Context, doc Export) (Journey, error) {
	if doc.Version != ExportVersion {
		return Journey{}, fmt.Errorf("unsupported export version %d", doc.Version)
	}

	snap, err := s.seed.Prepare(doc.Journey)
	if err != nil {
		return Journey{}, fmt.Errorf("import journey: %w", err)
	}

	restored := false
	j, err := s.Current(ctx)
	switch {
	case errors.Is(err, journey.ErrNoProfile):
		j, err = s.restoreProfile(ctx, doc.Profile)
		if err != nil {
			return Journey{}, err
		}
		restored = true
	case err != nil:
		return Journey{}, err
	}

	if err := j.Engine.Replace(ctx, snap); err != nil {
		if restored {
			s.discardProfile(ctx, j.Profile.ID)
		}
		return Journey{}, busyErr(err)
	}

	if restored {
		s.bus.PublishProfileCreated(eventbus.ProfileCreatedPayload{Profile: j.Profile})
	}

	s.log.Info().Str("profile_id", j.Profile.ID).Msg("journey imported")
	return j, nil
}

func (s *JourneyService) restoreProfile(ctx context.Context, p journey.Profile) (Journey, error) {
	in := validate.ProfileInput{
		Name:          p.Name,
		TargetCountry: p.TargetCountry,
		StudyLevel:    p.StudyLevel,
		StartDate:     p.StartDate,
	}
	// An exported start date may have passed since the export; only the start
	// month rule is relaxed.
	if err := validate.Profile(in, p.StartDate); err != nil {
		return Journey{}, err
	}

	profile, err := s.profiles.Create(ctx, journey.Profile{
		Name:          p.Name,
		TargetCountry: p.TargetCountry,
		StudyLevel:    p.StudyLevel,
		StartDate:     p.StartDate,
	})
	if err != nil {
		return Journey{}, busyErr(fmt.Errorf("create profile: %w", err))
	}

	return Journey{Profile: profile, Engine: journey.NewEngine(s.snapshots(profile.ID), s.seed)}, nil
}

// discardProfile removes a profile created earlier in a call that then failed.
func (s *JourneyService) discardProfile(ctx context.Context, id string) {
	if err := s.snapshots(id).Clear(ctx); err != nil {
		s.log.Warn().Err(err).Str("profile_id", id).Msg("discard snapshot")
	}
	if err := s.profiles.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("profile_id", id).Msg("discard profile")
	}
}

func (s *JourneyService) currentID(ctx context.Context) (string, error) {
	id, err := s.profiles.CurrentID(ctx)
	if err != nil && !errors.Is(err, journey.ErrNoProfile) {
		return "", busyErr(err)
	}
	return id, err
}

// busyErr marks SQLite lock timeouts with ErrBusy.
func busyErr(err error) error {
	if err != nil && stores.IsBusyError(err) {
		return fmt.Errorf("%w: %w", ErrBusy, err)
	}
	return err
}

func taskTitle(p journey.Phase, taskID string) string {
	for _, t := range p.Tasks {
		if t.ID == taskID {
			return t.Title
		}
	}
	return taskID
}
