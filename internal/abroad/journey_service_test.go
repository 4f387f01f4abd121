package abroad

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/abroad/internal/core/eventbus"
	"github.com/colonyops/abroad/internal/core/eventbus/testbus"
	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/internal/core/validate"
	"github.com/colonyops/abroad/internal/data/db"
	"github.com/colonyops/abroad/internal/data/stores"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestJourneyService(t *testing.T) (*JourneyService, *testbus.Bus) {
	t.Helper()

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	seed, err := journey.DefaultSeed()
	require.NoError(t, err)

	kvStore := stores.NewKVStore(database)
	tb := testbus.New(t)

	svc := NewJourneyService(
		stores.NewProfileStore(database),
		func(id string) journey.Store { return stores.NewSnapshotStore(kvStore, id) },
		seed,
		tb.EventBus,
		3,
		zerolog.Nop(),
	)
	svc.now = func() time.Time { return testNow }

	return svc, tb
}

// failingStore is a journey.Store whose saves always fail.
type failingStore struct {
	journey.Store
}

func (failingStore) Save(context.Context, journey.Snapshot) error {
	return errors.New("disk full")
}

func validInput() validate.ProfileInput {
	return validate.ProfileInput{
		Name:          "Ada",
		TargetCountry: "Germany",
		StudyLevel:    journey.LevelMasters,
		StartDate:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func onboard(t *testing.T, svc *JourneyService) Journey {
	t.Helper()
	j, err := svc.Onboard(context.Background(), validInput())
	require.NoError(t, err)
	return j
}

func TestJourneyService_Onboard(t *testing.T) {
	ctx := context.Background()

	t.Run("creates profile and seeded journey", func(t *testing.T) {
		svc, tb := newTestJourneyService(t)

		j := onboard(t, svc)
		assert.NotEmpty(t, j.Profile.ID)
		assert.Equal(t, "Ada", j.Profile.Name)
		assert.Len(t, j.Engine.Phases(), 6)

		tb.AssertPublished(t, eventbus.EventProfileCreated)

		current, err := svc.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, j.Profile.ID, current.Profile.ID)
		assert.Empty(t, cmp.Diff(j.Engine.Snapshot(), current.Engine.Snapshot()))
	})

	t.Run("rejects a second onboarding", func(t *testing.T) {
		svc, _ := newTestJourneyService(t)
		onboard(t, svc)

		_, err := svc.Onboard(ctx, validInput())
		assert.ErrorIs(t, err, ErrAlreadyOnboarded)
	})

	t.Run("failed journey save leaves no profile", func(t *testing.T) {
		svc, _ := newTestJourneyService(t)
		snapshots := svc.snapshots
		svc.snapshots = func(id string) journey.Store { return failingStore{Store: snapshots(id)} }

		_, err := svc.Onboard(ctx, validInput())
		require.Error(t, err)

		_, err = svc.Current(ctx)
		assert.ErrorIs(t, err, journey.ErrNoProfile)
	})

	t.Run("validation errors are reported per field", func(t *testing.T) {
		svc, tb := newTestJourneyService(t)

		in := validInput()
		in.Name = " "
		in.StartDate = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

		_, err := svc.Onboard(ctx, in)

		var fieldErrs criterio.FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		assert.Len(t, fieldErrs, 2)

		_, err = svc.Current(ctx)
		assert.ErrorIs(t, err, journey.ErrNoProfile)
		tb.AssertNotPublished(t, eventbus.EventProfileCreated, 20*time.Millisecond)
	})
}

func TestJourneyService_CurrentWithoutProfile(t *testing.T) {
	svc, _ := newTestJourneyService(t)

	_, err := svc.Current(context.Background())
	assert.ErrorIs(t, err, journey.ErrNoProfile)
}

func TestJourneyService_ToggleTask(t *testing.T) {
	ctx := context.Background()

	t.Run("first toggle starts the phase", func(t *testing.T) {
		svc, tb := newTestJourneyService(t)
		j := onboard(t, svc)

		tr, applied, err := svc.ToggleTask(ctx, "research", "research-destinations")
		require.NoError(t, err)
		require.True(t, applied)
		assert.True(t, tr.Completed)
		assert.Equal(t, journey.StatusNotStarted, tr.From)
		assert.Equal(t, journey.StatusInProgress, tr.To)

		require.True(t, tb.WaitFor(eventbus.EventPhaseChanged, time.Second))

		toggled := tb.Payloads(eventbus.EventTaskToggled)
		require.Len(t, toggled, 1)
		payload := toggled[0].(eventbus.TaskToggledPayload)
		assert.Equal(t, j.Profile.ID, payload.ProfileID)
		assert.Equal(t, "Research study destinations", payload.TaskTitle)

		current, err := svc.Current(ctx)
		require.NoError(t, err)
		phase, _ := current.Engine.Phase("research")
		assert.Equal(t, journey.StatusInProgress, phase.Status)
	})

	t.Run("completing a phase unlocks the next", func(t *testing.T) {
		svc, tb := newTestJourneyService(t)
		j := onboard(t, svc)

		phase, _ := j.Engine.Phase("research")
		for _, task := range phase.Tasks {
			_, applied, err := svc.ToggleTask(ctx, "research", task.ID)
			require.NoError(t, err)
			require.True(t, applied)
		}

		require.True(t, tb.WaitFor(eventbus.EventPhaseUnlocked, time.Second))
		unlocked := tb.Payloads(eventbus.EventPhaseUnlocked)
		require.Len(t, unlocked, 1)
		assert.Equal(t, "tests", unlocked[0].(eventbus.PhaseUnlockedPayload).PhaseID)
		assert.Equal(t, "Tests & Preparation", unlocked[0].(eventbus.PhaseUnlockedPayload).Title)

		_, applied, err := svc.ToggleTask(ctx, "tests", "tests-language")
		require.NoError(t, err)
		assert.True(t, applied)
	})

	t.Run("locked phase is rejected", func(t *testing.T) {
		svc, tb := newTestJourneyService(t)
		onboard(t, svc)

		_, applied, err := svc.ToggleTask(ctx, "visa", "visa-apply")
		assert.ErrorIs(t, err, journey.ErrPhaseLocked)
		assert.False(t, applied)
		tb.AssertNotPublished(t, eventbus.EventTaskToggled, 20*time.Millisecond)
	})

	t.Run("unknown ids are a no-op", func(t *testing.T) {
		svc, tb := newTestJourneyService(t)
		onboard(t, svc)

		_, applied, err := svc.ToggleTask(ctx, "nope", "research-destinations")
		require.NoError(t, err)
		assert.False(t, applied)

		_, applied, err = svc.ToggleTask(ctx, "research", "nope")
		require.NoError(t, err)
		assert.False(t, applied)

		_, applied, err = svc.ToggleTask(ctx, "visa", "nope")
		require.NoError(t, err, "unknown task in a locked phase")
		assert.False(t, applied)

		tb.AssertNotPublished(t, eventbus.EventTaskToggled, 20*time.Millisecond)
	})

	t.Run("requires a profile", func(t *testing.T) {
		svc, _ := newTestJourneyService(t)

		_, _, err := svc.ToggleTask(ctx, "research", "research-destinations")
		assert.ErrorIs(t, err, journey.ErrNoProfile)
	})
}

func TestJourneyService_SetDocumentStatus(t *testing.T) {
	ctx := context.Background()
	svc, tb := newTestJourneyService(t)
	onboard(t, svc)

	applied, err := svc.SetDocumentStatus(ctx, "passport", journey.DocumentReady)
	require.NoError(t, err)
	assert.True(t, applied)

	require.True(t, tb.WaitFor(eventbus.EventDocumentChanged, time.Second))
	payload := tb.Payloads(eventbus.EventDocumentChanged)[0].(eventbus.DocumentChangedPayload)
	assert.Equal(t, "Valid passport", payload.Name)
	assert.Equal(t, journey.DocumentMissing, payload.From)
	assert.Equal(t, journey.DocumentReady, payload.To)

	applied, err = svc.SetDocumentStatus(ctx, "nope", journey.DocumentReady)
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = svc.SetDocumentStatus(ctx, "passport", "lost")
	assert.ErrorIs(t, err, journey.ErrInvalidStatus)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, journey.DocumentReady, current.Engine.Documents()[0].Status)
}

func TestJourneyService_Reset(t *testing.T) {
	ctx := context.Background()
	svc, tb := newTestJourneyService(t)
	j := onboard(t, svc)

	_, _, err := svc.ToggleTask(ctx, "research", "research-destinations")
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx))
	tb.AssertPublished(t, eventbus.EventJourneyReset)

	_, err = svc.Current(ctx)
	assert.ErrorIs(t, err, journey.ErrNoProfile)

	_, err = svc.profiles.Get(ctx, j.Profile.ID)
	assert.ErrorIs(t, err, journey.ErrProfileNotFound)

	assert.ErrorIs(t, svc.Reset(ctx), journey.ErrNoProfile)

	fresh := onboard(t, svc)
	assert.NotEqual(t, j.Profile.ID, fresh.Profile.ID)
	phase, _ := fresh.Engine.Phase("research")
	assert.Zero(t, phase.CompletedTasks(), "reset journeys start from the seed")
}

func TestJourneyService_Summary(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestJourneyService(t)
	onboard(t, svc)

	_, _, err := svc.ToggleTask(ctx, "research", "research-destinations")
	require.NoError(t, err)

	j, err := svc.Current(ctx)
	require.NoError(t, err)

	s := svc.Summary(j)
	assert.Equal(t, 1, s.CompletedTasks)
	assert.Equal(t, 20, s.TotalTasks)
	assert.Equal(t, 5, s.OverallProgress)
	require.NotNil(t, s.CurrentPhase)
	assert.Equal(t, "research", s.CurrentPhase.ID)
	assert.Equal(t, 443, s.DaysUntilStart)
	require.Len(t, s.NextSteps, 3)
	assert.Equal(t, "research-programs", s.NextSteps[0].ID)
}

func TestJourneyService_ExportImport(t *testing.T) {
	ctx := context.Background()

	t.Run("restores into a fresh install", func(t *testing.T) {
		svc, _ := newTestJourneyService(t)
		onboard(t, svc)

		_, _, err := svc.ToggleTask(ctx, "research", "research-destinations")
		require.NoError(t, err)
		_, err = svc.SetDocumentStatus(ctx, "cv", journey.DocumentInProgress)
		require.NoError(t, err)

		doc, err := svc.Export(ctx)
		require.NoError(t, err)
		assert.Equal(t, ExportVersion, doc.Version)
		assert.Equal(t, testNow, doc.ExportedAt)

		other, tb := newTestJourneyService(t)
		j, err := other.Import(ctx, doc)
		require.NoError(t, err)

		assert.Equal(t, "Ada", j.Profile.Name)
		assert.NotEqual(t, doc.Profile.ID, j.Profile.ID)
		assert.Empty(t, cmp.Diff(doc.Journey, j.Engine.Snapshot()))
		tb.AssertPublished(t, eventbus.EventProfileCreated)

		current, err := other.Current(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(doc.Journey, current.Engine.Snapshot()))
	})

	t.Run("replaces state of the current profile", func(t *testing.T) {
		svc, _ := newTestJourneyService(t)
		j := onboard(t, svc)

		doc, err := svc.Export(ctx)
		require.NoError(t, err)
		doc.Journey.Documents[0].Status = journey.DocumentReady
		doc.Profile.Name = "Someone Else"

		got, err := svc.Import(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, j.Profile.ID, got.Profile.ID)
		assert.Equal(t, "Ada", got.Profile.Name)
		assert.Equal(t, journey.DocumentReady, got.Engine.Documents()[0].Status)
	})

	t.Run("invalid journey into a fresh install leaves no profile", func(t *testing.T) {
		svc, tb := newTestJourneyService(t)

		doc := Export{
			Version: ExportVersion,
			Profile: journey.Profile{Name: "Ada", TargetCountry: "Germany", StudyLevel: journey.LevelMasters, StartDate: testNow},
		}

		_, err := svc.Import(ctx, doc)
		require.Error(t, err)

		_, err = svc.Current(ctx)
		assert.ErrorIs(t, err, journey.ErrNoProfile)
		tb.AssertNotPublished(t, eventbus.EventProfileCreated, 20*time.Millisecond)
	})

	t.Run("failed save into a fresh install removes the restored profile", func(t *testing.T) {
		src, _ := newTestJourneyService(t)
		onboard(t, src)
		doc, err := src.Export(ctx)
		require.NoError(t, err)

		svc, _ := newTestJourneyService(t)
		snapshots := svc.snapshots
		svc.snapshots = func(id string) journey.Store { return failingStore{Store: snapshots(id)} }

		_, err = svc.Import(ctx, doc)
		require.Error(t, err)

		_, err = svc.Current(ctx)
		assert.ErrorIs(t, err, journey.ErrNoProfile)
	})

	t.Run("phases are restored in number order", func(t *testing.T) {
		src, _ := newTestJourneyService(t)
		onboard(t, src)
		for _, task := range []string{"research-destinations", "research-programs", "research-budget", "research-requirements"} {
			_, _, err := src.ToggleTask(ctx, "research", task)
			require.NoError(t, err)
		}
		doc, err := src.Export(ctx)
		require.NoError(t, err)

		phases := doc.Journey.Phases
		phases[1].Status = journey.StatusLocked
		phases[0], phases[1] = phases[1], phases[0]

		svc, _ := newTestJourneyService(t)
		j, err := svc.Import(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, "research", j.Engine.Phases()[0].ID)

		_, applied, err := svc.ToggleTask(ctx, "tests", "tests-language")
		require.NoError(t, err)
		assert.True(t, applied)
	})

	t.Run("rejects unknown versions", func(t *testing.T) {
		svc, _ := newTestJourneyService(t)

		_, err := svc.Import(ctx, Export{Version: 99})
		assert.ErrorContains(t, err, "unsupported export version")
	})
}

func TestJourneyService_Reconcile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestJourneyService(t)
	j := onboard(t, svc)

	snap := j.Engine.Snapshot()
	for i := range snap.Phases[0].Tasks {
		snap.Phases[0].Tasks[i].Completed = true
	}
	require.NoError(t, j.Engine.Replace(ctx, snap))

	issues, err := svc.Reconcile(ctx, false)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, journey.StatusNotStarted, current.Engine.Phases()[0].Status, "dry run leaves state alone")

	issues, err = svc.Reconcile(ctx, true)
	require.NoError(t, err)
	assert.Len(t, issues, 2)

	current, err = svc.Current(ctx)
	require.NoError(t, err)
	phases := current.Engine.Phases()
	assert.Equal(t, journey.StatusCompleted, phases[0].Status)
	assert.Equal(t, journey.StatusNotStarted, phases[1].Status)

	issues, err = svc.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestJourneyService_BusyDatabase(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	opts := db.DefaultOpenOptions()
	opts.BusyTimeout = 0

	holder, err := db.Open(dir, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = holder.Close() })

	other, err := db.Open(dir, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Close() })

	tx, err := holder.Conn().BeginTx(ctx, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	_, err = tx.ExecContext(ctx, `INSERT INTO kv_store (key, value, created_at, updated_at) VALUES ('lock', '1', 0, 0)`)
	require.NoError(t, err)

	seed, err := journey.DefaultSeed()
	require.NoError(t, err)
	kvStore := stores.NewKVStore(other)

	svc := NewJourneyService(
		stores.NewProfileStore(other),
		func(id string) journey.Store { return stores.NewSnapshotStore(kvStore, id) },
		seed,
		testbus.New(t).EventBus,
		3,
		zerolog.Nop(),
	)
	svc.now = func() time.Time { return testNow }

	_, err = svc.Onboard(ctx, validInput())
	require.ErrorIs(t, err, ErrBusy)

	require.NoError(t, tx.Rollback())
	_, err = svc.Onboard(ctx, validInput())
	require.NoError(t, err)
}
