package journey_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/internal/store/memory"
)

// countingStore wraps a journey.Store and records calls.
type countingStore struct {
	journey.Store
	saves   int
	saveErr error
}

func (s *countingStore) Save(ctx context.Context, snap journey.Snapshot) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.Store.Save(ctx, snap)
}

func gridSeed(phases, tasks int) journey.Seed {
	seed := journey.Seed{}
	for p := range phases {
		phase := journey.Phase{
			ID:     fmt.Sprintf("p%d", p),
			Number: p + 1,
			Status: journey.StatusLocked,
		}
		if p == 0 {
			phase.Status = journey.StatusNotStarted
		}
		for t := range tasks {
			phase.Tasks = append(phase.Tasks, journey.Task{
				ID:       fmt.Sprintf("p%d-t%d", p, t),
				Priority: journey.PriorityHigh,
			})
		}
		seed.Phases = append(seed.Phases, phase)
	}
	seed.Documents = []journey.Document{
		{ID: "passport", Name: "Passport", Category: "Identity", Status: journey.DocumentMissing, Required: true},
		{ID: "cv", Name: "CV", Category: "Application", Status: journey.DocumentInProgress},
	}
	return seed
}

func newEngine(t *testing.T, seed journey.Seed) (*journey.Engine, *countingStore) {
	t.Helper()
	store := &countingStore{Store: memory.NewSnapshotStore()}
	e := journey.NewEngine(store, seed)
	require.NoError(t, e.Load(context.Background()))
	return e, store
}

func phaseByID(t *testing.T, e *journey.Engine, id string) journey.Phase {
	t.Helper()
	p, ok := e.Phase(id)
	require.True(t, ok, "phase %q", id)
	return p
}

func TestEngine_ToggleScenario(t *testing.T) {
	ctx := context.Background()
	seed := journey.Seed{Phases: []journey.Phase{{
		ID:     "p1",
		Number: 1,
		Status: journey.StatusNotStarted,
		Tasks: []journey.Task{
			{ID: "t1", Priority: journey.PriorityHigh},
			{ID: "t2", Priority: journey.PriorityLow},
		},
	}}}
	e, _ := newEngine(t, seed)

	steps := []struct {
		task     string
		status   journey.Status
		progress int
	}{
		{"t1", journey.StatusInProgress, 50},
		{"t2", journey.StatusCompleted, 100},
		{"t1", journey.StatusInProgress, 50},
		{"t2", journey.StatusNotStarted, 0},
	}

	for i, step := range steps {
		_, applied, err := e.ToggleTask(ctx, "p1", step.task)
		require.NoError(t, err)
		require.True(t, applied)

		p := phaseByID(t, e, "p1")
		assert.Equal(t, step.status, p.Status, "step %d", i)
		assert.Equal(t, step.progress, journey.PhaseProgress(p), "step %d", i)
	}
}

func TestEngine_ToggleTwiceRestoresState(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, gridSeed(3, 3))

	_, _, err := e.ToggleTask(ctx, "p0", "p0-t0")
	require.NoError(t, err)
	before := e.Snapshot()

	_, _, err = e.ToggleTask(ctx, "p0", "p0-t1")
	require.NoError(t, err)
	_, _, err = e.ToggleTask(ctx, "p0", "p0-t1")
	require.NoError(t, err)

	if diff := cmp.Diff(before, e.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch after double toggle (-want +got):\n%s", diff)
	}
}

func TestEngine_CompletingPhaseUnlocksNext(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, gridSeed(3, 2))

	_, _, err := e.ToggleTask(ctx, "p0", "p0-t0")
	require.NoError(t, err)
	tr, _, err := e.ToggleTask(ctx, "p0", "p0-t1")
	require.NoError(t, err)

	assert.Equal(t, journey.StatusInProgress, tr.From)
	assert.Equal(t, journey.StatusCompleted, tr.To)
	assert.True(t, tr.Changed())
	assert.Equal(t, []string{"p1"}, tr.Unlocked)

	assert.Equal(t, journey.StatusNotStarted, phaseByID(t, e, "p1").Status)
	assert.Equal(t, journey.StatusLocked, phaseByID(t, e, "p2").Status)
}

func TestEngine_UnlockIsMonotonic(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, gridSeed(3, 2))

	seen := map[string]bool{}
	toggles := [][2]string{
		{"p0", "p0-t0"}, {"p0", "p0-t1"}, // complete p0, unlock p1
		{"p0", "p0-t1"},                  // regress p0 to in-progress
		{"p1", "p1-t0"}, {"p1", "p1-t0"}, // p1 in-progress then not-started
		{"p0", "p0-t0"}, // p0 not-started
		{"p1", "p1-t0"}, {"p1", "p1-t1"}, // complete p1, unlock p2
		{"p1", "p1-t1"},
	}

	for i, tg := range toggles {
		_, _, err := e.ToggleTask(ctx, tg[0], tg[1])
		require.NoError(t, err)

		for _, p := range e.Phases() {
			if p.Status != journey.StatusLocked {
				seen[p.ID] = true
				continue
			}
			assert.False(t, seen[p.ID], "phase %s re-locked after toggle %d", p.ID, i)
		}
	}

	assert.Equal(t, journey.StatusNotStarted, phaseByID(t, e, "p0").Status)
	assert.NotEqual(t, journey.StatusLocked, phaseByID(t, e, "p1").Status)
	assert.Equal(t, journey.StatusNotStarted, phaseByID(t, e, "p2").Status)
}

func TestEngine_CascadeRepairsAfterAnyMutation(t *testing.T) {
	ctx := context.Background()
	seed := gridSeed(3, 1)
	seed.Phases[0].Status = journey.StatusCompleted
	seed.Phases[0].Tasks[0].Completed = true

	store := &countingStore{Store: memory.NewSnapshotStore()}
	// Persist a broken snapshot directly so Load sees [completed, locked, locked].
	require.NoError(t, store.Store.Save(ctx, seed.Snapshot()))

	e := journey.NewEngine(store, gridSeed(3, 1))
	require.NoError(t, e.Load(ctx))

	assert.Equal(t, journey.StatusCompleted, phaseByID(t, e, "p0").Status)
	assert.Equal(t, journey.StatusNotStarted, phaseByID(t, e, "p1").Status)
	assert.Equal(t, journey.StatusLocked, phaseByID(t, e, "p2").Status)
	assert.Equal(t, 1, store.saves, "repair on load is written back")
}

func TestEngine_LoadSortsPhasesByNumber(t *testing.T) {
	ctx := context.Background()
	snap := gridSeed(3, 1).Snapshot()
	snap.Phases[0].Status = journey.StatusCompleted
	snap.Phases[0].Tasks[0].Completed = true
	snap.Phases[0], snap.Phases[2] = snap.Phases[2], snap.Phases[0]

	store := &countingStore{Store: memory.NewSnapshotStore()}
	require.NoError(t, store.Store.Save(ctx, snap))

	e := journey.NewEngine(store, gridSeed(3, 1))
	require.NoError(t, e.Load(ctx))

	ids := make([]string, 0, 3)
	for _, p := range e.Phases() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"p0", "p1", "p2"}, ids)
	assert.Equal(t, journey.StatusNotStarted, phaseByID(t, e, "p1").Status)
	assert.Equal(t, 1, store.saves, "reordered snapshot is written back")
}

func TestEngine_LoadWithoutRepairDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: memory.NewSnapshotStore()}

	e := journey.NewEngine(store, gridSeed(2, 2))
	require.NoError(t, e.Load(ctx))
	assert.Equal(t, 1, store.saves, "seed is persisted on first load")

	e2 := journey.NewEngine(store, gridSeed(2, 2))
	require.NoError(t, e2.Load(ctx))
	assert.Equal(t, 1, store.saves)
}

func TestEngine_OverallProgressHalf(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, gridSeed(6, 3))

	// Nine tasks spread across phases, including locked ones.
	toggles := [][2]string{
		{"p0", "p0-t0"}, {"p0", "p0-t1"}, {"p0", "p0-t2"},
		{"p1", "p1-t0"}, {"p1", "p1-t1"},
		{"p3", "p3-t2"},
		{"p4", "p4-t0"}, {"p4", "p4-t1"},
		{"p5", "p5-t1"},
	}
	for _, tg := range toggles {
		_, applied, err := e.ToggleTask(ctx, tg[0], tg[1])
		require.NoError(t, err)
		require.True(t, applied)
	}

	assert.Equal(t, 50, journey.OverallProgress(e.Phases()))
}

func TestEngine_ToggleUnknownIsNoop(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		phaseID string
		taskID  string
	}{
		{"unknown phase", "nope", "p0-t0"},
		{"unknown task", "p0", "nope"},
		{"task from another phase", "p0", "p1-t0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store := newEngine(t, gridSeed(2, 2))
			before := e.Snapshot()
			saves := store.saves

			_, applied, err := e.ToggleTask(ctx, tt.phaseID, tt.taskID)
			require.NoError(t, err)
			assert.False(t, applied)
			assert.Equal(t, saves, store.saves, "no write for unknown ids")
			assert.Empty(t, cmp.Diff(before, e.Snapshot()))
		})
	}
}

func TestEngine_SetDocumentStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("updates matching document only", func(t *testing.T) {
		e, store := newEngine(t, gridSeed(1, 1))
		saves := store.saves

		applied, err := e.SetDocumentStatus(ctx, "passport", journey.DocumentReady)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, saves+1, store.saves)

		docs := e.Documents()
		assert.Equal(t, journey.DocumentReady, docs[0].Status)
		assert.Equal(t, journey.DocumentInProgress, docs[1].Status)
		assert.Equal(t, journey.StatusNotStarted, e.Phases()[0].Status)
	})

	t.Run("unknown id leaves documents unchanged", func(t *testing.T) {
		e, store := newEngine(t, gridSeed(1, 1))
		before := e.Documents()
		saves := store.saves

		applied, err := e.SetDocumentStatus(ctx, "visa", journey.DocumentReady)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, saves, store.saves)

		if diff := cmp.Diff(before, e.Documents()); diff != "" {
			t.Errorf("documents changed (-want +got):\n%s", diff)
		}
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		e, _ := newEngine(t, gridSeed(1, 1))

		_, err := e.SetDocumentStatus(ctx, "passport", "lost")
		assert.ErrorIs(t, err, journey.ErrInvalidStatus)
	})
}

func TestEngine_Reset(t *testing.T) {
	ctx := context.Background()
	seed := gridSeed(2, 1)
	e, store := newEngine(t, seed)

	_, _, err := e.ToggleTask(ctx, "p0", "p0-t0")
	require.NoError(t, err)
	_, err = e.SetDocumentStatus(ctx, "passport", journey.DocumentReady)
	require.NoError(t, err)

	require.NoError(t, e.Reset(ctx))

	assert.Empty(t, cmp.Diff(seed.Snapshot(), e.Snapshot()))

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, journey.ErrNoSnapshot)
}

func TestEngine_SaveErrorPropagates(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, gridSeed(1, 2))

	boom := errors.New("disk full")
	store.saveErr = boom

	_, applied, err := e.ToggleTask(ctx, "p0", "p0-t0")
	assert.True(t, applied)
	assert.ErrorIs(t, err, boom)

	_, err = e.SetDocumentStatus(ctx, "passport", journey.DocumentReady)
	assert.ErrorIs(t, err, boom)
}

func TestEngine_ReturnsCopies(t *testing.T) {
	e, _ := newEngine(t, gridSeed(1, 1))

	phases := e.Phases()
	phases[0].Tasks[0].Completed = true
	phases[0].Status = journey.StatusCompleted

	assert.False(t, e.Phases()[0].Tasks[0].Completed)
	assert.Equal(t, journey.StatusNotStarted, e.Phases()[0].Status)
}

func TestEngine_Replace(t *testing.T) {
	ctx := context.Background()
	seed := gridSeed(3, 1)

	t.Run("restores and cascades", func(t *testing.T) {
		e, store := newEngine(t, seed)

		snap := seed.Snapshot()
		snap.Phases[0].Tasks[0].Completed = true
		snap.Phases[0].Status = journey.StatusCompleted
		snap.Documents[0].Status = journey.DocumentReady

		require.NoError(t, e.Replace(ctx, snap))

		assert.Equal(t, journey.StatusNotStarted, phaseByID(t, e, "p1").Status)
		assert.Equal(t, journey.StatusLocked, phaseByID(t, e, "p2").Status)
		assert.Equal(t, journey.DocumentReady, e.Documents()[0].Status)

		saved, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(e.Snapshot(), saved))
	})

	t.Run("missing documents keep seed documents", func(t *testing.T) {
		e, _ := newEngine(t, seed)

		snap := seed.Snapshot()
		snap.Documents = nil

		require.NoError(t, e.Replace(ctx, snap))
		assert.Len(t, e.Documents(), len(seed.Documents))
	})

	t.Run("phases out of number order are sorted before the cascade", func(t *testing.T) {
		e, store := newEngine(t, gridSeed(2, 1))

		snap := gridSeed(2, 1).Snapshot()
		snap.Phases[0].Tasks[0].Completed = true
		snap.Phases[0].Status = journey.StatusCompleted
		snap.Phases[0], snap.Phases[1] = snap.Phases[1], snap.Phases[0]

		require.NoError(t, e.Replace(ctx, snap))

		phases := e.Phases()
		assert.Equal(t, "p0", phases[0].ID)
		assert.Equal(t, "p1", phases[1].ID)
		assert.Equal(t, journey.StatusNotStarted, phases[1].Status)

		_, applied, err := e.ToggleTask(ctx, "p1", "p1-t0")
		require.NoError(t, err)
		assert.True(t, applied)

		saved, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "p0", saved.Phases[0].ID)
	})

	t.Run("invalid snapshot leaves state untouched", func(t *testing.T) {
		e, store := newEngine(t, seed)
		before := e.Snapshot()
		saves := store.saves

		err := e.Replace(ctx, journey.Snapshot{})
		require.Error(t, err)

		assert.Empty(t, cmp.Diff(before, e.Snapshot()))
		assert.Equal(t, saves, store.saves)
	})
}
