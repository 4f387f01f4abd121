package journey

import (
	"context"
	"errors"
	"fmt"
)

// Transition describes the effect of a ToggleTask call.
type Transition struct {
	PhaseID   string
	TaskID    string
	Completed bool     // task completion after the toggle
	From      Status   // phase status before the toggle
	To        Status   // phase status after the toggle
	Unlocked  []string // phases unlocked by the cascade
}

// Changed reports whether the owning phase changed status.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Engine owns the in-memory phase sequence and document set of one journey and
// writes every mutation through to its Store.
//
// Operations that reference an unknown phase, task, or document are no-ops:
// they report applied == false with a nil error and do not touch the store.
//
// Engine is not safe for concurrent use.
type Engine struct {
	store Store
	seed  Seed
	snap  Snapshot
}

// NewEngine creates an engine backed by store. The engine starts at the seed
// state; call Load to read persisted state.
func NewEngine(store Store, seed Seed) *Engine {
	return &Engine{
		store: store,
		seed:  seed,
		snap:  seed.Snapshot(),
	}
}

// Load reads the persisted snapshot, falling back to the seed when nothing was
// saved. Phases are put back in number order and locked phases whose
// predecessor is already completed are unlocked. The snapshot is written back
// when it was missing or the repair changed it.
func (e *Engine) Load(ctx context.Context) error {
	snap, err := e.store.Load(ctx)
	missing := errors.Is(err, ErrNoSnapshot)
	switch {
	case missing:
		snap = e.seed.Snapshot()
	case err != nil:
		return fmt.Errorf("load journey: %w", err)
	}

	if snap.Documents == nil {
		snap.Documents = e.seed.Snapshot().Documents
	}

	reordered := sortPhases(snap.Phases)
	unlocked := CascadeUnlock(snap.Phases)
	e.snap = snap

	if missing || reordered || len(unlocked) > 0 {
		return e.persist(ctx)
	}
	return nil
}

// Phases returns a copy of the phase sequence.
func (e *Engine) Phases() []Phase {
	return clonePhases(e.snap.Phases)
}

// Documents returns a copy of the document set.
func (e *Engine) Documents() []Document {
	return cloneDocuments(e.snap.Documents)
}

// Snapshot returns a copy of the full state.
func (e *Engine) Snapshot() Snapshot {
	return e.snap.Clone()
}

// Phase returns a copy of the phase with the given ID.
func (e *Engine) Phase(phaseID string) (Phase, bool) {
	i := e.phaseIndex(phaseID)
	if i < 0 {
		return Phase{}, false
	}
	return clonePhases(e.snap.Phases[i : i+1])[0], true
}

// ToggleTask flips the completion of a task, re-derives the owning phase's
// status, cascades unlocks across the whole sequence, and saves.
func (e *Engine) ToggleTask(ctx context.Context, phaseID, taskID string) (Transition, bool, error) {
	pi := e.phaseIndex(phaseID)
	if pi < 0 {
		return Transition{}, false, nil
	}

	phase := &e.snap.Phases[pi]
	ti := -1
	for i := range phase.Tasks {
		if phase.Tasks[i].ID == taskID {
			ti = i
			break
		}
	}
	if ti < 0 {
		return Transition{}, false, nil
	}

	tr := Transition{PhaseID: phaseID, TaskID: taskID, From: phase.Status}

	phase.Tasks[ti].Completed = !phase.Tasks[ti].Completed
	phase.Status = DerivePhaseStatus(*phase)

	tr.Completed = phase.Tasks[ti].Completed
	tr.To = phase.Status
	tr.Unlocked = CascadeUnlock(e.snap.Phases)

	if err := e.persist(ctx); err != nil {
		return tr, true, err
	}
	return tr, true, nil
}

// SetDocumentStatus replaces the status of a document and saves. It has no
// effect on phases or other documents.
func (e *Engine) SetDocumentStatus(ctx context.Context, docID string, status DocumentStatus) (bool, error) {
	if !status.IsValid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	for i := range e.snap.Documents {
		if e.snap.Documents[i].ID != docID {
			continue
		}
		e.snap.Documents[i].Status = status
		if err := e.persist(ctx); err != nil {
			return true, err
		}
		return true, nil
	}

	return false, nil
}

// Reset clears persisted state and returns the engine to the seed defaults.
func (e *Engine) Reset(ctx context.Context) error {
	if err := e.store.Clear(ctx); err != nil {
		return fmt.Errorf("reset journey: %w", err)
	}
	e.snap = e.seed.Snapshot()
	return nil
}

// Replace swaps the whole state for snap and saves it. The snapshot goes
// through Seed.Prepare; statuses are kept as given apart from the unlock
// cascade. A snapshot without documents keeps the seed documents.
func (e *Engine) Replace(ctx context.Context, snap Snapshot) error {
	snap, err := e.seed.Prepare(snap)
	if err != nil {
		return fmt.Errorf("replace journey: %w", err)
	}

	e.snap = snap
	return e.persist(ctx)
}

func (e *Engine) persist(ctx context.Context) error {
	if err := e.store.Save(ctx, e.snap.Clone()); err != nil {
		return fmt.Errorf("save journey: %w", err)
	}
	return nil
}

func (e *Engine) phaseIndex(id string) int {
	for i := range e.snap.Phases {
		if e.snap.Phases[i].ID == id {
			return i
		}
	}
	return -1
}
