package journey

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeedYAML []byte

// Seed is the initial phase sequence and document set of a new journey.
type Seed struct {
	Phases    []Phase    `yaml:"phases"`
	Documents []Document `yaml:"documents"`
}

// Snapshot returns a fresh copy of the seed state.
func (s Seed) Snapshot() Snapshot {
	return Snapshot{
		Phases:    clonePhases(s.Phases),
		Documents: cloneDocuments(s.Documents),
	}
}

// Prepare returns a copy of snap ready to become journey state. Missing
// documents fall back to the seed's, phases are put in number order and
// checked like a seed, and the unlock cascade is applied.
func (s Seed) Prepare(snap Snapshot) (Snapshot, error) {
	snap = snap.Clone()
	if snap.Documents == nil {
		snap.Documents = cloneDocuments(s.Documents)
	}
	sortPhases(snap.Phases)

	if err := (Seed{Phases: snap.Phases, Documents: snap.Documents}).Validate(); err != nil {
		return Snapshot{}, err
	}

	CascadeUnlock(snap.Phases)
	return snap, nil
}

// sortPhases orders phases by number, keeping the relative order of equal
// numbers. Reports whether the order changed.
func sortPhases(phases []Phase) bool {
	if sort.SliceIsSorted(phases, func(i, j int) bool { return phases[i].Number < phases[j].Number }) {
		return false
	}
	sort.SliceStable(phases, func(i, j int) bool {
		return phases[i].Number < phases[j].Number
	})
	return true
}

// DefaultSeed returns the built-in seed.
func DefaultSeed() (Seed, error) {
	return ParseSeed(defaultSeedYAML)
}

// LoadSeed reads a seed from a YAML file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed, orders phases by number, fills in default
// statuses, and validates identifiers.
//
// Phases without an explicit status start as not-started (first phase) or
// locked (all others). Documents without a status start as missing.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}

	sortPhases(seed.Phases)

	for i := range seed.Phases {
		if seed.Phases[i].Status != "" {
			continue
		}
		if i == 0 {
			seed.Phases[i].Status = StatusNotStarted
		} else {
			seed.Phases[i].Status = StatusLocked
		}
	}
	for i := range seed.Documents {
		if seed.Documents[i].Status == "" {
			seed.Documents[i].Status = DocumentMissing
		}
	}

	if err := seed.Validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

// Validate checks that the seed has at least one phase, unique identifiers,
// and known statuses and priorities.
func (s Seed) Validate() error {
	if len(s.Phases) == 0 {
		return fmt.Errorf("seed: at least one phase is required")
	}

	phaseIDs := make(map[string]bool, len(s.Phases))
	for _, p := range s.Phases {
		if p.ID == "" {
			return fmt.Errorf("seed: phase %d: id is required", p.Number)
		}
		if phaseIDs[p.ID] {
			return fmt.Errorf("seed: duplicate phase id %q", p.ID)
		}
		phaseIDs[p.ID] = true

		if !p.Status.IsValid() {
			return fmt.Errorf("seed: phase %q: invalid status %q", p.ID, p.Status)
		}

		taskIDs := make(map[string]bool, len(p.Tasks))
		for _, t := range p.Tasks {
			if t.ID == "" {
				return fmt.Errorf("seed: phase %q: task id is required", p.ID)
			}
			if taskIDs[t.ID] {
				return fmt.Errorf("seed: phase %q: duplicate task id %q", p.ID, t.ID)
			}
			taskIDs[t.ID] = true

			switch t.Priority {
			case PriorityHigh, PriorityMedium, PriorityLow:
			default:
				return fmt.Errorf("seed: task %q: invalid priority %q", t.ID, t.Priority)
			}
		}
	}

	docIDs := make(map[string]bool, len(s.Documents))
	for _, d := range s.Documents {
		if d.ID == "" {
			return fmt.Errorf("seed: document id is required")
		}
		if docIDs[d.ID] {
			return fmt.Errorf("seed: duplicate document id %q", d.ID)
		}
		docIDs[d.ID] = true

		if !d.Status.IsValid() {
			return fmt.Errorf("seed: document %q: invalid status %q", d.ID, d.Status)
		}
	}

	return nil
}
