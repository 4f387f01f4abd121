package journey

import (
	"fmt"
	"math"
)

// DerivePhaseStatus computes a phase's status from its tasks.
//
// A locked or not-started phase with no completed tasks keeps its status; an
// in-progress phase whose tasks are all unchecked falls back to not-started.
// There is no rule that moves a completed phase back to locked.
func DerivePhaseStatus(p Phase) Status {
	completed := p.CompletedTasks()

	switch {
	case len(p.Tasks) > 0 && completed == len(p.Tasks):
		return StatusCompleted
	case completed > 0:
		return StatusInProgress
	case p.Status == StatusInProgress:
		return StatusNotStarted
	default:
		return p.Status
	}
}

// CascadeUnlock moves every locked phase whose predecessor is completed to
// not-started. It mutates phases in place and returns the IDs it unlocked.
func CascadeUnlock(phases []Phase) []string {
	var unlocked []string
	for i := 1; i < len(phases); i++ {
		if phases[i].Status == StatusLocked && phases[i-1].Status == StatusCompleted {
			phases[i].Status = StatusNotStarted
			unlocked = append(unlocked, phases[i].ID)
		}
	}
	return unlocked
}

// PhaseProgress returns the percentage of completed tasks in the phase.
// A phase without tasks reports 0.
func PhaseProgress(p Phase) int {
	return percent(p.CompletedTasks(), len(p.Tasks))
}

// OverallProgress returns the percentage of completed tasks across all phases.
func OverallProgress(phases []Phase) int {
	completed, total := TaskCounts(phases)
	return percent(completed, total)
}

// TaskCounts returns the completed and total task counts across all phases.
func TaskCounts(phases []Phase) (completed, total int) {
	for _, p := range phases {
		completed += p.CompletedTasks()
		total += len(p.Tasks)
	}
	return completed, total
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}

// Reconcile returns a copy of phases with every status re-derived from its
// tasks and completed predecessors unlocking their successors, plus a
// description of each phase whose status changed. A locked phase with no
// completed tasks and an incomplete predecessor stays locked.
func Reconcile(phases []Phase) ([]Phase, []string) {
	out := clonePhases(phases)
	var issues []string

	for i := range out {
		want := DerivePhaseStatus(out[i])
		if out[i].Status == StatusLocked && want == StatusLocked {
			continue
		}
		if want != out[i].Status {
			issues = append(issues, fmt.Sprintf("phase %q is %s but its tasks say %s", out[i].ID, out[i].Status, want))
			out[i].Status = want
		}
	}

	for _, id := range CascadeUnlock(out) {
		issues = append(issues, fmt.Sprintf("phase %q should be unlocked", id))
	}

	return out, issues
}
