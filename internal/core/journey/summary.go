package journey

import (
	"math"
	"sort"
	"time"
)

// Summary is the dashboard view of a journey.
type Summary struct {
	OverallProgress int            `json:"overall_progress"`
	CompletedTasks  int            `json:"completed_tasks"`
	TotalTasks      int            `json:"total_tasks"`
	CurrentPhase    *Phase         `json:"current_phase,omitempty"`
	DaysUntilStart  int            `json:"days_until_start"`
	NextSteps       []Task         `json:"next_steps"`
	Documents       DocumentCounts `json:"documents"`
}

// RemainingTasks returns the number of incomplete tasks.
func (s Summary) RemainingTasks() int {
	return s.TotalTasks - s.CompletedTasks
}

// MonthsUntilStart approximates the months left before the start date.
// Returns 0 once the journey has started.
func (s Summary) MonthsUntilStart() int {
	if s.DaysUntilStart <= 0 {
		return 0
	}
	return s.DaysUntilStart / 30
}

// Started reports whether the start date has been reached.
func (s Summary) Started() bool {
	return s.DaysUntilStart <= 0
}

// DocumentCounts aggregates document readiness.
type DocumentCounts struct {
	Ready      int             `json:"ready"`
	Required   int             `json:"required"`
	Total      int             `json:"total"`
	Categories []CategoryCount `json:"categories"`
}

// CategoryCount is the readiness of one document category.
type CategoryCount struct {
	Category string `json:"category"`
	Ready    int    `json:"ready"`
	Total    int    `json:"total"`
}

// Summarize builds the dashboard summary. The current phase is the first
// in-progress phase, or the first phase when none is in progress. Next steps are
// the first nextSteps incomplete High priority tasks in phase order.
func Summarize(phases []Phase, docs []Document, startDate, now time.Time, nextSteps int) Summary {
	completed, total := TaskCounts(phases)

	s := Summary{
		OverallProgress: percent(completed, total),
		CompletedTasks:  completed,
		TotalTasks:      total,
		DaysUntilStart:  DaysUntil(startDate, now),
		NextSteps:       []Task{},
		Documents:       CountDocuments(docs),
	}

	for i := range phases {
		if phases[i].Status == StatusInProgress {
			p := clonePhases(phases[i : i+1])[0]
			s.CurrentPhase = &p
			break
		}
	}
	if s.CurrentPhase == nil && len(phases) > 0 {
		p := clonePhases(phases[:1])[0]
		s.CurrentPhase = &p
	}

	for _, p := range phases {
		for _, t := range p.Tasks {
			if len(s.NextSteps) >= nextSteps {
				return s
			}
			if !t.Completed && t.Priority == PriorityHigh {
				s.NextSteps = append(s.NextSteps, t)
			}
		}
	}

	return s
}

// DaysUntil returns the whole days from now until date, rounded up.
// A zero or negative result means the date has been reached.
func DaysUntil(date, now time.Time) int {
	return int(math.Ceil(date.Sub(now).Hours() / 24))
}

// CountDocuments aggregates readiness overall and per category. Categories are
// returned in order of first appearance.
func CountDocuments(docs []Document) DocumentCounts {
	counts := DocumentCounts{Total: len(docs), Categories: []CategoryCount{}}
	index := make(map[string]int)

	for _, d := range docs {
		i, ok := index[d.Category]
		if !ok {
			i = len(counts.Categories)
			index[d.Category] = i
			counts.Categories = append(counts.Categories, CategoryCount{Category: d.Category})
		}

		counts.Categories[i].Total++
		if d.Status == DocumentReady {
			counts.Ready++
			counts.Categories[i].Ready++
		}
		if d.Required {
			counts.Required++
		}
	}

	return counts
}

// GroupDocuments returns documents grouped by category, with category keys
// sorted alphabetically.
func GroupDocuments(docs []Document) ([]string, map[string][]Document) {
	groups := make(map[string][]Document)
	for _, d := range docs {
		groups[d.Category] = append(groups[d.Category], d)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys, groups
}
