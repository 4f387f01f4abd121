package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/abroad/internal/core/scholarship"
)

// urgentDays marks a scholarship deadline as needing attention.
const urgentDays = 14

// DeadlinesCheck flags scholarship deadlines that close soon.
type DeadlinesCheck struct {
	upcoming []scholarship.Scholarship
	now      time.Time
}

// NewDeadlinesCheck creates a new deadlines check over upcoming scholarships,
// soonest first.
func NewDeadlinesCheck(upcoming []scholarship.Scholarship, now time.Time) *DeadlinesCheck {
	return &DeadlinesCheck{upcoming: upcoming, now: now}
}

func (c *DeadlinesCheck) Name() string {
	return "Scholarship Deadlines"
}

func (c *DeadlinesCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if len(c.upcoming) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "deadlines",
			Status: StatusPass,
			Detail: "none upcoming",
		})
		return result
	}

	for _, s := range c.upcoming {
		days := s.DaysUntilDeadline(c.now)
		if days > urgentDays {
			continue
		}
		result.Items = append(result.Items, CheckItem{
			Label:  s.Name,
			Status: StatusWarn,
			Detail: fmt.Sprintf("closes in %d days", days),
		})
	}

	if len(result.Items) == 0 {
		next := c.upcoming[0]
		result.Items = append(result.Items, CheckItem{
			Label:  "next deadline",
			Status: StatusPass,
			Detail: fmt.Sprintf("%s in %d days", next.Name, next.DaysUntilDeadline(c.now)),
		})
	}

	return result
}
