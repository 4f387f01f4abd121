package doctor

import (
	"context"
	"errors"

	"github.com/colonyops/abroad/internal/core/journey"
)

// Reconciler reports, and optionally fixes, phase statuses that disagree
// with their tasks.
type Reconciler interface {
	Reconcile(ctx context.Context, fix bool) ([]string, error)
}

// JourneyCheck verifies that phase statuses match task completion.
type JourneyCheck struct {
	journeys Reconciler
	autofix  bool
}

// NewJourneyCheck creates a new journey check. With autofix set, mismatched
// statuses are corrected and saved.
func NewJourneyCheck(journeys Reconciler, autofix bool) *JourneyCheck {
	return &JourneyCheck{journeys: journeys, autofix: autofix}
}

func (c *JourneyCheck) Name() string {
	return "Journey"
}

func (c *JourneyCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	issues, err := c.journeys.Reconcile(ctx, c.autofix)
	switch {
	case errors.Is(err, journey.ErrNoProfile):
		result.Items = append(result.Items, CheckItem{
			Label:  "profile",
			Status: StatusWarn,
			Detail: "not onboarded; run 'abroad init'",
		})
		return result
	case err != nil:
		result.Items = append(result.Items, CheckItem{
			Label:  "journey",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	if len(issues) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "phase statuses",
			Status: StatusPass,
		})
		return result
	}

	for _, issue := range issues {
		result.Items = append(result.Items, CheckItem{
			Label:   issue,
			Status:  StatusWarn,
			Fixable: true,
			Fixed:   c.autofix,
		})
	}

	return result
}
