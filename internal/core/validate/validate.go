// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/abroad/internal/core/journey"
)

// Required validates a value is non-empty after trimming whitespace.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("value is required")
	}
	return nil
}

// StudyLevel validates that level is one of the supported study levels.
func StudyLevel(level journey.StudyLevel) error {
	if !level.IsValid() {
		return fmt.Errorf("unknown study level %q", level)
	}
	return nil
}

// StartMonth returns a validator that rejects dates in a month before now.
// The current month is accepted.
func StartMonth(now time.Time) func(time.Time) error {
	return func(start time.Time) error {
		if start.IsZero() {
			return fmt.Errorf("start date is required")
		}
		y, m, _ := now.Date()
		if start.Before(time.Date(y, m, 1, 0, 0, 0, 0, start.Location())) {
			return fmt.Errorf("start date %s is in the past", start.Format("January 2006"))
		}
		return nil
	}
}

// ParseMonth parses a start month in YYYY-MM form and returns the first day of
// that month in UTC.
func ParseMonth(value string) (time.Time, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("start month must look like 2026-09: %w", err)
	}
	return t, nil
}

// ProfileInput is the onboarding form.
type ProfileInput struct {
	Name          string
	TargetCountry string
	StudyLevel    journey.StudyLevel
	StartDate     time.Time
}

// Profile validates an onboarding form against now. All fields are checked and
// reported together as criterio field errors.
func Profile(in ProfileInput, now time.Time) error {
	return criterio.ValidateStruct(
		criterio.Run("name", in.Name, Required),
		criterio.Run("target_country", in.TargetCountry, Required),
		criterio.Run("study_level", string(in.StudyLevel), func(s string) error {
			return StudyLevel(journey.StudyLevel(s))
		}),
		startDateField(in.StartDate, now),
	)
}

func startDateField(start, now time.Time) error {
	if err := StartMonth(now)(start); err != nil {
		return criterio.NewFieldErrors("start_date", err)
	}
	return nil
}
