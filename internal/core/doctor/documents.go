package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/abroad/internal/core/journey"
)

// expiryWarning is how far ahead an expiring document is flagged.
const expiryWarning = 90 * 24 * time.Hour

// DocumentsCheck flags expired or soon-to-expire documents and required
// documents that are not ready yet.
type DocumentsCheck struct {
	docs []journey.Document
	now  time.Time
}

// NewDocumentsCheck creates a new documents check.
func NewDocumentsCheck(docs []journey.Document, now time.Time) *DocumentsCheck {
	return &DocumentsCheck{docs: docs, now: now}
}

func (c *DocumentsCheck) Name() string {
	return "Documents"
}

func (c *DocumentsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	missing := 0
	for _, d := range c.docs {
		if d.Required && d.Status != journey.DocumentReady {
			missing++
		}

		if d.ExpiryDate == nil {
			continue
		}
		switch {
		case !d.ExpiryDate.After(c.now):
			result.Items = append(result.Items, CheckItem{
				Label:  d.Name,
				Status: StatusFail,
				Detail: "expired " + d.ExpiryDate.Format("2006-01-02"),
			})
		case d.ExpiryDate.Sub(c.now) <= expiryWarning:
			result.Items = append(result.Items, CheckItem{
				Label:  d.Name,
				Status: StatusWarn,
				Detail: "expires " + d.ExpiryDate.Format("2006-01-02"),
			})
		}
	}

	if missing > 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "required documents",
			Status: StatusWarn,
			Detail: fmt.Sprintf("%d not ready", missing),
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "required documents",
			Status: StatusPass,
			Detail: "all ready",
		})
	}

	return result
}
