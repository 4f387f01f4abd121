package abroad

import (
	"context"
	"time"

	"github.com/colonyops/abroad/internal/core/config"
	"github.com/colonyops/abroad/internal/core/doctor"
	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/internal/core/scholarship"
	"github.com/colonyops/abroad/internal/data/db"
)

// DoctorService runs health checks on the abroad setup.
type DoctorService struct {
	journeys     *JourneyService
	scholarships *scholarship.Directory
	config       *config.Config
	db           *db.DB
	now          func() time.Time
}

// NewDoctorService creates a new DoctorService.
func NewDoctorService(journeys *JourneyService, scholarships *scholarship.Directory, cfg *config.Config, database *db.DB) *DoctorService {
	return &DoctorService{
		journeys:     journeys,
		scholarships: scholarships,
		config:       cfg,
		db:           database,
		now:          time.Now,
	}
}

// RunChecks executes all doctor checks and returns results. With autofix set,
// phase statuses that disagree with their tasks are corrected.
func (d *DoctorService) RunChecks(ctx context.Context, configPath string, autofix bool) []doctor.Result {
	now := d.now()

	var docs []journey.Document
	if j, err := d.journeys.Current(ctx); err == nil {
		docs = j.Engine.Documents()
	}

	checks := []doctor.Check{
		doctor.NewConfigCheck(d.config, configPath),
		doctor.NewStorageCheck(d.config.DataDir, d.db.Conn()),
		doctor.NewJourneyCheck(d.journeys, autofix),
		doctor.NewDocumentsCheck(docs, now),
		doctor.NewDeadlinesCheck(d.scholarships.Upcoming(now, d.config.Scholarships.UpcomingLimit), now),
	}
	return doctor.RunAll(ctx, checks)
}
