// Package abroad wires the journey engine, stores and helpers into the
// application used by the CLI.
package abroad

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/abroad/internal/core/config"
	"github.com/colonyops/abroad/internal/core/currency"
	"github.com/colonyops/abroad/internal/core/eventbus"
	"github.com/colonyops/abroad/internal/core/journey"
	"github.com/colonyops/abroad/internal/core/scholarship"
	"github.com/colonyops/abroad/internal/data/db"
	"github.com/colonyops/abroad/internal/data/stores"
	"github.com/colonyops/abroad/internal/store/jsonfile"
	"github.com/colonyops/abroad/internal/store/memory"
)

const busBuffer = 64

// App is the central entry point for all abroad operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Journey      *JourneyService
	History      *HistoryService
	Doctor       *DoctorService
	Scholarships *scholarship.Directory
	Currency     *currency.Converter

	Config *config.Config
	DB     *db.DB
	Bus    *eventbus.EventBus

	cancel context.CancelFunc
	group  *errgroup.Group
}

// Open opens the database, builds stores and services, and starts the event
// bus. Call Close to drain pending events and release the database.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	database, err := openDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	app, err := build(ctx, cfg, database, log)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, cfg *config.Config, database *db.DB, log zerolog.Logger) (*App, error) {
	seed, err := loadSeed(cfg)
	if err != nil {
		return nil, err
	}

	directory, err := scholarship.Default()
	if err != nil {
		return nil, fmt.Errorf("load scholarships: %w", err)
	}

	kvStore := stores.NewKVStore(database)
	bus := eventbus.New(busBuffer)

	eventbus.RegisterDebugLogger(bus, log.With().Str("component", "eventbus").Logger())
	eventbus.NewNotificationRouter(bus).Register()

	historySvc := NewHistoryService(jsonfile.NewHistoryStore(cfg.HistoryFile()), cfg.History.MaxEntries, log)
	historySvc.Register(bus)

	journeySvc := NewJourneyService(
		stores.NewProfileStore(database),
		snapshotStores(cfg, kvStore),
		seed,
		bus,
		cfg.Journey.NextSteps,
		log,
	)

	busCtx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(busCtx)
	group.Go(func() error {
		bus.Start(gctx)
		return nil
	})

	return &App{
		Journey:      journeySvc,
		History:      historySvc,
		Doctor:       NewDoctorService(journeySvc, directory, cfg, database),
		Scholarships: directory,
		Currency:     currency.NewConverter(cfg.Currency.Rates),
		Config:       cfg,
		DB:           database,
		Bus:          bus,
		cancel:       cancel,
		group:        group,
	}, nil
}

// Close stops the event bus after delivering queued events, then closes the
// database.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
		_ = a.group.Wait()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func openDatabase(cfg *config.Config, log zerolog.Logger) (*db.DB, error) {
	opts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil {
		return database, nil
	}
	if !stores.IsCorruptionError(err) {
		return nil, fmt.Errorf("open database: %w", err)
	}

	log.Warn().Err(err).Msg("database corrupted, backing up and starting fresh")
	if err := stores.RecoverFromCorruption(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("recover database: %w", err)
	}

	database, err = db.Open(cfg.DataDir, opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return database, nil
}

func loadSeed(cfg *config.Config) (journey.Seed, error) {
	if cfg.Journey.SeedFile != "" {
		return journey.LoadSeed(cfg.Journey.SeedFile)
	}
	return journey.DefaultSeed()
}

func snapshotStores(cfg *config.Config, kvStore *stores.KVStore) SnapshotStoreFunc {
	switch cfg.Journey.SnapshotStore {
	case config.BackendJSONFile:
		dir := cfg.JourneysDir()
		return func(id string) journey.Store { return jsonfile.NewSnapshotStore(dir, id) }
	case config.BackendMemory:
		snaps := memory.NewSnapshots()
		return func(id string) journey.Store { return snaps.For(id) }
	default:
		return func(id string) journey.Store { return stores.NewSnapshotStore(kvStore, id) }
	}
}
