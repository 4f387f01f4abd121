// Package config handles configuration loading and validation for abroad.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SnapshotBackend selects where journey snapshots are persisted.
type SnapshotBackend string

const (
	BackendKV       SnapshotBackend = "kv"
	BackendJSONFile SnapshotBackend = "jsonfile"
	BackendMemory   SnapshotBackend = "memory"
)

// IsValid checks if the backend is supported.
func (b SnapshotBackend) IsValid() bool {
	switch b {
	case BackendKV, BackendJSONFile, BackendMemory:
		return true
	default:
		return false
	}
}

// Themes supported by the terminal renderer.
const (
	ThemeDefault = "default"
	ThemeMono    = "mono"
)

// Config holds the application configuration.
type Config struct {
	Database     DatabaseConfig    `yaml:"database"`
	Journey      JourneyConfig     `yaml:"journey"`
	History      HistoryConfig     `yaml:"history"`
	Currency     CurrencyConfig    `yaml:"currency"`
	Scholarships ScholarshipConfig `yaml:"scholarships"`
	TUI          TUIConfig         `yaml:"tui"`
	DataDir      string            `yaml:"-"` // set by caller, not from config file
}

// DatabaseConfig tunes the SQLite connection pool.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// JourneyConfig controls journey persistence and the dashboard.
type JourneyConfig struct {
	SnapshotStore SnapshotBackend `yaml:"snapshot_store"`
	SeedFile      string          `yaml:"seed_file"`  // optional replacement for the built-in seed
	NextSteps     int             `yaml:"next_steps"` // high priority tasks shown on the dashboard
}

// HistoryConfig controls the activity log.
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// CurrencyConfig holds converter defaults. Rates, when set, replace the
// built-in table entirely: from-code -> to-code -> rate.
type CurrencyConfig struct {
	DefaultFrom string                        `yaml:"default_from"`
	DefaultTo   string                        `yaml:"default_to"`
	Rates       map[string]map[string]float64 `yaml:"rates"`
}

// ScholarshipConfig controls the scholarship directory views.
type ScholarshipConfig struct {
	UpcomingLimit int `yaml:"upcoming_limit"`
}

// TUIConfig controls terminal rendering.
type TUIConfig struct {
	Theme string `yaml:"theme"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
		Journey: JourneyConfig{
			SnapshotStore: BackendKV,
			NextSteps:     3,
		},
		History: HistoryConfig{
			MaxEntries: 200,
		},
		Currency: CurrencyConfig{
			DefaultFrom: "USD",
			DefaultTo:   "EUR",
		},
		Scholarships: ScholarshipConfig{
			UpcomingLimit: 5,
		},
		TUI: TUIConfig{
			Theme: ThemeDefault,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir

			if cfg.Journey.SeedFile != "" && !filepath.IsAbs(cfg.Journey.SeedFile) {
				cfg.Journey.SeedFile = filepath.Join(filepath.Dir(configPath), cfg.Journey.SeedFile)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Journey.SnapshotStore == "" {
		c.Journey.SnapshotStore = defaults.Journey.SnapshotStore
	}
	if c.Journey.NextSteps == 0 {
		c.Journey.NextSteps = defaults.Journey.NextSteps
	}
	if c.Currency.DefaultFrom == "" {
		c.Currency.DefaultFrom = defaults.Currency.DefaultFrom
	}
	if c.Currency.DefaultTo == "" {
		c.Currency.DefaultTo = defaults.Currency.DefaultTo
	}
	if c.Scholarships.UpcomingLimit == 0 {
		c.Scholarships.UpcomingLimit = defaults.Scholarships.UpcomingLimit
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout cannot be negative")
	}

	if !c.Journey.SnapshotStore.IsValid() {
		return fmt.Errorf("journey.snapshot_store %q must be one of kv, jsonfile, memory", c.Journey.SnapshotStore)
	}
	if c.Journey.NextSteps < 0 {
		return fmt.Errorf("journey.next_steps cannot be negative")
	}

	if c.History.MaxEntries < 0 {
		return fmt.Errorf("history.max_entries cannot be negative")
	}

	if c.Scholarships.UpcomingLimit < 0 {
		return fmt.Errorf("scholarships.upcoming_limit cannot be negative")
	}

	switch c.TUI.Theme {
	case ThemeDefault, ThemeMono:
	default:
		return fmt.Errorf("tui.theme %q must be %q or %q", c.TUI.Theme, ThemeDefault, ThemeMono)
	}

	return nil
}

// JourneysDir returns the directory used by the jsonfile snapshot backend.
func (c *Config) JourneysDir() string {
	return filepath.Join(c.DataDir, "journeys")
}

// HistoryFile returns the path to the activity history JSON file.
func (c *Config) HistoryFile() string {
	return filepath.Join(c.DataDir, "history.json")
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "abroad.log")
}
