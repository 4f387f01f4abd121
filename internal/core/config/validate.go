package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/abroad/internal/core/currency"
	"github.com/colonyops/abroad/internal/core/journey"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// file accessibility, the seed file and the currency table. The configPath
// argument specifies the config file location to validate (empty string skips
// the config file check). This calls Validate() first for basic structural
// validation.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateSeedFile(),
		c.validateCurrency(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Journey.SnapshotStore == BackendMemory {
		warnings = append(warnings, ValidationWarning{
			Category: "Journey",
			Item:     "snapshot_store",
			Message:  "memory backend does not persist progress between runs",
		})
	}

	if c.History.MaxEntries == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "History",
			Item:     "max_entries",
			Message:  "history is unbounded and will grow with every change",
		})
	}

	return warnings
}

// validateFileAccess checks the config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// validateSeedFile checks that a custom seed parses and is well formed.
func (c *Config) validateSeedFile() error {
	return criterio.Run("journey.seed_file", c.Journey.SeedFile, func(path string) error {
		if path == "" {
			return nil
		}
		_, err := journey.LoadSeed(path)
		return err
	})
}

// validateCurrency checks custom rates and that the default pair converts.
func (c *Config) validateCurrency() error {
	var errs criterio.FieldErrorsBuilder

	froms := make([]string, 0, len(c.Currency.Rates))
	for from := range c.Currency.Rates {
		froms = append(froms, from)
	}
	sort.Strings(froms)

	for _, from := range froms {
		if len(from) != 3 {
			errs = errs.Append(fmt.Sprintf("currency.rates[%q]", from), fmt.Errorf("currency codes must have 3 letters"))
		}
		for to, rate := range c.Currency.Rates[from] {
			if rate <= 0 {
				errs = errs.Append(fmt.Sprintf("currency.rates[%q][%q]", from, to), fmt.Errorf("rate must be positive, got %v", rate))
			}
		}
	}

	conv := currency.NewConverter(c.Currency.Rates)
	if !conv.Supports(c.Currency.DefaultFrom) {
		errs = errs.Append("currency.default_from", fmt.Errorf("%q is not in the rate table", c.Currency.DefaultFrom))
	}
	if !conv.Supports(c.Currency.DefaultTo) {
		errs = errs.Append("currency.default_to", fmt.Errorf("%q is not in the rate table", c.Currency.DefaultTo))
	}

	return errs.ToError()
}
