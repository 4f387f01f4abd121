package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// The abroad schema is two forward-only steps: 0001_kv_store holds journey
// snapshots and the current-profile pointer, 0002_profiles holds onboarding
// answers. Files are named NNNN_name.sql and applied in version order.
//
//go:embed migrations/*.sql
var schemaFS embed.FS

type schemaStep struct {
	version int
	name    string
	sql     string
}

func (s schemaStep) String() string {
	return fmt.Sprintf("%04d_%s", s.version, s.name)
}

func schemaSteps() ([]schemaStep, error) {
	files, err := fs.Glob(schemaFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list schema files: %w", err)
	}

	seen := make(map[int]string, len(files))
	steps := make([]schemaStep, 0, len(files))
	for _, file := range files {
		base := path.Base(file)
		version, name, err := parseStepName(base)
		if err != nil {
			return nil, fmt.Errorf("schema file %q: %w", base, err)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("schema version %04d used by both %q and %q", version, prev, base)
		}
		seen[version] = base

		body, err := fs.ReadFile(schemaFS, file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", base, err)
		}
		steps = append(steps, schemaStep{version: version, name: name, sql: string(body)})
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].version < steps[j].version })
	return steps, nil
}

// parseStepName splits "0002_profiles.sql" into 2 and "profiles".
func parseStepName(base string) (int, string, error) {
	stem, ok := strings.CutSuffix(base, ".sql")
	if !ok {
		return 0, "", fmt.Errorf("missing .sql suffix")
	}

	num, name, ok := strings.Cut(stem, "_")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("expected NNNN_name.sql")
	}

	version, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", fmt.Errorf("version %q: %w", num, err)
	}
	if version <= 0 {
		return 0, "", fmt.Errorf("version must be positive, got %d", version)
	}
	return version, name, nil
}

// migrateUp brings the database to the latest schema. Each step and its
// schema_migrations row commit together.
func migrateUp(ctx context.Context, conn *sql.DB) error {
	steps, err := schemaSteps()
	if err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	current, err := schemaVersion(ctx, conn)
	if err != nil {
		return err
	}

	for _, step := range steps {
		if step.version <= current {
			continue
		}
		log.Debug().Stringer("step", step).Msg("applying schema step")
		if err := applyStep(ctx, conn, step); err != nil {
			return fmt.Errorf("schema step %s: %w", step, err)
		}
	}
	return nil
}

// schemaVersion is the highest applied step, or 0 on a fresh file.
func schemaVersion(ctx context.Context, conn *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(version.Int64), nil
}

func applyStep(ctx context.Context, conn *sql.DB, step schemaStep) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, step.sql); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
		step.version, step.name, time.Now().UnixNano(),
	); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit()
}
