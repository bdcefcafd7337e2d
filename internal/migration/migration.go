package migration

import (
	"context"

	"qmrisk/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create runs table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

// createRunsTable holds one row per completed simulation run. The percentile
// ladders and case counts live in JSONB so the reporting shape can grow
// without schema churn.
func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			run_id UUID PRIMARY KEY,
			scenario_id VARCHAR(255) NOT NULL,
			scenario_name TEXT NOT NULL DEFAULT '',
			pathogen VARCHAR(100) NOT NULL,
			scenario_hash VARCHAR(64) NOT NULL,
			seed BIGINT NOT NULL,
			iterations INTEGER NOT NULL,
			individuals INTEGER NOT NULL,
			events_per_year DOUBLE PRECISION NOT NULL,
			population INTEGER NOT NULL DEFAULT 0,
			per_event_infection JSONB NOT NULL,
			per_event_illness JSONB NOT NULL,
			annual_infection JSONB NOT NULL,
			annual_illness JSONB NOT NULL,
			case_counts JSONB NOT NULL,
			expected_annual_cases DOUBLE PRECISION NOT NULL DEFAULT 0,
			runtime_ms BIGINT NOT NULL DEFAULT 0,
			engine_version VARCHAR(32) NOT NULL DEFAULT '',
			fingerprint VARCHAR(64) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_runs_pathogen ON runs(pathogen)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_scenario_id ON runs(scenario_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return err
		}
	}

	return nil
}
