package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"qmrisk/domain/core"
	"qmrisk/domain/risk"
	"qmrisk/ports"

	"github.com/jmoiron/sqlx"
)

// summaryRepository implements the SummaryRepository interface
type summaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *sqlx.DB) ports.SummaryRepository {
	return &summaryRepository{db: db}
}

const summaryColumns = `
	run_id, scenario_id, scenario_name, pathogen, scenario_hash,
	seed, iterations, individuals, events_per_year, population,
	per_event_infection, per_event_illness, annual_infection, annual_illness,
	case_counts, expected_annual_cases, runtime_ms, engine_version, fingerprint, created_at`

// Save upserts one run summary keyed by run ID
func (r *summaryRepository) Save(ctx context.Context, s *risk.Summary) error {
	if s == nil {
		return core.NewConfigurationError("summary", "summary is required")
	}
	if s.RunID == "" {
		return core.NewConfigurationError("summary", "run ID is required")
	}

	perEventInf, err := json.Marshal(s.PerEventInfection)
	if err != nil {
		return fmt.Errorf("failed to marshal per-event infection stats: %w", err)
	}
	perEventIll, err := json.Marshal(s.PerEventIllness)
	if err != nil {
		return fmt.Errorf("failed to marshal per-event illness stats: %w", err)
	}
	annualInf, err := json.Marshal(s.AnnualInfection)
	if err != nil {
		return fmt.Errorf("failed to marshal annual infection stats: %w", err)
	}
	annualIll, err := json.Marshal(s.AnnualIllness)
	if err != nil {
		return fmt.Errorf("failed to marshal annual illness stats: %w", err)
	}
	caseCounts, err := json.Marshal(s.CaseCounts)
	if err != nil {
		return fmt.Errorf("failed to marshal case counts: %w", err)
	}

	query := `INSERT INTO runs (` + summaryColumns + `
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20
	)
	ON CONFLICT (run_id) DO UPDATE SET
		scenario_id = EXCLUDED.scenario_id,
		scenario_name = EXCLUDED.scenario_name,
		pathogen = EXCLUDED.pathogen,
		scenario_hash = EXCLUDED.scenario_hash,
		seed = EXCLUDED.seed,
		iterations = EXCLUDED.iterations,
		individuals = EXCLUDED.individuals,
		events_per_year = EXCLUDED.events_per_year,
		population = EXCLUDED.population,
		per_event_infection = EXCLUDED.per_event_infection,
		per_event_illness = EXCLUDED.per_event_illness,
		annual_infection = EXCLUDED.annual_infection,
		annual_illness = EXCLUDED.annual_illness,
		case_counts = EXCLUDED.case_counts,
		expected_annual_cases = EXCLUDED.expected_annual_cases,
		runtime_ms = EXCLUDED.runtime_ms,
		engine_version = EXCLUDED.engine_version,
		fingerprint = EXCLUDED.fingerprint,
		created_at = EXCLUDED.created_at`

	_, err = r.db.ExecContext(ctx, query,
		s.RunID, s.ScenarioID, s.ScenarioName, s.Pathogen, s.ScenarioHash,
		s.Seed, s.Iterations, s.Individuals, s.EventsPerYear, s.Population,
		perEventInf, perEventIll, annualInf, annualIll,
		caseCounts, s.ExpectedAnnualCases, s.RuntimeMS, s.EngineVersion, s.Fingerprint, s.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", s.RunID, err)
	}

	return nil
}

// Get retrieves one run summary by run ID
func (r *summaryRepository) Get(ctx context.Context, runID core.RunID) (*risk.Summary, error) {
	query := `SELECT` + summaryColumns + ` FROM runs WHERE run_id = $1`

	s, err := scanSummary(r.db.QueryRowContext(ctx, query, runID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("run", string(runID))
		}
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}

	return s, nil
}

// ListByPathogen retrieves summaries for one pathogen, newest first.
// A non-positive limit returns all matching rows.
func (r *summaryRepository) ListByPathogen(ctx context.Context, pathogen string, limit int) ([]*risk.Summary, error) {
	query := `SELECT` + summaryColumns + `
	FROM runs
	WHERE pathogen = $1
	ORDER BY created_at DESC, run_id DESC`

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+` LIMIT $2`, pathogen, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, pathogen)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query runs for pathogen %s: %w", pathogen, err)
	}
	defer rows.Close()

	return collectSummaries(rows)
}

// ListRecent retrieves the most recent summaries across all scenarios,
// newest first. A non-positive limit returns all rows.
func (r *summaryRepository) ListRecent(ctx context.Context, limit int) ([]*risk.Summary, error) {
	query := `SELECT` + summaryColumns + `
	FROM runs
	ORDER BY created_at DESC, run_id DESC`

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+` LIMIT $1`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer rows.Close()

	return collectSummaries(rows)
}

// rowScanner lets scanSummary serve both QueryRowContext and QueryContext
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row rowScanner) (*risk.Summary, error) {
	var s risk.Summary
	var perEventInf, perEventIll, annualInf, annualIll, caseCounts []byte
	var createdAt time.Time

	err := row.Scan(
		&s.RunID, &s.ScenarioID, &s.ScenarioName, &s.Pathogen, &s.ScenarioHash,
		&s.Seed, &s.Iterations, &s.Individuals, &s.EventsPerYear, &s.Population,
		&perEventInf, &perEventIll, &annualInf, &annualIll,
		&caseCounts, &s.ExpectedAnnualCases, &s.RuntimeMS, &s.EngineVersion, &s.Fingerprint, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(perEventInf, &s.PerEventInfection); err != nil {
		return nil, fmt.Errorf("failed to unmarshal per-event infection stats: %w", err)
	}
	if err := json.Unmarshal(perEventIll, &s.PerEventIllness); err != nil {
		return nil, fmt.Errorf("failed to unmarshal per-event illness stats: %w", err)
	}
	if err := json.Unmarshal(annualInf, &s.AnnualInfection); err != nil {
		return nil, fmt.Errorf("failed to unmarshal annual infection stats: %w", err)
	}
	if err := json.Unmarshal(annualIll, &s.AnnualIllness); err != nil {
		return nil, fmt.Errorf("failed to unmarshal annual illness stats: %w", err)
	}
	if err := json.Unmarshal(caseCounts, &s.CaseCounts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal case counts: %w", err)
	}

	s.CreatedAt = core.NewTimestamp(createdAt)
	return &s, nil
}

func collectSummaries(rows *sql.Rows) ([]*risk.Summary, error) {
	var summaries []*risk.Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Ensure summaryRepository implements SummaryRepository
var _ ports.SummaryRepository = (*summaryRepository)(nil)
