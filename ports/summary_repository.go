package ports

import (
	"context"

	"qmrisk/domain/core"
	"qmrisk/domain/risk"
)

// SummaryRepository defines the interface for run summary storage operations
type SummaryRepository interface {
	// Save inserts or updates a summary, keyed by run ID
	Save(ctx context.Context, summary *risk.Summary) error

	// Get returns the summary for a run ID
	Get(ctx context.Context, runID core.RunID) (*risk.Summary, error)

	// List queries, newest first
	ListByPathogen(ctx context.Context, pathogen string, limit int) ([]*risk.Summary, error)
	ListRecent(ctx context.Context, limit int) ([]*risk.Summary, error)
}
