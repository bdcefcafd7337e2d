package testkit

import (
	"context"
	"sync"

	"qmrisk/adapters/rng"
	"qmrisk/domain/core"
	"qmrisk/domain/risk"
	"qmrisk/ports"
)

// TestKit provides fixtures and in-memory adapters for tests
type TestKit struct {
	repo *MemorySummaryRepository
}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	return &TestKit{repo: NewMemorySummaryRepository()}
}

// RNGAdapter returns the production RNG adapter; its substreams are
// deterministic, which is exactly what tests need
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return rng.NewAdapter()
}

// SummaryRepository returns the shared in-memory repository
func (t *TestKit) SummaryRepository() *MemorySummaryRepository {
	return t.repo
}

// MemorySummaryRepository implements the SummaryRepository port in memory,
// preserving insertion order so list queries return newest first
type MemorySummaryRepository struct {
	mu        sync.RWMutex
	summaries map[core.RunID]*risk.Summary
	order     []core.RunID
}

// NewMemorySummaryRepository creates an empty in-memory repository
func NewMemorySummaryRepository() *MemorySummaryRepository {
	return &MemorySummaryRepository{summaries: make(map[core.RunID]*risk.Summary)}
}

// Save inserts or updates a summary, keyed by run ID
func (r *MemorySummaryRepository) Save(ctx context.Context, summary *risk.Summary) error {
	if summary == nil || summary.RunID == "" {
		return core.NewConfigurationError("summary", "run ID is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.summaries[summary.RunID]; !exists {
		r.order = append(r.order, summary.RunID)
	}
	r.summaries[summary.RunID] = summary
	return nil
}

// Get returns the summary for a run ID
func (r *MemorySummaryRepository) Get(ctx context.Context, runID core.RunID) (*risk.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.summaries[runID]
	if !ok {
		return nil, core.NewNotFoundError("run", runID.String())
	}
	return s, nil
}

// ListByPathogen returns summaries for a pathogen, newest first
func (r *MemorySummaryRepository) ListByPathogen(ctx context.Context, pathogen string, limit int) ([]*risk.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*risk.Summary, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		s := r.summaries[r.order[i]]
		if string(s.Pathogen) == pathogen {
			out = append(out, s)
		}
	}
	return out, nil
}

// ListRecent returns the most recent summaries, newest first
func (r *MemorySummaryRepository) ListRecent(ctx context.Context, limit int) ([]*risk.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*risk.Summary, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, r.summaries[r.order[i]])
	}
	return out, nil
}

// Len returns the number of stored summaries
func (r *MemorySummaryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
