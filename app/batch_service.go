package app

import (
	"context"

	"qmrisk/domain/core"
	"qmrisk/domain/risk"
	"qmrisk/internal"

	"golang.org/x/sync/errgroup"
)

// BatchService runs many scenarios concurrently under a worker limit.
// Individual failures never abort the batch; each scenario gets its own
// outcome slot.
type BatchService struct {
	runService *RunService
	workers    int
	logger     *internal.Logger
}

// BatchItem is the outcome of one scenario in a batch: exactly one of
// Summary and Err is set
type BatchItem struct {
	ScenarioID   core.ScenarioID
	ScenarioName string
	Summary      *risk.Summary
	Err          error
}

// BatchResult collects every outcome in input order
type BatchResult struct {
	Items     []BatchItem
	Succeeded int
	Failed    int
}

// NewBatchService creates a batch service with the given worker limit
func NewBatchService(runService *RunService, workers int, logger *internal.Logger) *BatchService {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &BatchService{
		runService: runService,
		workers:    workers,
		logger:     logger,
	}
}

// ExecuteAll runs every scenario and reports per-scenario outcomes in the
// order they were given
func (s *BatchService) ExecuteAll(ctx context.Context, scenarios []*risk.Scenario, persist bool) (*BatchResult, error) {
	if len(scenarios) == 0 {
		return nil, core.NewConfigurationError("batch", "no scenarios to run")
	}

	s.logger.Info("batch: %d scenarios, %d workers", len(scenarios), s.workers)
	items := make([]BatchItem, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, sc := range scenarios {
		items[i] = BatchItem{ScenarioID: sc.ID, ScenarioName: sc.Name}
		g.Go(func() error {
			summary, err := s.runService.Execute(gctx, RunRequest{Scenario: sc, Persist: persist})
			if err != nil {
				// Each slot records its own failure; the batch keeps going.
				items[i].Err = err
				s.logger.Warn("batch scenario %s failed: %v", sc.ID, err)
				return nil
			}
			items[i].Summary = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &BatchResult{Items: items}
	for i := range items {
		if items[i].Err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}
	s.logger.Info("batch complete: %d succeeded, %d failed", result.Succeeded, result.Failed)
	return result, nil
}
