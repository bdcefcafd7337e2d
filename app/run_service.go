package app

import (
	"context"

	"qmrisk/domain/core"
	"qmrisk/domain/risk"
	"qmrisk/internal"
	"qmrisk/internal/errors"
	"qmrisk/internal/montecarlo"
	"qmrisk/ports"
)

// RunService orchestrates single scenario runs: defaults, validation,
// engine execution and optional persistence
type RunService struct {
	rngPort  ports.RNGPort
	repo     ports.SummaryRepository
	logger   *internal.Logger
	maxCells int
}

// RunRequest defines the inputs for one run
type RunRequest struct {
	Scenario *risk.Scenario

	// SeedOverride, when non-zero, replaces the scenario seed.
	SeedOverride int64

	// IterationsOverride, when non-zero, replaces the scenario iterations.
	IterationsOverride int

	// Persist stores the summary; a repository must be configured.
	Persist bool
}

// NewRunService creates a run service. The repository may be nil when the
// deployment has no database; persistence requests are then rejected.
func NewRunService(rngPort ports.RNGPort, repo ports.SummaryRepository, logger *internal.Logger, maxCells int) *RunService {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &RunService{
		rngPort:  rngPort,
		repo:     repo,
		logger:   logger,
		maxCells: maxCells,
	}
}

// Execute runs one scenario end to end. The caller's scenario is never
// mutated; overrides and defaults apply to a copy.
func (s *RunService) Execute(ctx context.Context, req RunRequest) (*risk.Summary, error) {
	if req.Scenario == nil {
		return nil, core.NewConfigurationError("run", "scenario is required")
	}
	if req.Persist && s.repo == nil {
		return nil, core.NewConfigurationError("run", "persistence requested but no repository is configured")
	}

	sc := *req.Scenario
	if req.SeedOverride != 0 {
		sc.Seed = req.SeedOverride
	}
	if req.IterationsOverride != 0 {
		sc.Iterations = req.IterationsOverride
	}
	if sc.MaxCells == 0 {
		sc.MaxCells = s.maxCells
	}
	sc.ApplyDefaults()

	engine, err := montecarlo.NewEngine(&sc, s.rngPort, s.logger)
	if err != nil {
		return nil, err
	}
	summary, err := engine.Run(ctx)
	if err != nil {
		return nil, err
	}

	if req.Persist {
		if err := s.repo.Save(ctx, summary); err != nil {
			return nil, errors.Wrapf(err, "run %s succeeded but saving failed", summary.RunID)
		}
		s.logger.Debug("run %s saved", summary.RunID)
	}
	return summary, nil
}
