package ports

import (
	"context"

	"qmrisk/domain/risk"
)

// ScenarioLoader defines the interface for reading scenario definitions
// from external sources such as YAML files
type ScenarioLoader interface {
	// Load reads one scenario, applies catalog defaults, and validates it
	Load(ctx context.Context, path string) (*risk.Scenario, error)

	// LoadDir reads every scenario file in a directory, ordered by file name
	LoadDir(ctx context.Context, dir string) ([]*risk.Scenario, error)
}
