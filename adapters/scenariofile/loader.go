package scenariofile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"qmrisk/domain/core"
	"qmrisk/domain/dist"
	"qmrisk/domain/risk"
	"qmrisk/ports"

	"github.com/spf13/viper"
)

// Loader implements the ScenarioLoader port for YAML scenario files.
// Field names follow the scenario struct's mapstructure tags; unknown keys
// are ignored so files can carry operator annotations.
type Loader struct {
	samples ports.SampleReader
}

// NewLoader creates a scenario file loader. samples resolves file-sourced
// empirical specs and may be nil when none are expected.
func NewLoader(samples ports.SampleReader) *Loader {
	return &Loader{samples: samples}
}

// Load reads one scenario file, applies catalog defaults, and validates.
// A file without an id gets one from its base name.
func (l *Loader) Load(ctx context.Context, path string) (*risk.Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, core.NewConfigurationErrorf("scenario file", "%s: %v", path, err)
	}

	var sc risk.Scenario
	if err := v.Unmarshal(&sc); err != nil {
		return nil, core.NewConfigurationErrorf("scenario file", "%s: %v", path, err)
	}

	if sc.ID == "" {
		base := filepath.Base(path)
		sc.ID = core.ScenarioID(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if sc.Name == "" {
		sc.Name = string(sc.ID)
	}

	if err := l.resolveSampleSpecs(ctx, filepath.Dir(path), &sc); err != nil {
		return nil, err
	}

	sc.ApplyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sc, nil
}

// resolveSampleSpecs fills file-sourced empirical specs from their referenced
// sample columns. Relative paths resolve against the scenario file's
// directory; the column name defaults to "value".
func (l *Loader) resolveSampleSpecs(ctx context.Context, dir string, sc *risk.Scenario) error {
	specs := []*dist.Spec{
		&sc.Concentration, &sc.LRV, &sc.MHF, &sc.Dilution,
		&sc.Volume, &sc.Rate, &sc.Duration, &sc.BAF, &sc.Meal,
	}
	for _, spec := range specs {
		if spec.Kind != dist.KindEmpirical || spec.SamplesFile == "" || len(spec.Values) > 0 {
			continue
		}
		if l.samples == nil {
			return core.NewConfigurationErrorf("scenario file",
				"no sample reader available to resolve %s", spec.SamplesFile)
		}
		path := spec.SamplesFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		column := spec.SamplesColumn
		if column == "" {
			column = "value"
		}
		values, err := l.samples.ReadSamples(ctx, path, column)
		if err != nil {
			return err
		}
		spec.Values = values
	}
	return nil
}

// LoadDir reads every .yaml/.yml file in a directory, ordered by file name
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]*risk.Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, core.NewConfigurationErrorf("scenario dir", "%s: %v", dir, err)
	}

	// os.ReadDir returns entries sorted by name, which fixes batch order.
	scenarios := make([]*risk.Scenario, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
		default:
			continue
		}
		sc, err := l.Load(ctx, filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}

	if len(scenarios) == 0 {
		return nil, core.NewConfigurationErrorf("scenario dir", "%s contains no scenario files", dir)
	}
	return scenarios, nil
}
