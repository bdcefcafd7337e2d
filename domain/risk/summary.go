package risk

import (
	"fmt"

	"qmrisk/domain/core"

	"github.com/montanaflynn/stats"
)

// LadderPercentiles is the WHO-style reporting ladder.
var LadderPercentiles = []float64{1, 2.5, 5, 10, 25, 50, 75, 90, 95, 97.5, 99, 99.9}

// LadderEntry is one rung: the percentile and the risk value at it.
type LadderEntry struct {
	Percentile float64 `json:"percentile"`
	Value      float64 `json:"value"`
}

// Ladder is the full percentile table, ordered by percentile.
type Ladder []LadderEntry

// Value looks up the rung at percentile p.
func (l Ladder) Value(p float64) (float64, bool) {
	for _, e := range l {
		if e.Percentile == p {
			return e.Value, true
		}
	}
	return 0, false
}

// NewLadder computes every rung over the per-iteration values. The 1st
// percentile needs at least 100 values; scenario validation guarantees that.
func NewLadder(xs []float64) (Ladder, error) {
	out := make(Ladder, 0, len(LadderPercentiles))
	for _, p := range LadderPercentiles {
		v, err := stats.Percentile(xs, p)
		if err != nil {
			return nil, core.NewNumericDomainError("ladder",
				fmt.Sprintf("percentile %g over %d values: %v", p, len(xs), err))
		}
		out = append(out, LadderEntry{Percentile: p, Value: v})
	}
	return out, nil
}

// RiskStats summarizes one per-iteration risk vector.
type RiskStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P5     float64 `json:"p5"`
	P95    float64 `json:"p95"`
	Ladder Ladder  `json:"ladder"`
}

// NewRiskStats reduces a per-iteration risk vector.
func NewRiskStats(xs []float64) (RiskStats, error) {
	mean, err := stats.Mean(xs)
	if err != nil {
		return RiskStats{}, core.NewNumericDomainError("summary", fmt.Sprintf("mean: %v", err))
	}
	median, err := stats.Median(xs)
	if err != nil {
		return RiskStats{}, core.NewNumericDomainError("summary", fmt.Sprintf("median: %v", err))
	}
	ladder, err := NewLadder(xs)
	if err != nil {
		return RiskStats{}, err
	}
	p5, _ := ladder.Value(5)
	p95, _ := ladder.Value(95)
	return RiskStats{Mean: mean, Median: median, P5: p5, P95: p95, Ladder: ladder}, nil
}

// CountStats summarizes the per-iteration simulated case counts.
type CountStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// NewCountStats reduces a per-iteration case-count vector.
func NewCountStats(xs []float64) (CountStats, error) {
	mean, err := stats.Mean(xs)
	if err != nil {
		return CountStats{}, core.NewNumericDomainError("summary", fmt.Sprintf("mean: %v", err))
	}
	median, err := stats.Median(xs)
	if err != nil {
		return CountStats{}, core.NewNumericDomainError("summary", fmt.Sprintf("median: %v", err))
	}
	min, err := stats.Min(xs)
	if err != nil {
		return CountStats{}, core.NewNumericDomainError("summary", fmt.Sprintf("min: %v", err))
	}
	max, err := stats.Max(xs)
	if err != nil {
		return CountStats{}, core.NewNumericDomainError("summary", fmt.Sprintf("max: %v", err))
	}
	return CountStats{Mean: mean, Median: median, Min: min, Max: max}, nil
}

// Summary is the immutable result record of one completed run.
//
// INVARIANTS:
// - produced exactly once, at the end of a successful run
// - Seed is the effective seed, even when the scenario asked for an
//   auto-picked one
// - Fingerprint covers engine version, scenario hash, seed and headline
//   outputs, so two runs of the same scenario and seed on the same engine
//   carry identical fingerprints
type Summary struct {
	RunID        core.RunID        `json:"run_id"`
	ScenarioID   core.ScenarioID   `json:"scenario_id"`
	ScenarioName string            `json:"scenario_name"`
	Pathogen     core.PathogenID   `json:"pathogen"`
	ScenarioHash core.ScenarioHash `json:"scenario_hash"`

	Seed          int64   `json:"seed"`
	Iterations    int     `json:"iterations"`
	Individuals   int     `json:"individuals"`
	EventsPerYear float64 `json:"events_per_year"`
	Population    int     `json:"population"`

	PerEventInfection RiskStats `json:"per_event_infection"`
	PerEventIllness   RiskStats `json:"per_event_illness"`
	AnnualInfection   RiskStats `json:"annual_infection"`
	AnnualIllness     RiskStats `json:"annual_illness"`

	CaseCounts          CountStats `json:"case_counts"`
	ExpectedAnnualCases float64    `json:"expected_annual_cases"`

	RuntimeMS     int64          `json:"runtime_ms"`
	EngineVersion string         `json:"engine_version"`
	Fingerprint   core.Hash      `json:"fingerprint"`
	CreatedAt     core.Timestamp `json:"created_at"`
}

// ComputeFingerprint hashes the deterministic identity of the run: engine
// version, scenario, seed, dimensions and headline risk outputs. Runtime and
// timestamps are deliberately excluded.
func (s *Summary) ComputeFingerprint() core.Hash {
	canonical := fmt.Sprintf(
		"engine:%s|scenario:%s|seed:%d|iterations:%d|individuals:%d|pe_inf_mean:%.17g|pe_inf_median:%.17g|annual_inf_median:%.17g|annual_ill_mean:%.17g|cases_mean:%.17g",
		s.EngineVersion,
		s.ScenarioHash,
		s.Seed,
		s.Iterations,
		s.Individuals,
		s.PerEventInfection.Mean,
		s.PerEventInfection.Median,
		s.AnnualInfection.Median,
		s.AnnualIllness.Mean,
		s.CaseCounts.Mean,
	)
	return core.NewHash([]byte(canonical))
}
