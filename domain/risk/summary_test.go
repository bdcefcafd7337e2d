package risk

import (
	"testing"
)

func rampVector(n int) []float64 {
	// reversed so the reducers have to sort
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(n - 1 - i)
	}
	return out
}

func TestNewRiskStats_RampReference(t *testing.T) {
	rs, err := NewRiskStats(rampVector(1000))
	if err != nil {
		t.Fatalf("NewRiskStats: %v", err)
	}

	if rs.Mean != 499.5 {
		t.Errorf("Mean = %v, want 499.5", rs.Mean)
	}
	if rs.Median != 499.5 {
		t.Errorf("Median = %v, want 499.5", rs.Median)
	}
	if v, ok := rs.Ladder.Value(1); !ok || v != 9.5 {
		t.Errorf("P1 = %v, want 9.5", v)
	}
	if v, ok := rs.Ladder.Value(99.9); !ok || v < 998 || v > 999 {
		t.Errorf("P99.9 = %v, want within [998, 999]", v)
	}
	if rs.P5 != 49.5 || rs.P95 != 949.5 {
		t.Errorf("P5/P95 = %v/%v, want 49.5/949.5", rs.P5, rs.P95)
	}
}

func TestNewLadder_MonotoneNonDecreasing(t *testing.T) {
	xs := make([]float64, 5000)
	for i := range xs {
		// heavy-tailed ramp, still deterministic
		v := float64(i%997) + 1
		xs[i] = v * v
	}

	ladder, err := NewLadder(xs)
	if err != nil {
		t.Fatalf("NewLadder: %v", err)
	}
	if len(ladder) != len(LadderPercentiles) {
		t.Fatalf("ladder has %d rungs, want %d", len(ladder), len(LadderPercentiles))
	}
	for i := 1; i < len(ladder); i++ {
		if ladder[i].Value < ladder[i-1].Value {
			t.Errorf("ladder decreases at P%g: %v after %v",
				ladder[i].Percentile, ladder[i].Value, ladder[i-1].Value)
		}
		if ladder[i].Percentile <= ladder[i-1].Percentile {
			t.Errorf("percentiles out of order at index %d", i)
		}
	}
}

func TestNewLadder_TooFewValues(t *testing.T) {
	if _, err := NewLadder(rampVector(10)); err == nil {
		t.Error("expected failure below 100 values")
	}
}

func TestNewCountStats(t *testing.T) {
	cs, err := NewCountStats([]float64{4, 0, 2, 8, 1})
	if err != nil {
		t.Fatalf("NewCountStats: %v", err)
	}
	if cs.Mean != 3 || cs.Median != 2 || cs.Min != 0 || cs.Max != 8 {
		t.Errorf("CountStats = %+v", cs)
	}
}

func TestSummary_FingerprintCoversOutcomeNotRuntime(t *testing.T) {
	base := func() Summary {
		return Summary{
			ScenarioHash:      "abc123",
			Seed:              42,
			Iterations:        10_000,
			Individuals:       100,
			PerEventInfection: RiskStats{Mean: 0.011, Median: 0.0126},
			AnnualInfection:   RiskStats{Median: 0.2},
			AnnualIllness:     RiskStats{Mean: 0.08},
			CaseCounts:        CountStats{Mean: 1.15},
			RuntimeMS:         100,
		}
	}

	a, b := base(), base()
	if a.ComputeFingerprint() != b.ComputeFingerprint() {
		t.Error("identical runs fingerprint differently")
	}

	b.RuntimeMS = 9000
	if a.ComputeFingerprint() != b.ComputeFingerprint() {
		t.Error("runtime leaked into the fingerprint")
	}

	c := base()
	c.Seed = 43
	if a.ComputeFingerprint() == c.ComputeFingerprint() {
		t.Error("seed change left the fingerprint unchanged")
	}

	d := base()
	d.PerEventInfection.Median = 0.0127
	if a.ComputeFingerprint() == d.ComputeFingerprint() {
		t.Error("outcome change left the fingerprint unchanged")
	}

	e := base()
	e.EngineVersion = "0.0.0-test"
	if a.ComputeFingerprint() == e.ComputeFingerprint() {
		t.Error("engine version change left the fingerprint unchanged")
	}
}
