package risk

import (
	"math"
	"testing"
)

func TestAnnualRisk_ExactIdentities(t *testing.T) {
	for _, p := range []float64{0, 1e-9, 0.37, 0.5, 0.999, 1} {
		if got := AnnualRisk(p, 1); got != p {
			t.Errorf("AnnualRisk(%v, 1) = %v, want exactly %v", p, got, p)
		}
		if got := AnnualRisk(p, 0); got != 0 {
			t.Errorf("AnnualRisk(%v, 0) = %v, want exactly 0", p, got)
		}
	}
}

func TestAnnualRisk_Formula(t *testing.T) {
	got := AnnualRisk(0.01, 20)
	want := 1 - math.Pow(0.99, 20)
	if got != want {
		t.Errorf("AnnualRisk(0.01, 20) = %v, want %v", got, want)
	}

	if got := AnnualRisk(0, 365); got != 0 {
		t.Errorf("AnnualRisk(0, 365) = %v, want 0", got)
	}
	if got := AnnualRisk(1, 5); got != 1 {
		t.Errorf("AnnualRisk(1, 5) = %v, want 1", got)
	}

	// more exposures, more risk
	if a, b := AnnualRisk(0.05, 10), AnnualRisk(0.05, 50); a >= b {
		t.Errorf("AnnualRisk not increasing in frequency: %v !< %v", a, b)
	}
}

func TestAnnualRiskAll_MatchesScalar(t *testing.T) {
	ps := []float64{0, 0.001, 0.1, 0.42, 1}
	got := AnnualRiskAll(ps, 20)
	for i, p := range ps {
		if want := AnnualRisk(p, 20); got[i] != want {
			t.Errorf("index %d: %v != %v", i, got[i], want)
		}
	}
}

func TestPopulationImpact(t *testing.T) {
	if got := PopulationImpact(0.2, 10_000); got != 2000 {
		t.Errorf("PopulationImpact(0.2, 10000) = %v, want 2000", got)
	}
	if got := PopulationImpact(0.5, 0); got != 0 {
		t.Errorf("PopulationImpact(0.5, 0) = %v, want 0", got)
	}
}
