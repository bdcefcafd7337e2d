package risk

import (
	"math"
	"math/rand"
	"testing"

	"qmrisk/domain/core"
	"qmrisk/domain/doseresponse"
	"qmrisk/domain/exposure"
)

func fillMatrix(t *testing.T, iterations, individuals int, v float64) *exposure.Matrix {
	t.Helper()
	m, err := exposure.NewMatrix(iterations, individuals)
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	data := m.Data()
	for i := range data {
		data[i] = v
	}
	return m
}

func TestSimulateInfections_ExtremeProbabilities(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	zero, err := SimulateInfections(fillMatrix(t, 10, 10, 0), rng)
	if err != nil {
		t.Fatalf("SimulateInfections: %v", err)
	}
	for i, v := range zero.Data() {
		if v != 0 {
			t.Fatalf("cell %d infected at probability 0", i)
		}
	}

	one, err := SimulateInfections(fillMatrix(t, 10, 10, 1), rng)
	if err != nil {
		t.Fatalf("SimulateInfections: %v", err)
	}
	for i, v := range one.Data() {
		if v != 1 {
			t.Fatalf("cell %d escaped at probability 1", i)
		}
	}
}

func TestSimulateInfections_FractionTracksProbability(t *testing.T) {
	probs := fillMatrix(t, 200, 500, 0.3)
	out, err := SimulateInfections(probs, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("SimulateInfections: %v", err)
	}

	sum := 0.0
	for _, v := range out.Data() {
		if v != 0 && v != 1 {
			t.Fatalf("non-binary outcome %v", v)
		}
		sum += v
	}
	frac := sum / float64(out.Cells())
	if math.Abs(frac-0.3) > 0.01 {
		t.Errorf("infected fraction = %v, want 0.3 +/- 0.01", frac)
	}
}

func TestSimulateInfections_DeterministicPerSeed(t *testing.T) {
	probs := fillMatrix(t, 50, 20, 0.5)

	a, _ := SimulateInfections(probs, rand.New(rand.NewSource(7)))
	b, _ := SimulateInfections(probs, rand.New(rand.NewSource(7)))
	for i := range a.Data() {
		if a.Data()[i] != b.Data()[i] {
			t.Fatalf("cell %d differs across identical seeds", i)
		}
	}
}

func TestSimulateIllness_OnlyInfectedFallIll(t *testing.T) {
	infected, _ := exposure.FromData(2, 3, []float64{1, 0, 1, 0, 0, 1})

	certain, err := SimulateIllness(infected, 1, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("SimulateIllness: %v", err)
	}
	for i := range infected.Data() {
		if certain.Data()[i] != infected.Data()[i] {
			t.Fatalf("adjusted probability 1 should mirror infection at cell %d", i)
		}
	}

	never, _ := SimulateIllness(infected, 0, rand.New(rand.NewSource(3)))
	for i, v := range never.Data() {
		if v != 0 {
			t.Fatalf("adjusted probability 0 produced illness at cell %d", i)
		}
	}
}

// Healthy cells still burn a uniform, so illness draws stay aligned no
// matter what the infection pattern looks like.
func TestSimulateIllness_DrawCountIndependentOfPattern(t *testing.T) {
	mixed, _ := exposure.FromData(2, 2, []float64{1, 0, 0, 1})
	none, _ := exposure.FromData(2, 2, []float64{0, 0, 0, 0})

	a := rand.New(rand.NewSource(11))
	b := rand.New(rand.NewSource(11))
	if _, err := SimulateIllness(mixed, 0.37, a); err != nil {
		t.Fatalf("SimulateIllness: %v", err)
	}
	if _, err := SimulateIllness(none, 0.37, b); err != nil {
		t.Fatalf("SimulateIllness: %v", err)
	}

	if x, y := a.Float64(), b.Float64(); x != y {
		t.Errorf("draw streams diverged: %v vs %v", x, y)
	}
}

func TestSimulateIllness_RateConverges(t *testing.T) {
	infected := fillMatrix(t, 1000, 100, 1)
	ill, err := SimulateIllness(infected, 0.37, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatalf("SimulateIllness: %v", err)
	}

	sum := 0.0
	for _, v := range ill.Data() {
		sum += v
	}
	frac := sum / float64(ill.Cells())
	if math.Abs(frac-0.37) > 0.01 {
		t.Errorf("illness fraction = %v, want 0.37 +/- 0.01", frac)
	}
}

func TestInfectionProbabilities_PreservesShape(t *testing.T) {
	model, err := doseresponse.NewExponential(0.1)
	if err != nil {
		t.Fatalf("NewExponential: %v", err)
	}
	doses, _ := exposure.FromData(2, 3, []float64{0, 1, 2, 3, 4, 5})

	probs, err := InfectionProbabilities(model, doses)
	if err != nil {
		t.Fatalf("InfectionProbabilities: %v", err)
	}
	if probs.Iterations() != 2 || probs.Individuals() != 3 {
		t.Fatalf("shape = %dx%d", probs.Iterations(), probs.Individuals())
	}
	for i, d := range doses.Data() {
		if want := model.ProbInfection(d); probs.Data()[i] != want {
			t.Errorf("cell %d = %v, want %v", i, probs.Data()[i], want)
		}
	}
}

func TestInfectionProbabilities_PropagatesDomainErrors(t *testing.T) {
	model, _ := doseresponse.NewExponential(0.1)
	doses, _ := exposure.FromData(1, 2, []float64{1, math.NaN()})

	if _, err := InfectionProbabilities(model, doses); !core.IsNumericDomainError(err) {
		t.Errorf("NaN dose: got %v", err)
	}
}

func TestCaseCounts_SumsPerIteration(t *testing.T) {
	ill, _ := exposure.FromData(2, 3, []float64{1, 0, 1, 1, 1, 1})
	counts := CaseCounts(ill)
	if counts[0] != 2 || counts[1] != 3 {
		t.Errorf("CaseCounts = %v, want [2 3]", counts)
	}
}
