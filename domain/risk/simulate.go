package risk

import (
	"math/rand"

	"qmrisk/domain/doseresponse"
	"qmrisk/domain/exposure"
)

// InfectionProbabilities evaluates the dose-response model over a dose
// matrix, preserving its shape.
func InfectionProbabilities(m doseresponse.Model, doses *exposure.Matrix) (*exposure.Matrix, error) {
	probs, err := m.ProbInfectionAll(doses.Data())
	if err != nil {
		return nil, err
	}
	return exposure.FromData(doses.Iterations(), doses.Individuals(), probs)
}

// SimulateInfections turns an infection-probability matrix into binary
// outcomes by one independent Bernoulli draw per cell, iteration-major.
func SimulateInfections(probs *exposure.Matrix, rng *rand.Rand) (*exposure.Matrix, error) {
	out, err := exposure.NewMatrix(probs.Iterations(), probs.Individuals())
	if err != nil {
		return nil, err
	}
	src := probs.Data()
	dst := out.Data()
	for i, p := range src {
		if rng.Float64() < p {
			dst[i] = 1
		}
	}
	return out, nil
}

// SimulateIllness draws illness conditional on infection with the adjusted
// probability P(ill|infected) x susceptible fraction. Every cell consumes a
// uniform whether or not it is infected, so the draw sequence is independent
// of the infection outcomes.
func SimulateIllness(infected *exposure.Matrix, adjustedProbIll float64, rng *rand.Rand) (*exposure.Matrix, error) {
	out, err := exposure.NewMatrix(infected.Iterations(), infected.Individuals())
	if err != nil {
		return nil, err
	}
	src := infected.Data()
	dst := out.Data()
	for i, inf := range src {
		u := rng.Float64()
		if inf == 1 && u < adjustedProbIll {
			dst[i] = 1
		}
	}
	return out, nil
}

// CaseCounts reduces a binary illness matrix to per-iteration case counts.
func CaseCounts(ill *exposure.Matrix) []float64 {
	return ill.RowSums()
}
