package risk

import "math"

// AnnualRisk converts a per-event risk into the probability of at least one
// event over eventsPerYear independent exposures: 1 - (1-p)^n. Frequencies
// of 0 and 1 short-circuit so the identities AnnualRisk(p, 0) == 0 and
// AnnualRisk(p, 1) == p hold exactly, free of pow rounding.
func AnnualRisk(p, eventsPerYear float64) float64 {
	switch eventsPerYear {
	case 0:
		return 0
	case 1:
		return p
	}
	return 1 - math.Pow(1-p, eventsPerYear)
}

// AnnualRiskAll applies AnnualRisk over a per-iteration risk vector.
func AnnualRiskAll(ps []float64, eventsPerYear float64) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = AnnualRisk(p, eventsPerYear)
	}
	return out
}

// PopulationImpact scales a mean annual illness risk to expected cases in an
// exposed population.
func PopulationImpact(meanAnnualIllness float64, population int) float64 {
	return meanAnnualIllness * float64(population)
}
