package exposure

import (
	"fmt"
	"math"
	"math/rand"

	"qmrisk/domain/core"
)

// DiscretizeDose converts a continuous organism dose into a whole count:
// floor(dose) plus one extra organism with probability equal to the
// fractional remainder. Exactly one uniform is consumed per call, whole
// doses included, so the draw sequence does not depend on the dose values.
func DiscretizeDose(dose float64, rng *rand.Rand) (float64, error) {
	if math.IsNaN(dose) || dose < 0 {
		return 0, core.NewNumericDomainError("discretize",
			fmt.Sprintf("dose %v cannot be discretized", dose))
	}
	whole := math.Floor(dose)
	if rng.Float64() < dose-whole {
		whole++
	}
	return whole, nil
}

// DiscretizeMatrix rounds every dose in place, independently per cell in
// iteration-major order. The per-draw independence is what makes repeated
// low-dose draws average back to the continuous expectation.
func DiscretizeMatrix(m *Matrix, rng *rand.Rand) error {
	data := m.Data()
	for i, d := range data {
		if math.IsNaN(d) || d < 0 {
			return core.NewNumericDomainError("discretize",
				fmt.Sprintf("dose %v at cell %d cannot be discretized", d, i))
		}
		whole := math.Floor(d)
		if rng.Float64() < d-whole {
			whole++
		}
		data[i] = whole
	}
	return nil
}
