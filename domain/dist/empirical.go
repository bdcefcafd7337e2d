package dist

import (
	"math"
	"math/rand"
	"sort"

	"qmrisk/domain/core"
)

// Empirical is a distribution defined directly by paired (value, cumulative
// probability) points, sampled via linear interpolation between adjacent
// pairs. Raw samples become order statistics with plotting positions i/n.
//
// INVARIANTS:
// - xs and ps are the same length, both monotone non-decreasing
// - ps[0] == 0 and ps[len-1] == 1 after construction
type Empirical struct {
	xs []float64
	ps []float64
}

// NewEmpiricalFromSamples builds the distribution from raw observations:
// sorted values receive plotting positions i/n, with the smallest value
// repeated at p=0 to anchor the lower tail.
func NewEmpiricalFromSamples(values []float64) (*Empirical, error) {
	if len(values) == 0 {
		return nil, core.NewConfigurationError("empirical", "at least one sample is required")
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	for _, v := range sorted {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.NewConfigurationError("empirical", "samples must be finite")
		}
	}
	sort.Float64s(sorted)

	n := len(sorted)
	xs := make([]float64, 0, n+1)
	ps := make([]float64, 0, n+1)
	xs = append(xs, sorted[0])
	ps = append(ps, 0)
	for i, v := range sorted {
		xs = append(xs, v)
		ps = append(ps, float64(i+1)/float64(n))
	}
	return &Empirical{xs: xs, ps: ps}, nil
}

// NewEmpiricalPairs builds the distribution from an explicit (value,
// cumulative probability) pairing. When the supplied probabilities stop
// short of 0 or 1, min and max anchor the tails at p=0 and p=1; anchors are
// ignored when the pairing already reaches the endpoint.
func NewEmpiricalPairs(values, probs []float64, min, max float64) (*Empirical, error) {
	if len(values) == 0 {
		return nil, core.NewConfigurationError("empirical", "at least one (value, prob) pair is required")
	}
	if len(values) != len(probs) {
		return nil, core.NewConfigurationErrorf("empirical", "%d values paired with %d probabilities", len(values), len(probs))
	}
	for i := range values {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			return nil, core.NewConfigurationError("empirical", "values must be finite")
		}
		if math.IsNaN(probs[i]) || probs[i] < 0 || probs[i] > 1 {
			return nil, core.NewConfigurationErrorf("empirical", "probability %g outside [0, 1]", probs[i])
		}
		if i > 0 {
			if values[i] < values[i-1] {
				return nil, core.NewConfigurationErrorf("empirical", "values not monotone at index %d (%g < %g)", i, values[i], values[i-1])
			}
			if probs[i] < probs[i-1] {
				return nil, core.NewConfigurationErrorf("empirical", "probabilities not monotone at index %d (%g < %g)", i, probs[i], probs[i-1])
			}
		}
	}

	n := len(values)
	xs := make([]float64, 0, n+2)
	ps := make([]float64, 0, n+2)
	if probs[0] > 0 {
		if math.IsNaN(min) || min > values[0] {
			return nil, core.NewConfigurationErrorf("empirical", "min anchor %g must not exceed first value %g", min, values[0])
		}
		xs = append(xs, min)
		ps = append(ps, 0)
	}
	xs = append(xs, values...)
	ps = append(ps, probs...)
	if probs[n-1] < 1 {
		if math.IsNaN(max) || max < values[n-1] {
			return nil, core.NewConfigurationErrorf("empirical", "max anchor %g must not fall below last value %g", max, values[n-1])
		}
		xs = append(xs, max)
		ps = append(ps, 1)
	}
	return &Empirical{xs: xs, ps: ps}, nil
}

// Support returns the smallest and largest representable value.
func (e *Empirical) Support() (min, max float64) {
	return e.xs[0], e.xs[len(e.xs)-1]
}

// CDF returns the cumulative probability at x, interpolating linearly and
// taking the upper probability at repeated values (right-continuous steps).
func (e *Empirical) CDF(x float64) float64 {
	last := len(e.xs) - 1
	if x < e.xs[0] {
		return 0
	}
	if x >= e.xs[last] {
		return 1
	}
	idx := sort.SearchFloat64s(e.xs, x)
	if e.xs[idx] == x {
		for idx < last && e.xs[idx+1] == x {
			idx++
		}
		return e.ps[idx]
	}
	// xs[idx-1] < x < xs[idx]
	t := (x - e.xs[idx-1]) / (e.xs[idx] - e.xs[idx-1])
	return e.ps[idx-1] + t*(e.ps[idx]-e.ps[idx-1])
}

// Quantile returns the value at cumulative probability p. Inputs outside
// [0,1] clamp to the support endpoints.
func (e *Empirical) Quantile(p float64) float64 {
	last := len(e.ps) - 1
	if p <= 0 {
		return e.xs[0]
	}
	if p >= 1 {
		return e.xs[last]
	}
	idx := sort.SearchFloat64s(e.ps, p)
	if e.ps[idx] == p {
		return e.xs[idx]
	}
	// ps[idx-1] < p < ps[idx]
	t := (p - e.ps[idx-1]) / (e.ps[idx] - e.ps[idx-1])
	return e.xs[idx-1] + t*(e.xs[idx]-e.xs[idx-1])
}

// Prob returns the interpolation density at x: the slope of the CDF segment
// containing x. Repeated values carry point mass, reported as +Inf.
func (e *Empirical) Prob(x float64) float64 {
	last := len(e.xs) - 1
	if x < e.xs[0] || x > e.xs[last] {
		return 0
	}
	idx := sort.SearchFloat64s(e.xs, x)
	if idx <= last && e.xs[idx] == x {
		hi := idx
		for hi < last && e.xs[hi+1] == x {
			hi++
		}
		if e.ps[hi] > e.ps[idx] {
			return math.Inf(1) // repeated value carries point mass
		}
		if hi < last {
			idx = hi + 1 // grid point: report the right-hand segment
		}
	}
	if idx == 0 {
		idx = 1
	}
	dx := e.xs[idx] - e.xs[idx-1]
	dp := e.ps[idx] - e.ps[idx-1]
	if dx == 0 {
		if dp == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return dp / dx
}

// Rand draws one value by inverse transform. Consumes one uniform.
func (e *Empirical) Rand(rng *rand.Rand) float64 {
	return e.Quantile(rng.Float64())
}
