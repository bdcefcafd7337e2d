package dist

import (
	"fmt"
	"math"
	"math/rand"

	"qmrisk/domain/core"
)

// HockeyStick is the McBride three-segment piecewise-linear distribution for
// strongly right-skewed concentration data, parameterized by minimum X0,
// median X50, maximum X100 and the toe percentile Toe.
//
// The density rises linearly from zero at X0 to h1 at the median, declines
// linearly to h2 at the toe abscissa Xp, then declines linearly to zero at
// X100. Segment areas are fixed at A=0.5 (X0..X50), B=Toe-0.5 (X50..Xp) and
// C=1-Toe (Xp..X100), which pins h1 = 2A/(X50-X0) and h2 = 2C/(X100-Xp) and
// leaves Xp as the in-range root of a quadratic.
//
// INVARIANTS:
// - X0 < X50 < X100
// - (X50-X0) <= (X100-X50): the lower half may not be wider than the upper
// - Toe in [0.5, 1]; Toe=0.5 collapses the middle segment (Xp=X50), Toe=1
//   empties the tail segment (h2=0, zero density above Xp)
// - CDF(X50) == 0.5 exactly
type HockeyStick struct {
	X0   float64
	X50  float64
	X100 float64
	Toe  float64

	xp float64 // toe abscissa in [X50, X100]
	h1 float64 // density at the median
	h2 float64 // density at the toe
}

// NewHockeyStick constructs the distribution, solving for the toe abscissa.
// Parameter-ordering violations are configuration errors; a segment-area
// quadratic whose clamped root still falls outside [X50, X100] is a numeric
// domain error (it indicates inconsistent areas, not bad user input shape).
func NewHockeyStick(x0, x50, x100, toe float64) (*HockeyStick, error) {
	if math.IsNaN(x0) || math.IsNaN(x50) || math.IsNaN(x100) || math.IsNaN(toe) {
		return nil, core.NewConfigurationError("hockey_stick", "parameters must be finite")
	}
	if !(x0 < x50) || !(x50 < x100) {
		return nil, core.NewConfigurationErrorf("hockey_stick", "need x0 < x50 < x100, got (%g, %g, %g)", x0, x50, x100)
	}
	if x50-x0 > x100-x50 {
		return nil, core.NewConfigurationErrorf("hockey_stick", "lower half-width %g exceeds upper half-width %g", x50-x0, x100-x50)
	}
	if toe < 0.5 || toe > 1 {
		return nil, core.NewConfigurationErrorf("hockey_stick", "toe percentile %g must lie in [0.5, 1]", toe)
	}

	h1 := 1.0 / (x50 - x0) // 2A/(X50-X0) with A = 0.5
	areaB := toe - 0.5
	areaC := 1.0 - toe

	// Equating the middle trapezoid area to B with h2 pinned by the tail
	// area C yields a quadratic in the toe abscissa. 2(B+C) = 1 always.
	a := h1
	b := -(h1*(x100+x50) + 2*(areaB+areaC))
	c := h1*x100*x50 + 2*areaC*x50 + 2*areaB*x100

	disc := b*b - 4*a*c
	if disc < 0 {
		// floating noise only; a genuinely negative discriminant cannot
		// occur for parameters that passed the ordering checks
		disc = 0
	}
	xp := (-b - math.Sqrt(disc)) / (2 * a) // the smaller root is the in-range one

	const slack = 1e-9
	span := x100 - x50
	if xp < x50-slack*span || xp > x100+slack*span {
		return nil, core.NewNumericDomainError("hockey_stick",
			fmt.Sprintf("toe abscissa %g outside [%g, %g]", xp, x50, x100))
	}
	xp = math.Min(math.Max(xp, x50), x100)

	h2 := 0.0
	if x100 > xp {
		h2 = 2 * areaC / (x100 - xp)
	}

	return &HockeyStick{X0: x0, X50: x50, X100: x100, Toe: toe, xp: xp, h1: h1, h2: h2}, nil
}

// MustNewHockeyStick panics on invalid parameters. For fixtures and tests.
func MustNewHockeyStick(x0, x50, x100, toe float64) *HockeyStick {
	hs, err := NewHockeyStick(x0, x50, x100, toe)
	if err != nil {
		panic(err)
	}
	return hs
}

// ToeAbscissa returns Xp, the solved break point between the middle and
// tail segments.
func (h *HockeyStick) ToeAbscissa() float64 { return h.xp }

// Prob returns the density at x.
func (h *HockeyStick) Prob(x float64) float64 {
	switch {
	case x < h.X0 || x > h.X100:
		return 0
	case x <= h.X50:
		return h.h1 * (x - h.X0) / (h.X50 - h.X0)
	case x <= h.xp:
		return h.h1 + (h.h2-h.h1)*(x-h.X50)/(h.xp-h.X50)
	default:
		if h.X100 == h.xp {
			return 0
		}
		return h.h2 * (h.X100 - x) / (h.X100 - h.xp)
	}
}

// CDF returns the cumulative probability at x.
func (h *HockeyStick) CDF(x float64) float64 {
	switch {
	case x <= h.X0:
		return 0
	case x >= h.X100:
		return 1
	case x <= h.X50:
		t := (x - h.X0) / (h.X50 - h.X0)
		return 0.5 * t * t
	case x <= h.xp:
		w := x - h.X50
		m := (h.h2 - h.h1) / (h.xp - h.X50)
		return 0.5 + h.h1*w + 0.5*m*w*w
	default:
		// x in (xp, X100): area under the tail triangle beyond x
		t := (h.X100 - x) / (h.X100 - h.xp)
		return 1 - (1-h.Toe)*t*t
	}
}

// Quantile returns the value whose CDF is p, inverting each segment
// analytically. Inputs outside [0,1] clamp to the support endpoints.
func (h *HockeyStick) Quantile(p float64) float64 {
	switch {
	case p <= 0:
		return h.X0
	case p >= 1:
		return h.X100
	case p <= 0.5:
		return h.X0 + (h.X50-h.X0)*math.Sqrt(2*p)
	case p <= h.Toe:
		width := h.xp - h.X50
		if width == 0 {
			return h.X50
		}
		m := (h.h2 - h.h1) / width
		if math.Abs(m) < 1e-12*h.h1 {
			return h.X50 + (p-0.5)/h.h1
		}
		disc := h.h1*h.h1 + 2*m*(p-0.5)
		if disc < 0 {
			disc = 0
		}
		return h.X50 + (-h.h1+math.Sqrt(disc))/m
	default:
		areaC := 1 - h.Toe
		if areaC == 0 || h.X100 == h.xp {
			return h.xp
		}
		return h.X100 - (h.X100-h.xp)*math.Sqrt((1-p)/areaC)
	}
}

// Rand draws one value by inverse transform. Consumes one uniform.
func (h *HockeyStick) Rand(rng *rand.Rand) float64 {
	return h.Quantile(rng.Float64())
}
