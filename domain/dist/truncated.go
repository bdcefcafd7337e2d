package dist

import (
	"math"
	"math/rand"

	"qmrisk/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// Truncated variants draw through the analytic truncated inverse-CDF
// Quantile(F(min) + u*(F(max)-F(min))), so every draw lands inside the
// window and still costs exactly one uniform. Rejection sampling would be
// equally correct but consumes a variable number of uniforms, which breaks
// draw-order reproducibility.

// ============================================================================
// TRUNCATED NORMAL
// ============================================================================

// TruncatedNormal restricts Normal(Mean, StdDev) to [Min, Max]. Used for
// bioaccumulation factors, which are physically bounded.
type TruncatedNormal struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64

	norm distuv.Normal
	fLo  float64 // CDF mass below Min
	fHi  float64 // CDF mass below Max
}

// NewTruncatedNormal creates a normal distribution truncated to [min, max].
func NewTruncatedNormal(mean, stddev, min, max float64) (TruncatedNormal, error) {
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return TruncatedNormal{}, core.NewConfigurationError("truncated_normal", "mean must be finite")
	}
	if !(stddev > 0) || math.IsInf(stddev, 0) {
		return TruncatedNormal{}, core.NewConfigurationErrorf("truncated_normal", "stddev %g must be positive", stddev)
	}
	if math.IsNaN(min) || math.IsNaN(max) || min >= max {
		return TruncatedNormal{}, core.NewConfigurationErrorf("truncated_normal", "window [%g, %g] must be a non-empty interval", min, max)
	}
	norm := distuv.Normal{Mu: mean, Sigma: stddev}
	fLo := norm.CDF(min)
	fHi := norm.CDF(max)
	if fHi-fLo <= 0 {
		return TruncatedNormal{}, core.NewConfigurationErrorf("truncated_normal", "window [%g, %g] carries no probability mass", min, max)
	}
	return TruncatedNormal{Mean: mean, StdDev: stddev, Min: min, Max: max, norm: norm, fLo: fLo, fHi: fHi}, nil
}

func (t TruncatedNormal) Rand(rng *rand.Rand) float64 {
	x := t.norm.Quantile(t.fLo + rng.Float64()*(t.fHi-t.fLo))
	// quantile noise at the window edges stays inside the window
	return math.Min(math.Max(x, t.Min), t.Max)
}

// ============================================================================
// TRUNCATED LOGNORMAL
// ============================================================================

// TruncatedLogNormal restricts LogNormal(MeanLog, SDLog) to [Min, Max].
// Used for swim ingestion rates. Min may be zero; the window then covers
// the whole lower tail.
type TruncatedLogNormal struct {
	MeanLog float64
	SDLog   float64
	Min     float64
	Max     float64

	norm distuv.Normal
	fLo  float64
	fHi  float64
}

// NewTruncatedLogNormal creates a lognormal distribution truncated to [min, max].
func NewTruncatedLogNormal(meanlog, sdlog, min, max float64) (TruncatedLogNormal, error) {
	if math.IsNaN(meanlog) || math.IsInf(meanlog, 0) {
		return TruncatedLogNormal{}, core.NewConfigurationError("truncated_lognormal", "meanlog must be finite")
	}
	if !(sdlog > 0) || math.IsInf(sdlog, 0) {
		return TruncatedLogNormal{}, core.NewConfigurationErrorf("truncated_lognormal", "sdlog %g must be positive", sdlog)
	}
	if math.IsNaN(min) || math.IsNaN(max) || min < 0 || min >= max {
		return TruncatedLogNormal{}, core.NewConfigurationErrorf("truncated_lognormal", "window [%g, %g] must be a non-empty interval with min >= 0", min, max)
	}
	norm := distuv.Normal{Mu: meanlog, Sigma: sdlog}
	fLo := 0.0
	if min > 0 {
		fLo = norm.CDF(math.Log(min))
	}
	fHi := norm.CDF(math.Log(max))
	if fHi-fLo <= 0 {
		return TruncatedLogNormal{}, core.NewConfigurationErrorf("truncated_lognormal", "window [%g, %g] carries no probability mass", min, max)
	}
	return TruncatedLogNormal{MeanLog: meanlog, SDLog: sdlog, Min: min, Max: max, norm: norm, fLo: fLo, fHi: fHi}, nil
}

func (t TruncatedLogNormal) Rand(rng *rand.Rand) float64 {
	x := math.Exp(t.norm.Quantile(t.fLo + rng.Float64()*(t.fHi-t.fLo)))
	return math.Min(math.Max(x, t.Min), t.Max)
}

// ============================================================================
// TRUNCATED LOG-LOGISTIC
// ============================================================================

// TruncatedLogLogistic restricts the log-logistic distribution with the
// given scale and shape to [Min, Max]. Used for shellfish meal sizes.
// F(x) = 1 / (1 + (x/scale)^(-shape)).
type TruncatedLogLogistic struct {
	Scale float64
	Shape float64
	Min   float64
	Max   float64

	fLo float64
	fHi float64
}

// NewTruncatedLogLogistic creates a log-logistic distribution truncated to [min, max].
func NewTruncatedLogLogistic(scale, shape, min, max float64) (TruncatedLogLogistic, error) {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return TruncatedLogLogistic{}, core.NewConfigurationErrorf("truncated_loglogistic", "scale %g must be positive", scale)
	}
	if !(shape > 0) || math.IsInf(shape, 0) {
		return TruncatedLogLogistic{}, core.NewConfigurationErrorf("truncated_loglogistic", "shape %g must be positive", shape)
	}
	if math.IsNaN(min) || math.IsNaN(max) || min < 0 || min >= max {
		return TruncatedLogLogistic{}, core.NewConfigurationErrorf("truncated_loglogistic", "window [%g, %g] must be a non-empty interval with min >= 0", min, max)
	}
	fLo := logLogisticCDF(min, scale, shape)
	fHi := logLogisticCDF(max, scale, shape)
	if fHi-fLo <= 0 {
		return TruncatedLogLogistic{}, core.NewConfigurationErrorf("truncated_loglogistic", "window [%g, %g] carries no probability mass", min, max)
	}
	return TruncatedLogLogistic{Scale: scale, Shape: shape, Min: min, Max: max, fLo: fLo, fHi: fHi}, nil
}

func (t TruncatedLogLogistic) Rand(rng *rand.Rand) float64 {
	p := t.fLo + rng.Float64()*(t.fHi-t.fLo)
	x := logLogisticQuantile(p, t.Scale, t.Shape)
	return math.Min(math.Max(x, t.Min), t.Max)
}

func logLogisticCDF(x, scale, shape float64) float64 {
	if x <= 0 {
		return 0
	}
	return 1 / (1 + math.Pow(x/scale, -shape))
}

func logLogisticQuantile(p, scale, shape float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return math.Inf(1)
	}
	return scale * math.Pow(p/(1-p), 1/shape)
}
