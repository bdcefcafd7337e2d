package dist

import (
	"math"
	"math/rand"

	"qmrisk/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultPERTShape is the conventional PERT shape parameter.
const DefaultPERTShape = 4.0

// ============================================================================
// FIXED
// ============================================================================

// Fixed is a degenerate distribution returning a single value. It consumes
// no uniforms, so substituting a fixed value for an uncertain input never
// shifts the draw sequence of other quantities.
type Fixed struct {
	Value float64
}

// NewFixed creates a point-mass distribution at value.
func NewFixed(value float64) (Fixed, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Fixed{}, core.NewConfigurationError("fixed", "value must be finite")
	}
	return Fixed{Value: value}, nil
}

func (f Fixed) Rand(_ *rand.Rand) float64 { return f.Value }

// ============================================================================
// UNIFORM
// ============================================================================

// Uniform is the continuous uniform distribution on [Min, Max).
type Uniform struct {
	Min float64
	Max float64
}

// NewUniform creates a uniform distribution, rejecting an empty or inverted range.
func NewUniform(min, max float64) (Uniform, error) {
	if math.IsNaN(min) || math.IsNaN(max) {
		return Uniform{}, core.NewConfigurationError("uniform", "bounds must be finite")
	}
	if min >= max {
		return Uniform{}, core.NewConfigurationErrorf("uniform", "min %g must be less than max %g", min, max)
	}
	return Uniform{Min: min, Max: max}, nil
}

func (u Uniform) Rand(rng *rand.Rand) float64 {
	return u.Min + (u.Max-u.Min)*rng.Float64()
}

// ============================================================================
// LOGNORMAL
// ============================================================================

// LogNormal is parameterized on the log scale: ln X ~ Normal(MeanLog, SDLog).
type LogNormal struct {
	MeanLog float64
	SDLog   float64

	norm distuv.Normal
}

// NewLogNormal creates a lognormal distribution from log-scale parameters.
func NewLogNormal(meanlog, sdlog float64) (LogNormal, error) {
	if math.IsNaN(meanlog) || math.IsInf(meanlog, 0) {
		return LogNormal{}, core.NewConfigurationError("lognormal", "meanlog must be finite")
	}
	if !(sdlog > 0) || math.IsInf(sdlog, 0) {
		return LogNormal{}, core.NewConfigurationErrorf("lognormal", "sdlog %g must be positive", sdlog)
	}
	return LogNormal{
		MeanLog: meanlog,
		SDLog:   sdlog,
		norm:    distuv.Normal{Mu: meanlog, Sigma: sdlog},
	}, nil
}

func (l LogNormal) Rand(rng *rand.Rand) float64 {
	return math.Exp(l.norm.Quantile(rng.Float64()))
}

// ============================================================================
// PERT
// ============================================================================

// PERT is the Beta-PERT distribution on [Min, Max] with most-likely value
// Mode, used for exposure durations. The underlying Beta has
// alpha = 1 + shape*(mode-min)/(max-min) and beta = 1 + shape*(max-mode)/(max-min).
type PERT struct {
	Min   float64
	Mode  float64
	Max   float64
	Shape float64

	beta distuv.Beta
}

// NewPERT creates a PERT distribution; shape is conventionally 4.
func NewPERT(min, mode, max, shape float64) (PERT, error) {
	if math.IsNaN(min) || math.IsNaN(mode) || math.IsNaN(max) {
		return PERT{}, core.NewConfigurationError("pert", "parameters must be finite")
	}
	if min >= max {
		return PERT{}, core.NewConfigurationErrorf("pert", "min %g must be less than max %g", min, max)
	}
	if mode < min || mode > max {
		return PERT{}, core.NewConfigurationErrorf("pert", "mode %g must lie within [%g, %g]", mode, min, max)
	}
	if !(shape > 0) {
		return PERT{}, core.NewConfigurationErrorf("pert", "shape %g must be positive", shape)
	}
	span := max - min
	return PERT{
		Min:   min,
		Mode:  mode,
		Max:   max,
		Shape: shape,
		beta: distuv.Beta{
			Alpha: 1 + shape*(mode-min)/span,
			Beta:  1 + shape*(max-mode)/span,
		},
	}, nil
}

func (p PERT) Rand(rng *rand.Rand) float64 {
	return p.Min + (p.Max-p.Min)*p.beta.Quantile(rng.Float64())
}
