// Package dist implements the univariate distributions used to represent
// uncertain QMRA inputs: pathogen concentration, treatment log-reduction,
// environmental dilution, ingestion volume and bioaccumulation.
//
// Every distribution draws by inverse transform of a caller-supplied uniform
// stream (*rand.Rand), one uniform per draw, so a run is bit-for-bit
// reproducible given the stream seed and the draw order. No package-global
// randomness exists anywhere in this package.
package dist

import (
	"fmt"
	"math/rand"

	"qmrisk/domain/core"
)

// ============================================================================
// DISTRIBUTION CONTRACTS
// ============================================================================

// Distribution draws values by inverting the CDF at uniforms taken from rng.
//
// INVARIANTS:
// - Rand consumes exactly one uniform per call (Fixed consumes none)
// - implementations are immutable after construction and safe to share
//   across goroutines as long as each goroutine owns its rng
type Distribution interface {
	Rand(rng *rand.Rand) float64
}

// Full is a Distribution that additionally exposes its closed-form CDF,
// quantile and density. Quantile(CDF(x)) == x within floating tolerance for
// x inside the support wherever the CDF is strictly increasing, and CDF is
// monotone non-decreasing.
type Full interface {
	Distribution
	CDF(x float64) float64
	Quantile(p float64) float64
	Prob(x float64) float64
}

// Sample draws n values from d into a fresh slice.
func Sample(d Distribution, n int, rng *rand.Rand) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand(rng)
	}
	return out
}

// ============================================================================
// SPEC (tagged variant, carried by scenario configuration)
// ============================================================================

// Kind names a distribution variant
type Kind string

const (
	KindFixed            Kind = "fixed"
	KindUniform          Kind = "uniform"
	KindPERT             Kind = "pert"
	KindLogNormal        Kind = "lognormal"
	KindTruncNormal      Kind = "truncated_normal"
	KindTruncLogNormal   Kind = "truncated_lognormal"
	KindTruncLogLogistic Kind = "truncated_loglogistic"
	KindHockeyStick      Kind = "hockey_stick"
	KindEmpirical        Kind = "empirical"
)

// Spec is the serializable tagged variant describing one uncertain input.
// It is constructed once from scenario configuration, validated by Build,
// and reused unchanged across all Monte Carlo iterations of the scenario.
// Only the fields belonging to Kind are consulted; the rest stay zero.
type Spec struct {
	Kind Kind `json:"kind" mapstructure:"kind"`

	// fixed
	Value float64 `json:"value,omitempty" mapstructure:"value"`

	// uniform and pert range; truncation window for the truncated variants;
	// tail anchors for empirical pairings whose probabilities stop short of 0/1
	Min float64 `json:"min,omitempty" mapstructure:"min"`
	Max float64 `json:"max,omitempty" mapstructure:"max"`

	// pert
	Mode  float64 `json:"mode,omitempty" mapstructure:"mode"`
	Shape float64 `json:"shape,omitempty" mapstructure:"shape"` // PERT shape (default 4); log-logistic shape

	// lognormal and truncated_lognormal (log-scale parameters)
	MeanLog float64 `json:"meanlog,omitempty" mapstructure:"meanlog"`
	SDLog   float64 `json:"sdlog,omitempty" mapstructure:"sdlog"`

	// truncated_normal
	Mean   float64 `json:"mean,omitempty" mapstructure:"mean"`
	StdDev float64 `json:"stddev,omitempty" mapstructure:"stddev"`

	// truncated_loglogistic
	Scale float64 `json:"scale,omitempty" mapstructure:"scale"`

	// hockey_stick
	X0   float64 `json:"x0,omitempty" mapstructure:"x0"`
	X50  float64 `json:"x50,omitempty" mapstructure:"x50"`
	X100 float64 `json:"x100,omitempty" mapstructure:"x100"`
	Toe  float64 `json:"toe,omitempty" mapstructure:"toe"`

	// empirical: raw samples when Probs is empty, otherwise an (x, p) pairing
	Values []float64 `json:"values,omitempty" mapstructure:"values"`
	Probs  []float64 `json:"probs,omitempty" mapstructure:"probs"`

	// empirical, file-sourced: the scenario loader resolves the referenced
	// column into Values before validation. Build rejects an unresolved file.
	SamplesFile   string `json:"samples_file,omitempty" mapstructure:"samples_file"`
	SamplesColumn string `json:"samples_column,omitempty" mapstructure:"samples_column"`
}

// Convenience spec constructors for programmatic scenario assembly.

func FixedSpec(value float64) Spec { return Spec{Kind: KindFixed, Value: value} }

func UniformSpec(min, max float64) Spec { return Spec{Kind: KindUniform, Min: min, Max: max} }

func PERTSpec(min, mode, max float64) Spec {
	return Spec{Kind: KindPERT, Min: min, Mode: mode, Max: max}
}

func LogNormalSpec(meanlog, sdlog float64) Spec {
	return Spec{Kind: KindLogNormal, MeanLog: meanlog, SDLog: sdlog}
}

func TruncNormalSpec(mean, stddev, min, max float64) Spec {
	return Spec{Kind: KindTruncNormal, Mean: mean, StdDev: stddev, Min: min, Max: max}
}

func TruncLogNormalSpec(meanlog, sdlog, min, max float64) Spec {
	return Spec{Kind: KindTruncLogNormal, MeanLog: meanlog, SDLog: sdlog, Min: min, Max: max}
}

func TruncLogLogisticSpec(scale, shape, min, max float64) Spec {
	return Spec{Kind: KindTruncLogLogistic, Scale: scale, Shape: shape, Min: min, Max: max}
}

func HockeyStickSpec(x0, x50, x100, toe float64) Spec {
	return Spec{Kind: KindHockeyStick, X0: x0, X50: x50, X100: x100, Toe: toe}
}

func EmpiricalSpec(values []float64) Spec { return Spec{Kind: KindEmpirical, Values: values} }

// Build validates the spec and returns the concrete distribution.
// All parameter problems surface here as configuration errors, before any
// sampling happens; Build never silently clamps a bad parameter.
func (s Spec) Build() (Distribution, error) {
	switch s.Kind {
	case KindFixed:
		return NewFixed(s.Value)
	case KindUniform:
		return NewUniform(s.Min, s.Max)
	case KindPERT:
		shape := s.Shape
		if shape == 0 {
			shape = DefaultPERTShape
		}
		return NewPERT(s.Min, s.Mode, s.Max, shape)
	case KindLogNormal:
		return NewLogNormal(s.MeanLog, s.SDLog)
	case KindTruncNormal:
		return NewTruncatedNormal(s.Mean, s.StdDev, s.Min, s.Max)
	case KindTruncLogNormal:
		return NewTruncatedLogNormal(s.MeanLog, s.SDLog, s.Min, s.Max)
	case KindTruncLogLogistic:
		return NewTruncatedLogLogistic(s.Scale, s.Shape, s.Min, s.Max)
	case KindHockeyStick:
		return NewHockeyStick(s.X0, s.X50, s.X100, s.Toe)
	case KindEmpirical:
		if len(s.Values) == 0 && s.SamplesFile != "" {
			return nil, core.NewConfigurationErrorf("empirical", "samples file %q has not been resolved", s.SamplesFile)
		}
		if len(s.Probs) == 0 {
			return NewEmpiricalFromSamples(s.Values)
		}
		return NewEmpiricalPairs(s.Values, s.Probs, s.Min, s.Max)
	case "":
		return nil, core.NewConfigurationError("distribution", "kind is required")
	default:
		return nil, core.NewConfigurationErrorf("distribution", "unknown kind %q", s.Kind)
	}
}

// Validate checks the spec without keeping the built distribution.
func (s Spec) Validate() error {
	_, err := s.Build()
	return err
}

// String returns a short human-readable description for logs and errors.
func (s Spec) String() string {
	switch s.Kind {
	case KindFixed:
		return fmt.Sprintf("fixed(%g)", s.Value)
	case KindUniform:
		return fmt.Sprintf("uniform(%g, %g)", s.Min, s.Max)
	case KindPERT:
		return fmt.Sprintf("pert(%g, %g, %g)", s.Min, s.Mode, s.Max)
	case KindLogNormal:
		return fmt.Sprintf("lognormal(meanlog=%g, sdlog=%g)", s.MeanLog, s.SDLog)
	case KindTruncNormal:
		return fmt.Sprintf("truncnormal(%g, %g)[%g, %g]", s.Mean, s.StdDev, s.Min, s.Max)
	case KindTruncLogNormal:
		return fmt.Sprintf("trunclognormal(%g, %g)[%g, %g]", s.MeanLog, s.SDLog, s.Min, s.Max)
	case KindTruncLogLogistic:
		return fmt.Sprintf("truncloglogistic(%g, %g)[%g, %g]", s.Scale, s.Shape, s.Min, s.Max)
	case KindHockeyStick:
		return fmt.Sprintf("hockeystick(%g, %g, %g, toe=%g)", s.X0, s.X50, s.X100, s.Toe)
	case KindEmpirical:
		return fmt.Sprintf("empirical(n=%d)", len(s.Values))
	default:
		return string(s.Kind)
	}
}
