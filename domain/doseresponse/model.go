// Package doseresponse implements the dose-response models that convert an
// ingested organism dose into a probability of infection. Models form a
// closed tagged variant: each kind carries its own shape parameters,
// validated at construction, and a single pure evaluation function selected
// by kind. Evaluation never draws random numbers.
package doseresponse

import (
	"fmt"
	"math"

	"qmrisk/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// Kind names a dose-response model variant
type Kind string

const (
	Exponential              Kind = "exponential"
	BetaPoissonExact         Kind = "beta_poisson_exact"
	BetaPoissonApprox        Kind = "beta_poisson"
	BetaBinomial             Kind = "beta_binomial"
	SimpleBinomial           Kind = "binomial"
	Weibull                  Kind = "weibull"
	LogLogistic              Kind = "log_logistic"
	LogProbit                Kind = "log_probit"
	OverdispersedExponential Kind = "overdispersed_exponential"
	FractionalPoisson        Kind = "fractional_poisson"
)

// Model is an immutable dose-response parameter bundle. Only the fields
// belonging to Kind are consulted; the rest stay zero.
//
// INVARIANTS (enforced by Validate before any evaluation):
// - exponential, binomial: R in (0, 1]
// - beta-Poisson and beta-binomial: Alpha > 0, Beta > 0
// - weibull, log-logistic, log-probit: Q2 > 0; Q1 > 0 except log-logistic
//   where Q1 is a location and may be any finite value
// - overdispersed exponential: R in (0, 1], K > 0
// - fractional Poisson: P in (0, 1], Mu > 0
type Model struct {
	Kind Kind `json:"kind" mapstructure:"kind"`

	R     float64 `json:"r,omitempty" mapstructure:"r"`
	Alpha float64 `json:"alpha,omitempty" mapstructure:"alpha"`
	Beta  float64 `json:"beta,omitempty" mapstructure:"beta"`
	Q1    float64 `json:"q1,omitempty" mapstructure:"q1"`
	Q2    float64 `json:"q2,omitempty" mapstructure:"q2"`
	K     float64 `json:"k,omitempty" mapstructure:"k"`
	P     float64 `json:"p,omitempty" mapstructure:"p"`
	Mu    float64 `json:"mu,omitempty" mapstructure:"mu"`
}

// ============================================================================
// CONSTRUCTORS (one per kind, rejecting out-of-domain shape parameters)
// ============================================================================

// NewExponential builds P = 1 - exp(-r*dose).
func NewExponential(r float64) (Model, error) {
	m := Model{Kind: Exponential, R: r}
	return m, m.Validate()
}

// NewBetaPoissonExact builds the single-hit expectation over Beta(alpha, beta)
// susceptibility: P = 1 - M(alpha; alpha+beta; -dose) with M the confluent
// hypergeometric function.
func NewBetaPoissonExact(alpha, beta float64) (Model, error) {
	m := Model{Kind: BetaPoissonExact, Alpha: alpha, Beta: beta}
	return m, m.Validate()
}

// NewBetaPoisson builds the Furumoto-Mickey approximation
// P = 1 - (1 + dose/beta)^(-alpha).
func NewBetaPoisson(alpha, beta float64) (Model, error) {
	m := Model{Kind: BetaPoissonApprox, Alpha: alpha, Beta: beta}
	return m, m.Validate()
}

// NewBetaBinomial builds the log-gamma beta-binomial form used for norovirus:
// P = 1 - exp(lgamma(beta+dose) + lgamma(alpha+beta) - lgamma(alpha+beta+dose) - lgamma(beta)).
func NewBetaBinomial(alpha, beta float64) (Model, error) {
	m := Model{Kind: BetaBinomial, Alpha: alpha, Beta: beta}
	return m, m.Validate()
}

// NewSimpleBinomial builds P = 1 - (1-r)^dose.
func NewSimpleBinomial(r float64) (Model, error) {
	m := Model{Kind: SimpleBinomial, R: r}
	return m, m.Validate()
}

// NewWeibull builds P = 1 - exp(-q1*dose^q2).
func NewWeibull(q1, q2 float64) (Model, error) {
	m := Model{Kind: Weibull, Q1: q1, Q2: q2}
	return m, m.Validate()
}

// NewLogLogistic builds P = 1/(1 + exp(q1 - q2*ln(dose))).
func NewLogLogistic(q1, q2 float64) (Model, error) {
	m := Model{Kind: LogLogistic, Q1: q1, Q2: q2}
	return m, m.Validate()
}

// NewLogProbit builds P = Phi((1/q2)*ln(dose/q1)).
func NewLogProbit(q1, q2 float64) (Model, error) {
	m := Model{Kind: LogProbit, Q1: q1, Q2: q2}
	return m, m.Validate()
}

// NewOverdispersedExponential builds P = 1 - (1 + r*dose/k)^(-k).
func NewOverdispersedExponential(r, k float64) (Model, error) {
	m := Model{Kind: OverdispersedExponential, R: r, K: k}
	return m, m.Validate()
}

// NewFractionalPoisson builds the Messner form P = p*(1 - exp(-dose/mu)),
// with asymptote p rather than 1.
func NewFractionalPoisson(p, mu float64) (Model, error) {
	m := Model{Kind: FractionalPoisson, P: p, Mu: mu}
	return m, m.Validate()
}

// Validate rejects out-of-domain shape parameters before any evaluation.
func (m Model) Validate() error {
	finite := func(vs ...float64) bool {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	}
	switch m.Kind {
	case Exponential, SimpleBinomial:
		if !finite(m.R) || m.R <= 0 || m.R > 1 {
			return core.NewConfigurationErrorf(string(m.Kind), "r %g must lie in (0, 1]", m.R)
		}
	case BetaPoissonExact, BetaPoissonApprox, BetaBinomial:
		if !finite(m.Alpha, m.Beta) || m.Alpha <= 0 || m.Beta <= 0 {
			return core.NewConfigurationErrorf(string(m.Kind), "alpha %g and beta %g must be positive", m.Alpha, m.Beta)
		}
	case Weibull:
		if !finite(m.Q1, m.Q2) || m.Q1 <= 0 || m.Q2 <= 0 {
			return core.NewConfigurationErrorf(string(m.Kind), "q1 %g and q2 %g must be positive", m.Q1, m.Q2)
		}
	case LogLogistic:
		if !finite(m.Q1, m.Q2) || m.Q2 <= 0 {
			return core.NewConfigurationErrorf(string(m.Kind), "q2 %g must be positive and q1 %g finite", m.Q2, m.Q1)
		}
	case LogProbit:
		if !finite(m.Q1, m.Q2) || m.Q1 <= 0 || m.Q2 <= 0 {
			return core.NewConfigurationErrorf(string(m.Kind), "q1 %g and q2 %g must be positive", m.Q1, m.Q2)
		}
	case OverdispersedExponential:
		if !finite(m.R, m.K) || m.R <= 0 || m.R > 1 || m.K <= 0 {
			return core.NewConfigurationErrorf(string(m.Kind), "r %g must lie in (0, 1] and k %g must be positive", m.R, m.K)
		}
	case FractionalPoisson:
		if !finite(m.P, m.Mu) || m.P <= 0 || m.P > 1 || m.Mu <= 0 {
			return core.NewConfigurationErrorf(string(m.Kind), "p %g must lie in (0, 1] and mu %g must be positive", m.P, m.Mu)
		}
	case "":
		return core.NewConfigurationError("dose_response", "model kind is required")
	default:
		return core.NewConfigurationErrorf("dose_response", "unknown model kind %q", m.Kind)
	}
	return nil
}

// ============================================================================
// EVALUATION
// ============================================================================

// ProbInfection returns the infection probability for a single non-negative
// dose. Doses of zero (or below) return exactly 0. The beta-binomial form
// clamps floating-point negative-near-zero results to 0; that clamp is the
// only silent coercion in this package.
func (m Model) ProbInfection(dose float64) float64 {
	if dose <= 0 {
		return 0
	}
	switch m.Kind {
	case Exponential:
		return 1 - math.Exp(-m.R*dose)
	case BetaPoissonExact:
		return 1 - kummerM(m.Alpha, m.Alpha+m.Beta, -dose)
	case BetaPoissonApprox:
		return 1 - math.Pow(1+dose/m.Beta, -m.Alpha)
	case BetaBinomial:
		lgBD, _ := math.Lgamma(m.Beta + dose)
		lgAB, _ := math.Lgamma(m.Alpha + m.Beta)
		lgABD, _ := math.Lgamma(m.Alpha + m.Beta + dose)
		lgB, _ := math.Lgamma(m.Beta)
		p := 1 - math.Exp(lgBD+lgAB-lgABD-lgB)
		if p < 0 {
			p = 0
		}
		return p
	case SimpleBinomial:
		return 1 - math.Pow(1-m.R, dose)
	case Weibull:
		return 1 - math.Exp(-m.Q1*math.Pow(dose, m.Q2))
	case LogLogistic:
		return 1 / (1 + math.Exp(m.Q1-m.Q2*math.Log(dose)))
	case LogProbit:
		return distuv.UnitNormal.CDF(math.Log(dose/m.Q1) / m.Q2)
	case OverdispersedExponential:
		return 1 - math.Pow(1+m.R*dose/m.K, -m.K)
	case FractionalPoisson:
		return m.P * (1 - math.Exp(-dose/m.Mu))
	}
	return math.NaN()
}

// ProbInfectionAll evaluates the model over a dose vector. Invalid doses and
// out-of-range probabilities fail loudly as numeric domain errors; nothing
// beyond the documented beta-binomial clamp is coerced.
func (m Model) ProbInfectionAll(doses []float64) ([]float64, error) {
	out := make([]float64, len(doses))
	for i, d := range doses {
		if math.IsNaN(d) || d < 0 {
			return nil, core.NewNumericDomainError("dose_response",
				fmt.Sprintf("dose[%d] = %v is not a valid organism dose", i, d))
		}
		p := m.ProbInfection(d)
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, core.NewNumericDomainError("dose_response",
				fmt.Sprintf("%s produced probability %v at dose %v", m.Kind, p, d))
		}
		out[i] = p
	}
	return out, nil
}

// String returns a short human-readable description for logs and errors.
func (m Model) String() string {
	switch m.Kind {
	case Exponential, SimpleBinomial:
		return fmt.Sprintf("%s(r=%g)", m.Kind, m.R)
	case BetaPoissonExact, BetaPoissonApprox, BetaBinomial:
		return fmt.Sprintf("%s(alpha=%g, beta=%g)", m.Kind, m.Alpha, m.Beta)
	case Weibull, LogLogistic, LogProbit:
		return fmt.Sprintf("%s(q1=%g, q2=%g)", m.Kind, m.Q1, m.Q2)
	case OverdispersedExponential:
		return fmt.Sprintf("%s(r=%g, k=%g)", m.Kind, m.R, m.K)
	case FractionalPoisson:
		return fmt.Sprintf("%s(p=%g, mu=%g)", m.Kind, m.P, m.Mu)
	default:
		return string(m.Kind)
	}
}
