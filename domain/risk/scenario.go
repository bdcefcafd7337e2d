// Package risk defines the scenario record that configures a Monte Carlo
// run, the pathogen catalog, the infection/illness simulator, and the
// aggregated risk summary.
package risk

import (
	"encoding/json"

	"qmrisk/domain/core"
	"qmrisk/domain/dist"
	"qmrisk/domain/doseresponse"
	"qmrisk/domain/exposure"
)

// Scenario defaults. Replicate individuals default to 100 per iteration;
// the canonical illness parameters are the norovirus values 0.5 and 0.74.
const (
	DefaultIterations            = 10_000
	DefaultIndividuals           = 100
	DefaultProbIllGivenInfection = 0.5
	DefaultSusceptibleFraction   = 0.74
)

// Scenario is the complete configuration of one Monte Carlo risk run. It is
// immutable once validated; Validate is the single gate into the engine.
type Scenario struct {
	ID       core.ScenarioID `json:"id" mapstructure:"id"`
	Name     string          `json:"name" mapstructure:"name"`
	Pathogen core.PathogenID `json:"pathogen" mapstructure:"pathogen"`

	Model doseresponse.Model `json:"model" mapstructure:"model"`
	Route exposure.Route     `json:"route" mapstructure:"route"`

	// Uncertain inputs, one distribution spec per quantity. LRV, MHF and
	// dilution default to fixed no-op values when omitted.
	Concentration      dist.Spec `json:"concentration" mapstructure:"concentration"`
	ConcentrationLog10 bool      `json:"concentration_log10" mapstructure:"concentration_log10"`
	LRV                dist.Spec `json:"lrv" mapstructure:"lrv"`
	MHF                dist.Spec `json:"mhf" mapstructure:"mhf"`
	Dilution           dist.Spec `json:"dilution" mapstructure:"dilution"`
	Volume             dist.Spec `json:"volume" mapstructure:"volume"`
	Rate               dist.Spec `json:"rate" mapstructure:"rate"`
	Duration           dist.Spec `json:"duration" mapstructure:"duration"`
	BAF                dist.Spec `json:"baf" mapstructure:"baf"`
	Meal               dist.Spec `json:"meal" mapstructure:"meal"`

	Iterations    int     `json:"iterations" mapstructure:"iterations"`
	Individuals   int     `json:"individuals" mapstructure:"individuals"`
	EventsPerYear float64 `json:"events_per_year" mapstructure:"events_per_year"`
	Population    int     `json:"population" mapstructure:"population"`

	// Seed 0 means the engine picks one; the effective seed is always
	// recorded in the summary.
	Seed int64 `json:"seed" mapstructure:"seed"`

	// Discretize nil defers to the pathogen catalog default.
	Discretize *bool `json:"discretize,omitempty" mapstructure:"discretize"`

	ProbIllGivenInfection float64 `json:"prob_ill_given_infection" mapstructure:"prob_ill_given_infection"`
	SusceptibleFraction   float64 `json:"susceptible_fraction" mapstructure:"susceptible_fraction"`

	// MaxCells 0 uses exposure.DefaultMaxCells.
	MaxCells int `json:"max_cells,omitempty" mapstructure:"max_cells"`
}

// ApplyDefaults fills unset fields from the pathogen catalog and the
// package defaults. Explicit scenario values always win.
func (s *Scenario) ApplyDefaults() {
	if p, err := LookupPathogen(s.Pathogen); err == nil {
		if s.Model.Kind == "" {
			s.Model = p.Model
		}
		if s.ProbIllGivenInfection == 0 {
			s.ProbIllGivenInfection = p.ProbIllGivenInfection
		}
		if s.SusceptibleFraction == 0 {
			s.SusceptibleFraction = p.SusceptibleFraction
		}
		if s.Discretize == nil {
			d := p.Discretize
			s.Discretize = &d
		}
	}
	if s.Route == "" {
		s.Route = exposure.RouteDirect
	}
	if s.Iterations == 0 {
		s.Iterations = DefaultIterations
	}
	if s.Individuals == 0 {
		s.Individuals = DefaultIndividuals
	}
	if s.ProbIllGivenInfection == 0 {
		s.ProbIllGivenInfection = DefaultProbIllGivenInfection
	}
	if s.SusceptibleFraction == 0 {
		s.SusceptibleFraction = DefaultSusceptibleFraction
	}
	if s.Discretize == nil {
		d := false
		s.Discretize = &d
	}
	if s.LRV.Kind == "" {
		s.LRV = dist.FixedSpec(0)
	}
	if s.MHF.Kind == "" {
		s.MHF = dist.FixedSpec(1)
	}
	if s.Dilution.Kind == "" {
		s.Dilution = dist.FixedSpec(1)
	}
}

// DiscretizeDoses reports whether fractional doses are rounded to whole
// organisms before dose-response evaluation.
func (s *Scenario) DiscretizeDoses() bool {
	return s.Discretize != nil && *s.Discretize
}

// Validate applies every construction-time check. The percentile ladder
// needs at least 100 iterations, so that is the floor.
func (s *Scenario) Validate() error {
	if s.Pathogen == "" {
		return core.NewConfigurationError("scenario", "pathogen is required")
	}
	if err := s.Model.Validate(); err != nil {
		return err
	}

	if err := s.validateQuantity("concentration", s.Concentration); err != nil {
		return err
	}
	if err := s.validateQuantity("lrv", s.LRV); err != nil {
		return err
	}
	if err := s.validateQuantity("mhf", s.MHF); err != nil {
		return err
	}
	if err := s.validateQuantity("dilution", s.Dilution); err != nil {
		return err
	}
	if specCanReachNonPositive(s.MHF) {
		return core.NewConfigurationError("mhf", "distribution admits zero or negative draws")
	}
	if specCanReachNonPositive(s.Dilution) {
		return core.NewConfigurationError("dilution", "distribution admits zero or negative draws")
	}

	switch s.Route {
	case exposure.RouteDirect:
		if err := s.validateQuantity("volume", s.Volume); err != nil {
			return err
		}
	case exposure.RouteSwimming:
		if err := s.validateQuantity("rate", s.Rate); err != nil {
			return err
		}
		if err := s.validateQuantity("duration", s.Duration); err != nil {
			return err
		}
	case exposure.RouteShellfish:
		if err := s.validateQuantity("baf", s.BAF); err != nil {
			return err
		}
		if err := s.validateQuantity("meal", s.Meal); err != nil {
			return err
		}
	default:
		return core.NewConfigurationErrorf("scenario", "unknown exposure route %q", s.Route)
	}

	if s.Iterations < 100 {
		return core.NewConfigurationErrorf("iterations", "%d is below the minimum of 100", s.Iterations)
	}
	if s.Individuals < 1 {
		return core.NewConfigurationErrorf("individuals", "%d must be at least 1", s.Individuals)
	}
	if err := exposure.CheckCells(s.Iterations, s.Individuals, s.MaxCells); err != nil {
		return err
	}
	if s.EventsPerYear < 0 {
		return core.NewConfigurationErrorf("events_per_year", "%g cannot be negative", s.EventsPerYear)
	}
	if s.Population < 0 {
		return core.NewConfigurationErrorf("population", "%d cannot be negative", s.Population)
	}
	if s.ProbIllGivenInfection < 0 || s.ProbIllGivenInfection > 1 {
		return core.NewConfigurationErrorf("prob_ill_given_infection", "%g must lie in [0, 1]", s.ProbIllGivenInfection)
	}
	if s.SusceptibleFraction < 0 || s.SusceptibleFraction > 1 {
		return core.NewConfigurationErrorf("susceptible_fraction", "%g must lie in [0, 1]", s.SusceptibleFraction)
	}
	return nil
}

func (s *Scenario) validateQuantity(name string, spec dist.Spec) error {
	if spec.Kind == "" {
		return core.NewConfigurationErrorf(name, "distribution is required for route %q", s.Route)
	}
	if err := spec.Validate(); err != nil {
		return core.NewConfigurationErrorf(name, "%v", err)
	}
	return nil
}

// specCanReachNonPositive is a best-effort static check on the lower end of
// a spec's support. Draw-time guards in the assembler catch anything this
// cannot see.
func specCanReachNonPositive(s dist.Spec) bool {
	switch s.Kind {
	case dist.KindFixed:
		return s.Value <= 0
	case dist.KindUniform, dist.KindPERT,
		dist.KindTruncNormal, dist.KindTruncLogNormal, dist.KindTruncLogLogistic:
		return s.Min <= 0
	case dist.KindLogNormal:
		return false
	case dist.KindHockeyStick:
		return s.X0 <= 0
	case dist.KindEmpirical:
		if len(s.Probs) > 0 {
			return s.Min <= 0 || (len(s.Values) > 0 && s.Values[0] <= 0)
		}
		for _, v := range s.Values {
			if v <= 0 {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Hash fingerprints the canonical JSON encoding of the scenario.
func (s *Scenario) Hash() core.ScenarioHash {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return core.NewScenarioHash(data)
}
