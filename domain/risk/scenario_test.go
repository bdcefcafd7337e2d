package risk

import (
	"testing"

	"qmrisk/domain/core"
	"qmrisk/domain/dist"
	"qmrisk/domain/doseresponse"
	"qmrisk/domain/exposure"
)

// referenceScenario is the norovirus drinking-water chain used throughout
// the suite: 1e6 org/L, LRV 3, MHF 18.5, dilution 100, 50 mL servings.
func referenceScenario() Scenario {
	s := Scenario{
		ID:            "ref-norovirus",
		Name:          "norovirus reference",
		Pathogen:      "norovirus",
		Route:         exposure.RouteDirect,
		Concentration: dist.FixedSpec(1e6),
		LRV:           dist.FixedSpec(3),
		MHF:           dist.FixedSpec(18.5),
		Dilution:      dist.FixedSpec(100),
		Volume:        dist.FixedSpec(50),
		Iterations:    10_000,
		EventsPerYear: 20,
		Population:    10_000,
		Seed:          20260817,
	}
	s.ApplyDefaults()
	return s
}

func TestScenario_DefaultsFromCatalog(t *testing.T) {
	s := Scenario{Pathogen: "norovirus", Concentration: dist.FixedSpec(100), Volume: dist.FixedSpec(50)}
	s.ApplyDefaults()

	if s.Model.Kind != doseresponse.BetaBinomial || s.Model.Alpha != 0.04 || s.Model.Beta != 0.055 {
		t.Errorf("model = %s, want catalog beta-binomial", s.Model)
	}
	if s.ProbIllGivenInfection != 0.5 || s.SusceptibleFraction != 0.74 {
		t.Errorf("illness params = %v/%v, want 0.5/0.74", s.ProbIllGivenInfection, s.SusceptibleFraction)
	}
	if !s.DiscretizeDoses() {
		t.Error("norovirus should discretize by default")
	}
	if s.Iterations != DefaultIterations || s.Individuals != DefaultIndividuals {
		t.Errorf("dims = %dx%d, want defaults", s.Iterations, s.Individuals)
	}
	if s.Route != exposure.RouteDirect {
		t.Errorf("route = %q, want direct", s.Route)
	}
	if s.LRV.Kind != dist.KindFixed || s.LRV.Value != 0 {
		t.Errorf("LRV default = %+v, want fixed 0", s.LRV)
	}
	if s.MHF.Value != 1 || s.Dilution.Value != 1 {
		t.Errorf("MHF/dilution defaults = %v/%v, want 1/1", s.MHF.Value, s.Dilution.Value)
	}

	if err := s.Validate(); err != nil {
		t.Errorf("defaulted scenario should validate: %v", err)
	}
}

func TestScenario_ExplicitValuesBeatCatalog(t *testing.T) {
	off := false
	s := Scenario{
		Pathogen:              "norovirus",
		Model:                 doseresponse.Model{Kind: doseresponse.Exponential, R: 0.1},
		Concentration:         dist.FixedSpec(100),
		Volume:                dist.FixedSpec(50),
		ProbIllGivenInfection: 0.6,
		SusceptibleFraction:   0.9,
		Discretize:            &off,
	}
	s.ApplyDefaults()

	if s.Model.Kind != doseresponse.Exponential {
		t.Errorf("model overridden by catalog: %s", s.Model)
	}
	if s.ProbIllGivenInfection != 0.6 || s.SusceptibleFraction != 0.9 {
		t.Errorf("illness params = %v/%v", s.ProbIllGivenInfection, s.SusceptibleFraction)
	}
	if s.DiscretizeDoses() {
		t.Error("explicit discretize=false ignored")
	}
}

func TestScenario_UnknownPathogenNeedsExplicitModel(t *testing.T) {
	s := Scenario{
		Pathogen:      "adenovirus",
		Concentration: dist.FixedSpec(100),
		Volume:        dist.FixedSpec(50),
	}
	s.ApplyDefaults()
	if err := s.Validate(); !core.IsConfigurationError(err) {
		t.Errorf("no model anywhere: got %v", err)
	}

	s.Model = doseresponse.Model{Kind: doseresponse.Exponential, R: 0.4172}
	if err := s.Validate(); err != nil {
		t.Errorf("explicit model should carry an unknown pathogen: %v", err)
	}
}

func TestScenario_ValidateReferenceScenario(t *testing.T) {
	s := referenceScenario()
	if err := s.Validate(); err != nil {
		t.Fatalf("reference scenario invalid: %v", err)
	}
}

func TestScenario_ValidateRejects(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(*Scenario)
		resource bool
	}{
		{"missing pathogen", func(s *Scenario) { s.Pathogen = "" }, false},
		{"bad model", func(s *Scenario) { s.Model.Alpha = -1 }, false},
		{"missing concentration", func(s *Scenario) { s.Concentration = dist.Spec{} }, false},
		{"invalid concentration spec", func(s *Scenario) { s.Concentration = dist.UniformSpec(5, 2) }, false},
		{"unknown route", func(s *Scenario) { s.Route = "inhalation" }, false},
		{"swimming without duration", func(s *Scenario) {
			s.Route = exposure.RouteSwimming
			s.Rate = dist.FixedSpec(50)
		}, false},
		{"shellfish without baf", func(s *Scenario) {
			s.Route = exposure.RouteShellfish
			s.Meal = dist.FixedSpec(150)
		}, false},
		{"too few iterations", func(s *Scenario) { s.Iterations = 50 }, false},
		{"negative individuals", func(s *Scenario) { s.Individuals = -1 }, false},
		{"negative events", func(s *Scenario) { s.EventsPerYear = -2 }, false},
		{"negative population", func(s *Scenario) { s.Population = -1 }, false},
		{"illness probability above one", func(s *Scenario) { s.ProbIllGivenInfection = 1.5 }, false},
		{"zero mhf", func(s *Scenario) { s.MHF = dist.FixedSpec(0) }, false},
		{"dilution straddling zero", func(s *Scenario) { s.Dilution = dist.UniformSpec(-1, 10) }, false},
		{"cell cap exceeded", func(s *Scenario) { s.Iterations = 1_000_000; s.Individuals = 100 }, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := referenceScenario()
			tc.mutate(&s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if tc.resource {
				if !core.IsResourceError(err) {
					t.Errorf("expected resource error, got %v", err)
				}
			} else if !core.IsConfigurationError(err) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestScenario_HashTracksContent(t *testing.T) {
	a, b := referenceScenario(), referenceScenario()
	if a.Hash() != b.Hash() {
		t.Error("identical scenarios hash differently")
	}

	b.Seed = 999
	if a.Hash() == b.Hash() {
		t.Error("seed change left the hash unchanged")
	}
}

func TestPathogenCatalog(t *testing.T) {
	ps := Pathogens()
	if len(ps) != 5 {
		t.Fatalf("catalog has %d entries", len(ps))
	}
	for i, p := range ps {
		if err := p.Model.Validate(); err != nil {
			t.Errorf("%s model invalid: %v", p.ID, err)
		}
		if p.ProbIllGivenInfection <= 0 || p.ProbIllGivenInfection > 1 {
			t.Errorf("%s illness probability %v out of range", p.ID, p.ProbIllGivenInfection)
		}
		if p.SusceptibleFraction <= 0 || p.SusceptibleFraction > 1 {
			t.Errorf("%s susceptible fraction %v out of range", p.ID, p.SusceptibleFraction)
		}
		if p.Name == "" {
			t.Errorf("%s has no display name", p.ID)
		}
		if i > 0 && !(ps[i-1].ID < p.ID) {
			t.Errorf("catalog not sorted at %s", p.ID)
		}
	}

	noro, err := LookupPathogen("norovirus")
	if err != nil {
		t.Fatalf("LookupPathogen: %v", err)
	}
	if noro.Model.Kind != doseresponse.BetaBinomial || !noro.Discretize {
		t.Errorf("norovirus entry = %+v", noro)
	}

	if _, err := LookupPathogen("bigfoot"); !core.IsNotFoundError(err) {
		t.Errorf("unknown pathogen: got %v", err)
	}
}
