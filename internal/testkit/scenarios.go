package testkit

import (
	"math"

	"qmrisk/domain/dist"
	"qmrisk/domain/exposure"
	"qmrisk/domain/risk"
)

// ReclaimedWaterScenario is the reference norovirus run: fixed inputs and
// discretized doses, so every headline number is known in advance.
// The dose chain is 1e6 / 10^3 / 18.5 / 100 * 0.05 L = 0.027 organisms.
func ReclaimedWaterScenario() *risk.Scenario {
	s := &risk.Scenario{
		ID:            "scenario-reclaimed-water",
		Name:          "Reclaimed water irrigation, norovirus",
		Pathogen:      "norovirus",
		Route:         exposure.RouteDirect,
		Concentration: dist.FixedSpec(1e6),
		LRV:           dist.FixedSpec(3),
		MHF:           dist.FixedSpec(18.5),
		Dilution:      dist.FixedSpec(100),
		Volume:        dist.FixedSpec(50),
		Iterations:    10_000,
		Individuals:   100,
		EventsPerYear: 20,
		Population:    10_000,
		Seed:          20260817,
	}
	s.ApplyDefaults()
	return s
}

// RiverSwimmingScenario exercises the swimming route with continuous
// uncertain inputs and no dose discretization.
func RiverSwimmingScenario() *risk.Scenario {
	s := &risk.Scenario{
		ID:            "scenario-river-swimming",
		Name:          "River swimming, cryptosporidium",
		Pathogen:      "cryptosporidium",
		Route:         exposure.RouteSwimming,
		Concentration: dist.LogNormalSpec(math.Log(10), 0.5),
		Rate:          dist.UniformSpec(10, 50),
		Duration:      dist.PERTSpec(0.5, 1, 3),
		Iterations:    5_000,
		Individuals:   50,
		EventsPerYear: 7,
		Population:    50_000,
		Seed:          4242,
	}
	s.ApplyDefaults()
	return s
}

// ShellfishHarvestScenario exercises the shellfish route, where the
// bioaccumulation draw is shared across every individual in an iteration.
func ShellfishHarvestScenario() *risk.Scenario {
	s := &risk.Scenario{
		ID:            "scenario-shellfish-harvest",
		Name:          "Harvest area shellfish, norovirus",
		Pathogen:      "norovirus",
		Route:         exposure.RouteShellfish,
		Concentration: dist.LogNormalSpec(math.Log(0.5), 1.0),
		BAF:           dist.LogNormalSpec(math.Log(100), 0.5),
		Meal:          dist.PERTSpec(50, 150, 300),
		Iterations:    2_000,
		Individuals:   20,
		EventsPerYear: 4,
		Population:    100_000,
		Seed:          977,
	}
	s.ApplyDefaults()
	return s
}
