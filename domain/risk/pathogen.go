package risk

import (
	"fmt"
	"sort"

	"qmrisk/domain/core"
	"qmrisk/domain/doseresponse"
)

// Pathogen bundles a reference dose-response model with illness defaults.
// Scenario values override these; the catalog only fills gaps.
type Pathogen struct {
	ID                    core.PathogenID    `json:"id"`
	Name                  string             `json:"name"`
	Model                 doseresponse.Model `json:"model"`
	ProbIllGivenInfection float64            `json:"prob_ill_given_infection"`
	SusceptibleFraction   float64            `json:"susceptible_fraction"`
	Discretize            bool               `json:"discretize"`
}

// catalog holds the built-in reference pathogens. Discretization defaults to
// true only where the dose-response form is defined over whole organisms.
var catalog = map[core.PathogenID]Pathogen{
	"norovirus": {
		ID:                    "norovirus",
		Name:                  "Norovirus",
		Model:                 doseresponse.Model{Kind: doseresponse.BetaBinomial, Alpha: 0.04, Beta: 0.055},
		ProbIllGivenInfection: 0.5,
		SusceptibleFraction:   0.74,
		Discretize:            true,
	},
	"rotavirus": {
		ID:                    "rotavirus",
		Name:                  "Rotavirus",
		Model:                 doseresponse.Model{Kind: doseresponse.BetaPoissonApprox, Alpha: 0.253, Beta: 0.426},
		ProbIllGivenInfection: 0.5,
		SusceptibleFraction:   1.0,
	},
	"campylobacter": {
		ID:                    "campylobacter",
		Name:                  "Campylobacter jejuni",
		Model:                 doseresponse.Model{Kind: doseresponse.BetaPoissonApprox, Alpha: 0.145, Beta: 7.589},
		ProbIllGivenInfection: 0.33,
		SusceptibleFraction:   1.0,
	},
	"cryptosporidium": {
		ID:                    "cryptosporidium",
		Name:                  "Cryptosporidium parvum",
		Model:                 doseresponse.Model{Kind: doseresponse.Exponential, R: 0.0042},
		ProbIllGivenInfection: 0.7,
		SusceptibleFraction:   1.0,
	},
	"giardia": {
		ID:                    "giardia",
		Name:                  "Giardia lamblia",
		Model:                 doseresponse.Model{Kind: doseresponse.Exponential, R: 0.0199},
		ProbIllGivenInfection: 0.67,
		SusceptibleFraction:   1.0,
	},
}

// LookupPathogen returns the catalog entry for id.
func LookupPathogen(id core.PathogenID) (Pathogen, error) {
	p, ok := catalog[id]
	if !ok {
		return Pathogen{}, fmt.Errorf("%w: %s", core.ErrPathogenNotFound, id)
	}
	return p, nil
}

// Pathogens lists the catalog in stable ID order.
func Pathogens() []Pathogen {
	out := make([]Pathogen, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
