package exposure

import (
	"fmt"
	"math"

	"qmrisk/domain/core"
)

// Route selects how sampled quantities combine into an ingested dose.
type Route string

const (
	// RouteDirect ingests a sampled water volume directly (drinking water,
	// spray irrigation).
	RouteDirect Route = "direct"
	// RouteSwimming ingests rate x duration during recreational contact.
	RouteSwimming Route = "swimming"
	// RouteShellfish ingests flesh that bioaccumulated organisms from the
	// water column. The bioaccumulation factor is one draw per iteration,
	// shared by that iteration's individuals; meal size varies per
	// individual.
	RouteShellfish Route = "shellfish"
)

// Inputs carries the sampled quantities feeding one dose assembly.
//
// Per-iteration vectors hold one environmental draw per iteration.
// Per-individual matrices hold one behavioral draw per cell. Units:
// concentration organisms/L, LRV log10, volume and rate mL, duration hours,
// bioaccumulation L/kg, meal size grams.
type Inputs struct {
	Concentration []float64
	// ConcentrationLog10 marks Concentration entries as log10(organisms/L);
	// the assembler converts to the linear scale before any arithmetic.
	ConcentrationLog10 bool

	LRV      []float64
	MHF      []float64
	Dilution []float64

	Volume   *Matrix // direct route
	Rate     *Matrix // swimming route
	Duration *Matrix // swimming route
	BAF      []float64
	Meal     *Matrix // shellfish route
}

// AssembleDoses combines the sampled inputs into an organism-dose matrix:
// effluent = influent / 10^LRV, corrected = effluent / MHF, diluted =
// corrected / dilution, dose = diluted x ingested litres. Zero or negative
// MHF and dilution draws fail loudly here; scenario validation should have
// made them impossible.
func AssembleDoses(route Route, in Inputs) (*Matrix, error) {
	n := len(in.Concentration)
	if n == 0 {
		return nil, core.NewConfigurationError("exposure", "no concentration draws supplied")
	}
	if len(in.LRV) != n || len(in.MHF) != n || len(in.Dilution) != n {
		return nil, core.NewNumericDomainError("exposure",
			fmt.Sprintf("per-iteration vectors disagree: concentration %d, lrv %d, mhf %d, dilution %d",
				n, len(in.LRV), len(in.MHF), len(in.Dilution)))
	}

	water := make([]float64, n)
	for i := 0; i < n; i++ {
		conc := in.Concentration[i]
		if in.ConcentrationLog10 {
			conc = math.Pow(10, conc)
		}
		mhf, dil := in.MHF[i], in.Dilution[i]
		if mhf <= 0 || math.IsNaN(mhf) {
			return nil, core.NewNumericDomainError("exposure",
				fmt.Sprintf("MHF draw %v at iteration %d would divide by zero", mhf, i))
		}
		if dil <= 0 || math.IsNaN(dil) {
			return nil, core.NewNumericDomainError("exposure",
				fmt.Sprintf("dilution draw %v at iteration %d would divide by zero", dil, i))
		}
		water[i] = conc / math.Pow(10, in.LRV[i]) / mhf / dil
	}

	switch route {
	case RouteDirect:
		return assembleFromVolume(in.Volume, "volume", water)
	case RouteSwimming:
		if in.Rate == nil || in.Duration == nil {
			return nil, core.NewConfigurationError("exposure", "swimming route requires rate and duration matrices")
		}
		vol, err := NewMatrix(in.Rate.Iterations(), in.Rate.Individuals())
		if err != nil {
			return nil, err
		}
		copy(vol.Data(), in.Rate.Data())
		if err := vol.MulElem(in.Duration); err != nil {
			return nil, err
		}
		return assembleFromVolume(vol, "rate x duration", water)
	case RouteShellfish:
		if in.Meal == nil {
			return nil, core.NewConfigurationError("exposure", "shellfish route requires a meal-size matrix")
		}
		if len(in.BAF) != len(water) {
			return nil, core.NewNumericDomainError("exposure",
				fmt.Sprintf("bioaccumulation vector has %d entries for %d iterations", len(in.BAF), len(water)))
		}
		// organisms/kg in flesh = water concentration x BAF, shared across
		// the iteration's individuals; grams ingested to kilograms.
		flesh := make([]float64, len(water))
		for i := range water {
			flesh[i] = water[i] * in.BAF[i]
		}
		dose, err := NewMatrix(in.Meal.Iterations(), in.Meal.Individuals())
		if err != nil {
			return nil, err
		}
		copy(dose.Data(), in.Meal.Data())
		dose.Scale(1.0 / 1000.0)
		if err := dose.ScaleRows(flesh); err != nil {
			return nil, err
		}
		return dose, nil
	default:
		return nil, core.NewConfigurationErrorf("exposure", "unknown exposure route %q", route)
	}
}

// assembleFromVolume multiplies millilitre volumes into litre-based water
// concentrations.
func assembleFromVolume(vol *Matrix, what string, water []float64) (*Matrix, error) {
	if vol == nil {
		return nil, core.NewConfigurationErrorf("exposure", "route requires a %s matrix", what)
	}
	dose, err := NewMatrix(vol.Iterations(), vol.Individuals())
	if err != nil {
		return nil, err
	}
	copy(dose.Data(), vol.Data())
	dose.Scale(1.0 / 1000.0)
	if err := dose.ScaleRows(water); err != nil {
		return nil, err
	}
	return dose, nil
}
