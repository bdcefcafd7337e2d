package montecarlo

import (
	"context"
	"sync"
	"time"

	"qmrisk/domain/core"
	"qmrisk/domain/dist"
	"qmrisk/domain/exposure"
	"qmrisk/domain/risk"
	"qmrisk/internal"
	"qmrisk/ports"
)

// EngineVersion is recorded in every summary and folded into the run
// fingerprint. Bump it whenever sampling order, dose assembly or a
// dose-response implementation changes observable results.
const EngineVersion = "1.0.0"

// State represents the current phase of a Monte Carlo run
type State string

const (
	StateConfigured  State = "configured"
	StateSampling    State = "sampling"
	StateSimulating  State = "simulating"
	StateAggregating State = "aggregating"
	StateComplete    State = "complete"
	StateFailed      State = "failed"
)

// Stream names for the per-quantity substreams. Substream seeds derive from
// these names, so renaming one silently changes every recorded result that
// draws from it.
const (
	StreamConcentration = "concentration"
	StreamLRV           = "lrv"
	StreamMHF           = "mhf"
	StreamDilution      = "dilution"
	StreamVolume        = "volume"
	StreamRate          = "rate"
	StreamDuration      = "duration"
	StreamBAF           = "baf"
	StreamMeal          = "meal"
	StreamDiscretize    = "discretize"
	StreamInfection     = "infection"
	StreamIllness       = "illness"
)

// Engine executes one Monte Carlo risk run for one validated scenario.
//
// INVARIANTS:
// - Run is single-shot; a second call is refused whatever the outcome
// - phases advance Sampling -> Simulating -> Aggregating, never backwards
// - every uncertain quantity draws from its own named substream, so the
//   same scenario and seed reproduce the summary bit for bit
// - the effective seed is fixed at construction and recorded in the summary
type Engine struct {
	scenario *risk.Scenario
	rngPort  ports.RNGPort
	logger   *internal.Logger

	mu    sync.RWMutex
	state State

	seed  int64
	runID core.RunID
}

// NewEngine validates the scenario and prepares a single-shot engine.
// A zero scenario seed is resolved to a wall-clock seed here, so the run
// is reproducible from the summary even when the caller did not pick one.
func NewEngine(scenario *risk.Scenario, rngPort ports.RNGPort, logger *internal.Logger) (*Engine, error) {
	if scenario == nil {
		return nil, core.NewConfigurationError("engine", "scenario is required")
	}
	if rngPort == nil {
		return nil, core.NewConfigurationError("engine", "rng port is required")
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}

	seed := scenario.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Engine{
		scenario: scenario,
		rngPort:  rngPort,
		logger:   logger,
		state:    StateConfigured,
		seed:     seed,
		runID:    core.RunID(core.NewID()),
	}, nil
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Seed returns the effective seed for this run
func (e *Engine) Seed() int64 {
	return e.seed
}

// RunID returns the identifier assigned to this run
func (e *Engine) RunID() core.RunID {
	return e.runID
}

// Run executes the full pipeline and returns the summary. The context is
// checked between phases; a cancelled run ends in StateFailed.
func (e *Engine) Run(ctx context.Context) (*risk.Summary, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	start := time.Now()
	sc := e.scenario

	e.logger.Info("run %s: %s via %s route, %d iterations x %d individuals, seed %d",
		e.runID, sc.Pathogen, sc.Route, sc.Iterations, sc.Individuals, e.seed)

	if err := ctx.Err(); err != nil {
		return e.fail(err)
	}

	doses, err := e.sample(ctx)
	if err != nil {
		return e.fail(err)
	}
	if err := ctx.Err(); err != nil {
		return e.fail(err)
	}

	e.setState(StateSimulating)
	out, err := e.simulate(ctx, doses)
	if err != nil {
		return e.fail(err)
	}
	if err := ctx.Err(); err != nil {
		return e.fail(err)
	}

	e.setState(StateAggregating)
	summary, err := e.aggregate(out)
	if err != nil {
		return e.fail(err)
	}
	summary.RuntimeMS = time.Since(start).Milliseconds()

	e.setState(StateComplete)
	e.logger.Info("run %s complete in %dms: median annual infection risk %.3g",
		e.runID, summary.RuntimeMS, summary.AnnualInfection.Median)
	return summary, nil
}

func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateConfigured {
		return core.NewConfigurationErrorf("engine", "run already started, state is %s", e.state)
	}
	e.state = StateSampling
	return nil
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) fail(err error) (*risk.Summary, error) {
	e.setState(StateFailed)
	e.logger.Error("run %s failed: %v", e.runID, err)
	return nil, err
}

// sample draws every uncertain quantity and assembles the dose matrix.
// Environmental quantities are one draw per iteration; behavioral
// quantities are one draw per cell.
func (e *Engine) sample(ctx context.Context) (*exposure.Matrix, error) {
	sc := e.scenario
	n, m := sc.Iterations, sc.Individuals

	in := exposure.Inputs{ConcentrationLog10: sc.ConcentrationLog10}

	var err error
	if in.Concentration, err = e.sampleVector(ctx, StreamConcentration, sc.Concentration, n); err != nil {
		return nil, err
	}
	if in.LRV, err = e.sampleVector(ctx, StreamLRV, sc.LRV, n); err != nil {
		return nil, err
	}
	if in.MHF, err = e.sampleVector(ctx, StreamMHF, sc.MHF, n); err != nil {
		return nil, err
	}
	if in.Dilution, err = e.sampleVector(ctx, StreamDilution, sc.Dilution, n); err != nil {
		return nil, err
	}

	switch sc.Route {
	case exposure.RouteDirect:
		in.Volume, err = e.sampleMatrix(ctx, StreamVolume, sc.Volume, n, m)
	case exposure.RouteSwimming:
		if in.Rate, err = e.sampleMatrix(ctx, StreamRate, sc.Rate, n, m); err == nil {
			in.Duration, err = e.sampleMatrix(ctx, StreamDuration, sc.Duration, n, m)
		}
	case exposure.RouteShellfish:
		if in.BAF, err = e.sampleVector(ctx, StreamBAF, sc.BAF, n); err == nil {
			in.Meal, err = e.sampleMatrix(ctx, StreamMeal, sc.Meal, n, m)
		}
	}
	if err != nil {
		return nil, err
	}

	doses, err := exposure.AssembleDoses(sc.Route, in)
	if err != nil {
		return nil, err
	}

	if sc.DiscretizeDoses() {
		rng, err := e.rngPort.QuantityStream(ctx, StreamDiscretize, e.seed)
		if err != nil {
			return nil, err
		}
		if err := exposure.DiscretizeMatrix(doses, rng); err != nil {
			return nil, err
		}
	}

	e.logger.Debug("run %s: sampled %d dose cells", e.runID, doses.Cells())
	return doses, nil
}

func (e *Engine) sampleVector(ctx context.Context, stream string, spec dist.Spec, n int) ([]float64, error) {
	d, err := spec.Build()
	if err != nil {
		return nil, err
	}
	rng, err := e.rngPort.QuantityStream(ctx, stream, e.seed)
	if err != nil {
		return nil, err
	}
	return dist.Sample(d, n, rng), nil
}

func (e *Engine) sampleMatrix(ctx context.Context, stream string, spec dist.Spec, n, m int) (*exposure.Matrix, error) {
	d, err := spec.Build()
	if err != nil {
		return nil, err
	}
	rng, err := e.rngPort.QuantityStream(ctx, stream, e.seed)
	if err != nil {
		return nil, err
	}
	mat, err := exposure.NewMatrix(n, m)
	if err != nil {
		return nil, err
	}
	mat.SampleInto(d, rng)
	return mat, nil
}

// outcomes carries the simulated matrices from the simulate phase into
// aggregation
type outcomes struct {
	probs   *exposure.Matrix
	illness *exposure.Matrix
}

// simulate evaluates the dose-response model and draws the Bernoulli
// infection and illness outcomes on their own substreams.
func (e *Engine) simulate(ctx context.Context, doses *exposure.Matrix) (*outcomes, error) {
	sc := e.scenario

	probs, err := risk.InfectionProbabilities(sc.Model, doses)
	if err != nil {
		return nil, err
	}

	infRNG, err := e.rngPort.QuantityStream(ctx, StreamInfection, e.seed)
	if err != nil {
		return nil, err
	}
	infected, err := risk.SimulateInfections(probs, infRNG)
	if err != nil {
		return nil, err
	}

	illRNG, err := e.rngPort.QuantityStream(ctx, StreamIllness, e.seed)
	if err != nil {
		return nil, err
	}
	adjusted := sc.ProbIllGivenInfection * sc.SusceptibleFraction
	illness, err := risk.SimulateIllness(infected, adjusted, illRNG)
	if err != nil {
		return nil, err
	}

	return &outcomes{probs: probs, illness: illness}, nil
}

// aggregate reduces the matrices to the summary: the probability track
// feeds the risk statistics, the simulated track feeds the case counts.
func (e *Engine) aggregate(out *outcomes) (*risk.Summary, error) {
	sc := e.scenario
	adjusted := sc.ProbIllGivenInfection * sc.SusceptibleFraction

	perEventInf := out.probs.RowMeans()
	perEventIll := make([]float64, len(perEventInf))
	for i, p := range perEventInf {
		perEventIll[i] = p * adjusted
	}
	annualInf := risk.AnnualRiskAll(perEventInf, sc.EventsPerYear)
	annualIll := risk.AnnualRiskAll(perEventIll, sc.EventsPerYear)

	peInfStats, err := risk.NewRiskStats(perEventInf)
	if err != nil {
		return nil, err
	}
	peIllStats, err := risk.NewRiskStats(perEventIll)
	if err != nil {
		return nil, err
	}
	annInfStats, err := risk.NewRiskStats(annualInf)
	if err != nil {
		return nil, err
	}
	annIllStats, err := risk.NewRiskStats(annualIll)
	if err != nil {
		return nil, err
	}
	caseStats, err := risk.NewCountStats(risk.CaseCounts(out.illness))
	if err != nil {
		return nil, err
	}

	summary := &risk.Summary{
		RunID:        e.runID,
		ScenarioID:   sc.ID,
		ScenarioName: sc.Name,
		Pathogen:     sc.Pathogen,
		ScenarioHash: sc.Hash(),

		Seed:          e.seed,
		Iterations:    sc.Iterations,
		Individuals:   sc.Individuals,
		EventsPerYear: sc.EventsPerYear,
		Population:    sc.Population,

		PerEventInfection: peInfStats,
		PerEventIllness:   peIllStats,
		AnnualInfection:   annInfStats,
		AnnualIllness:     annIllStats,

		CaseCounts:          caseStats,
		ExpectedAnnualCases: risk.PopulationImpact(annIllStats.Mean, sc.Population),

		EngineVersion: EngineVersion,
		CreatedAt:     core.Now(),
	}
	summary.Fingerprint = summary.ComputeFingerprint()
	return summary, nil
}
