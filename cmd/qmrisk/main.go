package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"qmrisk/app"
	"qmrisk/domain/risk"
	"qmrisk/internal/config"
	"qmrisk/internal/container"
	apperrors "qmrisk/internal/errors"
	"qmrisk/internal/montecarlo"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "qmrisk",
		Short: "Monte Carlo engine for quantitative microbial risk assessment",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newBatchCmd(),
		newValidateCmd(),
		newPathogensCmd(),
		newServeCmd(),
		newMigrateCmd(),
		newDoctorCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildContainer loads .env and configuration, then wires the container.
// Database connection is left to each command.
func buildContainer() (*container.Container, error) {
	// Missing .env is fine; the system environment applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return container.New(cfg)
}

func newRunCmd() *cobra.Command {
	var seed int64
	var iterations int
	var save bool
	var out string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run [scenario-file]",
		Short: "Run one scenario and report the risk summary",
		Long: `Run one scenario file through the Monte Carlo engine.

The scenario file is YAML; pathogen defaults from the built-in catalog fill
any gaps. A seed of 0 in the scenario picks a fresh seed per run; pass --seed
to pin one for a reproducible result.

Example: qmrisk run scenarios/reclaimed_water.yaml --seed 12345 --out result.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(cmd.Context(), args[0], seed, iterations, save, out, asJSON)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed override (0 keeps the scenario seed)")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Iteration override (0 keeps the scenario value)")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the summary to the configured database")
	cmd.Flags().StringVar(&out, "out", "", "Write the summary workbook to this .xlsx path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full summary as JSON")

	return cmd
}

func runScenarioFile(ctx context.Context, path string, seed int64, iterations int, save bool, out string, asJSON bool) error {
	c, err := buildContainer()
	if err != nil {
		return err
	}

	if save {
		if c.Config.Database.URL == "" {
			return apperrors.ConfigInvalid("--save requires DATABASE_URL")
		}
		if err := c.ConnectDatabase(ctx); err != nil {
			return err
		}
		defer c.Shutdown(ctx)
	}

	sc, err := c.Loader.Load(ctx, path)
	if err != nil {
		return err
	}

	summary, err := c.RunService.Execute(ctx, app.RunRequest{
		Scenario:           sc,
		SeedOverride:       seed,
		IterationsOverride: iterations,
		Persist:            save,
	})
	if err != nil {
		return err
	}

	if asJSON {
		raw, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		fmt.Println(string(raw))
	} else {
		printSummary(summary)
	}

	if out != "" {
		if err := c.Writer.WriteSummary(out, summary); err != nil {
			return err
		}
		fmt.Printf("\n💾 Summary workbook saved to: %s\n", out)
	}
	if save {
		fmt.Printf("💾 Summary persisted as run %s\n", summary.RunID)
	}

	return nil
}

func newBatchCmd() *cobra.Command {
	var workers int
	var save bool
	var outDir string

	cmd := &cobra.Command{
		Use:   "batch [scenario-dir]",
		Short: "Run every scenario in a directory",
		Long: `Run all scenario files in a directory, in file-name order, across a
worker pool. A failing scenario never stops the batch; the command exits
non-zero when any scenario failed.

Example: qmrisk batch scenarios/ --workers 8 --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), args[0], workers, save, outDir)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (0 uses the configured value)")
	cmd.Flags().BoolVar(&save, "save", false, "Persist each summary to the configured database")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for per-scenario workbooks (default: the configured output dir)")

	return cmd
}

func runBatch(ctx context.Context, dir string, workers int, save bool, outDir string) error {
	c, err := buildContainer()
	if err != nil {
		return err
	}

	if outDir == "" {
		outDir = c.Config.Paths.OutputDir
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return apperrors.Wrapf(err, "create output dir %s", outDir)
		}
	}

	if save {
		if c.Config.Database.URL == "" {
			return apperrors.ConfigInvalid("--save requires DATABASE_URL")
		}
		if err := c.ConnectDatabase(ctx); err != nil {
			return err
		}
		defer c.Shutdown(ctx)
	}

	scenarios, err := c.Loader.LoadDir(ctx, dir)
	if err != nil {
		return err
	}

	batch := c.BatchService
	if workers > 0 {
		batch = app.NewBatchService(c.RunService, workers, c.Logger)
	}

	result, err := batch.ExecuteAll(ctx, scenarios, save)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== BATCH RESULTS (%d scenarios) ===\n", len(result.Items))
	for _, item := range result.Items {
		if item.Err != nil {
			fmt.Printf("❌ %s: %v\n", item.ScenarioID, item.Err)
			continue
		}
		s := item.Summary
		fmt.Printf("✅ %s: annual illness median %.3g, expected cases %.3g\n",
			item.ScenarioID, s.AnnualIllness.Median, s.ExpectedAnnualCases)

		if outDir != "" {
			target := filepath.Join(outDir, string(item.ScenarioID)+".xlsx")
			if err := c.Writer.WriteSummary(target, s); err != nil {
				return err
			}
		}
	}
	fmt.Printf("\nSucceeded: %d, Failed: %d\n", result.Succeeded, result.Failed)
	if outDir != "" && result.Succeeded > 0 {
		fmt.Printf("💾 Workbooks saved to: %s\n", outDir)
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", result.Failed, len(result.Items))
	}
	return nil
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [scenario-file]",
		Short: "Check a scenario file and show its effective configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), args[0])
		},
	}
	return cmd
}

func runValidate(ctx context.Context, path string) error {
	c, err := buildContainer()
	if err != nil {
		return err
	}

	sc, err := c.Loader.Load(ctx, path)
	if err != nil {
		return err
	}

	cells := sc.Iterations * sc.Individuals
	limit := sc.MaxCells
	if limit == 0 {
		limit = c.Config.Simulation.MaxCells
	}

	fmt.Printf("=== EFFECTIVE CONFIGURATION ===\n")
	fmt.Printf("Scenario: %s (%s)\n", sc.Name, sc.ID)
	fmt.Printf("Pathogen: %s\n", sc.Pathogen)
	fmt.Printf("Model: %s\n", sc.Model)
	fmt.Printf("Route: %s\n", sc.Route)
	fmt.Printf("Iterations x Individuals: %d x %d (%d cells, cap %d)\n",
		sc.Iterations, sc.Individuals, cells, limit)
	fmt.Printf("Events/year: %g, Population: %d\n", sc.EventsPerYear, sc.Population)
	fmt.Printf("P(ill|infection): %g, Susceptible fraction: %g\n",
		sc.ProbIllGivenInfection, sc.SusceptibleFraction)
	fmt.Printf("Discretize doses: %t\n", sc.DiscretizeDoses())
	if sc.Seed == 0 {
		fmt.Printf("Seed: auto (picked per run)\n")
	} else {
		fmt.Printf("Seed: %d\n", sc.Seed)
	}
	fmt.Printf("Scenario hash: %s\n", sc.Hash())

	fmt.Printf("\n✅ SCENARIO VALID\n")
	return nil
}

func newPathogensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pathogens",
		Short: "List the built-in pathogen catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPathogens()
		},
	}
	return cmd
}

func runPathogens() error {
	fmt.Printf("=== PATHOGEN CATALOG ===\n")
	for _, p := range risk.Pathogens() {
		fmt.Printf("\n%s (%s)\n", p.Name, p.ID)
		fmt.Printf("  Model: %s\n", p.Model)
		fmt.Printf("  P(ill|infection): %g, Susceptible fraction: %g\n",
			p.ProbIllGivenInfection, p.SusceptibleFraction)
		fmt.Printf("  Discretize doses: %t\n", p.Discretize)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server. With DATABASE_URL configured the server
persists runs and serves stored results; without it the run endpoints still
work but nothing is stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	return cmd
}

func runServe(ctx context.Context) error {
	c, err := buildContainer()
	if err != nil {
		return err
	}

	if err := c.ConnectDatabase(ctx); err != nil {
		return err
	}
	defer c.Shutdown(context.Background())

	apiApp := c.APIApp()
	errCh := make(chan error, 1)
	go func() {
		errCh <- apiApp.Start()
	}()

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-signalCtx.Done():
		c.Logger.Info("shutdown signal received, draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Config.Server.ShutdownTimeout)
		defer cancel()
		return apiApp.Shutdown(shutdownCtx)
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}
	return cmd
}

func runMigrate(ctx context.Context) error {
	c, err := buildContainer()
	if err != nil {
		return err
	}
	if c.Config.Database.URL == "" {
		return apperrors.ConfigInvalid("DATABASE_URL is required")
	}

	if err := c.ConnectDatabase(ctx); err != nil {
		return err
	}
	defer c.Shutdown(ctx)

	fmt.Printf("✅ Database schema is up to date\n")
	return nil
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Self-check the deterministic sampling machinery",
		Long: `Verify that seeded streams reconstruct bit-for-bit and that distinct
quantities draw from independent streams on this platform.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context())
		},
	}
	return cmd
}

func runDoctor(ctx context.Context) error {
	c, err := buildContainer()
	if err != nil {
		return err
	}

	const checkSeed = 20260823
	fmt.Printf("Engine version: %s\n", montecarlo.EngineVersion)

	// Reconstructing a stream must reproduce the exact draw sequence.
	stream, err := c.RNG.SeededStream(ctx, "doctor", checkSeed)
	if err != nil {
		return err
	}
	expected := make([]float64, 8)
	for i := range expected {
		expected[i] = stream.Float64()
	}
	if err := c.RNG.ValidateSeed(ctx, "doctor", checkSeed, expected); err != nil {
		fmt.Printf("❌ Stream reconstruction drifted: %v\n", err)
		return err
	}
	fmt.Printf("✅ Seeded streams reconstruct bit-for-bit\n")

	// Distinct quantities must draw from distinct streams.
	conc, err := c.RNG.QuantityStream(ctx, "concentration", checkSeed)
	if err != nil {
		return err
	}
	lrv, err := c.RNG.QuantityStream(ctx, "lrv", checkSeed)
	if err != nil {
		return err
	}
	if conc.Float64() == lrv.Float64() {
		return apperrors.InternalError("quantity streams are not independent")
	}
	fmt.Printf("✅ Quantity streams are independent\n")

	fmt.Printf("\n✅ SAMPLING MACHINERY HEALTHY\n")
	return nil
}

func printSummary(s *risk.Summary) {
	fmt.Printf("=== RISK SUMMARY ===\n")
	fmt.Printf("Run ID: %s\n", s.RunID)
	fmt.Printf("Scenario: %s (%s)\n", s.ScenarioName, s.ScenarioID)
	fmt.Printf("Pathogen: %s\n", s.Pathogen)
	fmt.Printf("Seed: %d\n", s.Seed)
	fmt.Printf("Iterations x Individuals: %d x %d\n", s.Iterations, s.Individuals)
	fmt.Printf("Events/year: %g, Population: %d\n", s.EventsPerYear, s.Population)

	fmt.Printf("\n=== PER-EVENT RISK ===\n")
	fmt.Printf("Infection: mean %.4g, median %.4g, P5 %.4g, P95 %.4g\n",
		s.PerEventInfection.Mean, s.PerEventInfection.Median,
		s.PerEventInfection.P5, s.PerEventInfection.P95)
	fmt.Printf("Illness:   mean %.4g, median %.4g\n",
		s.PerEventIllness.Mean, s.PerEventIllness.Median)

	fmt.Printf("\n=== ANNUAL RISK ===\n")
	fmt.Printf("Infection: mean %.4g, median %.4g\n",
		s.AnnualInfection.Mean, s.AnnualInfection.Median)
	fmt.Printf("Illness:   mean %.4g, median %.4g\n",
		s.AnnualIllness.Mean, s.AnnualIllness.Median)

	fmt.Printf("\n=== RISK LADDER ===\n")
	fmt.Printf("%10s %14s %14s %14s %14s\n",
		"Percentile", "PE-Infection", "PE-Illness", "An-Infection", "An-Illness")
	for i, entry := range s.PerEventInfection.Ladder {
		fmt.Printf("%10.4g %14.4g %14.4g %14.4g %14.4g\n",
			entry.Percentile,
			entry.Value,
			ladderValue(s.PerEventIllness.Ladder, i),
			ladderValue(s.AnnualInfection.Ladder, i),
			ladderValue(s.AnnualIllness.Ladder, i),
		)
	}

	fmt.Printf("\n=== SIMULATED CASES (per event, %d individuals) ===\n", s.Individuals)
	fmt.Printf("Mean: %.4g, Median: %g, Min: %g, Max: %g\n",
		s.CaseCounts.Mean, s.CaseCounts.Median, s.CaseCounts.Min, s.CaseCounts.Max)
	fmt.Printf("Expected annual cases in population: %.4g\n", s.ExpectedAnnualCases)

	fmt.Printf("\nRuntime: %d ms (engine %s)\n", s.RuntimeMS, s.EngineVersion)
	fmt.Printf("Fingerprint: %s\n", s.Fingerprint)
	fmt.Printf("\n✅ RUN COMPLETE\n")
}

func ladderValue(l risk.Ladder, i int) float64 {
	if i >= len(l) {
		return 0
	}
	return l[i].Value
}
