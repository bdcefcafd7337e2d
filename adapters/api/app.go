package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"qmrisk/app"
	"qmrisk/internal"
	"qmrisk/ports"
)

// App represents the HTTP API application
type App struct {
	router *chi.Mux
	server *http.Server

	runs   *app.RunService
	repo   ports.SummaryRepository
	loader ports.ScenarioLoader
	logger *internal.Logger

	scenarioDir string
}

// Config holds HTTP server configuration
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ScenarioDir  string
}

// NewApp creates the API application. The repository may be nil when no
// database is configured; the stored-run endpoints then answer 503.
func NewApp(cfg Config, runs *app.RunService, repo ports.SummaryRepository, loader ports.ScenarioLoader, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}

	a := &App{
		router:      chi.NewRouter(),
		runs:        runs,
		repo:        repo,
		loader:      loader,
		logger:      logger,
		scenarioDir: cfg.ScenarioDir,
	}

	a.setupMiddleware()
	a.setupRoutes()

	a.server = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)

	a.router.Post("/api/v1/runs", a.handleCreateRun)
	a.router.Get("/api/v1/runs", a.handleListRuns)
	a.router.Get("/api/v1/runs/{id}", a.handleGetRun)
	a.router.Get("/api/v1/pathogens", a.handleListPathogens)
	a.router.Get("/api/v1/scenarios", a.handleListScenarios)
}

// Router exposes the handler for tests and embedding
func (a *App) Router() http.Handler {
	return a.router
}

// Start starts the HTTP server and blocks until it stops
func (a *App) Start() error {
	a.logger.Info("API server listening on %s", a.server.Addr)
	return a.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}
