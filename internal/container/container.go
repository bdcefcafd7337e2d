package container

import (
	"context"

	"qmrisk/adapters/api"
	"qmrisk/adapters/excel"
	"qmrisk/adapters/postgres"
	"qmrisk/adapters/rng"
	"qmrisk/adapters/scenariofile"
	"qmrisk/app"
	"qmrisk/internal"
	"qmrisk/internal/config"
	"qmrisk/internal/errors"
	"qmrisk/internal/migration"
	"qmrisk/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Ports
	RNG         ports.RNGPort
	SummaryRepo ports.SummaryRepository
	Loader      ports.ScenarioLoader
	Samples     ports.SampleReader

	// Output
	Writer *excel.SummaryWriter

	// Services
	RunService   *app.RunService
	BatchService *app.BatchService
}

// New creates the dependency injection container. Everything except the
// database-backed repository is ready immediately; call ConnectDatabase to
// add persistence.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewLogger(cfg.LogLevel),
	}

	c.RNG = rng.NewAdapter()
	c.Samples = excel.NewSampleReader()
	c.Loader = scenariofile.NewLoader(c.Samples)
	c.Writer = excel.NewSummaryWriter()

	c.initServices()
	return c, nil
}

// ConnectDatabase dials postgres using the configured URL and initializes
// the database-backed components. An empty URL is not an error; the engine
// then runs without persistence.
func (c *Container) ConnectDatabase(ctx context.Context) error {
	if c.Config.Database.URL == "" {
		c.Logger.Info("no DATABASE_URL configured, running without persistence")
		return nil
	}

	db, err := sqlx.Connect("postgres", c.Config.Database.URL)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)

	return c.InitWithDatabase(ctx, db)
}

// InitWithDatabase wires the repository onto an existing connection and
// rebuilds the services on top of it
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return errors.ConfigInvalid("database connection cannot be nil")
	}

	if err := db.Ping(); err != nil {
		return errors.Wrap(err, "database connection test failed")
	}
	c.DB = db

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.SummaryRepo = postgres.NewSummaryRepository(db)
	c.initServices()

	c.Logger.Info("container initialized with database connection")
	return nil
}

func (c *Container) initServices() {
	c.RunService = app.NewRunService(c.RNG, c.SummaryRepo, c.Logger, c.Config.Simulation.MaxCells)
	c.BatchService = app.NewBatchService(c.RunService, c.Config.Simulation.Workers, c.Logger)
}

// APIApp builds the HTTP application on the container's services
func (c *Container) APIApp() *api.App {
	return api.NewApp(api.Config{
		Port:         c.Config.Server.Port,
		ReadTimeout:  c.Config.Server.ReadTimeout,
		WriteTimeout: c.Config.Server.WriteTimeout,
		ScenarioDir:  c.Config.Paths.ScenarioDir,
	}, c.RunService, c.SummaryRepo, c.Loader, c.Logger)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
