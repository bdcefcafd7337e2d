package config

import (
	"os"
	"strings"
	"time"

	"qmrisk/internal"
	"qmrisk/internal/errors"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Simulation SimulationConfig
	Paths      PathConfig
	LogLevel   internal.LogLevel
}

// DatabaseConfig holds PostgreSQL connection settings. URL may be empty:
// persistence is optional for CLI runs and only required by the API server.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// SimulationConfig holds engine limits and batch settings
type SimulationConfig struct {
	MaxCells int
	Workers  int
}

// PathConfig holds file and directory locations
type PathConfig struct {
	ScenarioDir string
	OutputDir   string
}

// Load reads configuration from QMRISK_* environment variables with
// sensible defaults. DATABASE_URL without the prefix is honored as a
// fallback for conventional deployment environments.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QMRISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	dbURL := v.GetString("database.url")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:             dbURL,
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Simulation: SimulationConfig{
			MaxCells: v.GetInt("simulation.max_cells"),
			Workers:  v.GetInt("simulation.workers"),
		},
		Paths: PathConfig{
			ScenarioDir: v.GetString("paths.scenario_dir"),
			OutputDir:   v.GetString("paths.output_dir"),
		},
		LogLevel: internal.ParseLogLevel(v.GetString("log.level")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("simulation.max_cells", 50_000_000)
	v.SetDefault("simulation.workers", 4)

	v.SetDefault("paths.scenario_dir", "./scenarios")
	v.SetDefault("paths.output_dir", "./results")

	v.SetDefault("log.level", "INFO")
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.Simulation.MaxCells <= 0 {
		return errors.ConfigInvalid("simulation max cells must be positive")
	}
	if c.Simulation.Workers < 1 {
		return errors.ConfigInvalid("simulation workers must be at least 1")
	}
	if c.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.ConfigInvalid("server shutdown timeout must be positive")
	}
	if c.Database.MaxOpenConns < c.Database.MaxIdleConns {
		return errors.ConfigInvalid("database max open conns must be >= max idle conns")
	}
	return nil
}
