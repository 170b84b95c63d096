package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Supported values for DATABASE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int           `env:"PORT"`
	DatabaseDriver string        `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseURL    string        `env:"DATABASE_URL" envDefault:"./weight-tracker.db"`
	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"console"` // console or json
}

// Load loads configuration from environment variables. defaultPort is used
// when PORT is unset, so each service keeps its own well-known port.
func Load(defaultPort int) (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.ServerPort == 0 {
		cfg.ServerPort = defaultPort
	}
	if cfg.ServerPort < 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.ServerPort)
	}
	switch cfg.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}

	return &cfg, nil
}
