package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"

	"github.com/efreitasn/toymarket/internal/domain"
)

// Config holds all runtime configuration for the market server.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver     string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN        string        `env:"DB_DSN" envDefault:"toymarket.db"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`

	OpeningBalance   int64         `env:"OPENING_BALANCE" envDefault:"50000"`
	Currency         string        `env:"CURRENCY" envDefault:"JPY"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"60s"`
	EventMinDelay    time.Duration `env:"EVENT_MIN_DELAY" envDefault:"60s"`
	EventMaxDelay    time.Duration `env:"EVENT_MAX_DELAY" envDefault:"180s"`
	SeedFile         string        `env:"SEED_FILE"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d, must be between 1 and 65535", c.Port)
	}
	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", c.LogLevel)
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "pgx" {
		return fmt.Errorf("invalid DB_DRIVER: %q, must be one of: sqlite, pgx", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("invalid DB_DSN: must not be empty")
	}
	if c.OpeningBalance < 0 {
		return fmt.Errorf("invalid OPENING_BALANCE: %d, must not be negative", c.OpeningBalance)
	}
	if !domain.ValidCurrency(c.Currency) {
		return fmt.Errorf("invalid CURRENCY: %q, must be an ISO 4217 code", c.Currency)
	}

	for _, d := range []struct {
		key string
		val time.Duration
	}{
		{"STORE_TIMEOUT", c.StoreTimeout},
		{"SNAPSHOT_INTERVAL", c.SnapshotInterval},
		{"EVENT_MIN_DELAY", c.EventMinDelay},
		{"EVENT_MAX_DELAY", c.EventMaxDelay},
	} {
		if d.val <= 0 {
			return fmt.Errorf("invalid %s: %v, must be positive", d.key, d.val)
		}
	}
	if c.EventMaxDelay < c.EventMinDelay {
		return fmt.Errorf("invalid EVENT_MAX_DELAY: %v is below EVENT_MIN_DELAY %v", c.EventMaxDelay, c.EventMinDelay)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
