// Package config loads hrportal settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/roach88/hrportal/internal/dialect"
)

// DefaultEnvFile is read when present; a missing default file is not an
// error.
const DefaultEnvFile = ".env"

// Config holds the database connection and logging settings.
type Config struct {
	DBDriver string `env:"HRPORTAL_DB_DRIVER" envDefault:"sqlite3"`
	DBDSN    string `env:"HRPORTAL_DB_DSN" envDefault:"hrportal.db"`
	LogLevel string `env:"HRPORTAL_LOG_LEVEL" envDefault:"info"`
}

// Load reads envFile into the process environment without overriding
// variables already set, then parses Config from the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !(envFile == DefaultEnvFile && errors.Is(err, fs.ErrNotExist)) {
				return Config{}, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the driver and log level.
func (c Config) Validate() error {
	if _, err := dialect.ForDriver(c.DBDriver); err != nil {
		return fmt.Errorf("HRPORTAL_DB_DRIVER: %w", err)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("HRPORTAL_DB_DSN: must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("HRPORTAL_LOG_LEVEL: %w", err)
	}
	return nil
}

// Level returns the configured slog level, info when unparseable.
func (c Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: must be debug, info, warn or error", s)
	}
	return level, nil
}
