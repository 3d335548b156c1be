package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrMissingAPIKey is returned when a production config has no provider key.
var ErrMissingAPIKey = errors.New("OWM_API_KEY is required in production")

// Load reads a .env file if present, processes the environment into a Config
// and validates it.
func Load(files ...string) (*Config, error) {
	// A missing .env file is not an error; existing variables are never overridden.
	_ = godotenv.Load(files...)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct constraints and cross-field rules.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}
	if cfg.IsProduction() && cfg.Provider.OWMAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
