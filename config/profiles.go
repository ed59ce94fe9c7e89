package config

import (
	"fmt"
	"time"
)

// LoadProfile returns a configuration pre-tuned for a named deployment
// profile, with environment variables applied on top. Known profiles are
// development, testing, staging and production.
func LoadProfile(name string) (*Config, error) {
	cfg := DefaultConfig()

	switch name {
	case "development":
		cfg.Environment = EnvDevelopment
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"

	case "testing":
		cfg.Environment = EnvTesting
		cfg.Logging.Level = "warn"
		cfg.Storage.Adapter = "memory"

	case "staging":
		cfg.Environment = EnvStaging
		cfg.Metrics.Enabled = true
		cfg.Security.EnableRateLimit = true

	case "production":
		cfg.Environment = EnvProduction
		cfg.Metrics.Enabled = true
		cfg.Security.EnableRateLimit = true
		cfg.Security.RateLimit.RequestsPerMinute = 120
		cfg.Security.RateLimit.BurstSize = 20
		cfg.Server.ShutdownTimeout = 60 * time.Second

	default:
		return nil, fmt.Errorf("unknown profile: %s", name)
	}

	cfg.Profile = name

	// Environment variables override profile values
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
