package config

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SecretStore resolves sensitive configuration values at startup
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, defaultValue string) string
}

// EnvironmentSecretStore resolves secrets from process environment variables
type EnvironmentSecretStore struct{}

// NewEnvironmentSecretStore returns a SecretStore backed by the environment
func NewEnvironmentSecretStore() *EnvironmentSecretStore {
	return &EnvironmentSecretStore{}
}

// Get returns the secret value for key, or an error if it is unset or empty
func (s *EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("secret %s not found in environment", key)
	}
	return value, nil
}

// GetWithDefault returns the secret value for key, falling back to defaultValue
func (s *EnvironmentSecretStore) GetWithDefault(_ context.Context, key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadSecretsFromEnv overlays sensitive values from a SecretStore onto the
// config. Non-secret values stay as loaded; only fields that carry
// credentials are touched.
func (c *Config) LoadSecretsFromEnv(ctx context.Context, store SecretStore) {
	c.Storage.Redis.Password = store.GetWithDefault(ctx, "MISSIONCTL_STORAGE_REDIS_PASSWORD", c.Storage.Redis.Password)
	c.Storage.SQL.DSN = store.GetWithDefault(ctx, "MISSIONCTL_STORAGE_SQL_DSN", c.Storage.SQL.DSN)

	if keys := store.GetWithDefault(ctx, "MISSIONCTL_SECURITY_API_KEYS", ""); keys != "" {
		parts := strings.Split(keys, ",")
		apiKeys := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				apiKeys = append(apiKeys, trimmed)
			}
		}
		c.Security.APIKeys = apiKeys
	}
}
