// Package config loads application configuration from the environment.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings.
type Config struct {
	// DatabasePath is the SQLite file, or ":memory:".
	DatabasePath string
	// ListenAddr is the HTTP server bind address.
	ListenAddr string
	// FailureLogPath collects failed import batches for retry.
	FailureLogPath string
	// MappingsPath overrides the embedded category mapping table when set.
	MappingsPath string
	LogLevel     string
	// AppEnv switches log formatting; "production" emits JSON.
	AppEnv string
}

// Load reads configuration from a .env file (when present) and the
// process environment, applying defaults for anything unset.
func Load() *Config {
	// Missing .env is fine; the environment alone is a valid source.
	_ = godotenv.Load()

	return &Config{
		DatabasePath:   envOr("BUDGETFLOW_DB", "budgetflow.db"),
		ListenAddr:     envOr("BUDGETFLOW_ADDR", ":8080"),
		FailureLogPath: envOr("BUDGETFLOW_FAILED_IMPORTS", "failed_imports.jsonl"),
		MappingsPath:   os.Getenv("BUDGETFLOW_MAPPINGS"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		AppEnv:         envOr("APP_ENV", "development"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
