// Package cli provides common initialization for the terminal front-end.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"gastos/internal/backend"
	"gastos/internal/config"
	applog "gastos/internal/log"
	"gastos/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes colored structured logging at the configured
// level and installs it as the default logger.
func SetupLogger(level string) *applog.Logger {
	return applog.Setup(level, "gastos")
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStore builds the configured storage backend. Opening the store runs
// the schema manager, so a successful return means the schema is current.
// Exits the process on failure.
func InitStore(logger *applog.Logger, cfg *config.Config) storage.Store {
	store, err := backend.NewFactory(logger.Logger).CreateBackend(backend.FromAppConfig(cfg))
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return store
}
