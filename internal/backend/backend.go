// Package backend selects and constructs the configured storage backend.
package backend

import (
	"gastos/internal/config"
	"gastos/internal/storage"
)

// Type represents the kind of storage backend.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	CSVBackend    Type = "csv"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is recognised.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, CSVBackend:
		return true
	default:
		return false
	}
}

// Config holds what backend construction needs.
type Config struct {
	// Backend type
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Flat-file specific
	DataDir string
}

// FromAppConfig maps the application configuration onto a backend config.
func FromAppConfig(cfg *config.Config) Config {
	return Config{
		Type:         Type(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		DataDir:      cfg.DataDir,
	}
}

// Factory creates storage backends based on configuration.
type Factory interface {
	CreateBackend(config Config) (storage.Store, error)
}
