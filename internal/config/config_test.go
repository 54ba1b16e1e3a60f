package config

import (
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errorString string
	}{
		{
			name: "valid sqlite backend config",
			config: Config{
				DataBackend:    "sqlite",
				SQLiteDBPath:   filepath.Join(t.TempDir(), "test.db"),
				CurrencySymbol: "₱",
				BcryptCost:     bcrypt.DefaultCost,
				LogLevel:       "info",
			},
			wantErr: false,
		},
		{
			name: "valid csv backend config",
			config: Config{
				DataBackend:    "csv",
				DataDir:        t.TempDir(),
				CurrencySymbol: "$",
				BcryptCost:     bcrypt.DefaultCost,
				LogLevel:       "debug",
			},
			wantErr: false,
		},
		{
			name: "invalid data backend",
			config: Config{
				DataBackend:    "invalid",
				CurrencySymbol: "₱",
				BcryptCost:     bcrypt.DefaultCost,
				LogLevel:       "info",
			},
			wantErr:     true,
			errorString: "invalid data backend 'invalid': must be one of [sqlite csv]",
		},
		{
			name: "sqlite backend missing database path",
			config: Config{
				DataBackend:    "sqlite",
				SQLiteDBPath:   "",
				CurrencySymbol: "₱",
				BcryptCost:     bcrypt.DefaultCost,
				LogLevel:       "info",
			},
			wantErr:     true,
			errorString: "SQLite database path cannot be empty when using sqlite backend",
		},
		{
			name: "csv backend missing data directory",
			config: Config{
				DataBackend:    "csv",
				DataDir:        "",
				CurrencySymbol: "₱",
				BcryptCost:     bcrypt.DefaultCost,
				LogLevel:       "info",
			},
			wantErr:     true,
			errorString: "data directory cannot be empty when using csv backend",
		},
		{
			name: "bcrypt cost out of range",
			config: Config{
				DataBackend:    "sqlite",
				SQLiteDBPath:   filepath.Join(t.TempDir(), "test.db"),
				CurrencySymbol: "₱",
				BcryptCost:     99,
				LogLevel:       "info",
			},
			wantErr:     true,
			errorString: "invalid bcrypt cost 99",
		},
		{
			name: "invalid log level",
			config: Config{
				DataBackend:    "sqlite",
				SQLiteDBPath:   filepath.Join(t.TempDir(), "test.db"),
				CurrencySymbol: "₱",
				BcryptCost:     bcrypt.DefaultCost,
				LogLevel:       "verbose",
			},
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
		{
			name: "empty currency symbol",
			config: Config{
				DataBackend:    "sqlite",
				SQLiteDBPath:   filepath.Join(t.TempDir(), "test.db"),
				CurrencySymbol: "",
				BcryptCost:     bcrypt.DefaultCost,
				LogLevel:       "info",
			},
			wantErr:     true,
			errorString: "currency symbol cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Config.Validate() error = %v, want it to contain %q", err, tt.errorString)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		for _, key := range []string{"DB_PATH", "DATA_DIR", "DATA_BACKEND", "CURRENCY_SYMBOL", "BCRYPT_COST", "LOG_LEVEL"} {
			t.Setenv(key, "")
		}

		cfg := Load()

		if cfg.DataBackend != "sqlite" {
			t.Errorf("Load() DataBackend = %v, want sqlite", cfg.DataBackend)
		}
		if cfg.SQLiteDBPath != "./data/gastos.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want ./data/gastos.db", cfg.SQLiteDBPath)
		}
		if cfg.CurrencySymbol != "₱" {
			t.Errorf("Load() CurrencySymbol = %v, want ₱", cfg.CurrencySymbol)
		}
		if cfg.BcryptCost != bcrypt.DefaultCost {
			t.Errorf("Load() BcryptCost = %v, want %v", cfg.BcryptCost, bcrypt.DefaultCost)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("Load() LogLevel = %v, want info", cfg.LogLevel)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("DB_PATH", "/tmp/test.db")
		t.Setenv("DATA_BACKEND", "csv")
		t.Setenv("DATA_DIR", "/tmp/gastos")
		t.Setenv("CURRENCY_SYMBOL", "$")
		t.Setenv("BCRYPT_COST", "12")
		t.Setenv("LOG_LEVEL", "debug")

		cfg := Load()

		if cfg.SQLiteDBPath != "/tmp/test.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want /tmp/test.db", cfg.SQLiteDBPath)
		}
		if cfg.DataBackend != "csv" {
			t.Errorf("Load() DataBackend = %v, want csv", cfg.DataBackend)
		}
		if cfg.DataDir != "/tmp/gastos" {
			t.Errorf("Load() DataDir = %v, want /tmp/gastos", cfg.DataDir)
		}
		if cfg.CurrencySymbol != "$" {
			t.Errorf("Load() CurrencySymbol = %v, want $", cfg.CurrencySymbol)
		}
		if cfg.BcryptCost != 12 {
			t.Errorf("Load() BcryptCost = %v, want 12", cfg.BcryptCost)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("Load() LogLevel = %v, want debug", cfg.LogLevel)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		t.Setenv("BCRYPT_COST", "invalid")

		cfg := Load()

		if cfg.BcryptCost != bcrypt.DefaultCost {
			t.Errorf("Load() BcryptCost = %v, want %v (default for invalid input)", cfg.BcryptCost, bcrypt.DefaultCost)
		}
	})
}
