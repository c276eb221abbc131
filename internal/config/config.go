// Package config loads awstore configuration from an optional YAML file
// with environment variable overrides. A .env file in the working
// directory is honored when present.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Algous-Studio/aw-core/internal/awerr"
)

// Backend names accepted by the storage configuration.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Config aggregates runtime configuration for the awstore CLI.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StorageConfig selects and parameterizes a backend.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Load reads configuration from the given file, applying defaults and
// environment overrides. A missing file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	// Best effort; absence of a .env file is the normal case.
	_ = godotenv.Load()

	cfg := &Config{
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Path:    "awstore.db",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9100",
		},
	}

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(cfg)

	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)
	switch cfg.Storage.Backend {
	case BackendPostgres, BackendSQLite, BackendMemory:
	default:
		return nil, awerr.Config(fmt.Sprintf("unknown storage backend %q", cfg.Storage.Backend))
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("AW_STORAGE_BACKEND"); ok {
		cfg.Storage.Backend = v
	}
	if v, ok := os.LookupEnv("AW_SQLITE_PATH"); ok {
		cfg.Storage.Path = v
	}
	if v, ok := os.LookupEnv("AW_METRICS_ADDR"); ok {
		cfg.Metrics.Addr = v
	}
	// The DSN also falls back to POSTGRES_DSN inside the postgres
	// backend; this override exists for explicit per-deployment config.
	if v, ok := os.LookupEnv("POSTGRES_DSN"); ok && cfg.Storage.DSN == "" {
		cfg.Storage.DSN = v
	}
}
