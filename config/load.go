package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses the config file, applying defaults. DSN values may
// reference environment variables as ${VAR}; getenv resolves them.
func Load(path string, getenv func(string) string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.BaseDir = filepath.Dir(abs)

	cfg.Database.DSN = os.Expand(cfg.Database.DSN, getenv)

	return cfg, nil
}

// Defaults returns a config with all defaults applied.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Compression: CompressionConfig{
			Enabled: true,
			Level:   "default",
			MinSize: 1024,
		},
		CORS: CORSConfig{
			Methods: []string{"GET", "HEAD"},
		},
		Logging: LoggingConfig{
			Requests: true,
			Format:   "text",
		},
	}
}

// Validate checks the config for errors after CLI overrides are applied.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	switch cfg.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite, mysql, or postgres, got %q", cfg.Database.Driver)
	}

	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if cfg.Database.Table == "" {
		return fmt.Errorf("database.table is required")
	}

	switch cfg.Compression.Level {
	case "fastest", "default", "best":
	default:
		return fmt.Errorf("compression.level must be fastest, default, or best, got %q", cfg.Compression.Level)
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}

	return nil
}
