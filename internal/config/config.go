// Package config loads runtime settings for the userstore CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file, selected with the -c/--config flag.
//  3. Environment variables prefixed with USERSTORE_.
//  4. Command-line flags, applied by the caller on top of Load's result.
//
// # JSON schema
//
//	{
//	  "database_path": "userdata.db",
//	  "log_level": "info",
//	  "log_format": "auto"
//	}
package config

import "fmt"

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "USERSTORE_"

// Config holds runtime settings.
//
// Fields:
//   - DatabasePath: SQLite file holding users and their documents.
//   - LogLevel: debug, info, warn or error.
//   - LogFormat: auto, text or json (see logging.NewHandler).
type Config struct {
	DatabasePath string `json:"database_path" env:"DB"`
	LogLevel     string `json:"log_level" env:"LOG_LEVEL"`
	LogFormat    string `json:"log_format" env:"LOG_FORMAT"`
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "userdata.db"
	c.LogLevel = "info"
	c.LogFormat = "auto"
}

// Load builds a Config from defaults, the JSON file at jsonPath (skipped when
// empty) and the environment, in that order.
func Load(jsonPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, jsonPath); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return cfg, nil
}
