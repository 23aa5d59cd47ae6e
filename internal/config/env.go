package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays USERSTORE_* environment variables. Unset variables keep
// the current value.
func parseEnv(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
