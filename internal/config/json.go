package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// parseJSON overlays the values present in the JSON file at path onto
// config. Keys missing from the file keep their current values.
func parseJSON(config *Config, path string) error {
	// nothing to load
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := json.Unmarshal(file, config); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
