// Package config loads the optional per-project compiler defaults from
// .intentc/config.json — the teacher's .human/config.json pattern, stripped
// to the two settings this compiler has a use for (§6).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds project configuration loaded from .intentc/config.json.
// CLI flags always override these when both are present.
type Config struct {
	DefaultTarget    string `json:"default_target,omitempty"`
	DefaultOutputDir string `json:"default_output_dir,omitempty"`
}

// configFileName is the configuration file path relative to the project root.
const configFileName = ".intentc/config.json"

// Load reads the project configuration from .intentc/config.json in the
// given project directory. If the file doesn't exist, it returns a zero
// Config, not an error.
func Load(projectDir string) (*Config, error) {
	cfg := &Config{}

	path := filepath.Join(projectDir, configFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configFileName, err)
	}

	return cfg, nil
}

// Save writes the config to .intentc/config.json, creating the directory
// if needed.
func Save(projectDir string, cfg *Config) error {
	dir := filepath.Join(projectDir, ".intentc")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating .intentc directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	path := filepath.Join(projectDir, configFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", configFileName, err)
	}

	return nil
}
