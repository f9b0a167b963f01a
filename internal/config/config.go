// Package config loads the taskdeck configuration file.
//
// Configuration is a small YAML document: where the database lives and
// optional per-size story-point ceiling overrides. A missing file means
// defaults — the server must start on a clean machine.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/taskdeck/taskdeck/internal/hierarchy"
	"github.com/taskdeck/taskdeck/internal/sizing"
)

// ConfigFileName is the default config file name under the data directory.
const ConfigFileName = "taskdeck.yaml"

// EnvConfigPath overrides the config file location when set.
const EnvConfigPath = "TASKDECK_CONFIG"

// Config is the on-disk configuration document.
type Config struct {
	// DataDir is where the SQLite database lives. Defaults to ~/.taskdeck.
	DataDir string `yaml:"data_dir"`
	// SizeCeilings overrides the default story-point ceiling per size,
	// e.g. {s: 5, m: 8}. The ceilings must not decrease with size.
	SizeCeilings map[string]int `yaml:"size_ceilings"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".taskdeck")}
}

// DefaultPath returns the config file location: $TASKDECK_CONFIG if set,
// else taskdeck.yaml under the default data directory.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(Default().DataDir, ConfigFileName)
}

// Load reads the config file at path, overlaying it on the defaults.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = Default().DataDir
	}
	return cfg, nil
}

// HierarchyConfig builds the store configuration, validating any ceiling
// overrides against the size-ordering contract.
func (c Config) HierarchyConfig() (hierarchy.Config, error) {
	policy, err := sizing.NewPolicy(c.SizeCeilings)
	if err != nil {
		return hierarchy.Config{}, fmt.Errorf("config: size ceilings: %w", err)
	}
	return hierarchy.Config{DataDir: c.DataDir, Policy: policy}, nil
}
