// Package project handles Flutter project scaffolding and the
// .fluttermcp/config.yaml project configuration.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigDir is the per-project configuration directory.
const ConfigDir = ".fluttermcp"

// ConfigFile is the configuration file name inside ConfigDir.
const ConfigFile = "config.yaml"

// Config represents the .fluttermcp/config.yaml file.
type Config struct {
	// Project contains project identification.
	Project ProjectInfo `yaml:"project"`

	// Device contains device selection defaults.
	Device DeviceConfig `yaml:"device,omitempty"`

	// Run contains defaults for `flutter run` invocations.
	Run RunConfig `yaml:"run,omitempty"`

	// Watch contains hot reload watcher settings.
	Watch WatchConfig `yaml:"watch,omitempty"`

	// CreatedAt records when the project was scaffolded (RFC3339).
	CreatedAt string `yaml:"created_at,omitempty"`
}

// ProjectInfo identifies the project.
type ProjectInfo struct {
	// Name is the Flutter package name.
	Name string `yaml:"name"`

	// Org is the reverse-domain organization identifier.
	Org string `yaml:"org,omitempty"`
}

// DeviceConfig holds device selection defaults.
type DeviceConfig struct {
	// PreferredImage is the emulator image to launch when no device runs.
	PreferredImage string `yaml:"preferred_image,omitempty"`
}

// RunConfig holds `flutter run` defaults.
type RunConfig struct {
	// Flavor is the build flavor passed as --flavor.
	Flavor string `yaml:"flavor,omitempty"`

	// ExtraArgs are appended to every run invocation.
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

// WatchConfig holds hot reload watcher settings.
type WatchConfig struct {
	// Enabled turns on the lib/ watcher for run sessions.
	Enabled bool `yaml:"enabled,omitempty"`

	// DebounceMS is the reload debounce in milliseconds (default 300).
	DebounceMS int `yaml:"debounce_ms,omitempty"`
}

// Debounce returns the configured debounce as a duration.
func (w WatchConfig) Debounce() time.Duration {
	if w.DebounceMS <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// ConfigPath returns the config file path for a project root.
func ConfigPath(root string) string {
	return filepath.Join(root, ConfigDir, ConfigFile)
}

// LoadConfig reads the project configuration from root.
func LoadConfig(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigPath(root), err)
	}
	return &cfg, nil
}

// SaveConfig writes the project configuration under root, creating the
// config directory if needed.
func (c *Config) SaveConfig(root string) error {
	if err := os.MkdirAll(filepath.Join(root, ConfigDir), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(ConfigPath(root), data, 0o644)
}
