package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Pubspec is the subset of pubspec.yaml the server cares about.
type Pubspec struct {
	// Name is the Dart package name.
	Name string `yaml:"name"`

	// Description is the package description.
	Description string `yaml:"description,omitempty"`

	// Version is the app version string.
	Version string `yaml:"version,omitempty"`
}

// ReadPubspec parses pubspec.yaml from a project root.
func ReadPubspec(root string) (*Pubspec, error) {
	path := filepath.Join(root, "pubspec.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Pubspec
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &p, nil
}

// IsFlutterProject reports whether root looks like a Flutter project
// (has a pubspec.yaml).
func IsFlutterProject(root string) bool {
	info, err := os.Stat(filepath.Join(root, "pubspec.yaml"))
	return err == nil && !info.IsDir()
}
