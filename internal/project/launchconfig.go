package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// WriteLaunchConfig creates or updates .vscode/launch.json with a debug
// configuration for the app. Existing configurations and unknown keys are
// preserved; a configuration with the same name is not duplicated.
func WriteLaunchConfig(root, appName string) error {
	dir := filepath.Join(root, ".vscode")
	path := filepath.Join(dir, "launch.json")

	doc := `{"version":"0.2.0","configurations":[]}`
	if data, err := os.ReadFile(path); err == nil {
		doc = string(data)
	}

	for _, existing := range gjson.Get(doc, "configurations.#.name").Array() {
		if existing.String() == appName {
			return nil
		}
	}

	entry := map[string]interface{}{
		"name":        appName,
		"request":     "launch",
		"type":        "dart",
		"flutterMode": "debug",
	}
	doc, err := sjson.Set(doc, "configurations.-1", entry)
	if err != nil {
		return fmt.Errorf("failed to update launch.json: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create .vscode directory: %w", err)
	}
	return os.WriteFile(path, []byte(doc), 0o644)
}
