package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fluttermcp/cli/internal/toolchain"
)

// CreateParams configures project scaffolding.
type CreateParams struct {
	// Dir is the parent directory the project is created in.
	Dir string

	// Name is the Flutter package name (lower_snake_case).
	Name string

	// Org is the reverse-domain organization (default "com.example").
	Org string

	// Platforms limits the generated platform folders (e.g. "android,ios").
	Platforms string

	// Template is the flutter create template ("app" by default).
	Template string
}

// packageNameRe matches valid Dart package names.
var packageNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Create scaffolds a new Flutter project with `flutter create`, then
// writes the project config and a VS Code launch configuration.
//
// Returns:
//   - string: the created project root
//   - error: validation failures or a scaffolding failure with the
//     tool's stderr
func Create(ctx context.Context, runner toolchain.Runner, tc *toolchain.Toolchain, params CreateParams) (string, error) {
	if !packageNameRe.MatchString(params.Name) {
		return "", fmt.Errorf("invalid project name %q: must be lower_snake_case starting with a letter", params.Name)
	}
	if tc.Flutter == "" {
		return "", fmt.Errorf("flutter executable not found; install Flutter and set FLUTTER_HOME or PATH")
	}

	dir := params.Dir
	if dir == "" {
		dir = "."
	}
	root := filepath.Join(dir, params.Name)
	if _, err := os.Stat(root); err == nil {
		return "", fmt.Errorf("directory %s already exists", root)
	}

	args := []string{"create", "--project-name", params.Name}
	if params.Org != "" {
		args = append(args, "--org", params.Org)
	}
	if params.Platforms != "" {
		args = append(args, "--platforms", params.Platforms)
	}
	if params.Template != "" {
		args = append(args, "--template", params.Template)
	}
	args = append(args, root)

	log.Info("Scaffolding Flutter project", "name", params.Name, "dir", dir)
	res, err := runner.Output(ctx, "", tc.Flutter, args...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &toolchain.RunError{Command: "flutter create", ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	cfg := &Config{
		Project:   ProjectInfo{Name: params.Name, Org: params.Org},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := cfg.SaveConfig(root); err != nil {
		return "", err
	}
	if err := WriteLaunchConfig(root, displayName(params.Name)); err != nil {
		log.Warn("Failed to write launch.json", "error", err)
	}

	return root, nil
}

// displayName turns a package name into a launch configuration label.
func displayName(pkg string) string {
	return strings.ReplaceAll(pkg, "_", "-") + " (debug)"
}
