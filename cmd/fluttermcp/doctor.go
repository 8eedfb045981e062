// Package main provides the doctor command for CLI diagnostics.
package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fluttermcp/cli/internal/emulator"
	"github.com/fluttermcp/cli/internal/project"
	"github.com/fluttermcp/cli/internal/toolchain"
	"github.com/fluttermcp/cli/internal/ui"
)

// DoctorCheck represents a single diagnostic check result.
type DoctorCheck struct {
	// Name is the check name (e.g., "Flutter SDK").
	Name string `json:"name"`

	// Status is the check status: "ok", "warning", "error".
	Status string `json:"status"`

	// Message is the human-readable result message.
	Message string `json:"message"`
}

// DoctorResult contains all diagnostic check results.
type DoctorResult struct {
	// Checks contains all individual check results.
	Checks []DoctorCheck `json:"checks"`

	// Issues is the count of checks with status "error" or "warning".
	Issues int `json:"issues"`

	// Healthy is true if no errors were found.
	Healthy bool `json:"healthy"`
}

var doctorOutputJSON bool

// doctorCmd runs diagnostic checks on the local toolchain.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the local Flutter and Android toolchain",
	Long: `Run diagnostic checks on the SDK toolchain fluttermcp depends on.

CHECKS PERFORMED:
  - Flutter SDK (resolved path and version)
  - Android Debug Bridge (adb)
  - Android emulator and installed images
  - Current directory (is it a Flutter project?)

OUTPUT:
  Human-readable by default, JSON with --json flag.

EXAMPLES:
  fluttermcp doctor           # Run all checks
  fluttermcp doctor --json    # Output as JSON for scripting`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorOutputJSON, "json", false, "Output results as JSON")
}

// runDoctor executes all diagnostic checks.
func runDoctor(cmd *cobra.Command, args []string) error {
	runner := &toolchain.ExecRunner{}
	tc := toolchain.Discover()

	result := DoctorResult{Healthy: true}

	// Flutter SDK
	if tc.Flutter == "" {
		result.Checks = append(result.Checks, DoctorCheck{
			Name:    "Flutter SDK",
			Status:  "error",
			Message: "flutter not found; install Flutter and set FLUTTER_HOME or PATH",
		})
	} else {
		msg := tc.Flutter
		if res, err := runner.Output(cmd.Context(), "", tc.Flutter, "--version"); err == nil && res.ExitCode == 0 {
			if line := firstLine(res.Stdout); line != "" {
				msg = line
			}
		}
		result.Checks = append(result.Checks, DoctorCheck{Name: "Flutter SDK", Status: "ok", Message: msg})
	}

	// adb
	if tc.ADB == "" {
		result.Checks = append(result.Checks, DoctorCheck{
			Name:    "Android Debug Bridge",
			Status:  "error",
			Message: "adb not found; install Android platform-tools and set ANDROID_HOME",
		})
	} else {
		result.Checks = append(result.Checks, DoctorCheck{Name: "Android Debug Bridge", Status: "ok", Message: tc.ADB})
	}

	// emulator + images
	if tc.Emulator == "" {
		result.Checks = append(result.Checks, DoctorCheck{
			Name:    "Android Emulator",
			Status:  "error",
			Message: "emulator not found; install the Android emulator package",
		})
	} else {
		registry := emulator.NewRegistry(runner, tc)
		images := registry.ListImages(cmd.Context())
		if len(images) == 0 {
			result.Checks = append(result.Checks, DoctorCheck{
				Name:    "Emulator Images",
				Status:  "warning",
				Message: "no images installed; create one with Android Studio's Device Manager",
			})
		} else {
			result.Checks = append(result.Checks, DoctorCheck{
				Name:    "Emulator Images",
				Status:  "ok",
				Message: fmt.Sprintf("%d installed (%s)", len(images), strings.Join(images, ", ")),
			})
		}
	}

	// current directory
	if project.IsFlutterProject(".") {
		msg := "pubspec.yaml found"
		if pubspec, err := project.ReadPubspec("."); err == nil && pubspec.Name != "" {
			msg = "project " + pubspec.Name
		}
		result.Checks = append(result.Checks, DoctorCheck{Name: "Current Directory", Status: "ok", Message: msg})
	} else {
		result.Checks = append(result.Checks, DoctorCheck{
			Name:    "Current Directory",
			Status:  "warning",
			Message: "not a Flutter project (no pubspec.yaml)",
		})
	}

	for _, check := range result.Checks {
		if check.Status != "ok" {
			result.Issues++
		}
		if check.Status == "error" {
			result.Healthy = false
		}
	}

	if doctorOutputJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	for _, check := range result.Checks {
		switch check.Status {
		case "ok":
			ui.PrintSuccess("%s: %s", check.Name, check.Message)
		case "warning":
			ui.PrintWarning("%s: %s", check.Name, check.Message)
		default:
			ui.PrintError("%s: %s", check.Name, check.Message)
		}
	}
	ui.PrintInfo("")
	if result.Healthy {
		ui.PrintSuccess("Toolchain looks good (%d issue(s))", result.Issues)
	} else {
		ui.PrintError("Toolchain has problems (%d issue(s))", result.Issues)
	}
	return nil
}

// firstLine returns the first non-empty line of s.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
