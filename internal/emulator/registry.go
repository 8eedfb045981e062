// Package emulator manages Android virtual device discovery, launch, and
// boot orchestration through the adb and emulator executables.
package emulator

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	"github.com/fluttermcp/cli/internal/toolchain"
)

// Device describes a device visible to the Flutter tool.
type Device struct {
	// ID is the device identifier used with `flutter run -d`.
	ID string `json:"id"`

	// Name is the human-readable device name.
	Name string `json:"name"`

	// Platform is the Flutter target platform (e.g. "android-arm64").
	Platform string `json:"platform"`

	// Emulator reports whether the device is a virtual device.
	Emulator bool `json:"emulator"`
}

// Registry queries the external toolchain for running devices and
// available virtual device images.
//
// Every query fails soft: a missing executable or non-zero exit yields an
// empty result rather than an error, so that an absent Android SDK reads
// as "no devices" instead of a fatal condition.
type Registry struct {
	runner toolchain.Runner
	tc     *toolchain.Toolchain
}

// NewRegistry creates a device registry backed by the given runner and
// resolved toolchain.
func NewRegistry(runner toolchain.Runner, tc *toolchain.Toolchain) *Registry {
	return &Registry{runner: runner, tc: tc}
}

// ListRunning returns the set of emulator serials currently reporting as
// active, from `adb devices`.
func (r *Registry) ListRunning(ctx context.Context) map[string]bool {
	running := make(map[string]bool)
	if r.tc.ADB == "" {
		log.Debug("adb not found, treating as no running devices")
		return running
	}

	res, err := r.runner.Output(ctx, "", r.tc.ADB, "devices")
	if err != nil || res.ExitCode != 0 {
		log.Debug("adb devices failed, treating as no running devices", "error", err, "exit_code", res.ExitCode)
		return running
	}

	for _, line := range strings.Split(res.Stdout, "\n") {
		if serial, ok := parseDeviceLine(line); ok {
			running[serial] = true
		}
	}
	return running
}

// parseDeviceLine reports whether an `adb devices` output line names an
// active emulator, returning its serial.
//
// Expected shape: "emulator-5554\tdevice". Offline and physical devices
// are excluded.
func parseDeviceLine(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}
	if !strings.HasPrefix(fields[0], "emulator-") || fields[1] != "device" {
		return "", false
	}
	return fields[0], true
}

// ListImages returns the available virtual device image names from
// `emulator -list-avds`, in tool output order with blank lines removed.
func (r *Registry) ListImages(ctx context.Context) []string {
	if r.tc.Emulator == "" {
		log.Debug("emulator not found, treating as no images")
		return nil
	}

	res, err := r.runner.Output(ctx, "", r.tc.Emulator, "-list-avds")
	if err != nil || res.ExitCode != 0 {
		log.Debug("emulator -list-avds failed, treating as no images", "error", err, "exit_code", res.ExitCode)
		return nil
	}

	var images []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		// Newer emulator builds print an INFO banner before the list.
		if strings.HasPrefix(name, "INFO") {
			continue
		}
		images = append(images, name)
	}
	return images
}

// ListConnected returns every device the Flutter tool can target, parsed
// from `flutter devices --machine` JSON output.
func (r *Registry) ListConnected(ctx context.Context) []Device {
	if r.tc.Flutter == "" {
		return nil
	}

	res, err := r.runner.Output(ctx, "", r.tc.Flutter, "devices", "--machine")
	if err != nil || res.ExitCode != 0 {
		log.Debug("flutter devices failed, treating as no devices", "error", err, "exit_code", res.ExitCode)
		return nil
	}

	var devices []Device
	for _, entry := range gjson.Parse(res.Stdout).Array() {
		id := entry.Get("id").String()
		if id == "" {
			continue
		}
		devices = append(devices, Device{
			ID:       id,
			Name:     entry.Get("name").String(),
			Platform: entry.Get("targetPlatform").String(),
			Emulator: entry.Get("emulator").Bool(),
		})
	}
	return devices
}
