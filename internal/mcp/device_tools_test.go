package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/fluttermcp/cli/internal/toolchain"
)

func TestListEmulators(t *testing.T) {
	runner := &toolchain.FakeRunner{
		Results: map[string]toolchain.Result{
			"adb devices":         {Stdout: "List of devices attached\nemulator-5556\tdevice\nemulator-5554\tdevice\n"},
			"emulator -list-avds": {Stdout: "Pixel_7_API_34\n"},
		},
	}
	s := newTestServer(t, runner, fullToolchain())

	_, out, err := s.handleListEmulators(context.Background(), nil, ListEmulatorsInput{})
	if err != nil {
		t.Fatalf("handler returned protocol error: %v", err)
	}
	if len(out.Images) != 1 || out.Images[0] != "Pixel_7_API_34" {
		t.Errorf("images = %v", out.Images)
	}
	// Running serials come back sorted for deterministic output.
	if len(out.Running) != 2 || out.Running[0] != "emulator-5554" || out.Running[1] != "emulator-5556" {
		t.Errorf("running = %v, want sorted serials", out.Running)
	}
}

func TestListEmulatorsEmptyNotNull(t *testing.T) {
	s := newTestServer(t, &toolchain.FakeRunner{}, &toolchain.Toolchain{})
	_, out, _ := s.handleListEmulators(context.Background(), nil, ListEmulatorsInput{})
	if out.Images == nil || out.Running == nil {
		t.Errorf("out = %+v, want empty slices rather than null", out)
	}
}

func TestListDevices(t *testing.T) {
	runner := &toolchain.FakeRunner{
		Results: map[string]toolchain.Result{
			"flutter devices --machine": {Stdout: `[{"id":"emulator-5554","name":"sdk gphone64","targetPlatform":"android-arm64","emulator":true}]`},
		},
	}
	s := newTestServer(t, runner, fullToolchain())

	_, out, _ := s.handleListDevices(context.Background(), nil, ListDevicesInput{})
	if len(out.Devices) != 1 || out.Devices[0].ID != "emulator-5554" {
		t.Errorf("devices = %+v", out.Devices)
	}
}

func TestEnsureEmulatorShortCircuits(t *testing.T) {
	runner := &toolchain.FakeRunner{
		Results: map[string]toolchain.Result{
			"adb devices": {Stdout: "List of devices attached\nemulator-5554\tdevice\n"},
		},
	}
	s := newTestServer(t, runner, fullToolchain())

	_, out, _ := s.handleEnsureEmulator(context.Background(), nil, EnsureEmulatorInput{Image: "Pixel_7_API_34"})
	if !out.Success {
		t.Fatalf("out = %+v, want success with a running emulator", out)
	}
	if len(runner.Background) != 0 {
		t.Errorf("launches = %v, want none", runner.Background)
	}
}

func TestEnsureEmulatorUnknownImage(t *testing.T) {
	runner := &toolchain.FakeRunner{
		Results: map[string]toolchain.Result{
			"adb devices":         {Stdout: "List of devices attached\n"},
			"emulator -list-avds": {Stdout: "Pixel_7_API_34\nPixel_Tablet_API_34\n"},
		},
	}
	s := newTestServer(t, runner, fullToolchain())

	_, out, _ := s.handleEnsureEmulator(context.Background(), nil, EnsureEmulatorInput{Image: "Nexus_5"})
	if out.Success {
		t.Fatalf("out = %+v, want failure for an unknown image", out)
	}
	if len(out.AvailableImages) != 2 {
		t.Errorf("available = %v, want the installed images as remediation", out.AvailableImages)
	}
	if !strings.Contains(out.Error, "Nexus_5") {
		t.Errorf("error = %q, want the requested image named", out.Error)
	}
}

func TestEnsureEmulatorNoImages(t *testing.T) {
	runner := &toolchain.FakeRunner{
		Results: map[string]toolchain.Result{
			"adb devices":         {Stdout: "List of devices attached\n"},
			"emulator -list-avds": {Stdout: ""},
		},
	}
	s := newTestServer(t, runner, fullToolchain())

	_, out, _ := s.handleEnsureEmulator(context.Background(), nil, EnsureEmulatorInput{})
	if out.Success || !strings.Contains(out.Error, "no emulator images") {
		t.Errorf("out = %+v, want a no-images message", out)
	}
}

func TestRunAppRequiresFlutterProject(t *testing.T) {
	s := newTestServer(t, &toolchain.FakeRunner{}, fullToolchain())

	_, out, _ := s.handleRunApp(context.Background(), nil, RunAppInput{})
	if out.Success || !strings.Contains(out.Error, "pubspec.yaml") {
		t.Errorf("out = %+v, want a not-a-project message", out)
	}
}

func TestStopAppUnknownSession(t *testing.T) {
	s := newTestServer(t, &toolchain.FakeRunner{}, fullToolchain())

	_, out, _ := s.handleStopApp(context.Background(), nil, StopAppInput{})
	if out.Success || !strings.Contains(out.Error, "required") {
		t.Errorf("out = %+v, want session_id-required", out)
	}

	_, out, _ = s.handleStopApp(context.Background(), nil, StopAppInput{SessionID: "nope"})
	if out.Success || !strings.Contains(out.Error, "unknown session") {
		t.Errorf("out = %+v, want unknown-session", out)
	}
}

func TestGetAppLogsUnknownSession(t *testing.T) {
	s := newTestServer(t, &toolchain.FakeRunner{}, fullToolchain())

	_, out, _ := s.handleGetAppLogs(context.Background(), nil, GetAppLogsInput{SessionID: "nope"})
	if out.Success || !strings.Contains(out.Error, "unknown session") {
		t.Errorf("out = %+v, want unknown-session", out)
	}
}

func TestFirstSerial(t *testing.T) {
	if got := firstSerial(nil); got != "" {
		t.Errorf("firstSerial(nil) = %q, want empty", got)
	}
	running := map[string]bool{"emulator-5558": true, "emulator-5554": true}
	if got := firstSerial(running); got != "emulator-5554" {
		t.Errorf("firstSerial = %q, want the lexicographically first serial", got)
	}
}
