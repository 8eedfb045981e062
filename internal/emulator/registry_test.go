package emulator

import (
	"context"
	"testing"

	"github.com/fluttermcp/cli/internal/toolchain"
)

func TestListRunningParsesAdbOutput(t *testing.T) {
	runner := &toolchain.FakeRunner{
		Results: map[string]toolchain.Result{
			"adb devices": {Stdout: "List of devices attached\nemulator-5554\tdevice\nemulator-5556\toffline\nR58M123ABC\tdevice\n\n"},
		},
	}
	r := NewRegistry(runner, &toolchain.Toolchain{ADB: "adb"})

	running := r.ListRunning(context.Background())
	if len(running) != 1 {
		t.Fatalf("running = %v, want exactly one serial", running)
	}
	if !running["emulator-5554"] {
		t.Errorf("expected emulator-5554 in %v", running)
	}
}

func TestListRunningFailsSoft(t *testing.T) {
	// Missing adb reads as no devices.
	r := NewRegistry(&toolchain.FakeRunner{}, &toolchain.Toolchain{})
	if running := r.ListRunning(context.Background()); len(running) != 0 {
		t.Errorf("running = %v, want empty with no adb", running)
	}

	// A failing adb also reads as no devices.
	runner := &toolchain.FakeRunner{
		Results: map[string]toolchain.Result{
			"adb devices": {ExitCode: 1, Stderr: "adb server not running"},
		},
	}
	r = NewRegistry(runner, &toolchain.Toolchain{ADB: "adb"})
	if running := r.ListRunning(context.Background()); len(running) != 0 {
		t.Errorf("running = %v, want empty on adb failure", running)
	}
}

func TestParseDeviceLine(t *testing.T) {
	tests := []struct {
		line   string
		serial string
		ok     bool
	}{
		{"emulator-5554\tdevice", "emulator-5554", true},
		{"emulator-5556\toffline", "", false},
		{"R58M123ABC\tdevice", "", false},
		{"List of devices attached", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		serial, ok := parseDeviceLine(tt.line)
		if serial != tt.serial || ok != tt.ok {
			t.Errorf("parseDeviceLine(%q) = (%q, %v), want (%q, %v)", tt.line, serial, ok, tt.serial, tt.ok)
		}
	}
}

func TestListImagesSkipsBannerAndBlanks(t *testing.T) {
	runner := &toolchain.FakeRunner{
		Results: map[string]toolchain.Result{
			"emulator -list-avds": {Stdout: "INFO    | Storing crashdata in: /tmp\nPixel_7_API_34\n\nPixel_Tablet_API_34\n"},
		},
	}
	r := NewRegistry(runner, &toolchain.Toolchain{Emulator: "emulator"})

	images := r.ListImages(context.Background())
	want := []string{"Pixel_7_API_34", "Pixel_Tablet_API_34"}
	if len(images) != len(want) {
		t.Fatalf("images = %v, want %v", images, want)
	}
	for i := range want {
		if images[i] != want[i] {
			t.Errorf("images[%d] = %q, want %q", i, images[i], want[i])
		}
	}
}

func TestListConnectedParsesMachineOutput(t *testing.T) {
	out := `[
		{"id":"emulator-5554","name":"Android SDK built for arm64","targetPlatform":"android-arm64","emulator":true},
		{"id":"chrome","name":"Chrome","targetPlatform":"web-javascript","emulator":false}
	]`
	runner := &toolchain.FakeRunner{
		Results: map[string]toolchain.Result{
			"flutter devices --machine": {Stdout: out},
		},
	}
	r := NewRegistry(runner, &toolchain.Toolchain{Flutter: "flutter"})

	devices := r.ListConnected(context.Background())
	if len(devices) != 2 {
		t.Fatalf("devices = %v, want 2 entries", devices)
	}
	if devices[0].ID != "emulator-5554" || !devices[0].Emulator {
		t.Errorf("devices[0] = %+v, want emulator-5554 marked as emulator", devices[0])
	}
	if devices[1].ID != "chrome" || devices[1].Emulator {
		t.Errorf("devices[1] = %+v, want chrome not marked as emulator", devices[1])
	}
}

func TestListConnectedFailsSoftOnBadJSON(t *testing.T) {
	runner := &toolchain.FakeRunner{
		Results: map[string]toolchain.Result{
			"flutter devices --machine": {Stdout: "Waiting for another flutter command to release the startup lock"},
		},
	}
	r := NewRegistry(runner, &toolchain.Toolchain{Flutter: "flutter"})

	if devices := r.ListConnected(context.Background()); len(devices) != 0 {
		t.Errorf("devices = %v, want empty on unparseable output", devices)
	}
}
