package emulator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fluttermcp/cli/internal/toolchain"
)

// fakeLister is a scripted deviceLister.
type fakeLister struct {
	running map[string]bool
	images  []string
}

func (f *fakeLister) ListRunning(ctx context.Context) map[string]bool { return f.running }
func (f *fakeLister) ListImages(ctx context.Context) []string         { return f.images }

func newTestOrchestrator(lister deviceLister, runner toolchain.Runner) *Orchestrator {
	return &Orchestrator{
		registry:    lister,
		runner:      runner,
		tc:          &toolchain.Toolchain{Emulator: "emulator", ADB: "adb"},
		probe:       func(ctx context.Context) (string, error) { return "1", nil },
		interval:    time.Millisecond,
		maxAttempts: 5,
	}
}

func TestEnsureRunningIsIdempotent(t *testing.T) {
	runner := &toolchain.FakeRunner{}
	orch := newTestOrchestrator(&fakeLister{running: map[string]bool{"emulator-5554": true}}, runner)

	// A different preferred image must not trigger a second launch.
	if err := orch.EnsureRunning(context.Background(), "Pixel_Tablet_API_34"); err != nil {
		t.Fatalf("EnsureRunning returned error: %v", err)
	}
	if len(runner.Background) != 0 {
		t.Errorf("launched %v, want no launches with a running emulator", runner.Background)
	}
}

func TestEnsureRunningNoImages(t *testing.T) {
	orch := newTestOrchestrator(&fakeLister{}, &toolchain.FakeRunner{})

	err := orch.EnsureRunning(context.Background(), "")
	if !errors.Is(err, ErrNoImages) {
		t.Errorf("error = %v, want ErrNoImages", err)
	}
}

func TestEnsureRunningUnknownImage(t *testing.T) {
	runner := &toolchain.FakeRunner{}
	orch := newTestOrchestrator(&fakeLister{images: []string{"Pixel_7_API_34"}}, runner)

	err := orch.EnsureRunning(context.Background(), "Nexus_5")
	var notFound *ImageNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want *ImageNotFoundError", err)
	}
	if notFound.Image != "Nexus_5" {
		t.Errorf("notFound.Image = %q, want Nexus_5", notFound.Image)
	}
	if len(notFound.Available) != 1 || notFound.Available[0] != "Pixel_7_API_34" {
		t.Errorf("notFound.Available = %v, want the installed images", notFound.Available)
	}
	if len(runner.Background) != 0 {
		t.Errorf("launched %v, want no launch for an unknown image", runner.Background)
	}
}

func TestEnsureRunningLaunchesAndWaits(t *testing.T) {
	runner := &toolchain.FakeRunner{}
	orch := newTestOrchestrator(&fakeLister{images: []string{"Pixel_7_API_34", "Pixel_Tablet_API_34"}}, runner)

	if err := orch.EnsureRunning(context.Background(), "Pixel_Tablet_API_34"); err != nil {
		t.Fatalf("EnsureRunning returned error: %v", err)
	}
	if len(runner.Background) != 1 || runner.Background[0] != "emulator -avd Pixel_Tablet_API_34" {
		t.Errorf("launches = %v, want exactly one launch of the preferred image", runner.Background)
	}
}

func TestEnsureRunningDefaultsToFirstImage(t *testing.T) {
	runner := &toolchain.FakeRunner{}
	orch := newTestOrchestrator(&fakeLister{images: []string{"Pixel_7_API_34", "Pixel_Tablet_API_34"}}, runner)

	if err := orch.EnsureRunning(context.Background(), ""); err != nil {
		t.Fatalf("EnsureRunning returned error: %v", err)
	}
	if len(runner.Background) != 1 || runner.Background[0] != "emulator -avd Pixel_7_API_34" {
		t.Errorf("launches = %v, want the first installed image", runner.Background)
	}
}

func TestEnsureRunningLaunchFailure(t *testing.T) {
	runner := &toolchain.FakeRunner{BackgroundErr: errors.New("exec format error")}
	orch := newTestOrchestrator(&fakeLister{images: []string{"Pixel_7_API_34"}}, runner)

	err := orch.EnsureRunning(context.Background(), "")
	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("error = %v, want *LaunchError", err)
	}
	if launchErr.Image != "Pixel_7_API_34" {
		t.Errorf("launchErr.Image = %q, want Pixel_7_API_34", launchErr.Image)
	}
}

func TestEnsureRunningBootTimeout(t *testing.T) {
	runner := &toolchain.FakeRunner{}
	orch := newTestOrchestrator(&fakeLister{images: []string{"Pixel_7_API_34"}}, runner)
	orch.probe = func(ctx context.Context) (string, error) { return "0", nil }

	err := orch.EnsureRunning(context.Background(), "")
	var timeout *BootTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("error = %v, want *BootTimeoutError", err)
	}
}
