package emulator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fluttermcp/cli/internal/toolchain"
)

// ErrNoImages is returned when no virtual device image is installed.
var ErrNoImages = errors.New("no emulator images available; create one with Android Studio's Device Manager or avdmanager")

// ImageNotFoundError is returned when a requested image is not installed.
type ImageNotFoundError struct {
	// Image is the requested image name.
	Image string

	// Available lists the installed images as remediation.
	Available []string
}

// Error implements the error interface.
func (e *ImageNotFoundError) Error() string {
	return fmt.Sprintf("emulator image %q not found; available: %s", e.Image, strings.Join(e.Available, ", "))
}

// LaunchError is returned when the emulator process cannot even start.
type LaunchError struct {
	// Image is the image that failed to launch.
	Image string

	// Err is the underlying start failure.
	Err error
}

// Error implements the error interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch emulator image %q: %v", e.Image, e.Err)
}

// Unwrap returns the underlying error.
func (e *LaunchError) Unwrap() error { return e.Err }

// deviceLister is the registry surface the orchestrator depends on.
type deviceLister interface {
	ListRunning(ctx context.Context) map[string]bool
	ListImages(ctx context.Context) []string
}

// Orchestrator guarantees that a virtual device is running before an app
// launch proceeds.
//
// EnsureRunning is all-or-nothing from the caller's perspective: it either
// returns nil with a booted device available, or an error from the
// taxonomy above with no partial progress reported.
type Orchestrator struct {
	registry deviceLister
	runner   toolchain.Runner
	tc       *toolchain.Toolchain

	// probe overrides the default adb boot probe. Set by tests.
	probe Probe

	// interval and maxAttempts calibrate the boot wait.
	interval    time.Duration
	maxAttempts int

	// mu serializes bring-up so concurrent tool calls cannot double-launch.
	mu sync.Mutex
}

// NewOrchestrator creates an orchestrator with the default boot
// calibration (60 attempts at 2s).
func NewOrchestrator(registry *Registry, runner toolchain.Runner, tc *toolchain.Toolchain) *Orchestrator {
	return &Orchestrator{
		registry:    registry,
		runner:      runner,
		tc:          tc,
		interval:    DefaultBootInterval,
		maxAttempts: DefaultBootMaxAttempts,
	}
}

// EnsureRunning guarantees a running, fully booted emulator.
//
// If any emulator is already active the call is an idempotent no-op, even
// when preferred names a different image. Otherwise the preferred image
// (or the first available one) is launched detached and the call blocks
// until the device reports boot completion.
//
// Parameters:
//   - ctx: cancels the boot wait
//   - preferred: image name to launch, or "" for the first available
//
// Returns:
//   - error: nil on success; ErrNoImages, *ImageNotFoundError,
//     *LaunchError, or *BootTimeoutError on failure
func (o *Orchestrator) EnsureRunning(ctx context.Context, preferred string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Step 1: short-circuit if anything is already running.
	if running := o.registry.ListRunning(ctx); len(running) > 0 {
		log.Info("Emulator already running", "count", len(running))
		return nil
	}

	// Step 2: find launchable images.
	images := o.registry.ListImages(ctx)
	if len(images) == 0 {
		return ErrNoImages
	}
	log.Info("Found emulator images", "count", len(images))

	// Step 3: resolve the target image.
	target := images[0]
	if preferred != "" {
		if !contains(images, preferred) {
			return &ImageNotFoundError{Image: preferred, Available: images}
		}
		target = preferred
	}

	// Step 4: launch detached. Output is not captured; the emulator owns
	// its own lifetime from here on.
	log.Info("Launching emulator", "image", target)
	if err := o.runner.StartBackground("", o.tc.Emulator, "-avd", target); err != nil {
		return &LaunchError{Image: target, Err: err}
	}

	// Step 5: wait for boot completion.
	log.Info("Waiting for emulator to boot", "image", target)
	state, err := WaitForBoot(ctx, o.bootProbe(), o.interval, o.maxAttempts)
	if err != nil {
		return err
	}
	log.Info("Emulator ready", "image", target, "state", state.String())
	return nil
}

// bootProbe returns the configured probe, defaulting to the adb
// sys.boot_completed property query.
func (o *Orchestrator) bootProbe() Probe {
	if o.probe != nil {
		return o.probe
	}
	return func(ctx context.Context) (string, error) {
		res, err := o.runner.Output(ctx, "", o.tc.ADB, "shell", "getprop", "sys.boot_completed")
		if err != nil {
			return "", err
		}
		if res.ExitCode != 0 {
			return "", &toolchain.RunError{Command: "adb", ExitCode: res.ExitCode, Stderr: res.Stderr}
		}
		return res.Stdout, nil
	}
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
