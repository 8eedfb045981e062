package emulator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// BootState is the outcome of a boot wait.
type BootState int

const (
	// Booting means the wait was interrupted before a verdict.
	Booting BootState = iota

	// Booted means the device reported boot completion.
	Booted

	// TimedOut means the attempt budget was exhausted.
	TimedOut
)

// String returns a human-readable state name.
func (s BootState) String() string {
	switch s {
	case Booted:
		return "booted"
	case TimedOut:
		return "timed out"
	default:
		return "booting"
	}
}

// bootedSentinel is the trimmed value of sys.boot_completed on a fully
// booted Android device.
const bootedSentinel = "1"

// Default boot wait calibration: 60 attempts at 2s ≈ a 2 minute bound.
const (
	DefaultBootInterval    = 2 * time.Second
	DefaultBootMaxAttempts = 60
)

// Probe is a point-in-time boot-completion check. It returns the raw
// device property output; errors are treated as "not yet booted".
type Probe func(ctx context.Context) (string, error)

// BootTimeoutError is returned when the boot wait exhausts its attempts.
type BootTimeoutError struct {
	// Attempts is the number of probe attempts made.
	Attempts int

	// Interval is the polling interval that was used.
	Interval time.Duration
}

// Error implements the error interface.
func (e *BootTimeoutError) Error() string {
	return fmt.Sprintf("emulator did not finish booting after %d checks over %s", e.Attempts, time.Duration(e.Attempts)*e.Interval)
}

// WaitForBoot polls probe every interval until the device reports boot
// completion or maxAttempts ticks have elapsed.
//
// Probe errors are swallowed and retried: right after launch the device
// is often not yet reachable over adb, and a transient failure carries
// the same meaning as "not booted yet". Only attempt exhaustion is a hard
// failure. Cancelling ctx aborts the wait early with ctx.Err().
func WaitForBoot(ctx context.Context, probe Probe, interval time.Duration, maxAttempts int) (BootState, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return Booting, ctx.Err()
		case <-time.After(interval):
		}

		out, err := probe(ctx)
		if err != nil {
			log.Debug("Boot probe not ready", "attempt", attempt, "error", err)
			continue
		}
		if strings.TrimSpace(out) == bootedSentinel {
			log.Debug("Device reported boot completion", "attempt", attempt)
			return Booted, nil
		}
		log.Debug("Device still booting", "attempt", attempt)
	}

	return TimedOut, &BootTimeoutError{Attempts: maxAttempts, Interval: interval}
}
