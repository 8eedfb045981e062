package toolchain

import (
	"context"
	"strings"
)

// FakeRunner is a scripted Runner for tests. Each expected command line is
// keyed by its joined name+args; unmatched commands fall back to Default.
type FakeRunner struct {
	// Results maps "name arg1 arg2" to the canned result.
	Results map[string]Result

	// Errs maps "name arg1 arg2" to an error returned instead of a result.
	Errs map[string]error

	// Default is returned for commands with no scripted entry.
	Default Result

	// Background records every StartBackground command line.
	Background []string

	// BackgroundErr, when set, is returned from StartBackground.
	BackgroundErr error

	// Calls records every Output/RunSilent command line in order.
	Calls []string
}

var _ Runner = &FakeRunner{}

func key(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// Output returns the scripted result for the command line.
func (f *FakeRunner) Output(ctx context.Context, dir, name string, args ...string) (Result, error) {
	k := key(name, args)
	f.Calls = append(f.Calls, k)
	if err, ok := f.Errs[k]; ok {
		return Result{}, err
	}
	if res, ok := f.Results[k]; ok {
		return res, nil
	}
	return f.Default, nil
}

// RunSilent mirrors ExecRunner's non-zero-exit-to-error conversion.
func (f *FakeRunner) RunSilent(ctx context.Context, dir, name string, args ...string) error {
	res, err := f.Output(ctx, dir, name, args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &RunError{Command: name, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return nil
}

// StartBackground records the launch without starting anything.
func (f *FakeRunner) StartBackground(dir, name string, args ...string) error {
	if f.BackgroundErr != nil {
		return f.BackgroundErr
	}
	f.Background = append(f.Background, key(name, args))
	return nil
}
