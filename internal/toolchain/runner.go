package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Result holds the captured output of a finished external command.
type Result struct {
	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error.
	Stderr string

	// ExitCode is the process exit code (0 on success).
	ExitCode int
}

// RunError is returned when an external command exits non-zero.
// It carries the captured stderr so callers can surface remediation text.
type RunError struct {
	// Command is the command line that failed, for log messages.
	Command string

	// ExitCode is the non-zero exit code.
	ExitCode int

	// Stderr is the captured standard error output.
	Stderr string
}

// Error implements the error interface.
func (e *RunError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.ExitCode, msg)
}

// Runner executes external SDK commands. The interface exists so that
// device and fix logic can be tested with a fake.
type Runner interface {
	// Output runs a command to completion in dir (empty for inherited cwd)
	// and captures stdout, stderr, and the exit code. A non-zero exit is
	// reported through Result.ExitCode, not through the error; the error is
	// reserved for failures to start or context cancellation.
	Output(ctx context.Context, dir, name string, args ...string) (Result, error)

	// RunSilent runs a command discarding stdout. A non-zero exit is
	// converted into a *RunError carrying the captured stderr.
	RunSilent(ctx context.Context, dir, name string, args ...string) error

	// StartBackground launches a command detached, capturing no output.
	// The only error is a failure to start the process at all.
	StartBackground(dir, name string, args ...string) error
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct{}

var _ Runner = &ExecRunner{}

// Output runs a command and captures both streams and the exit code.
func (r *ExecRunner) Output(ctx context.Context, dir, name string, args ...string) (Result, error) {
	log.Debug("Running command", "name", name, "args", args, "dir", dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// Non-zero exit: reported through the result, not the error.
			return res, nil
		}
		return res, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return res, nil
}

// RunSilent runs a command and converts a non-zero exit into a *RunError.
func (r *ExecRunner) RunSilent(ctx context.Context, dir, name string, args ...string) error {
	res, err := r.Output(ctx, dir, name, args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &RunError{Command: name, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return nil
}

// StartBackground launches a command detached with no output capture.
func (r *ExecRunner) StartBackground(dir, name string, args ...string) error {
	log.Debug("Starting background command", "name", name, "args", args)

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}

	// Reap the process when it eventually exits so it does not linger
	// as a zombie. The command itself outlives this call.
	go func() { _ = cmd.Wait() }()

	return nil
}

// Detached is a started child process with its standard streams piped
// for asynchronous monitoring.
type Detached struct {
	// Cmd is the underlying started command.
	Cmd *exec.Cmd

	// Stdout is the child's standard output pipe.
	Stdout io.ReadCloser

	// Stderr is the child's standard error pipe.
	Stderr io.ReadCloser

	// Stdin is the child's standard input pipe.
	Stdin io.WriteCloser
}

// StartDetached launches a command with all three standard streams piped.
// The child's lifetime is independent of the caller; stdout/stderr are
// consumed by a monitor and stdin stays open for interactive keystrokes
// (Flutter's hot reload reads "r" from stdin).
func StartDetached(dir, name string, args ...string) (*Detached, error) {
	log.Debug("Starting detached command", "name", name, "args", args, "dir", dir)

	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	return &Detached{Cmd: cmd, Stdout: stdout, Stderr: stderr, Stdin: stdin}, nil
}
