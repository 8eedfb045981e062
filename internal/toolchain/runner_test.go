package toolchain

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRunErrorMessage(t *testing.T) {
	withStderr := &RunError{Command: "flutter create", ExitCode: 64, Stderr: "  Invalid project name.  \n"}
	if got := withStderr.Error(); !strings.Contains(got, "code 64") || !strings.Contains(got, "Invalid project name.") {
		t.Errorf("Error() = %q, want exit code and trimmed stderr", got)
	}

	bare := &RunError{Command: "adb", ExitCode: 1}
	if got := bare.Error(); got != "adb exited with code 1" {
		t.Errorf("Error() = %q, want bare exit message", got)
	}
}

func TestFakeRunnerScriptedResults(t *testing.T) {
	runner := &FakeRunner{
		Results: map[string]Result{
			"flutter pub get": {ExitCode: 65, Stderr: "version solving failed"},
		},
		Errs: map[string]error{
			"flutter doctor": errors.New("context cancelled"),
		},
		Default: Result{Stdout: "default"},
	}

	res, err := runner.Output(context.Background(), "", "flutter", "pub", "get")
	if err != nil || res.ExitCode != 65 {
		t.Errorf("Output = (%+v, %v), want scripted exit 65", res, err)
	}

	if _, err := runner.Output(context.Background(), "", "flutter", "doctor"); err == nil {
		t.Error("Output for scripted error returned nil")
	}

	res, err = runner.Output(context.Background(), "", "adb", "devices")
	if err != nil || res.Stdout != "default" {
		t.Errorf("Output = (%+v, %v), want the default result", res, err)
	}

	want := []string{"flutter pub get", "flutter doctor", "adb devices"}
	if len(runner.Calls) != len(want) {
		t.Fatalf("Calls = %v, want %v", runner.Calls, want)
	}
	for i := range want {
		if runner.Calls[i] != want[i] {
			t.Errorf("Calls[%d] = %q, want %q", i, runner.Calls[i], want[i])
		}
	}
}

func TestFakeRunnerRunSilentConvertsExitCode(t *testing.T) {
	runner := &FakeRunner{
		Results: map[string]Result{
			"adb kill-server": {ExitCode: 1, Stderr: "no server"},
		},
	}

	err := runner.RunSilent(context.Background(), "", "adb", "kill-server")
	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("error = %v, want *RunError", err)
	}
	if runErr.ExitCode != 1 || runErr.Stderr != "no server" {
		t.Errorf("runErr = %+v, want exit 1 with stderr", runErr)
	}

	if err := runner.RunSilent(context.Background(), "", "adb", "start-server"); err != nil {
		t.Errorf("RunSilent for zero exit returned %v", err)
	}
}

func TestFakeRunnerRecordsBackgroundLaunches(t *testing.T) {
	runner := &FakeRunner{}
	if err := runner.StartBackground("", "emulator", "-avd", "Pixel_7_API_34"); err != nil {
		t.Fatalf("StartBackground failed: %v", err)
	}
	if len(runner.Background) != 1 || runner.Background[0] != "emulator -avd Pixel_7_API_34" {
		t.Errorf("Background = %v, want the recorded launch", runner.Background)
	}

	runner.BackgroundErr = errors.New("exec format error")
	if err := runner.StartBackground("", "emulator", "-avd", "x"); err == nil {
		t.Error("StartBackground ignored the scripted error")
	}
}
