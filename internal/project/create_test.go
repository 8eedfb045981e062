package project

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fluttermcp/cli/internal/toolchain"
)

func TestCreateRejectsInvalidNames(t *testing.T) {
	tc := &toolchain.Toolchain{Flutter: "flutter"}
	names := []string{"", "MyApp", "1app", "my-app", "my app"}
	for _, name := range names {
		_, err := Create(context.Background(), &toolchain.FakeRunner{}, tc, CreateParams{Name: name})
		if err == nil {
			t.Errorf("Create accepted invalid name %q", name)
		}
	}
}

func TestCreateRequiresFlutter(t *testing.T) {
	_, err := Create(context.Background(), &toolchain.FakeRunner{}, &toolchain.Toolchain{}, CreateParams{Name: "demo_app"})
	if err == nil || !strings.Contains(err.Error(), "flutter") {
		t.Errorf("error = %v, want a missing-flutter message", err)
	}
}

func TestCreateRejectsExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "demo_app"), 0o755); err != nil {
		t.Fatal(err)
	}

	tc := &toolchain.Toolchain{Flutter: "flutter"}
	_, err := Create(context.Background(), &toolchain.FakeRunner{}, tc, CreateParams{Dir: dir, Name: "demo_app"})
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error = %v, want already-exists", err)
	}
}

func TestCreateScaffoldsAndWritesConfig(t *testing.T) {
	dir := t.TempDir()
	runner := &toolchain.FakeRunner{}
	tc := &toolchain.Toolchain{Flutter: "flutter"}

	root, err := Create(context.Background(), runner, tc, CreateParams{
		Dir:       dir,
		Name:      "demo_app",
		Org:       "com.example",
		Platforms: "android,ios",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if root != filepath.Join(dir, "demo_app") {
		t.Errorf("root = %q, want %q", root, filepath.Join(dir, "demo_app"))
	}

	if len(runner.Calls) != 1 {
		t.Fatalf("calls = %v, want one flutter create", runner.Calls)
	}
	call := runner.Calls[0]
	for _, fragment := range []string{"flutter create", "--project-name demo_app", "--org com.example", "--platforms android,ios"} {
		if !strings.Contains(call, fragment) {
			t.Errorf("call %q missing %q", call, fragment)
		}
	}

	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Project.Name != "demo_app" || cfg.Project.Org != "com.example" {
		t.Errorf("config project = %+v", cfg.Project)
	}
	if cfg.CreatedAt == "" {
		t.Error("config created_at is empty")
	}

	if _, err := os.Stat(filepath.Join(root, ".vscode", "launch.json")); err != nil {
		t.Errorf("launch.json not written: %v", err)
	}
}

func TestCreateSurfacesScaffoldingFailure(t *testing.T) {
	dir := t.TempDir()
	runner := &toolchain.FakeRunner{Default: toolchain.Result{ExitCode: 64, Stderr: "Invalid project name"}}
	tc := &toolchain.Toolchain{Flutter: "flutter"}

	_, err := Create(context.Background(), runner, tc, CreateParams{Dir: dir, Name: "demo_app"})
	if err == nil || !strings.Contains(err.Error(), "Invalid project name") {
		t.Errorf("error = %v, want the tool stderr surfaced", err)
	}
}

func TestReadPubspec(t *testing.T) {
	root := t.TempDir()
	pubspec := "name: demo_app\ndescription: A demo.\nversion: 1.0.0+1\n"
	if err := os.WriteFile(filepath.Join(root, "pubspec.yaml"), []byte(pubspec), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := ReadPubspec(root)
	if err != nil {
		t.Fatalf("ReadPubspec failed: %v", err)
	}
	if p.Name != "demo_app" || p.Description != "A demo." || p.Version != "1.0.0+1" {
		t.Errorf("pubspec = %+v", p)
	}

	if !IsFlutterProject(root) {
		t.Error("IsFlutterProject = false, want true")
	}
	if IsFlutterProject(t.TempDir()) {
		t.Error("IsFlutterProject = true for an empty directory")
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName("demo_app"); got != "demo-app (debug)" {
		t.Errorf("displayName = %q", got)
	}
}
