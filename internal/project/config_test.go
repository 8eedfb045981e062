package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigRoundTrip(t *testing.T) {
	root := t.TempDir()

	cfg := &Config{
		Project: ProjectInfo{Name: "demo_app", Org: "com.example"},
		Device:  DeviceConfig{PreferredImage: "Pixel_7_API_34"},
		Run:     RunConfig{Flavor: "dev", ExtraArgs: []string{"--dart-define=ENV=dev"}},
		Watch:   WatchConfig{Enabled: true, DebounceMS: 150},
	}
	if err := cfg.SaveConfig(root); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Project.Name != "demo_app" || loaded.Project.Org != "com.example" {
		t.Errorf("project = %+v, want the saved identity", loaded.Project)
	}
	if loaded.Device.PreferredImage != "Pixel_7_API_34" {
		t.Errorf("preferred image = %q", loaded.Device.PreferredImage)
	}
	if loaded.Run.Flavor != "dev" || len(loaded.Run.ExtraArgs) != 1 {
		t.Errorf("run config = %+v", loaded.Run)
	}
	if !loaded.Watch.Enabled || loaded.Watch.DebounceMS != 150 {
		t.Errorf("watch config = %+v", loaded.Watch)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	if !os.IsNotExist(err) {
		t.Errorf("error = %v, want not-exist", err)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ConfigDir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(root), []byte("project: [not a mapping"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(root); err == nil {
		t.Error("LoadConfig accepted malformed YAML")
	}
}

func TestWatchDebounceDefault(t *testing.T) {
	if got := (WatchConfig{}).Debounce(); got != 300*time.Millisecond {
		t.Errorf("default debounce = %v, want 300ms", got)
	}
	if got := (WatchConfig{DebounceMS: 50}).Debounce(); got != 50*time.Millisecond {
		t.Errorf("debounce = %v, want 50ms", got)
	}
	if got := (WatchConfig{DebounceMS: -1}).Debounce(); got != 300*time.Millisecond {
		t.Errorf("negative debounce = %v, want the default", got)
	}
}
