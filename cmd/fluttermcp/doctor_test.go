package main

import (
	"encoding/json"
	"testing"
)

func TestFirstLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Flutter 3.24.0 • channel stable\nTools • Dart 3.5.0\n", "Flutter 3.24.0 • channel stable"},
		{"\n\n  padded  \n", "padded"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := firstLine(tt.in); got != tt.want {
			t.Errorf("firstLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDoctorResultJSONShape(t *testing.T) {
	result := DoctorResult{
		Checks: []DoctorCheck{
			{Name: "Flutter SDK", Status: "ok", Message: "/usr/bin/flutter"},
			{Name: "Android Debug Bridge", Status: "error", Message: "adb not found"},
		},
		Issues:  1,
		Healthy: false,
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if parsed["healthy"] != false {
		t.Errorf("healthy = %v, want false", parsed["healthy"])
	}
	checks, ok := parsed["checks"].([]any)
	if !ok || len(checks) != 2 {
		t.Errorf("checks = %v, want two entries", parsed["checks"])
	}
}
