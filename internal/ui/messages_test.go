package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestPadMeasuresDisplayWidth(t *testing.T) {
	tests := []struct {
		in    string
		width int
	}{
		{"plain", 10},
		{"sdk gphone64 • arm64", 25},
		{"Pixel 7 — Gerät", 20},
		{"exact", 5},
		{"wider than asked", 4},
	}
	for _, tt := range tests {
		got := pad(tt.in, tt.width)
		want := tt.width
		if lipgloss.Width(tt.in) > tt.width {
			want = lipgloss.Width(tt.in)
		}
		if lipgloss.Width(got) != want {
			t.Errorf("pad(%q, %d) has display width %d, want %d", tt.in, tt.width, lipgloss.Width(got), want)
		}
	}
}
