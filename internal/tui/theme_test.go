package tui

import (
	"testing"

	"github.com/muesli/termenv"
)

func TestUpgradeProfile(t *testing.T) {
	tests := []struct {
		name      string
		detected  termenv.Profile
		term      string
		colorterm string
		want      termenv.Profile
	}{
		{"truecolor claim", termenv.ANSI256, "xterm", "truecolor", termenv.TrueColor},
		{"256color term", termenv.ANSI, "xterm-256color", "", termenv.ANSI256},
		{"no claim", termenv.ANSI, "xterm", "", termenv.ANSI},
		{"monochrome stays", termenv.Ascii, "xterm-256color", "24bit", termenv.Ascii},
		{"never downgrade", termenv.TrueColor, "xterm-256color", "", termenv.TrueColor},
	}
	for _, tt := range tests {
		if got := upgradeProfile(tt.detected, tt.term, tt.colorterm); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDarkFromColorFGBG(t *testing.T) {
	tests := []struct {
		in       string
		dark, ok bool
	}{
		{"15;0", true, true},
		{"0;15", false, true},
		{"15;default;0", true, true},
		{"7;8", true, true},
		{"", false, false},
		{"15;x", false, false},
	}
	for _, tt := range tests {
		dark, ok := darkFromColorFGBG(tt.in)
		if dark != tt.dark || ok != tt.ok {
			t.Errorf("darkFromColorFGBG(%q) = %v,%v; want %v,%v", tt.in, dark, ok, tt.dark, tt.ok)
		}
	}
}
