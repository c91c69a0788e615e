package tui

import xansi "github.com/charmbracelet/x/ansi"

// stripANSI removes escape sequences, e.g. to measure or assert on rendered text.
func stripANSI(s string) string {
	return xansi.Strip(s)
}

// truncate cuts s to width cells, appending an ellipsis when it had to cut.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return xansi.Truncate(s, width, "…")
}
