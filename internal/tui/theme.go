package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"mailtasks-cli/internal/model"
)

// Theme/palette helpers.
//
// The TUI must remain readable on both light and dark terminal backgrounds.
// Colors are lipgloss.AdaptiveColor and "faint" is only applied on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted         = ac("240", "243")
	colorChromeMutedFg = ac("240", "245")
	colorSelectedBg    = ac("#e9e9e9", "#262626")
	colorSelectedFg    = ac("235", "255")
	colorSurfaceFg     = ac("235", "252")
	colorControlBg     = ac("252", "235")
	colorAccent        = ac("27", "62")
	colorAccentFg      = ac("255", "235")
	colorCardBorder    = ac("250", "243")

	colorUrgent  = ac("160", "203")
	colorMedium  = ac("136", "221")
	colorRoutine = ac("28", "114")

	colorToastInfoBg  = ac("254", "236")
	colorToastErrorBg = ac("196", "160")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleHeading() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorChromeMutedFg).Bold(true)
}

func urgencyColor(u model.Urgency) lipgloss.TerminalColor {
	switch u {
	case model.UrgencyUrgent:
		return colorUrgent
	case model.UrgencyMedium:
		return colorMedium
	case model.UrgencyRoutine:
		return colorRoutine
	default:
		return colorMuted
	}
}

// applyColorProfilePreference sets Lip Gloss's color profile. Only NO_COLOR
// disables color; termenv's CLICOLOR handling is bypassed on purpose.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(upgradeProfile(termenv.ColorProfile(), os.Getenv("TERM"), os.Getenv("COLORTERM")))
}

// upgradeProfile trusts TERM/COLORTERM when they claim more colors than the
// detector found. A terminal detected as monochrome stays monochrome.
func upgradeProfile(detected termenv.Profile, term, colorterm string) termenv.Profile {
	if detected == termenv.Ascii {
		return detected
	}
	colorterm = strings.ToLower(colorterm)
	switch {
	case strings.Contains(colorterm, "truecolor"), strings.Contains(colorterm, "24bit"):
		return termenv.TrueColor
	case strings.Contains(strings.ToLower(term), "256color") && detected == termenv.ANSI:
		return termenv.ANSI256
	}
	return detected
}

// applyThemePreference sets background detection from MAILTASKS_TUI_THEME
// (light|dark|auto), then the COLORFGBG hint.
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MAILTASKS_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	if dark, ok := darkFromColorFGBG(os.Getenv("COLORFGBG")); ok {
		lipgloss.SetHasDarkBackground(dark)
	}
}

// darkFromColorFGBG reads the background index of a "fg;bg" or
// "fg;default;bg" value. Indexes 0-6 and 8 are dark.
func darkFromColorFGBG(v string) (dark, ok bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return false, false
	}
	parts := strings.Split(v, ";")
	bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return false, false
	}
	return bg < 7 || bg == 8, true
}
