package tui

import (
	"os"
	"strings"
	"sync/atomic"
)

// Box-drawing and bullet glyphs don't render cleanly on every terminal
// font; the ASCII set is selected with config (tui.glyphs) or
// MAILTASKS_TUI_GLYPHS.

type glyphSet int32

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

type glyphTable struct {
	bullet, arrow, hrule, bar, check string
}

var glyphTables = [...]glyphTable{
	glyphSetUnicode: {bullet: "•", arrow: "→", hrule: "─", bar: "█", check: "✓"},
	glyphSetASCII:   {bullet: "*", arrow: "->", hrule: "-", bar: "#", check: "x"},
}

var currentGlyphs atomic.Int32

func parseGlyphSet(v string) (glyphSet, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "unicode", "utf8":
		return glyphSetUnicode, true
	case "ascii":
		return glyphSetASCII, true
	}
	return 0, false
}

// applyGlyphPreference applies the configured value, then the env override.
// Unknown or empty values leave the current set alone.
func applyGlyphPreference(configured string) {
	for _, v := range []string{configured, os.Getenv("MAILTASKS_TUI_GLYPHS")} {
		if gs, ok := parseGlyphSet(v); ok {
			setGlyphs(gs)
		}
	}
}

func setGlyphs(gs glyphSet) { currentGlyphs.Store(int32(gs)) }

func glyphs() glyphSet { return glyphSet(currentGlyphs.Load()) }

func glyph() glyphTable { return glyphTables[glyphs()] }

func glyphBullet() string { return glyph().bullet }
func glyphArrow() string  { return glyph().arrow }
func glyphHRule() string  { return glyph().hrule }
func glyphBar() string    { return glyph().bar }
func glyphCheck() string  { return glyph().check }
