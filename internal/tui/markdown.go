package tui

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

type rendererKey struct {
	dark  bool
	width int
}

// Glamour renderers are slow to build and WithAutoStyle queries the
// terminal, so one is kept per theme and wrap width.
var summaryRenderers = struct {
	sync.Mutex
	m map[rendererKey]*glamour.TermRenderer
}{m: map[rendererKey]*glamour.TermRenderer{}}

// renderMarkdown renders a formatted task summary. Renderer errors fall back
// to the source text.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	r, err := summaryRenderer(rendererKey{dark: darkMarkdown(), width: max(width, 10)})
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func summaryRenderer(k rendererKey) (*glamour.TermRenderer, error) {
	summaryRenderers.Lock()
	defer summaryRenderers.Unlock()
	if r, ok := summaryRenderers.m[k]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(summaryStyle(k.dark)),
		glamour.WithWordWrap(k.width),
	)
	if err != nil {
		return nil, err
	}
	summaryRenderers.m[k] = r
	return r, nil
}

// darkMarkdown follows MAILTASKS_TUI_THEME, then the detected background.
func darkMarkdown() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MAILTASKS_TUI_THEME"))) {
	case "light":
		return false
	case "dark":
		return true
	}
	return lipgloss.HasDarkBackground()
}

// summaryStyle is glamour's stock style recolored to the board palette,
// without a document margin: the detail pane already pads.
func summaryStyle(dark bool) ansi.StyleConfig {
	cfg := styles.LightStyleConfig
	if dark {
		cfg = styles.DarkStyleConfig
	}
	pick := func(c lipgloss.AdaptiveColor) *string {
		v := c.Light
		if dark {
			v = c.Dark
		}
		return &v
	}

	var margin uint
	cfg.Document.Margin = &margin

	fg := pick(colorSurfaceFg)
	for _, b := range []*ansi.StyleBlock{&cfg.Document, &cfg.Heading, &cfg.H1, &cfg.H2, &cfg.H3} {
		b.Color = fg
	}
	cfg.Text.Color = fg
	cfg.Code.Color = fg
	cfg.CodeBlock.Color = fg
	if cfg.CodeBlock.BackgroundColor == nil {
		cfg.CodeBlock.BackgroundColor = pick(colorControlBg)
	}
	// Bold and italic keep the surrounding color.
	cfg.Strong.Color = nil
	cfg.Emph.Color = nil
	cfg.Item.BlockPrefix = glyphBullet() + " "
	return cfg
}
