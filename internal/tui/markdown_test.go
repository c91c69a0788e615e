package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/glamour/styles"
)

func TestDarkMarkdown_FollowsThemeEnv(t *testing.T) {
	t.Setenv("MAILTASKS_TUI_THEME", "light")
	if darkMarkdown() {
		t.Fatalf("expected light")
	}
	t.Setenv("MAILTASKS_TUI_THEME", "dark")
	if !darkMarkdown() {
		t.Fatalf("expected dark")
	}
}

func TestSummaryStyle_RecolorsText(t *testing.T) {
	got := summaryStyle(true)
	if got.Text.Color == nil || *got.Text.Color != colorSurfaceFg.Dark {
		t.Fatalf("expected text color aligned with surface")
	}
	if (got.Link.Color == nil) != (styles.DarkStyleConfig.Link.Color == nil) {
		t.Fatalf("link style should be untouched")
	}
	if got.Document.Margin == nil || *got.Document.Margin != 0 {
		t.Fatalf("expected zero document margin")
	}
	if styles.DarkStyleConfig.Document.Margin != nil && *styles.DarkStyleConfig.Document.Margin == 0 {
		t.Fatalf("stock style must not be mutated")
	}
}

func TestRenderMarkdown_RendersSummaryText(t *testing.T) {
	t.Setenv("MAILTASKS_TUI_THEME", "dark")
	out := stripANSI(renderMarkdown("**Revisar** contrato com o *jurídico*", 40))
	if !strings.Contains(out, "Revisar") || !strings.Contains(out, "jurídico") {
		t.Fatalf("expected rendered summary text, got %q", out)
	}
	if strings.Contains(out, "**") {
		t.Fatalf("expected markdown markers to be rendered, got %q", out)
	}
	if renderMarkdown("   ", 40) != "" {
		t.Fatalf("expected blank input to render empty")
	}
}
