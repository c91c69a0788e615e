package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mailtasks-cli/internal/mailbody"
	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/statusutil"
)

// renderDetail renders the full task: header fields, the formatted summary
// and the original email body as plain text.
func renderDetail(t model.Task, width int) string {
	if width < 20 {
		width = 20
	}
	label := lipgloss.NewStyle().Foreground(colorChromeMutedFg).Width(12)
	value := lipgloss.NewStyle().Foreground(colorSurfaceFg).Width(width - 12)

	field := func(name, v string) string {
		if strings.TrimSpace(v) == "" {
			v = "-"
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, label.Render(name), value.Render(v))
	}

	urg := lipgloss.NewStyle().Foreground(urgencyColor(t.Urgency)).Bold(true).Render(string(t.Urgency))
	lines := []string{
		field("Task", "#"+t.ID.String()),
		lipgloss.JoinHorizontal(lipgloss.Top, label.Render("Urgency"), urg),
		field("Status", statusutil.Label(t.Status)),
		field("Category", t.Category),
		field("From", t.FromEmail),
		field("To", t.ToEmail),
		field("Received", formatReceived(t.ReceivedAt)),
		field("Subject", t.EmailSubject),
	}
	if msg := strings.TrimSpace(t.CompletionMessage); msg != "" {
		lines = append(lines, field("Completion", msg))
	}

	rule := styleMuted().Render(strings.Repeat(glyphHRule(), width))
	lines = append(lines, "", styleHeading().Render("Summary"), rule)
	summary := t.DisplaySummary()
	if strings.TrimSpace(t.AISummary) != "" {
		summary = renderMarkdown(summary, width)
	} else {
		summary = lipgloss.NewStyle().Width(width).Render(summary)
	}
	lines = append(lines, summary)

	if body := mailbody.PlainText(t.EmailBody); body != "" {
		lines = append(lines, "", styleHeading().Render("Original email"), rule)
		lines = append(lines, lipgloss.NewStyle().Width(width).Render(body))
	}
	return strings.Join(lines, "\n")
}
