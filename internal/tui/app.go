package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"mailtasks-cli/internal/dashboard"
	"mailtasks-cli/internal/lifecycle"
	"mailtasks-cli/internal/model"
)

func (m appModel) View() string {
	if m.width == 0 {
		return ""
	}
	var body string
	switch m.view {
	case viewDashboard:
		body = m.viewDashboard()
	case viewDetail:
		body = m.detail.View()
	default:
		body = m.viewTasks()
	}

	parts := []string{m.viewHeader()}
	if banner := m.viewBanner(); banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, body)
	if m.composing {
		parts = append(parts, m.viewCompose())
	}
	parts = append(parts, m.viewFooter())
	return strings.Join(parts, "\n")
}

func (m appModel) viewHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render("mailtasks")
	var right string
	switch m.view {
	case viewDashboard:
		right = styleHeading().Render("Dashboard")
	case viewDetail:
		right = styleHeading().Render("Task #" + m.openID.String())
	default:
		right = m.viewTabs()
	}
	busy := ""
	if len(m.inFlight) > 0 {
		busy = " " + m.spinner.View()
	}
	return title + busy + "  " + right
}

func (m appModel) viewTabs() string {
	active := lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(colorAccentFg).Background(colorAccent)
	idle := lipgloss.NewStyle().Padding(0, 1).Foreground(colorChromeMutedFg)
	var tabs []string
	for i, u := range model.Urgencies {
		label := fmt.Sprintf("%s (%d)", u, len(m.buckets.Get(u)))
		if i == m.bucket {
			tabs = append(tabs, active.Render(label))
			continue
		}
		tabs = append(tabs, idle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m appModel) viewBanner() string {
	st := lipgloss.NewStyle().Foreground(colorAccentFg).Background(colorToastErrorBg).Padding(0, 1)
	switch {
	case m.authExpired:
		return st.Render(m.opts.I18n.T("session_expired"))
	case m.snap.Err != nil:
		return st.Render(m.opts.I18n.TData("refresh_failed", map[string]any{"Reason": lifecycle.Reason(m.opts.I18n, m.snap.Err)}))
	}
	return ""
}

func (m appModel) viewTasks() string {
	if !m.snap.Loaded {
		return styleMuted().Render("Loading tasks…")
	}
	if len(m.list.Items()) == 0 {
		return styleMuted().Render("No pending tasks in " + string(m.currentBucket()) + ".")
	}
	return m.list.View()
}

func (m appModel) viewDashboard() string {
	d := m.dash
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCardBorder).
		Padding(0, 1)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card.Render(fmt.Sprintf("Total\n%d", d.Totals.Total)),
		card.Render(fmt.Sprintf("Pending\n%d", d.Totals.Pending)),
		card.Render(fmt.Sprintf("Completed\n%d", d.Totals.Completed)),
		card.Render(fmt.Sprintf("Urgent\n%d", d.Totals.Urgent)),
		card.Render(fmt.Sprintf("Completion\n%d%%", d.Totals.CompletionRate)),
	)

	lines := []string{cards, "", styleHeading().Render("Categories")}
	barW := m.width - 30
	if barW < 10 {
		barW = 10
	}
	for _, c := range d.Categories {
		lines = append(lines, categoryLine(c, barW))
	}
	if len(d.Categories) == 0 {
		lines = append(lines, styleMuted().Render("-"))
	}

	lines = append(lines, "", styleHeading().Render("Recent tasks"))
	for _, t := range d.Recent {
		line := fmt.Sprintf("%s %s", glyphBullet(), taskItem{task: t}.Title())
		lines = append(lines, truncate(line, m.width))
	}
	if len(d.Recent) == 0 {
		lines = append(lines, styleMuted().Render("-"))
	}
	return strings.Join(lines, "\n")
}

func categoryLine(c dashboard.Category, barW int) string {
	n := c.Weight * barW / 100
	bar := lipgloss.NewStyle().Foreground(colorAccent).Render(strings.Repeat(glyphBar(), n))
	name := truncate(c.Name, 16)
	return fmt.Sprintf("%-16s %s %d", name, bar, c.Count)
}

func (m appModel) viewCompose() string {
	title := "Reply"
	switch m.composeMode {
	case composeComplete:
		title = "Complete"
	case composeReplyComplete:
		title = "Reply and complete"
	}
	head := styleHeading().Render(fmt.Sprintf("%s #%s", title, m.composeFor))
	return head + "\n" + m.input.View()
}

func (m appModel) viewFooter() string {
	if m.toast != nil {
		bg := colorToastInfoBg
		prefix := glyphCheck() + " "
		if m.toast.level == lifecycle.LevelError {
			bg = colorToastErrorBg
			prefix = "! "
		}
		return lipgloss.NewStyle().Background(bg).Padding(0, 1).Render(truncate(prefix+m.toast.text, max(1, m.width-2)))
	}

	var bindings []key.Binding
	switch {
	case m.composing:
		bindings = []key.Binding{m.keys.Submit, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))}
	case m.view == viewDetail:
		bindings = []key.Binding{m.keys.View, m.keys.Complete, m.keys.Reply, m.keys.ReplyComplete, m.keys.Back, m.keys.Quit}
	case m.view == viewDashboard:
		bindings = []key.Binding{m.keys.Tasks, m.keys.Refresh, m.keys.Quit}
	default:
		bindings = []key.Binding{m.keys.Open, m.keys.NextBucket, m.keys.View, m.keys.Complete, m.keys.Reply, m.keys.Dashboard, m.keys.Refresh, m.keys.Quit}
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return styleMuted().Render(truncate(strings.Join(parts, "   "), m.width))
}
