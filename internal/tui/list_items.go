package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/statusutil"
)

type taskItem struct {
	task model.Task
}

func (i taskItem) FilterValue() string {
	return strings.Join([]string{i.task.Summary, i.task.Category, i.task.FromEmail, i.task.EmailSubject}, " ")
}

// Title is the single line shown in the bucket list.
func (i taskItem) Title() string {
	t := i.task
	parts := []string{"#" + t.ID.String()}
	if !t.ReceivedAt.IsZero() {
		parts = append(parts, t.ReceivedAt.Local().Format("02/01 15:04"))
	}
	if cat := strings.TrimSpace(t.Category); cat != "" {
		parts = append(parts, "["+cat+"]")
	}
	summary := strings.TrimSpace(t.Summary)
	if summary == "" {
		summary = strings.TrimSpace(t.EmailSubject)
	}
	parts = append(parts, summary)
	if from := strings.TrimSpace(t.FromEmail); from != "" {
		parts = append(parts, glyphArrow()+" "+from)
	}
	return strings.Join(parts, "  ")
}

func (i taskItem) statusLabel() string {
	return statusutil.Label(i.task.Status)
}

func taskItems(tasks []model.Task) []list.Item {
	out := make([]list.Item, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskItem{task: t})
	}
	return out
}

func formatReceived(ts model.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(time.DateTime)
}
