package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// taskItemDelegate renders one task per line: urgency marker, title, status.
type taskItemDelegate struct {
	normal   lipgloss.Style
	selected lipgloss.Style
}

func newTaskItemDelegate() taskItemDelegate {
	return taskItemDelegate{
		normal: lipgloss.NewStyle().Foreground(colorSurfaceFg),
		selected: lipgloss.NewStyle().
			Foreground(colorSelectedFg).
			Background(colorSelectedBg).
			Bold(true),
	}
}

func (d taskItemDelegate) Height() int  { return 1 }
func (d taskItemDelegate) Spacing() int { return 0 }
func (d taskItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d taskItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	contentW := m.Width()
	if contentW < 4 {
		fmt.Fprint(w, "")
		return
	}

	style := d.normal
	if index == m.Index() {
		style = d.selected
	}

	ti, ok := item.(taskItem)
	if !ok {
		fmt.Fprint(w, style.Render(xansi.Truncate(fmt.Sprint(item), contentW, "")))
		return
	}

	marker := lipgloss.NewStyle().Foreground(urgencyColor(ti.task.Urgency)).Render(glyphBar()) + " "
	status := " " + ti.statusLabel()
	statusW := xansi.StringWidth(status)
	markerW := xansi.StringWidth(marker)

	titleW := contentW - markerW - statusW
	if titleW < 1 {
		titleW = contentW - markerW
		status = ""
		statusW = 0
	}
	line := ti.Title()
	lineW := xansi.StringWidth(line)
	if lineW > titleW {
		line = xansi.Truncate(line, titleW, "…")
		lineW = xansi.StringWidth(line)
	}
	if lineW < titleW {
		line += strings.Repeat(" ", titleW-lineW)
	}

	fmt.Fprint(w, marker+style.Render(line+status))
}
