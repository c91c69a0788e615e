package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"mailtasks-cli/internal/lifecycle"
	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/transport"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		if m.view == viewDetail {
			m.refreshDetail()
		}
		return m, nil

	case snapshotMsg:
		if m.opts.Cache != nil {
			m.applySnapshot(m.opts.Cache.Snapshot())
			if errors.Is(m.snap.Err, transport.ErrUnauthenticated) {
				m.authExpired = true
			}
		}
		return m, m.waitForChange()

	case noticeMsg:
		if msg.notice.SessionEnded {
			m.authExpired = true
			return m, m.waitForNotice()
		}
		cmd := m.showToast(msg.notice.Level, msg.notice.Text)
		return m, tea.Batch(cmd, m.waitForNotice())

	case toastDoneMsg:
		if m.toast != nil && m.toast.seq == msg.seq {
			m.toast = nil
		}
		return m, nil

	case actionDoneMsg:
		return m.handleActionDone(msg)

	case syncedMsg:
		// The cache subscription delivers the new snapshot; nothing to do
		// unless the refresh itself failed (the banner shows snap.Err).
		return m, nil

	case spinner.TickMsg:
		if len(m.inFlight) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.composing {
			return m.updateCompose(msg)
		}
		return m.updateKey(msg)
	}

	if m.view == viewDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the list filter is being typed every key belongs to it.
	if m.view == viewTasks && m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refresh):
		return m, m.invalidate("")
	case key.Matches(msg, m.keys.Dashboard):
		m.view = viewDashboard
		return m, nil
	case key.Matches(msg, m.keys.Tasks):
		m.view = viewTasks
		return m, nil
	}

	switch m.view {
	case viewDashboard:
		if key.Matches(msg, m.keys.Back) {
			m.view = viewTasks
		}
		return m, nil

	case viewTasks:
		switch {
		case key.Matches(msg, m.keys.NextBucket):
			m.bucket = (m.bucket + 1) % len(model.Urgencies)
			m.list.ResetSelected()
			m.syncList()
			return m, nil
		case key.Matches(msg, m.keys.PrevBucket):
			m.bucket = (m.bucket + len(model.Urgencies) - 1) % len(model.Urgencies)
			m.list.ResetSelected()
			m.syncList()
			return m, nil
		case key.Matches(msg, m.keys.Open):
			id := m.selectedID()
			if id == "" {
				return m, nil
			}
			m.openDetail(id)
			return m, nil
		}
		if handled, next, cmd := m.actionKey(msg); handled {
			return next, cmd
		}
		switch msg.String() {
		case "1", "2", "3":
			m.bucket = int(msg.String()[0] - '1')
			m.list.ResetSelected()
			m.syncList()
			return m, nil
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case viewDetail:
		if key.Matches(msg, m.keys.Back) {
			m.view = viewTasks
			m.openID = ""
			return m, nil
		}
		if handled, next, cmd := m.actionKey(msg); handled {
			return next, cmd
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

// actionKey handles the lifecycle keys shared by the list and detail views.
func (m appModel) actionKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	id := m.targetID()
	switch {
	case key.Matches(msg, m.keys.View):
		if id == "" {
			return true, m, nil
		}
		next, cmd := m.startAction(lifecycle.ActionView, id, func(ctx context.Context) (lifecycle.Outcome, error) {
			return m.opts.Actions.MarkViewed(ctx, id)
		})
		return true, next, cmd
	case key.Matches(msg, m.keys.Complete):
		return true, m.openCompose(composeComplete, id), nil
	case key.Matches(msg, m.keys.Reply):
		return true, m.openCompose(composeReply, id), nil
	case key.Matches(msg, m.keys.ReplyComplete):
		return true, m.openCompose(composeReplyComplete, id), nil
	}
	return false, m, nil
}

func (m *appModel) openDetail(id model.TaskID) {
	m.view = viewDetail
	m.openID = id
	m.detail.GotoTop()
	m.refreshDetail()
	if m.state != nil {
		m.state.TouchRecent(string(id))
	}
}

func (m appModel) openCompose(mode composeMode, id model.TaskID) appModel {
	if id == "" {
		return m
	}
	m.composing = true
	m.composeMode = mode
	m.composeFor = id
	m.input.Reset()
	switch mode {
	case composeComplete:
		m.input.Placeholder = "Optional completion message"
	default:
		m.input.Placeholder = "Reply message"
	}
	m.input.Focus()
	m.layout()
	return m
}

func (m appModel) closeCompose() appModel {
	m.composing = false
	m.input.Blur()
	m.layout()
	return m
}

func (m appModel) updateCompose(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc" || msg.String() == "ctrl+g":
		return m.closeCompose(), nil
	case key.Matches(msg, m.keys.Submit):
		text := m.input.Value()
		id := m.composeFor
		mode := m.composeMode
		m = m.closeCompose()
		switch mode {
		case composeComplete:
			return m.startAction(lifecycle.ActionComplete, id, func(ctx context.Context) (lifecycle.Outcome, error) {
				return m.opts.Actions.Complete(ctx, id, text)
			})
		case composeReplyComplete:
			return m.startAction(lifecycle.ActionComplete, id, func(ctx context.Context) (lifecycle.Outcome, error) {
				return m.opts.Actions.ReplyAndComplete(ctx, id, text)
			})
		default:
			return m.startAction(lifecycle.ActionReply, id, func(ctx context.Context) (lifecycle.Outcome, error) {
				return m.opts.Actions.SendReply(ctx, id, text)
			})
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startAction issues one mutation in the background. The request runs on the
// program context, so leaving the view does not cancel it.
func (m appModel) startAction(a lifecycle.Action, id model.TaskID, fn func(context.Context) (lifecycle.Outcome, error)) (tea.Model, tea.Cmd) {
	if m.opts.Actions == nil {
		return m, nil
	}
	pa := pendingAction{id: id, action: a}
	if m.inFlight[pa] {
		return m, nil
	}
	m.inFlight[pa] = true
	ctx := m.ctx
	run := func() tea.Msg {
		out, err := fn(ctx)
		return actionDoneMsg{action: a, id: id, outcome: out, err: err}
	}
	cmds := []tea.Cmd{run}
	if len(m.inFlight) == 1 {
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m appModel) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	delete(m.inFlight, pendingAction{id: msg.id, action: msg.action})

	if errors.Is(msg.err, transport.ErrUnauthenticated) {
		m.authExpired = true
	}

	var cmds []tea.Cmd
	if msg.outcome.Synced != nil {
		cmds = append(cmds, waitForSync(msg.id, msg.outcome.Synced))
	}
	return m, tea.Batch(cmds...)
}

func (m *appModel) showToast(level lifecycle.Level, text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	m.toastSeq++
	seq := m.toastSeq
	m.toast = &toast{level: level, text: text, seq: seq}
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastDoneMsg{seq: seq} })
}

func (m appModel) invalidate(id model.TaskID) tea.Cmd {
	if m.opts.Cache == nil {
		return nil
	}
	return waitForSync(id, m.opts.Cache.Invalidate())
}

func (m appModel) waitForChange() tea.Cmd {
	sub := m.sub
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-sub; !ok {
			return nil
		}
		return snapshotMsg{}
	}
}

func (m appModel) waitForNotice() tea.Cmd {
	ch := m.opts.Notices
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg{notice: n}
	}
}

func waitForSync(id model.TaskID, ch <-chan error) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return syncedMsg{id: id, err: <-ch}
	}
}
