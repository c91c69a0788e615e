package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"mailtasks-cli/internal/dashboard"
	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/store"
	"mailtasks-cli/internal/synccache"
)

const toastTTL = 4 * time.Second

type keyMap struct {
	Quit          key.Binding
	Refresh       key.Binding
	Dashboard     key.Binding
	Tasks         key.Binding
	NextBucket    key.Binding
	PrevBucket    key.Binding
	Open          key.Binding
	Back          key.Binding
	View          key.Binding
	Complete      key.Binding
	Reply         key.Binding
	ReplyComplete key.Binding
	Submit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Refresh:       key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		Dashboard:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dashboard")),
		Tasks:         key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tasks")),
		NextBucket:    key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next bucket")),
		PrevBucket:    key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev bucket")),
		Open:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:          key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		View:          key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "mark viewed")),
		Complete:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete")),
		Reply:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reply")),
		ReplyComplete: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reply+complete")),
		Submit:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "send")),
	}
}

type appModel struct {
	ctx  context.Context
	opts Options
	keys keyMap

	width  int
	height int

	view   view
	bucket int

	snap    synccache.Snapshot
	buckets dashboard.Buckets
	dash    dashboard.Dashboard

	list   list.Model
	detail viewport.Model
	openID model.TaskID

	composing   bool
	composeMode composeMode
	composeFor  model.TaskID
	input       textarea.Model

	// inFlight holds the mutations awaiting a response.
	inFlight map[pendingAction]bool
	spinner  spinner.Model

	toast    *toast
	toastSeq int

	authExpired bool

	sub         <-chan struct{}
	unsubscribe func()

	state *store.TUIState
}

func newAppModel(ctx context.Context, opts Options) appModel {
	l := list.New(nil, newTaskItemDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.SetHeight(6)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := appModel{
		ctx:         ctx,
		opts:        opts,
		keys:        defaultKeyMap(),
		list:        l,
		detail:      viewport.New(0, 0),
		input:       ta,
		inFlight:    map[pendingAction]bool{},
		spinner:     sp,
		unsubscribe: func() {},
		state:       &store.TUIState{Version: 1},
	}

	if opts.State != nil {
		if st, err := opts.State.LoadTUIState(); err == nil && st != nil {
			m.state = st
		}
	}
	m.view = parseView(strings.TrimSpace(opts.StartView))
	if m.state.View != "" {
		m.view = parseView(m.state.View)
	}
	for i, u := range model.Urgencies {
		if string(u) == m.state.Bucket {
			m.bucket = i
		}
	}
	if m.view == viewDetail {
		m.openID = model.TaskID(m.state.OpenTaskID)
		if m.openID == "" {
			m.view = viewTasks
		}
	}

	if opts.Cache != nil {
		m.sub, m.unsubscribe = opts.Cache.Subscribe()
		m.applySnapshot(opts.Cache.Snapshot())
	}
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.waitForChange(), m.waitForNotice())
}

func (m appModel) currentBucket() model.Urgency {
	return model.Urgencies[m.bucket]
}

// applySnapshot rebuilds every derived view from s.
func (m *appModel) applySnapshot(s synccache.Snapshot) {
	m.snap = s
	m.buckets = dashboard.Partition(s.Tasks)
	m.dash = dashboard.Build(s.List())
	m.syncList()
	if m.view == viewDetail {
		if !s.Loaded {
			return
		}
		if _, ok := s.Find(m.openID); !ok {
			// The task left the pending collection (completed elsewhere or archived).
			m.view = viewTasks
			m.openID = ""
			return
		}
		m.refreshDetail()
	}
}

func (m *appModel) syncList() {
	selected := m.selectedID()
	m.list.SetItems(taskItems(m.buckets.Get(m.currentBucket())))
	if selected == "" {
		return
	}
	for i, it := range m.list.Items() {
		if ti, ok := it.(taskItem); ok && ti.task.ID == selected {
			m.list.Select(i)
			return
		}
	}
}

func (m appModel) selectedID() model.TaskID {
	if ti, ok := m.list.SelectedItem().(taskItem); ok {
		return ti.task.ID
	}
	return ""
}

// targetID is the task the action keys apply to in the current view.
func (m appModel) targetID() model.TaskID {
	if m.view == viewDetail {
		return m.openID
	}
	return m.selectedID()
}

func (m *appModel) layout() {
	listH := m.height - 4
	if listH < 1 {
		listH = 1
	}
	m.list.SetSize(m.width, listH)
	m.detail.Width = m.width
	m.detail.Height = m.height - 3
	if m.composing {
		m.detail.Height -= m.input.Height() + 2
	}
	if m.detail.Height < 1 {
		m.detail.Height = 1
	}
	m.input.SetWidth(max(10, m.width-2))
}

func (m *appModel) refreshDetail() {
	t, ok := m.snap.Find(m.openID)
	if !ok {
		m.detail.SetContent("")
		return
	}
	m.detail.SetContent(renderDetail(t, m.width))
}

func (m *appModel) saveState() {
	if m.opts.State == nil || m.state == nil {
		return
	}
	m.state.View = m.view.String()
	m.state.Bucket = string(m.currentBucket())
	m.state.OpenTaskID = string(m.openID)
	_ = m.opts.State.SaveTUIState(m.state)
}
