package tui

import (
	"mailtasks-cli/internal/lifecycle"
	"mailtasks-cli/internal/model"
)

type view int

const (
	viewTasks view = iota
	viewDetail
	viewDashboard
)

func (v view) String() string {
	switch v {
	case viewDetail:
		return "detail"
	case viewDashboard:
		return "dashboard"
	default:
		return "tasks"
	}
}

func parseView(s string) view {
	switch s {
	case "detail":
		return viewDetail
	case "dashboard":
		return viewDashboard
	default:
		return viewTasks
	}
}

type composeMode int

const (
	composeReply composeMode = iota
	composeReplyComplete
	composeComplete
)

// snapshotMsg reports that the cache published a new snapshot.
type snapshotMsg struct{}

type noticeMsg struct{ notice lifecycle.Notice }

// pendingAction identifies one in-flight mutation. A task can have a view
// and a complete outstanding at the same time.
type pendingAction struct {
	id     model.TaskID
	action lifecycle.Action
}

type actionDoneMsg struct {
	action  lifecycle.Action
	id      model.TaskID
	outcome lifecycle.Outcome
	err     error
}

// syncedMsg reports the refresh triggered by a successful mutation.
type syncedMsg struct {
	id  model.TaskID
	err error
}

type toastDoneMsg struct{ seq int }

type toast struct {
	level lifecycle.Level
	text  string
	seq   int
}
