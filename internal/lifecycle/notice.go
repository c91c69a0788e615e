package lifecycle

import (
	"errors"

	"mailtasks-cli/internal/api"
	"mailtasks-cli/internal/i18n"
	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/transport"
)

type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notice is a user-visible message about one action.
type Notice struct {
	Level  Level
	Action Action
	TaskID model.TaskID
	Text   string
	// SessionEnded marks the notice sent when the credential was rejected
	// and the session dropped.
	SessionEnded bool
}

// Notifier shows notices to the user (a TUI toast, a CLI stderr line).
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type Action string

const (
	ActionView       Action = "view"
	ActionComplete   Action = "complete"
	ActionReply      Action = "reply"
	ActionCreate     Action = "create"
	ActionConnect    Action = "connect"
	ActionDisconnect Action = "disconnect"
)

// Reason renders err for a failure notice. Validation failures surface the
// backend message verbatim.
func Reason(l *i18n.Localizer, err error) string {
	var fe *api.FieldError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	if msg := transport.ServerMessage(err); msg != "" {
		if k, _ := transport.KindOf(err); k == transport.KindValidation || k == transport.KindConflict || k == transport.KindNotFound {
			return msg
		}
	}
	switch {
	case errors.Is(err, api.ErrInvalidInput):
		return l.T("reason_invalid")
	case errors.Is(err, transport.ErrValidation):
		return l.T("reason_invalid")
	case errors.Is(err, transport.ErrNotFound):
		return l.T("reason_not_found")
	case errors.Is(err, transport.ErrConflict):
		return l.T("reason_conflict")
	case errors.Is(err, transport.ErrTransport):
		return l.T("reason_transport")
	}
	return l.T("reason_unknown")
}

// Describe renders a rejected or failed action as a localized sentence.
func Describe(l *i18n.Localizer, a Action, id model.TaskID, err error) string {
	switch {
	case errors.Is(err, transport.ErrUnauthenticated):
		return l.T("session_expired")
	case errors.Is(err, ErrNotInSnapshot):
		return l.TData("task_not_loaded", map[string]any{"ID": string(id)})
	case errors.Is(err, ErrMessageRequired):
		return l.T("message_required")
	case errors.Is(err, ErrAlreadyConnected):
		return l.T("already_connected")
	case errors.Is(err, ErrNotConnected):
		return l.T("not_connected")
	}
	var pe *PartialError
	if errors.As(err, &pe) {
		return l.TData("reply_complete_partial", map[string]any{"Reason": Reason(l, pe.Err)})
	}
	data := map[string]any{"Reason": Reason(l, err)}
	switch a {
	case ActionView:
		return l.TData("viewed_failed", data)
	case ActionComplete:
		return l.TData("completed_failed", data)
	case ActionReply:
		return l.TData("reply_failed", data)
	case ActionCreate:
		return l.TData("created_failed", data)
	case ActionConnect:
		return l.TData("connect_failed", data)
	case ActionDisconnect:
		return l.TData("disconnect_failed", data)
	}
	return Reason(l, err)
}
