// Package lifecycle issues task transitions against the backend.
//
// Each action is checked against the current replica before any request is
// made, maps onto exactly one resource-client call, and on success
// invalidates the replica so the next snapshot reflects server truth. The
// replica is never modified optimistically.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mailtasks-cli/internal/api"
	"mailtasks-cli/internal/i18n"
	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/synccache"
	"mailtasks-cli/internal/transport"
)

// TaskAPI is the subset of the resource client the engine mutates through.
type TaskAPI interface {
	MarkViewed(ctx context.Context, id model.TaskID) error
	Complete(ctx context.Context, id model.TaskID, message *string) error
	SendReply(ctx context.Context, id model.TaskID, message string) error
	CreateTask(ctx context.Context, req model.CreateTaskRequest) (model.CreateTaskResult, error)
}

type Cache interface {
	Snapshot() synccache.Snapshot
	Invalidate() <-chan error
}

// Recorder appends an attempt to the local activity log.
type Recorder interface {
	Record(ctx context.Context, a model.Activity) error
}

// Outcome of an accepted action. Synced delivers the result of the refresh
// triggered by the action; receive from it to wait for the replica to
// catch up.
type Outcome struct {
	Synced <-chan error
	Notice Notice
	Result model.CreateTaskResult
}

type Engine struct {
	API      TaskAPI
	Cache    Cache
	Notifier Notifier
	Recorder Recorder
	I18n     *i18n.Localizer
	Logger   *slog.Logger
	// OnUnauthenticated is called instead of notifying when the backend
	// rejects the session.
	OnUnauthenticated func(error)

	Now func() time.Time
}

func (e *Engine) MarkViewed(ctx context.Context, id model.TaskID) (Outcome, error) {
	task, err := e.precheck(id)
	if err != nil {
		return Outcome{}, e.reject(ctx, ActionView, id, err)
	}
	err = e.API.MarkViewed(ctx, task.ID)
	return e.finish(ctx, ActionView, task, err, e.I18n.T("viewed_ok"))
}

// Complete completes a task. A blank message is sent as no message.
func (e *Engine) Complete(ctx context.Context, id model.TaskID, message string) (Outcome, error) {
	task, err := e.precheck(id)
	if err != nil {
		return Outcome{}, e.reject(ctx, ActionComplete, id, err)
	}
	var msg *string
	if m := strings.TrimSpace(message); m != "" {
		msg = &m
	}
	err = e.API.Complete(ctx, task.ID, msg)
	return e.finish(ctx, ActionComplete, task, err, e.I18n.T("completed_ok"))
}

// SendReply emails message to the task's origin. It does not change the
// task's status locally; whatever the backend does shows up on refresh.
func (e *Engine) SendReply(ctx context.Context, id model.TaskID, message string) (Outcome, error) {
	task, err := e.precheck(id)
	if err == nil && strings.TrimSpace(message) == "" {
		err = ErrMessageRequired
	}
	if err != nil {
		return Outcome{}, e.reject(ctx, ActionReply, id, err)
	}
	err = e.API.SendReply(ctx, task.ID, message)
	return e.finish(ctx, ActionReply, task, err, e.I18n.TData("reply_ok", map[string]any{"Recipient": task.FromEmail}))
}

// ReplyAndComplete sends the reply and, only if it was accepted, completes
// the task. The two calls are independent; a failed completion after a
// sent reply is reported as a *PartialError.
func (e *Engine) ReplyAndComplete(ctx context.Context, id model.TaskID, message string) (Outcome, error) {
	out, err := e.SendReply(ctx, id, message)
	if err != nil {
		return out, err
	}
	task, _ := e.Cache.Snapshot().Find(id)
	if task.ID == "" {
		task.ID = id
	}
	err = e.API.Complete(ctx, task.ID, nil)
	if err != nil {
		err = &PartialError{Err: err}
	}
	done, err := e.finish(ctx, ActionComplete, task, err, e.I18n.T("completed_ok"))
	if err != nil {
		done.Synced = out.Synced
	}
	return done, err
}

// Create submits a new task. Nothing is added to the replica until the
// refresh that follows returns it.
func (e *Engine) Create(ctx context.Context, req model.CreateTaskRequest) (Outcome, error) {
	res, err := e.API.CreateTask(ctx, req)
	if errors.Is(err, api.ErrInvalidInput) {
		return Outcome{}, e.reject(ctx, ActionCreate, "", err)
	}
	task := model.Task{ID: res.TaskID}
	out, err := e.finish(ctx, ActionCreate, task, err, e.I18n.TData("created_ok", map[string]any{"Recipient": strings.TrimSpace(req.Recipient)}))
	out.Result = res
	return out, err
}

func (e *Engine) precheck(id model.TaskID) (model.Task, error) {
	id = model.TaskID(strings.TrimSpace(string(id)))
	task, ok := e.Cache.Snapshot().Find(id)
	if id == "" || !ok {
		return model.Task{}, NotInSnapshotError{ID: id}
	}
	return task, nil
}

// reject reports an action refused before any request was made.
func (e *Engine) reject(ctx context.Context, a Action, id model.TaskID, err error) error {
	e.record(ctx, a, id, model.OutcomeRejected, err)
	e.notify(Notice{Level: LevelError, Action: a, TaskID: id, Text: Describe(e.I18n, a, id, err)})
	return err
}

func (e *Engine) finish(ctx context.Context, a Action, task model.Task, err error, okText string) (Outcome, error) {
	if err != nil {
		e.record(ctx, a, task.ID, model.OutcomeFailed, err)
		e.logger().Debug("task action failed", "action", a, "task", task.ID, "err", err)
		if errors.Is(err, transport.ErrUnauthenticated) && e.OnUnauthenticated != nil {
			e.OnUnauthenticated(err)
			return Outcome{}, err
		}
		e.notify(Notice{Level: LevelError, Action: a, TaskID: task.ID, Text: Describe(e.I18n, a, task.ID, err)})
		return Outcome{}, err
	}
	e.record(ctx, a, task.ID, model.OutcomeOK, nil)
	n := Notice{Level: LevelInfo, Action: a, TaskID: task.ID, Text: okText}
	e.notify(n)
	return Outcome{Synced: e.Cache.Invalidate(), Notice: n}, nil
}

func (e *Engine) notify(n Notice) {
	if e.Notifier != nil {
		e.Notifier.Notify(n)
	}
}

func (e *Engine) record(ctx context.Context, a Action, id model.TaskID, outcome string, err error) {
	if e.Recorder == nil {
		return
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	act := model.Activity{
		ID:      uuid.NewString(),
		TS:      now().UTC(),
		Action:  string(a),
		TaskID:  id,
		Outcome: outcome,
	}
	if err != nil {
		act.Error = err.Error()
	}
	if rerr := e.Recorder.Record(context.WithoutCancel(ctx), act); rerr != nil {
		e.logger().Debug("activity record failed", "err", rerr)
	}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
