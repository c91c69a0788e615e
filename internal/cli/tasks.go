package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mailtasks-cli/internal/api"
	"mailtasks-cli/internal/dashboard"
	"mailtasks-cli/internal/lifecycle"
	"mailtasks-cli/internal/mailbody"
	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/statusutil"
	"mailtasks-cli/internal/transport"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List, inspect and act on tasks",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksViewCmd(app))
	cmd.AddCommand(newTasksCompleteCmd(app))
	cmd.AddCommand(newTasksReplyCmd(app))
	cmd.AddCommand(newTasksBucketsCmd(app))
	cmd.AddCommand(newTasksWatchCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var (
		status string
		bucket string
		page   int
		size   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks (default: pending)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			var urgency model.Urgency
			if strings.TrimSpace(bucket) != "" {
				urgency, err = statusutil.NormalizeUrgency(bucket)
				if err != nil {
					return writeErr(cmd, err)
				}
			}

			list, err := rt.api.ListTasks(cmd.Context(), api.ListOptions{Status: status, Page: page, Size: size})
			if err != nil {
				return rt.fail(cmd, err)
			}
			tasks := list.Tasks
			if urgency != "" {
				tasks = dashboard.Partition(tasks).Get(urgency)
			}

			meta := map[string]any{"count": len(tasks)}
			if list.Stats != nil {
				meta["stats"] = list.Stats
			}
			if list.Pagination != nil {
				meta["pagination"] = list.Pagination
			}
			return writeOut(cmd, app, map[string]any{
				"data":   taskRows(tasks),
				"meta":   meta,
				"_hints": []string{"mailtasks tasks show <id>", "mailtasks tasks buckets"},
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Status filter passed to the backend (default: pending)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Only tasks in this urgency bucket (URGENTE|MEDIANO|ROTINEIRA)")
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	cmd.Flags().IntVar(&size, "size", 0, "Page size")
	return cmd
}

type taskDetail struct {
	model.Task
	BodyText string `json:"bodyText,omitempty"`
}

func newTasksShowCmd(app *App) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:     "show <task-id>",
		Aliases: []string{"get"},
		Short:   "Show a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := model.TaskID(strings.TrimSpace(args[0]))
			ctx := cmd.Context()

			var t model.Task
			if remote {
				t, err = rt.api.GetTask(ctx, id)
				if err != nil {
					return rt.fail(cmd, err)
				}
			} else {
				snap, err := rt.load(ctx)
				if err != nil {
					return rt.fail(cmd, err)
				}
				var ok bool
				t, ok = snap.Find(id)
				if !ok {
					return writeErr(cmd, fmt.Errorf("%w (not pending? try --remote)", errNotFound("task", string(id))))
				}
			}

			hints := []string{
				"mailtasks tasks view " + t.ID.String(),
				"mailtasks tasks reply " + t.ID.String() + " --message <text>",
				"mailtasks tasks complete " + t.ID.String(),
			}
			if statusutil.IsTerminal(t.Status) {
				hints = nil
			}
			return writeOut(cmd, app, map[string]any{
				"data":   taskDetail{Task: t, BodyText: mailbody.PlainText(t.EmailBody)},
				"_hints": hints,
			})
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Fetch the task from the backend instead of the pending list")
	return cmd
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var req model.CreateTaskRequest
	var urgency string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task and send it to a recipient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if strings.TrimSpace(urgency) != "" {
				u, err := statusutil.NormalizeUrgency(urgency)
				if err != nil {
					return writeErr(cmd, err)
				}
				req.Urgency = u
			}
			ctx := cmd.Context()
			out, err := rt.engine.Create(ctx, req)
			if err != nil {
				return rt.fail(cmd, err)
			}
			rt.settle(ctx, out)
			res := rt.result(lifecycle.ActionCreate, out.Result.TaskID, out)
			res.Created = &out.Result
			return writeOut(cmd, app, map[string]any{
				"data":   res,
				"_hints": []string{"mailtasks tasks list"},
			})
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&req.Recipient, "recipient", "", "Recipient email (required)")
	cmd.Flags().StringVar(&req.Category, "category", "", "Category (required)")
	cmd.Flags().StringVar(&urgency, "urgency", "", "URGENTE|MEDIANO|ROTINEIRA (required)")
	cmd.Flags().StringVar(&req.Subject, "subject", "", "Email subject")
	cmd.Flags().StringVar(&req.Body, "body", "", "Email body")
	return cmd
}

// runAction loads the pending collection, runs fn on it and prints the
// settled result.
func runAction(cmd *cobra.Command, app *App, a lifecycle.Action, id model.TaskID, fn func(ctx context.Context, e *lifecycle.Engine) (lifecycle.Outcome, error)) error {
	rt, err := newServices(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	ctx := cmd.Context()
	if _, err := rt.load(ctx); err != nil {
		return rt.fail(cmd, err)
	}
	out, err := fn(ctx, rt.engine)
	if err != nil {
		return rt.fail(cmd, err)
	}
	rt.settle(ctx, out)
	return writeOut(cmd, app, map[string]any{
		"data":   rt.result(a, id, out),
		"_hints": []string{"mailtasks tasks list"},
	})
}

func newTasksViewCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "view <task-id>",
		Short: "Mark a task as viewed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.TaskID(strings.TrimSpace(args[0]))
			return runAction(cmd, app, lifecycle.ActionView, id, func(ctx context.Context, e *lifecycle.Engine) (lifecycle.Outcome, error) {
				return e.MarkViewed(ctx, id)
			})
		},
	}
}

func newTasksCompleteCmd(app *App) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Complete a task (the sender is notified by email)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.TaskID(strings.TrimSpace(args[0]))
			return runAction(cmd, app, lifecycle.ActionComplete, id, func(ctx context.Context, e *lifecycle.Engine) (lifecycle.Outcome, error) {
				return e.Complete(ctx, id, message)
			})
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Optional completion message")
	return cmd
}

func newTasksReplyCmd(app *App) *cobra.Command {
	var (
		message  string
		complete bool
	)

	cmd := &cobra.Command{
		Use:   "reply <task-id>",
		Short: "Email a reply to the task's sender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.TaskID(strings.TrimSpace(args[0]))
			if complete {
				return runAction(cmd, app, lifecycle.ActionComplete, id, func(ctx context.Context, e *lifecycle.Engine) (lifecycle.Outcome, error) {
					return e.ReplyAndComplete(ctx, id, message)
				})
			}
			return runAction(cmd, app, lifecycle.ActionReply, id, func(ctx context.Context, e *lifecycle.Engine) (lifecycle.Outcome, error) {
				return e.SendReply(ctx, id, message)
			})
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Reply text (required)")
	cmd.Flags().BoolVar(&complete, "complete", false, "Complete the task after the reply is sent")
	return cmd
}

func newTasksBucketsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "buckets",
		Short: "Pending tasks grouped by urgency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			snap, err := rt.load(cmd.Context())
			if err != nil {
				return rt.fail(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   bucketsView(dashboard.Partition(snap.Tasks)),
				"_hints": []string{"mailtasks tasks list --bucket URGENTE"},
			})
		},
	}
}

type watchEvent struct {
	Version   uint64           `json:"version"`
	FetchedAt time.Time        `json:"fetchedAt"`
	Totals    dashboard.Totals `json:"totals"`
	Buckets   map[string]int   `json:"buckets"`
	Error     string           `json:"error,omitempty"`
}

func newTasksWatchCmd(app *App) *cobra.Command {
	var (
		interval time.Duration
		count    int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh periodically and print one line per snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if interval > 0 {
				rt.cache = rt.newCache(interval)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			sub, unsubscribe := rt.cache.Subscribe()
			defer unsubscribe()

			done := make(chan error, 1)
			go func() { done <- rt.cache.Run(ctx) }()

			seen := uint64(0)
			printed := 0
			for {
				select {
				case <-ctx.Done():
					return <-done
				case err := <-done:
					// The session was rejected and has ended.
					return rt.fail(cmd, err)
				case <-sub:
				}
				snap := rt.cache.Snapshot()
				if snap.Version == seen && snap.Err == nil {
					continue
				}
				if errors.Is(snap.Err, transport.ErrUnauthenticated) {
					continue
				}
				seen = snap.Version
				b := dashboard.Partition(snap.Tasks)
				ev := watchEvent{
					Version:   snap.Version,
					FetchedAt: snap.FetchedAt,
					Totals:    dashboard.Build(snap.List()).Totals,
					Buckets: map[string]int{
						string(model.UrgencyUrgent):  len(b.Urgent),
						string(model.UrgencyMedium):  len(b.Medium),
						string(model.UrgencyRoutine): len(b.Routine),
					},
				}
				if snap.Err != nil {
					ev.Error = reasonOf(rt, snap.Err)
				}
				if err := writeOut(cmd, app, map[string]any{"data": ev}); err != nil {
					return err
				}
				printed++
				if count > 0 && printed >= count {
					stop()
					<-done
					return nil
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval (default from config, 30s)")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many snapshots (0: run until interrupted)")
	return cmd
}
