// Package tui is the interactive task board: urgency buckets, task detail,
// reply/complete composition and the dashboard.
package tui

import (
	"context"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"mailtasks-cli/internal/i18n"
	"mailtasks-cli/internal/lifecycle"
	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/store"
	"mailtasks-cli/internal/synccache"
)

// TaskCache is the read side of the synchronization cache.
type TaskCache interface {
	Snapshot() synccache.Snapshot
	Subscribe() (<-chan struct{}, func())
	Invalidate() <-chan error
}

// TaskActions is the lifecycle engine surface the board drives.
type TaskActions interface {
	MarkViewed(ctx context.Context, id model.TaskID) (lifecycle.Outcome, error)
	Complete(ctx context.Context, id model.TaskID, message string) (lifecycle.Outcome, error)
	SendReply(ctx context.Context, id model.TaskID, message string) (lifecycle.Outcome, error)
	ReplyAndComplete(ctx context.Context, id model.TaskID, message string) (lifecycle.Outcome, error)
}

type StateStore interface {
	LoadTUIState() (*store.TUIState, error)
	SaveTUIState(st *store.TUIState) error
}

type Options struct {
	Cache   TaskCache
	Actions TaskActions
	// Notices delivers the engine's user-facing notices; shown as toasts.
	Notices <-chan lifecycle.Notice
	// State restores and persists the last screen. Optional.
	State StateStore
	// Refresh runs the periodic refresh loop for the lifetime of the program. Optional.
	Refresh func(ctx context.Context) error

	Glyphs    string
	StartView string
	I18n      *i18n.Localizer
	Logger    *slog.Logger
}

func Run(ctx context.Context, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()
	applyGlyphPreference(opts.Glyphs)
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.Refresh != nil {
		go func() {
			if err := opts.Refresh(ctx); err != nil {
				opts.Logger.Debug("refresh loop stopped", "err", err)
			}
		}()
	}

	m := newAppModel(ctx, opts)
	defer m.unsubscribe()

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if fm, ok := final.(appModel); ok {
		fm.saveState()
	}
	return err
}
