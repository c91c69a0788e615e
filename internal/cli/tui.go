package cli

import (
	"github.com/spf13/cobra"

	"mailtasks-cli/internal/lifecycle"
	"mailtasks-cli/internal/tui"
)

func runTUI(cmd *cobra.Command, app *App) error {
	rt, err := newServices(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	if !rt.session.Active() {
		return writeErr(cmd, errNotSignedIn)
	}

	// Notices become toasts; stderr is not visible behind the alt screen.
	notices := make(chan lifecycle.Notice, 16)
	rt.setSink(func(n lifecycle.Notice) {
		select {
		case notices <- n:
		default:
			rt.log.Debug("notice dropped", "text", n.Text)
		}
	})

	opts := tui.Options{
		Cache:   rt.cache,
		Actions: rt.engine,
		Notices: notices,
		State:   rt.store,
		Refresh: rt.cache.Run,
		I18n:    rt.i18n,
		Logger:  rt.log,
	}
	if rt.cfg.TUI != nil {
		opts.Glyphs = rt.cfg.TUI.Glyphs
		opts.StartView = rt.cfg.TUI.StartView
	}
	return tui.Run(cmd.Context(), opts)
}
