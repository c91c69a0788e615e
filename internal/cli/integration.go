package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mailtasks-cli/internal/callback"
)

func newConnectCmd(app *App) *cobra.Command {
	var (
		noOpen bool
		wait   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect the mailbox integration (only when disconnected)",
		Long: `Connect asks the backend for the mailbox authorization URL and opens it.

With --wait, a loopback listener receives the backend's /settings?status=
redirect; the backend's frontend URL must point at the callback port for this.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()

			var rcv *callback.Receiver
			if wait > 0 {
				rcv, err = callback.Listen(fmt.Sprintf("127.0.0.1:%d", rt.cfg.EffectiveCallbackPort()), rt.log)
				if err != nil {
					return writeErr(cmd, err)
				}
				defer rcv.Close()
			}

			u, err := rt.integration.Connect(ctx)
			if err != nil {
				return rt.fail(cmd, err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), rt.i18n.TData("connect_open", map[string]any{"URL": u}))
			if !noOpen {
				if err := openPath(u); err != nil {
					rt.log.Debug("open browser", "err", err)
				}
			}

			data := map[string]any{"authorizationUrl": u}
			if rcv != nil {
				wctx, cancel := context.WithTimeout(ctx, wait)
				defer cancel()
				res, err := rcv.Wait(wctx)
				if err != nil {
					return writeErr(cmd, err)
				}
				data["status"] = res.Status
				p, err := rt.integration.Profile(ctx)
				if err != nil {
					return rt.fail(cmd, err)
				}
				data["connected"] = p.Connected
				if p.Connected {
					fmt.Fprintln(cmd.ErrOrStderr(), rt.i18n.T("connect_ok"))
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data":   data,
				"_hints": []string{"mailtasks whoami"},
			})
		},
	}

	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Print the authorization URL instead of opening a browser")
	cmd.Flags().DurationVar(&wait, "wait", 0, "Wait this long for the connection redirect (0: do not wait)")
	return cmd
}

func newDisconnectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect the mailbox integration (only when connected)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			p, err := rt.integration.Disconnect(cmd.Context())
			if err != nil {
				return rt.fail(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   p,
				"_hints": []string{"mailtasks connect"},
			})
		},
	}
}
