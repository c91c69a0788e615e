package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mailtasks-cli/internal/callback"
	"mailtasks-cli/internal/session"
)

type credentialView struct {
	Subject   string     `json:"subject,omitempty"`
	Email     string     `json:"email,omitempty"`
	Name      string     `json:"name,omitempty"`
	IssuedAt  time.Time  `json:"issuedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func viewCredential(c session.Credential, name string) credentialView {
	v := credentialView{Subject: c.Subject, Email: c.Email, Name: name, IssuedAt: c.IssuedAt}
	if !c.ExpiresAt.IsZero() {
		at := c.ExpiresAt
		v.ExpiresAt = &at
	}
	return v
}

func newLoginCmd(app *App) *cobra.Command {
	var (
		token         string
		email         string
		passwordStdin bool
		noOpen        bool
		wait          time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in (browser redirect to a loopback callback, a token, or email/password)",
		Example: strings.TrimSpace(`
  mailtasks login
  mailtasks login --token "$MAILTASKS_TOKEN"
  printf '%s' "$PASSWORD" | mailtasks login --email ana@example.com --password-stdin
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()

			var name string
			switch {
			case strings.TrimSpace(token) != "":
			case strings.TrimSpace(email) != "":
				pw, err := readPassword(cmd, passwordStdin)
				if err != nil {
					return writeErr(cmd, err)
				}
				res, err := rt.api.Login(ctx, email, pw)
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), rt.i18n.TData("login_failed", map[string]any{"Reason": reasonOf(rt, err)}))
					return err
				}
				token, name = res.Token, res.Name
			default:
				t, err := loopbackLogin(ctx, cmd, rt, noOpen, wait)
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), rt.i18n.TData("login_failed", map[string]any{"Reason": err.Error()}))
					return err
				}
				token = t
			}

			cred, err := rt.session.Begin(ctx, token)
			if err != nil {
				return writeErr(cmd, err)
			}
			who := firstNonEmpty(name, cred.Email, cred.Subject, "?")
			fmt.Fprintln(cmd.ErrOrStderr(), rt.i18n.TData("login_ok", map[string]any{"Who": who}))

			return writeOut(cmd, app, map[string]any{
				"data":   viewCredential(cred, name),
				"_hints": []string{"mailtasks whoami", "mailtasks tasks list", "mailtasks"},
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Store a session token obtained elsewhere")
	cmd.Flags().StringVar(&email, "email", "", "Sign in with email and password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Print the sign-in URL instead of opening a browser")
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Minute, "How long to wait for the browser redirect")
	return cmd
}

func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" && err != nil {
			return "", errMissingPassword
		}
		return line, nil
	}
	if pw := os.Getenv("MAILTASKS_PASSWORD"); pw != "" {
		return pw, nil
	}
	return "", errMissingPassword
}

// loopbackLogin waits for the identity provider to redirect the browser to
// the local callback with ?token= or ?error=.
func loopbackLogin(ctx context.Context, cmd *cobra.Command, rt *services, noOpen bool, wait time.Duration) (string, error) {
	rcv, err := callback.Listen(fmt.Sprintf("127.0.0.1:%d", rt.cfg.EffectiveCallbackPort()), rt.log)
	if err != nil {
		return "", err
	}
	defer rcv.Close()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "Waiting for sign-in redirect to %s\n", rcv.URL(callback.LoginPath))
	if u := strings.TrimSpace(rt.cfg.LoginURL); u != "" {
		fmt.Fprintf(stderr, "Sign in at: %s\n", u)
		if !noOpen {
			if err := openPath(u); err != nil {
				rt.log.Debug("open browser", "err", err)
			}
		}
	} else {
		fmt.Fprintln(stderr, "Set a sign-in URL with 'mailtasks config set loginUrl <url>', or use --token / --email.")
	}

	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}
	res, err := rcv.Wait(ctx)
	if err != nil {
		return "", err
	}
	return res.Token, nil
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()
			if rt.session.Active() {
				// Best effort: the local credential goes either way.
				if err := rt.api.Logout(ctx); err != nil {
					rt.log.Debug("backend logout failed", "err", err)
				}
			}
			if err := rt.session.End(ctx); err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), rt.i18n.T("logout_ok"))
			return writeOut(cmd, app, map[string]any{
				"data":   map[string]any{"signedIn": false},
				"_hints": []string{"mailtasks login"},
			})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !rt.session.Active() {
				return writeErr(cmd, errNotSignedIn)
			}
			p, err := rt.integration.Profile(cmd.Context())
			if err != nil {
				return rt.fail(cmd, err)
			}
			hints := []string{"mailtasks connect"}
			if p.Connected {
				hints = []string{"mailtasks disconnect"}
			}
			return writeOut(cmd, app, map[string]any{"data": p, "_hints": hints})
		},
	}
}
