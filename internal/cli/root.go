package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mailtasks-cli/internal/format"
)

type App struct {
	APIURL     string
	Locale     string
	PrettyJSON bool
	Format     string
	Verbose    bool

	log *slog.Logger
}

func NewRootCmd() *cobra.Command {
	// .env in the working directory fills unset variables only.
	_ = godotenv.Load()

	app := &App{}

	cmd := &cobra.Command{
		Use:          "mailtasks",
		Short:        "Email-to-task client (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Sign in, then start the interactive TUI
  mailtasks login
  mailtasks

  # Scriptable commands
  mailtasks tasks list --bucket URGENTE
  mailtasks tasks reply 42 --message "Feito, obrigado." --complete

  # Direct task lookup (shortcut for: mailtasks tasks show <id>)
  mailtasks 42
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		app.log = newLogger(cmd.ErrOrStderr(), app.Verbose)
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", envOr("MAILTASKS_API_URL", ""), "Task service API root (default from config.json, then http://localhost:8080/api)")
	cmd.PersistentFlags().StringVar(&app.Locale, "locale", envOr("MAILTASKS_LOCALE", ""), "Notice language (en|pt-BR)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("MAILTASKS_FORMAT", "json"), "Output format (json|edn|table)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", envBool("MAILTASKS_DEBUG"), "Log diagnostics to stderr")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newConnectCmd(app))
	cmd.AddCommand(newDisconnectCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newDashboardCmd(app))
	cmd.AddCommand(newActivityCmd(app))
	cmd.AddCommand(newContactCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDoctorCmd(app))

	return cmd
}

// newLogger returns a stderr text logger, or a discarding one unless verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (app *App) logger() *slog.Logger {
	if app.log == nil {
		app.log = newLogger(io.Discard, false)
	}
	return app.log
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(k)))
	return b
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
