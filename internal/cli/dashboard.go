package cli

import (
	"github.com/spf13/cobra"

	"mailtasks-cli/internal/dashboard"
)

func newDashboardCmd(app *App) *cobra.Command {
	var categoriesOnly bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Totals, completion rate, categories and recent tasks",
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
			d := dashboard.Build(snap.List())
			if categoriesOnly {
				return writeOut(cmd, app, map[string]any{
					"data": categoryRows(d.Categories),
				})
			}
			return writeOut(cmd, app, map[string]any{
				"data": d,
				"meta": map[string]any{"fetchedAt": snap.FetchedAt},
				"_hints": []string{
					"mailtasks tasks buckets",
					"mailtasks dashboard --categories --format table",
				},
			})
		},
	}

	cmd.Flags().BoolVar(&categoriesOnly, "categories", false, "Only the category breakdown")
	return cmd
}
