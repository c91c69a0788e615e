package cli

import (
	"github.com/spf13/cobra"
)

func newActivityCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Recent actions taken from this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			items, err := rt.store.ListActivity(cmd.Context(), limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": activityRows(items),
				"meta": map[string]any{"count": len(items)},
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries (newest first)")
	return cmd
}
