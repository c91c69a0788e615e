package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mailtasks-cli/internal/model"
)

func newContactCmd(app *App) *cobra.Command {
	var req model.ContactRequest

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a contact request to the service team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := rt.api.SubmitContact(cmd.Context(), req); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), rt.i18n.TData("contact_failed", map[string]any{"Reason": reasonOf(rt, err)}))
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), rt.i18n.T("contact_ok"))
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"sent": true, "email": req.Email},
			})
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Your name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Your email (required)")
	cmd.Flags().StringVar(&req.Company, "company", "", "Company")
	cmd.Flags().StringVar(&req.Message, "message", "", "Message")
	return cmd
}
