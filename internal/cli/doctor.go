package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"mailtasks-cli/internal/store"
	"mailtasks-cli/internal/transport"
)

type doctorOut struct {
	store.DoctorReport
	APIBaseURL string `json:"apiBaseUrl"`
	Reachable  bool   `json:"reachable"`
	SignedIn   bool   `json:"signedIn"`
}

func newDoctorCmd(app *App) *cobra.Command {
	var (
		fail    bool
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check local state, session and backend reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newServices(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()

			out := doctorOut{
				DoctorReport: rt.store.Doctor(ctx, time.Now()),
				APIBaseURL:   rt.transport.BaseURL(),
				SignedIn:     rt.session.Active(),
			}
			if !offline {
				out.Reachable = probe(ctx, rt, &out.DoctorReport)
			}

			if err := writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{
					"issues":    len(out.Issues),
					"hasErrors": out.HasErrors(),
				},
				"_hints": []string{"mailtasks config list", "mailtasks login"},
			}); err != nil {
				return err
			}

			if fail && out.HasErrors() {
				return store.ErrDoctorIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if errors are found")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the backend reachability check")
	return cmd
}

// probe pings the API root, then validates the session against the
// profile endpoint when one is active.
func probe(ctx context.Context, rt *services, r *store.DoctorReport) bool {
	ctx, cancel := context.WithTimeout(ctx, rt.cfg.EffectiveTimeout())
	defer cancel()

	if err := rt.transport.Ping(ctx); err != nil {
		r.Issues = append(r.Issues, store.DoctorIssue{
			Level:   store.DoctorIssueLevelError,
			Code:    "backend_unreachable",
			Message: err.Error(),
		})
		return false
	}
	if !rt.session.Active() {
		return true
	}
	if _, err := rt.api.Profile(ctx); errors.Is(err, transport.ErrUnauthenticated) {
		r.Issues = append(r.Issues, store.DoctorIssue{
			Level:   store.DoctorIssueLevelWarn,
			Code:    "session_rejected",
			Message: "the backend rejected the session; run 'mailtasks login'",
		})
	}
	return true
}
