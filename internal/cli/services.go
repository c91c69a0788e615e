package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"mailtasks-cli/internal/api"
	"mailtasks-cli/internal/i18n"
	"mailtasks-cli/internal/lifecycle"
	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/session"
	"mailtasks-cli/internal/store"
	"mailtasks-cli/internal/synccache"
	"mailtasks-cli/internal/transport"
)

// services wires one command invocation: local store, session, transport,
// resource client, cache and lifecycle engine.
type services struct {
	app   *App
	store store.Store
	cfg   *store.GlobalConfig
	i18n  *i18n.Localizer
	log   *slog.Logger

	session     *session.Session
	transport   *transport.Client
	api         *api.Client
	cache       *synccache.Cache
	engine      *lifecycle.Engine
	integration *lifecycle.Integration

	stderr io.Writer

	mu sync.Mutex
	// sink receives engine notices; stderr unless the TUI replaces it.
	sink func(lifecycle.Notice)
	// reported is set once a failure has been shown to the user.
	reported bool
	// expired is set once the session-expired notice was shown.
	expired bool
}

func newServices(cmd *cobra.Command, app *App) (*services, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := app.logger()

	st, err := store.Open()
	if err != nil {
		return nil, err
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}

	loc := i18n.New(firstNonEmpty(app.Locale, cfg.Locale, os.Getenv("LANG")))

	sess := session.New(st)
	if err := sess.Restore(ctx); err != nil {
		log.Debug("session restore failed", "err", err)
	}

	baseURL := firstNonEmpty(app.APIURL, cfg.EffectiveAPIBaseURL())
	tc, err := transport.New(transport.Config{
		BaseURL:              baseURL,
		Timeout:              cfg.EffectiveTimeout(),
		MaxRequestsPerSecond: cfg.MaxRequestsPerSecond,
		UserAgent:            "mailtasks-cli",
	}, sess)
	if err != nil {
		return nil, err
	}
	client := api.New(tc)

	rt := &services{
		app:       app,
		store:     st,
		cfg:       cfg,
		i18n:      loc,
		log:       log,
		session:   sess,
		transport: tc,
		api:       client,
		stderr:    cmd.ErrOrStderr(),
	}
	rt.cache = rt.newCache(cfg.EffectiveRefreshInterval())
	rt.sink = rt.printNotice

	notifier := lifecycle.NotifierFunc(rt.dispatch)
	rt.engine = &lifecycle.Engine{
		API:               client,
		Cache:             rt.cache,
		Notifier:          notifier,
		Recorder:          st,
		I18n:              loc,
		Logger:            log,
		OnUnauthenticated: rt.reauth,
	}
	rt.integration = &lifecycle.Integration{
		API:               client,
		Notifier:          notifier,
		Recorder:          st,
		I18n:              loc,
		OnUnauthenticated: rt.reauth,
	}
	return rt, nil
}

func (rt *services) dispatch(n lifecycle.Notice) {
	rt.mu.Lock()
	sink := rt.sink
	if n.Level == lifecycle.LevelError {
		rt.reported = true
	}
	rt.mu.Unlock()
	sink(n)
}

func (rt *services) printNotice(n lifecycle.Notice) {
	fmt.Fprintln(rt.stderr, n.Text)
}

func (rt *services) setSink(fn func(lifecycle.Notice)) {
	rt.mu.Lock()
	rt.sink = fn
	rt.mu.Unlock()
}

// newCache builds the task replica. It is discarded when the session ends,
// and a refresh rejected as unauthenticated ends the session.
func (rt *services) newCache(interval time.Duration) *synccache.Cache {
	cache := synccache.New(rt.api, synccache.Config{
		Interval:     interval,
		FetchTimeout: rt.cfg.EffectiveTimeout(),
		OnError:      rt.refreshFailed,
		Logger:       rt.log,
	})
	// A new identity must never see the previous one's tasks.
	rt.session.OnEnd(cache.Discard)
	return cache
}

func (rt *services) refreshFailed(err error) (stop bool) {
	if !errors.Is(err, transport.ErrUnauthenticated) {
		return false
	}
	rt.reauth(err)
	return true
}

// reauth handles a rejected or missing credential: the local session is
// dropped and the user is told to sign in again, once.
func (rt *services) reauth(err error) {
	rt.log.Debug("unauthenticated", "err", err)
	if rt.session.Active() {
		if endErr := rt.session.End(context.Background()); endErr != nil {
			rt.log.Debug("end session", "err", endErr)
		}
	}
	rt.mu.Lock()
	first := !rt.expired
	rt.expired = true
	rt.mu.Unlock()
	if !first {
		return
	}
	rt.dispatch(lifecycle.Notice{Level: lifecycle.LevelError, SessionEnded: true, Text: rt.i18n.T("session_expired")})
}

// fail reports err unless the engine already did, and returns it.
func (rt *services) fail(cmd *cobra.Command, err error) error {
	rt.mu.Lock()
	reported := rt.reported
	rt.mu.Unlock()
	if reported {
		return err
	}
	if errors.Is(err, transport.ErrUnauthenticated) {
		rt.reauth(err)
		return err
	}
	return writeErr(cmd, err)
}

// load fetches the task collection once. Lifecycle actions only apply to
// tasks present in the loaded collection.
func (rt *services) load(ctx context.Context) (synccache.Snapshot, error) {
	if err := rt.cache.Refresh(ctx); err != nil {
		return rt.cache.Snapshot(), err
	}
	return rt.cache.Snapshot(), nil
}

// settle waits for the refresh an action triggered, bounded by the request timeout.
func (rt *services) settle(ctx context.Context, out lifecycle.Outcome) {
	if out.Synced == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, rt.cfg.EffectiveTimeout())
	defer cancel()
	select {
	case err := <-out.Synced:
		if err != nil {
			rt.log.Debug("post-action refresh failed", "err", err)
		}
	case <-ctx.Done():
	}
}

type actionResult struct {
	Action   lifecycle.Action        `json:"action"`
	TaskID   model.TaskID            `json:"taskId,omitempty"`
	Notice   string                  `json:"notice"`
	Task     *model.Task             `json:"task,omitempty"`
	Created  *model.CreateTaskResult `json:"created,omitempty"`
	SyncedAt *time.Time              `json:"syncedAt,omitempty"`
}

// result builds the command output after an action settled; Task is the
// refreshed task when it is still in the pending collection.
func (rt *services) result(a lifecycle.Action, id model.TaskID, out lifecycle.Outcome) actionResult {
	res := actionResult{Action: a, TaskID: id, Notice: out.Notice.Text}
	snap := rt.cache.Snapshot()
	if id != "" {
		if t, ok := snap.Find(id); ok {
			res.Task = &t
		}
	}
	if !snap.FetchedAt.IsZero() {
		at := snap.FetchedAt
		res.SyncedAt = &at
	}
	return res
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func reasonOf(rt *services, err error) string {
	return lifecycle.Reason(rt.i18n, err)
}
