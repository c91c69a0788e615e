package lifecycle

import (
	"context"
	"errors"
	"sync"

	"mailtasks-cli/internal/i18n"
	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/transport"
)

type ProfileAPI interface {
	Profile(ctx context.Context) (model.UserProfile, error)
	AuthorizationURL(ctx context.Context) (string, error)
	DisconnectIntegration(ctx context.Context) error
}

// Integration gates the mailbox connect and disconnect actions on the
// profile's connection flag. Exactly one of the two is available at a time.
type Integration struct {
	API               ProfileAPI
	Notifier          Notifier
	Recorder          Recorder
	I18n              *i18n.Localizer
	OnUnauthenticated func(error)

	mu      sync.Mutex
	profile *model.UserProfile
}

// Profile fetches the profile and remembers it as the gate state.
func (g *Integration) Profile(ctx context.Context) (model.UserProfile, error) {
	p, err := g.API.Profile(ctx)
	if err != nil {
		if errors.Is(err, transport.ErrUnauthenticated) && g.OnUnauthenticated != nil {
			g.OnUnauthenticated(err)
		}
		return model.UserProfile{}, err
	}
	g.mu.Lock()
	g.profile = &p
	g.mu.Unlock()
	return p, nil
}

// Cached returns the last fetched profile.
func (g *Integration) Cached() (model.UserProfile, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.profile == nil {
		return model.UserProfile{}, false
	}
	return *g.profile, true
}

func (g *Integration) CanConnect() bool {
	p, ok := g.Cached()
	return ok && !p.Connected
}

func (g *Integration) CanDisconnect() bool {
	p, ok := g.Cached()
	return ok && p.Connected
}

func (g *Integration) ensure(ctx context.Context) (model.UserProfile, error) {
	if p, ok := g.Cached(); ok {
		return p, nil
	}
	return g.Profile(ctx)
}

// Connect returns the authorization URL to open in a browser. It is
// rejected without calling the backend when the mailbox is connected.
func (g *Integration) Connect(ctx context.Context) (string, error) {
	p, err := g.ensure(ctx)
	if err != nil {
		return "", err
	}
	if p.Connected {
		return "", g.fail(ctx, ActionConnect, model.OutcomeRejected, ErrAlreadyConnected)
	}
	u, err := g.API.AuthorizationURL(ctx)
	if err != nil {
		return "", g.fail(ctx, ActionConnect, model.OutcomeFailed, err)
	}
	g.engine().record(ctx, ActionConnect, "", model.OutcomeOK, nil)
	return u, nil
}

// Disconnect unlinks the mailbox and refetches the profile. It is rejected
// without calling the backend when no mailbox is connected.
func (g *Integration) Disconnect(ctx context.Context) (model.UserProfile, error) {
	p, err := g.ensure(ctx)
	if err != nil {
		return model.UserProfile{}, err
	}
	if !p.Connected {
		return p, g.fail(ctx, ActionDisconnect, model.OutcomeRejected, ErrNotConnected)
	}
	if err := g.API.DisconnectIntegration(ctx); err != nil {
		return p, g.fail(ctx, ActionDisconnect, model.OutcomeFailed, err)
	}
	g.engine().record(ctx, ActionDisconnect, "", model.OutcomeOK, nil)
	g.engine().notify(Notice{Level: LevelInfo, Action: ActionDisconnect, Text: g.I18n.T("disconnect_ok")})
	return g.Profile(ctx)
}

func (g *Integration) fail(ctx context.Context, a Action, outcome string, err error) error {
	e := g.engine()
	e.record(ctx, a, "", outcome, err)
	if errors.Is(err, transport.ErrUnauthenticated) && g.OnUnauthenticated != nil {
		g.OnUnauthenticated(err)
		return err
	}
	e.notify(Notice{Level: LevelError, Action: a, Text: Describe(g.I18n, a, "", err)})
	return err
}

// engine borrows the engine's notify and record plumbing.
func (g *Integration) engine() *Engine {
	return &Engine{Notifier: g.Notifier, Recorder: g.Recorder, I18n: g.I18n}
}
