package lifecycle

import (
	"context"
	"errors"
	"testing"

	"mailtasks-cli/internal/i18n"
	"mailtasks-cli/internal/model"
)

type fakeProfileAPI struct {
	profile     model.UserProfile
	profileHits int
	authHits    int
	discHits    int
}

func (f *fakeProfileAPI) Profile(context.Context) (model.UserProfile, error) {
	f.profileHits++
	return f.profile, nil
}

func (f *fakeProfileAPI) AuthorizationURL(context.Context) (string, error) {
	f.authHits++
	return "https://login.example/consent", nil
}

func (f *fakeProfileAPI) DisconnectIntegration(context.Context) error {
	f.discHits++
	f.profile.Connected = false
	return nil
}

func TestIntegration_DisconnectedOnlyAllowsConnect(t *testing.T) {
	f := &fakeProfileAPI{profile: model.UserProfile{Name: "Ana", Connected: false}}
	notes := &noticeLog{}
	g := &Integration{API: f, Notifier: notes, I18n: i18n.New("en")}

	if _, err := g.Profile(context.Background()); err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if !g.CanConnect() || g.CanDisconnect() {
		t.Fatalf("expected only connect enabled")
	}
	if _, err := g.Disconnect(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if f.discHits != 0 || f.profileHits != 1 {
		t.Fatalf("expected no network call, got disconnect=%d profile=%d", f.discHits, f.profileHits)
	}
	if notes.last().Text != "No mailbox is connected." {
		t.Fatalf("unexpected notice %q", notes.last().Text)
	}

	u, err := g.Connect(context.Background())
	if err != nil || u == "" {
		t.Fatalf("Connect: %q %v", u, err)
	}
}

func TestIntegration_ConnectedOnlyAllowsDisconnect(t *testing.T) {
	f := &fakeProfileAPI{profile: model.UserProfile{Connected: true}}
	acts := &activityLog{}
	g := &Integration{API: f, Recorder: acts}

	if _, err := g.Connect(context.Background()); !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("expected ErrAlreadyConnected, got %v", err)
	}
	if f.authHits != 0 {
		t.Fatalf("expected no authorization request")
	}

	p, err := g.Disconnect(context.Background())
	if err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if p.Connected || !g.CanConnect() {
		t.Fatalf("expected refetched disconnected profile, got %+v", p)
	}
	if f.discHits != 1 || f.profileHits != 2 {
		t.Fatalf("expected disconnect then profile refetch, got disconnect=%d profile=%d", f.discHits, f.profileHits)
	}
	if len(acts.acts) != 2 || acts.acts[0].Outcome != model.OutcomeRejected || acts.acts[1].Outcome != model.OutcomeOK {
		t.Fatalf("unexpected activity: %+v", acts.acts)
	}
}
