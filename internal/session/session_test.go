package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mailtasks-cli/internal/transport"
)

type memPersister struct {
	c       Credential
	ok      bool
	cleared int
}

func (m *memPersister) LoadSession(context.Context) (Credential, bool, error) { return m.c, m.ok, nil }
func (m *memPersister) SaveSession(_ context.Context, c Credential) error {
	m.c, m.ok = c, true
	return nil
}
func (m *memPersister) ClearSession(context.Context) error {
	m.c, m.ok = Credential{}, false
	m.cleared++
	return nil
}

func signed(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: sub + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestBegin_ReadsClaimsAndPersists(t *testing.T) {
	p := &memPersister{}
	s := New(p)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	c, err := s.Begin(context.Background(), signed(t, "user-1", exp))
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if c.Subject != "user-1" || c.Email != "user-1@example.com" || !c.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected credential: %+v", c)
	}
	if !p.ok || p.c.Token != c.Token {
		t.Fatalf("expected credential persisted")
	}
	tok, err := s.Token()
	if err != nil || tok.AccessToken != c.Token || tok.TokenType != "Bearer" {
		t.Fatalf("unexpected token: %+v %v", tok, err)
	}
}

func TestBegin_AcceptsOpaqueToken(t *testing.T) {
	s := New(nil)
	c, err := s.Begin(context.Background(), "  opaque-token ")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if c.Token != "opaque-token" || !c.ExpiresAt.IsZero() {
		t.Fatalf("unexpected credential: %+v", c)
	}
	if !s.Active() {
		t.Fatalf("expected active session")
	}
}

func TestBegin_RejectsExpiredAndEmpty(t *testing.T) {
	s := New(nil)
	if _, err := s.Begin(context.Background(), signed(t, "u", time.Now().Add(-time.Minute))); !errors.Is(err, transport.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for expired token, got %v", err)
	}
	if _, err := s.Begin(context.Background(), "   "); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("expected no current session")
	}
}

func TestToken_AbsentAndExpired(t *testing.T) {
	s := New(nil)
	if _, err := s.Token(); !errors.Is(err, transport.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated without session, got %v", err)
	}

	now := time.Now()
	s.Now = func() time.Time { return now }
	if _, err := s.Begin(context.Background(), signed(t, "u", now.Add(time.Minute))); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	s.Now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := s.Token(); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestEnd_ClearsAndRunsHooks(t *testing.T) {
	p := &memPersister{}
	s := New(p)
	var ended int
	s.OnEnd(func() { ended++ })

	if _, err := s.Begin(context.Background(), "tok"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := s.End(context.Background()); err != nil {
		t.Fatalf("End: %v", err)
	}
	if err := s.End(context.Background()); err != nil {
		t.Fatalf("second End: %v", err)
	}
	if _, ok := s.Current(); ok || p.ok {
		t.Fatalf("expected session cleared")
	}
	if ended != 2 || p.cleared != 2 {
		t.Fatalf("expected hooks and clear on each End, got hooks=%d clears=%d", ended, p.cleared)
	}
}

func TestRestore_DropsExpired(t *testing.T) {
	p := &memPersister{ok: true, c: Credential{Token: "old", ExpiresAt: time.Now().Add(-time.Hour)}}
	s := New(p)
	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("expected expired credential dropped")
	}
	if p.cleared != 1 {
		t.Fatalf("expected persisted credential cleared")
	}

	p2 := &memPersister{ok: true, c: Credential{Token: "live"}}
	s2 := New(p2)
	if err := s2.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if c, ok := s2.Current(); !ok || c.Token != "live" {
		t.Fatalf("expected restored credential, got %+v", c)
	}
}
