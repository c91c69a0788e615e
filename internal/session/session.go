// Package session holds the credential of the signed-in user. A Session is
// created by the owner and handed to the transport as its token source; it
// is never a process global.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"mailtasks-cli/internal/transport"
)

var (
	ErrNoSession  = fmt.Errorf("%w: not signed in", transport.ErrUnauthenticated)
	ErrExpired    = fmt.Errorf("%w: session expired", transport.ErrUnauthenticated)
	ErrEmptyToken = errors.New("session: empty token")
)

// Credential is the bearer token issued by the backend after identity
// provider login, plus what could be read from its claims.
type Credential struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject,omitempty"`
	Email     string    `json:"email,omitempty"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the credential carries an expiry that has passed.
// A credential without a known expiry never expires locally.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Persister keeps the credential across process runs.
type Persister interface {
	LoadSession(ctx context.Context) (Credential, bool, error)
	SaveSession(ctx context.Context, c Credential) error
	ClearSession(ctx context.Context) error
}

type Session struct {
	mu      sync.RWMutex
	cur     *Credential
	persist Persister
	onEnd   []func()

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// New returns an empty session. p may be nil for an in-memory session.
func New(p Persister) *Session {
	return &Session{persist: p, Now: time.Now}
}

// Restore loads a previously persisted credential. An expired one is dropped.
func (s *Session) Restore(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	c, ok, err := s.persist.LoadSession(ctx)
	if err != nil {
		return err
	}
	if !ok || strings.TrimSpace(c.Token) == "" {
		return nil
	}
	if c.Expired(s.Now()) {
		return s.persist.ClearSession(ctx)
	}
	s.mu.Lock()
	s.cur = &c
	s.mu.Unlock()
	return nil
}

// Begin makes token the current credential. It is called when the
// login-success callback delivers a token. The token's claims are read
// without verification (the backend verifies it on every request); an
// opaque non-JWT token is accepted with unknown expiry.
func (s *Session) Begin(ctx context.Context, token string) (Credential, error) {
	token = strings.TrimSpace(token)
	token = strings.TrimPrefix(token, "Bearer ")
	if token == "" {
		return Credential{}, ErrEmptyToken
	}
	c := Credential{Token: token, IssuedAt: s.Now().UTC()}
	if claims, ok := readClaims(token); ok {
		c.Subject = claims.Subject
		c.Email = claims.Email
		if claims.ExpiresAt != nil {
			c.ExpiresAt = claims.ExpiresAt.Time.UTC()
		}
		if claims.IssuedAt != nil {
			c.IssuedAt = claims.IssuedAt.Time.UTC()
		}
	}
	if c.Expired(s.Now()) {
		return Credential{}, ErrExpired
	}
	if s.persist != nil {
		if err := s.persist.SaveSession(ctx, c); err != nil {
			return Credential{}, err
		}
	}
	s.mu.Lock()
	s.cur = &c
	s.mu.Unlock()
	return c, nil
}

// End discards the credential in memory and on disk, then runs the OnEnd
// hooks. Ending an absent session is a no-op apart from the hooks.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	s.cur = nil
	hooks := append([]func(){}, s.onEnd...)
	s.mu.Unlock()

	var err error
	if s.persist != nil {
		err = s.persist.ClearSession(ctx)
	}
	for _, fn := range hooks {
		fn()
	}
	return err
}

// OnEnd registers fn to run after every End.
func (s *Session) OnEnd(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.onEnd = append(s.onEnd, fn)
	s.mu.Unlock()
}

// Current returns the active credential, if any. An expired credential is
// still returned (with ok=true) so callers can report when it lapsed.
func (s *Session) Current() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return Credential{}, false
	}
	return *s.cur, true
}

func (s *Session) Active() bool {
	c, ok := s.Current()
	return ok && !c.Expired(s.Now())
}

// Token implements oauth2.TokenSource for the transport.
func (s *Session) Token() (*oauth2.Token, error) {
	c, ok := s.Current()
	if !ok {
		return nil, ErrNoSession
	}
	if c.Expired(s.Now()) {
		return nil, ErrExpired
	}
	return &oauth2.Token{AccessToken: c.Token, TokenType: "Bearer", Expiry: c.ExpiresAt}, nil
}

var _ oauth2.TokenSource = (*Session)(nil)

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func readClaims(token string) (*claims, bool) {
	if strings.Count(token, ".") != 2 {
		return nil, false
	}
	var cl claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &cl); err != nil {
		return nil, false
	}
	return &cl, true
}
