package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout  = 15 * time.Second
	maxBodyBytes    = 8 << 20
	requestIDHeader = "X-Request-ID"
)

type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api.
	BaseURL string
	// Timeout bounds every request end to end. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxRequestsPerSecond throttles all requests made through the client.
	// Zero or negative disables throttling.
	MaxRequestsPerSecond float64
	UserAgent            string
	// Base is the underlying round tripper (tests inject one). Nil means http.DefaultTransport.
	Base http.RoundTripper
}

// Client issues requests against the task service. Authenticated requests
// carry the session credential as a bearer token; no request is retried.
type Client struct {
	base      *url.URL
	authed    *http.Client
	anon      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	// JSON is encoded as the request body when non-nil.
	JSON any
	// Text is sent as text/plain when non-nil (takes precedence over JSON).
	Text *string
	// Anonymous skips the credential (public endpoints).
	Anonymous bool
}

// New builds a client. creds may be nil, in which case every authenticated
// request fails as unauthenticated without touching the network.
func New(cfg Config, creds oauth2.TokenSource) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("transport: missing base url")
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("transport: invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("transport: base url must be http(s): %s", raw)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rt := cfg.Base
	if rt == nil {
		rt = http.DefaultTransport
	}
	if creds == nil {
		creds = missingCredentials{}
	}
	limit := rate.Inf
	burst := 1
	if cfg.MaxRequestsPerSecond > 0 {
		limit = rate.Limit(cfg.MaxRequestsPerSecond)
		burst = int(cfg.MaxRequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = "mailtasks-cli"
	}
	return &Client{
		base:      u,
		authed:    &http.Client{Timeout: timeout, Transport: &oauth2.Transport{Source: creds, Base: rt}},
		anon:      &http.Client{Timeout: timeout, Transport: rt},
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: ua,
	}, nil
}

type missingCredentials struct{}

func (missingCredentials) Token() (*oauth2.Token, error) {
	return nil, ErrUnauthenticated
}

func (c *Client) BaseURL() string { return c.base.String() }

// Do performs req and decodes a JSON response body into out (when out is
// non-nil and the body is non-empty).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	op := strings.ToUpper(req.Method) + " " + req.Path
	reqID := uuid.NewString()

	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Kind: KindTransport, Op: op, RequestID: reqID, Err: err}
	}

	hreq, err := c.newRequest(ctx, req, reqID)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, RequestID: reqID, Err: err}
	}

	hc := c.authed
	if req.Anonymous {
		hc = c.anon
	}
	resp, err := hc.Do(hreq)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return &Error{Kind: KindUnauthenticated, Op: op, RequestID: reqID, Message: "missing or expired session credential"}
		}
		return &Error{Kind: KindTransport, Op: op, RequestID: reqID, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Status: resp.StatusCode, RequestID: reqID, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Kind:      kindForStatus(resp.StatusCode),
			Op:        op,
			Status:    resp.StatusCode,
			Message:   serverMessage(body),
			RequestID: reqID,
		}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindTransport, Op: op, Status: resp.StatusCode, RequestID: reqID, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request, reqID string) (*http.Request, error) {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Text != nil:
		body = strings.NewReader(*req.Text)
		contentType = "text/plain; charset=utf-8"
	case req.JSON != nil:
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	hreq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("User-Agent", c.userAgent)
	hreq.Header.Set(requestIDHeader, reqID)
	if contentType != "" {
		hreq.Header.Set("Content-Type", contentType)
	}
	return hreq, nil
}

// Ping sends an anonymous GET to the API root. Any HTTP answer below 500
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/", Anonymous: true}, nil)
	var te *Error
	if errors.As(err, &te) && te.Status > 0 && te.Status < 500 {
		return nil
	}
	return err
}
