// Package callback receives the browser redirects that end a login or a
// mailbox connection, on a loopback HTTP listener.
package callback

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	LoginPath    = "/login-success"
	SettingsPath = "/settings"
)

var ErrLoginFailed = errors.New("login failed")

// Result is what the redirect carried. Exactly one of Token and Error is
// set for a login; Status is set for a mailbox connection ("success" or
// "error").
type Result struct {
	Token  string
	Error  string
	Status string
}

type Receiver struct {
	ln     net.Listener
	srv    *http.Server
	log    *slog.Logger
	once   sync.Once
	result chan Result
}

// Listen binds addr (host:port; port 0 picks a free one). Only loopback
// hosts are accepted.
func Listen(addr string, log *slog.Logger) (*Receiver, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("callback: %w", err)
	}
	if host != "localhost" {
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			return nil, fmt.Errorf("callback: refusing non-loopback address %q", addr)
		}
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Receiver{ln: ln, log: log, result: make(chan Result, 1)}
	r.srv = &http.Server{Handler: r.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := r.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.Debug("callback server stopped", "err", err)
		}
	}()
	return r, nil
}

func (r *Receiver) Addr() string { return r.ln.Addr().String() }

// URL returns the absolute URL of path on this receiver.
func (r *Receiver) URL(path string) string {
	return "http://" + r.Addr() + path
}

func (r *Receiver) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+LoginPath, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		res := Result{Token: strings.TrimSpace(q.Get("token")), Error: strings.TrimSpace(q.Get("error"))}
		if res.Token == "" && res.Error == "" {
			http.Error(w, "missing token", http.StatusBadRequest)
			return
		}
		r.deliver(res)
		if res.Token != "" {
			writePage(w, "Signed in", "You can close this window and return to the terminal.")
			return
		}
		writePage(w, "Sign-in failed", res.Error)
	})
	mux.HandleFunc("GET "+SettingsPath, func(w http.ResponseWriter, req *http.Request) {
		status := strings.TrimSpace(req.URL.Query().Get("status"))
		if status == "" {
			http.Error(w, "missing status", http.StatusBadRequest)
			return
		}
		r.deliver(Result{Status: status})
		if status == "success" {
			writePage(w, "Mailbox connected", "You can close this window and return to the terminal.")
			return
		}
		writePage(w, "Mailbox connection failed", "Return to the terminal and try again.")
	})
	return mux
}

func (r *Receiver) deliver(res Result) {
	r.once.Do(func() { r.result <- res })
}

// Wait blocks until a redirect arrives or ctx ends. A login redirect that
// carries an error is returned as ErrLoginFailed alongside the result.
func (r *Receiver) Wait(ctx context.Context) (Result, error) {
	select {
	case res := <-r.result:
		if res.Error != "" {
			return res, fmt.Errorf("%w: %s", ErrLoginFailed, res.Error)
		}
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Close stops the listener, letting an in-flight response finish.
func (r *Receiver) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.srv.Shutdown(ctx)
}

func writePage(w http.ResponseWriter, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>%s</title></head><body><h1>%s</h1><p>%s</p></body></html>",
		html.EscapeString(title), html.EscapeString(title), html.EscapeString(body))
}
