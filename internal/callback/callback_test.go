package callback

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

func listen(t *testing.T) *Receiver {
	t.Helper()
	r, err := Listen("127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func get(t *testing.T, u string) (int, string) {
	t.Helper()
	resp, err := http.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", u, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestLogin_DeliversToken(t *testing.T) {
	r := listen(t)
	code, body := get(t, r.URL(LoginPath)+"?token="+url.QueryEscape("abc.def.ghi"))
	if code != http.StatusOK || !strings.Contains(body, "Signed in") {
		t.Fatalf("unexpected response %d %q", code, body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := r.Wait(ctx)
	if err != nil || res.Token != "abc.def.ghi" {
		t.Fatalf("unexpected result %+v %v", res, err)
	}
}

func TestLogin_DeliversError(t *testing.T) {
	r := listen(t)
	get(t, r.URL(LoginPath)+"?error=access_denied")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := r.Wait(ctx)
	if !errors.Is(err, ErrLoginFailed) || res.Error != "access_denied" {
		t.Fatalf("expected ErrLoginFailed, got %+v %v", res, err)
	}
}

func TestLogin_FirstRedirectWins(t *testing.T) {
	r := listen(t)
	get(t, r.URL(LoginPath)+"?token=first")
	get(t, r.URL(LoginPath)+"?token=second")

	res, err := r.Wait(context.Background())
	if err != nil || res.Token != "first" {
		t.Fatalf("unexpected result %+v %v", res, err)
	}
}

func TestMissingParamsRejected(t *testing.T) {
	r := listen(t)
	if code, _ := get(t, r.URL(LoginPath)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if code, _ := get(t, r.URL("/other")); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestSettings_DeliversStatus(t *testing.T) {
	r := listen(t)
	get(t, r.URL(SettingsPath)+"?status=success")
	res, err := r.Wait(context.Background())
	if err != nil || res.Status != "success" {
		t.Fatalf("unexpected result %+v %v", res, err)
	}
}

func TestWait_HonorsContext(t *testing.T) {
	r := listen(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestListen_RejectsNonLoopback(t *testing.T) {
	if _, err := Listen("0.0.0.0:0", nil); err == nil {
		t.Fatalf("expected error")
	}
}
