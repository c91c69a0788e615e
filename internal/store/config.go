package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAPIBaseURL      = "http://localhost:8080/api"
	DefaultTimeout         = 15 * time.Second
	DefaultRefreshInterval = 30 * time.Second
	DefaultCallbackPort    = 8765
)

type GlobalConfig struct {
	// APIBaseURL is the task service API root.
	APIBaseURL string `json:"apiBaseUrl,omitempty"`

	// Timeout bounds each request.
	Timeout Duration `json:"timeout,omitempty"`

	// RefreshInterval is the background refresh period of the task list.
	RefreshInterval Duration `json:"refreshInterval,omitempty"`

	// MaxRequestsPerSecond throttles requests. Zero disables throttling.
	MaxRequestsPerSecond float64 `json:"maxRequestsPerSecond,omitempty"`

	// Locale selects the notice language ("en", "pt-BR").
	Locale string `json:"locale,omitempty"`

	// CallbackPort is the loopback port the login callback listens on.
	CallbackPort int `json:"callbackPort,omitempty"`

	// LoginURL starts the identity provider sign-in. The provider must be
	// configured to redirect to the loopback callback.
	LoginURL string `json:"loginUrl,omitempty"`

	// TUI holds optional user preferences for the interactive TUI.
	TUI *TUIConfig `json:"tui,omitempty"`
}

type TUIConfig struct {
	// Glyphs selects the glyph set ("unicode", "ascii").
	Glyphs string `json:"glyphs,omitempty"`
	// StartView is the view opened on launch ("tasks", "dashboard").
	StartView string `json:"startView,omitempty"`
}

// Duration is a time.Duration stored as a Go duration string ("30s").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	// Bare numbers are seconds.
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("duration: expected string or number")
	}
	*d = Duration(time.Duration(n * float64(time.Second)))
	return nil
}

func (c *GlobalConfig) EffectiveAPIBaseURL() string {
	if c == nil || strings.TrimSpace(c.APIBaseURL) == "" {
		return DefaultAPIBaseURL
	}
	return strings.TrimSpace(c.APIBaseURL)
}

func (c *GlobalConfig) EffectiveTimeout() time.Duration {
	if c == nil || c.Timeout <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.Timeout)
}

func (c *GlobalConfig) EffectiveRefreshInterval() time.Duration {
	if c == nil || c.RefreshInterval <= 0 {
		return DefaultRefreshInterval
	}
	return time.Duration(c.RefreshInterval)
}

func (c *GlobalConfig) EffectiveCallbackPort() int {
	if c == nil || c.CallbackPort <= 0 {
		return DefaultCallbackPort
	}
	return c.CallbackPort
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.mailtasks).
	if v := strings.TrimSpace(os.Getenv("MAILTASKS_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mailtasks"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// Unique temp name + rename: the CLI and TUI may write concurrently.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// ConfigKeys lists the keys accepted by Get and Set.
func ConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type configKey struct {
	get func(c *GlobalConfig) string
	set func(c *GlobalConfig, v string) error
}

var configKeys = map[string]configKey{
	"apiBaseUrl": {
		get: func(c *GlobalConfig) string { return c.EffectiveAPIBaseURL() },
		set: func(c *GlobalConfig, v string) error {
			if v != "" {
				u, err := url.Parse(v)
				if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
					return fmt.Errorf("apiBaseUrl must be an http(s) url: %q", v)
				}
			}
			c.APIBaseURL = v
			return nil
		},
	},
	"timeout": {
		get: func(c *GlobalConfig) string { return c.EffectiveTimeout().String() },
		set: func(c *GlobalConfig, v string) error { return setDuration(&c.Timeout, v) },
	},
	"refreshInterval": {
		get: func(c *GlobalConfig) string { return c.EffectiveRefreshInterval().String() },
		set: func(c *GlobalConfig, v string) error { return setDuration(&c.RefreshInterval, v) },
	},
	"maxRequestsPerSecond": {
		get: func(c *GlobalConfig) string { return strconv.FormatFloat(c.MaxRequestsPerSecond, 'f', -1, 64) },
		set: func(c *GlobalConfig, v string) error {
			if v == "" {
				c.MaxRequestsPerSecond = 0
				return nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("maxRequestsPerSecond must be a non-negative number: %q", v)
			}
			c.MaxRequestsPerSecond = f
			return nil
		},
	},
	"locale": {
		get: func(c *GlobalConfig) string { return c.Locale },
		set: func(c *GlobalConfig, v string) error {
			c.Locale = v
			return nil
		},
	},
	"callbackPort": {
		get: func(c *GlobalConfig) string { return strconv.Itoa(c.EffectiveCallbackPort()) },
		set: func(c *GlobalConfig, v string) error {
			if v == "" {
				c.CallbackPort = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("callbackPort must be a port number: %q", v)
			}
			c.CallbackPort = n
			return nil
		},
	},
	"loginUrl": {
		get: func(c *GlobalConfig) string { return c.LoginURL },
		set: func(c *GlobalConfig, v string) error {
			if v != "" {
				u, err := url.Parse(v)
				if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
					return fmt.Errorf("loginUrl must be an http(s) url: %q", v)
				}
			}
			c.LoginURL = v
			return nil
		},
	},
	"tui.glyphs": {
		get: func(c *GlobalConfig) string {
			if c.TUI == nil {
				return ""
			}
			return c.TUI.Glyphs
		},
		set: func(c *GlobalConfig, v string) error {
			if v != "" && v != "unicode" && v != "ascii" {
				return fmt.Errorf("tui.glyphs must be unicode or ascii: %q", v)
			}
			c.tui().Glyphs = v
			return nil
		},
	},
	"tui.startView": {
		get: func(c *GlobalConfig) string {
			if c.TUI == nil {
				return ""
			}
			return c.TUI.StartView
		},
		set: func(c *GlobalConfig, v string) error {
			if v != "" && v != "tasks" && v != "dashboard" {
				return fmt.Errorf("tui.startView must be tasks or dashboard: %q", v)
			}
			c.tui().StartView = v
			return nil
		},
	},
}

func (c *GlobalConfig) tui() *TUIConfig {
	if c.TUI == nil {
		c.TUI = &TUIConfig{}
	}
	return c.TUI
}

type UnknownKeyError struct {
	Key string
}

func (e UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown config key %q (known: %s)", e.Key, strings.Join(ConfigKeys(), ", "))
}

// Get returns the effective value of key.
func (c *GlobalConfig) Get(key string) (string, error) {
	k, ok := configKeys[strings.TrimSpace(key)]
	if !ok {
		return "", UnknownKeyError{Key: key}
	}
	return k.get(c), nil
}

// Set assigns key. An empty value resets it to the default.
func (c *GlobalConfig) Set(key, value string) error {
	k, ok := configKeys[strings.TrimSpace(key)]
	if !ok {
		return UnknownKeyError{Key: key}
	}
	return k.set(c, strings.TrimSpace(value))
}

func setDuration(dst *Duration, v string) error {
	if v == "" {
		*dst = 0
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fmt.Errorf("invalid duration %q (e.g. 15s, 1m)", v)
	}
	*dst = Duration(d)
	return nil
}
