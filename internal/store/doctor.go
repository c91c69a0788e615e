package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

var ErrDoctorIssuesFound = errors.New("doctor found errors")

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
)

type DoctorIssue struct {
	Level   DoctorIssueLevel `json:"level"`
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Path    string           `json:"path,omitempty"`
}

type DoctorReport struct {
	Issues []DoctorIssue `json:"issues"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

func (r *DoctorReport) add(level DoctorIssueLevel, code, msg, path string) {
	r.Issues = append(r.Issues, DoctorIssue{Level: level, Code: code, Message: msg, Path: path})
}

// Doctor checks the local state: config file, sqlite database and session.
// Backend reachability is checked by the caller.
func (s Store) Doctor(ctx context.Context, now time.Time) DoctorReport {
	r := DoctorReport{Issues: []DoctorIssue{}}

	if path, err := ConfigPath(); err != nil {
		r.add(DoctorIssueLevelError, "config_dir_unavailable", err.Error(), "")
	} else if _, err := LoadConfig(); err != nil {
		r.add(DoctorIssueLevelError, "config_invalid", err.Error(), path)
	}

	if st, err := os.Stat(s.Dir); err == nil && st.Mode().Perm()&0o077 != 0 {
		r.add(DoctorIssueLevelWarn, "state_dir_permissions", fmt.Sprintf("state dir is accessible to other users (%s); it holds the session token", st.Mode().Perm()), s.Dir)
	}

	c, ok, err := s.LoadSession(ctx)
	switch {
	case err != nil:
		r.add(DoctorIssueLevelError, "sqlite_unavailable", err.Error(), s.sqlitePath())
	case !ok:
		r.add(DoctorIssueLevelWarn, "not_signed_in", "no session; run 'mailtasks login'", "")
	case c.Expired(now):
		r.add(DoctorIssueLevelWarn, "session_expired", fmt.Sprintf("session expired at %s; run 'mailtasks login'", c.ExpiresAt.Format(time.RFC3339)), "")
	}
	return r
}
