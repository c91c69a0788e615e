package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mailtasks-cli/internal/session"
)

const currentSessionKey = "current"

func (s Store) LoadSession(ctx context.Context) (session.Credential, bool, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return session.Credential{}, false, err
	}
	defer db.Close()

	var (
		c         session.Credential
		issuedMS  int64
		expiresMS sql.NullInt64
	)
	err = db.QueryRowContext(ctx,
		`SELECT token, subject, email, issued_at_unixms, expires_at_unixms FROM session WHERE k = ?`,
		currentSessionKey,
	).Scan(&c.Token, &c.Subject, &c.Email, &issuedMS, &expiresMS)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Credential{}, false, nil
	}
	if err != nil {
		return session.Credential{}, false, err
	}
	c.IssuedAt = time.UnixMilli(issuedMS).UTC()
	if expiresMS.Valid {
		c.ExpiresAt = time.UnixMilli(expiresMS.Int64).UTC()
	}
	return c, true, nil
}

func (s Store) SaveSession(ctx context.Context, c session.Credential) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var expires sql.NullInt64
	if !c.ExpiresAt.IsZero() {
		expires = sql.NullInt64{Int64: c.ExpiresAt.UnixMilli(), Valid: true}
	}
	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO session(k, token, subject, email, issued_at_unixms, expires_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
		currentSessionKey, c.Token, c.Subject, c.Email, c.IssuedAt.UnixMilli(), expires,
	)
	return err
}

func (s Store) ClearSession(ctx context.Context) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM session WHERE k = ?`, currentSessionKey)
	return err
}

var _ session.Persister = Store{}
