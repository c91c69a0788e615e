package store

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL allows the TUI and one-shot CLI commands to share the file.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session (
			k TEXT PRIMARY KEY,
			token TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			issued_at_unixms INTEGER NOT NULL,
			expires_at_unixms INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS activity (
			id TEXT PRIMARY KEY,
			ts_unixms INTEGER NOT NULL,
			action TEXT NOT NULL,
			task_id TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_ts ON activity(ts_unixms);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
