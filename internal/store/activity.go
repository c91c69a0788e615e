package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"mailtasks-cli/internal/model"
)

// maxActivityRows bounds the activity log; older rows are pruned on write.
const maxActivityRows = 1000

// Record appends a mutation attempt to the activity log.
func (s Store) Record(ctx context.Context, a model.Activity) error {
	if strings.TrimSpace(a.ID) == "" {
		a.ID = uuid.NewString()
	}
	if a.TS.IsZero() {
		a.TS = time.Now().UTC()
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO activity(id, ts_unixms, action, task_id, outcome, error) VALUES(?, ?, ?, ?, ?, ?)`,
		a.ID, a.TS.UnixMilli(), a.Action, string(a.TaskID), a.Outcome, a.Error,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM activity WHERE id NOT IN (SELECT id FROM activity ORDER BY ts_unixms DESC, rowid DESC LIMIT ?)`,
		maxActivityRows,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// ListActivity returns up to limit entries, newest first. A limit <= 0
// returns everything kept.
func (s Store) ListActivity(ctx context.Context, limit int) ([]model.Activity, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if limit <= 0 {
		limit = maxActivityRows
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, ts_unixms, action, task_id, outcome, error FROM activity ORDER BY ts_unixms DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Activity{}
	for rows.Next() {
		var (
			a      model.Activity
			tsMS   int64
			taskID string
		)
		if err := rows.Scan(&a.ID, &tsMS, &a.Action, &taskID, &a.Outcome, &a.Error); err != nil {
			return nil, err
		}
		a.TS = time.UnixMilli(tsMS).UTC()
		a.TaskID = model.TaskID(taskID)
		out = append(out, a)
	}
	return out, rows.Err()
}
