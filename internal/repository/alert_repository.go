package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rehearsal-room-reservation/internal/model"
)

// AlertRepo provides data access to the alerts table. Alert rows are
// the durable half of a notification: they are written inside the
// transaction that caused them, while push delivery happens after
// commit and may fail without consequence.
type AlertRepo struct {
	db *sql.DB
}

// NewAlertRepo returns a new AlertRepo bound to the given database.
func NewAlertRepo(db *sql.DB) *AlertRepo { return &AlertRepo{db: db} }

// CreateTx inserts an alert row within the caller's transaction.
func (r *AlertRepo) CreateTx(ctx context.Context, tx *sql.Tx, nickname, message string, relatedURL *string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO alerts (user_nickname, message, related_url, is_read) VALUES (?, ?, ?, 0)`,
		nickname, message, relatedURL)
	return err
}

// ListByNickname returns the user's alerts, newest first.
func (r *AlertRepo) ListByNickname(ctx context.Context, nickname string) ([]model.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_nickname, message, related_url, is_read, created_at
		 FROM alerts WHERE user_nickname = ? ORDER BY id DESC`, nickname)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Alert, 0)
	for rows.Next() {
		var (
			a   model.Alert
			url sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserNickname, &a.Message, &url, &a.IsRead, &a.CreatedAt); err != nil {
			return nil, err
		}
		if url.Valid {
			u := url.String
			a.RelatedURL = &u
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead marks a single alert as read, scoped to its owner so one
// user cannot silence another's alerts. ErrConflict is never returned
// here: marking an already-read alert is a no-op success.
func (r *AlertRepo) MarkRead(ctx context.Context, alertID uint64, nickname string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET is_read = 1 WHERE id = ? AND user_nickname = ?`,
		alertID, nickname)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkReadByURL marks all of the user's unread alerts that point at
// the given frontend URL. Used when the user opens the page the alerts
// refer to.
func (r *AlertRepo) MarkReadByURL(ctx context.Context, nickname, url string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET is_read = 1 WHERE user_nickname = ? AND related_url = ? AND is_read = 0`,
		nickname, url)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
