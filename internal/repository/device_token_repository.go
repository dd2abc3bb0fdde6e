package repository

import (
	"context"
	"database/sql"
)

// DeviceTokenRepo provides data access to the device_tokens table.
// Device tokens identify push-delivery targets; a token is globally
// unique and always belongs to the account that registered it most
// recently.
type DeviceTokenRepo struct {
	db *sql.DB
}

// NewDeviceTokenRepo returns a new DeviceTokenRepo bound to the given database.
func NewDeviceTokenRepo(db *sql.DB) *DeviceTokenRepo { return &DeviceTokenRepo{db: db} }

// Upsert registers a token for a user. When the token already exists it
// is re-attached to the given user so a device changing accounts stops
// receiving the previous owner's pushes.
func (r *DeviceTokenRepo) Upsert(ctx context.Context, userID uint64, token string) error {
	var (
		id      uint64
		ownerID uint64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id FROM device_tokens WHERE token=? LIMIT 1", token).Scan(&id, &ownerID)
	switch {
	case err == sql.ErrNoRows:
		_, err = r.db.ExecContext(ctx,
			"INSERT INTO device_tokens (user_id, token) VALUES (?,?)", userID, token)
		return err
	case err != nil:
		return err
	}
	if ownerID == userID {
		return nil
	}
	_, err = r.db.ExecContext(ctx,
		"UPDATE device_tokens SET user_id=? WHERE id=?", userID, id)
	return err
}

// TokensByNickname returns all device tokens registered by the user
// with the given nickname. Used by the push consumer to fan out one
// notification per device.
func (r *DeviceTokenRepo) TokensByNickname(ctx context.Context, nickname string) ([]string, error) {
	const q = `SELECT dt.token
	           FROM device_tokens dt
	           JOIN users u ON u.id = dt.user_id
	           WHERE u.nickname = ?
	           ORDER BY dt.id`
	rows, err := r.db.QueryContext(ctx, q, nickname)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tokens := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}
