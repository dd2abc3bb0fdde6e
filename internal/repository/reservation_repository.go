package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rehearsal-room-reservation/internal/model"
)

// ReservationRepo provides data access to the session_reservations
// table. Reservations are queued claims on occupied sessions; their
// auto-increment IDs define the promotion order, so this repository
// never reorders rows; it only appends and deletes.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// CreateTx appends a reservation for the user on the given session
// after checking every business rule within the caller's transaction:
//
//	ErrSessionVacant      – the session has no participant; an empty
//	                        seat is joined, not reserved.
//	ErrAlreadyParticipant – the user already occupies a session in the
//	                        same room (one active seat per room).
//	ErrAlreadyReserved    – the user already queues on this session.
//
// On success the generated ID is populated on the returned record; a
// fresh ID is by construction larger than every existing one, placing
// the reservation at the back of the queue.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, sessions *SessionRepo, roomID uint64, sessionName string, userID uint64, nickname string) (*model.SessionReservation, error) {
	s, err := sessions.GetByRoomAndNameTx(ctx, tx, roomID, sessionName)
	if err != nil {
		return nil, err
	}
	if s.ParticipantNickname == nil {
		return nil, ErrSessionVacant
	}
	occupies, err := sessions.OccupiesAnyTx(ctx, tx, roomID, nickname)
	if err != nil {
		return nil, err
	}
	if occupies {
		return nil, ErrAlreadyParticipant
	}
	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_reservations WHERE session_id = ? AND user_id = ?`,
		s.ID, userID).Scan(&n); err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrAlreadyReserved
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO session_reservations (session_id, user_id) VALUES (?, ?)`,
		s.ID, userID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.SessionReservation{ID: uint64(id), SessionID: s.ID, UserID: userID}, nil
}

// DeleteTx cancels the user's reservation on the named session within
// the caller's transaction. ErrSessionNotFound is returned when the
// session is missing, ErrReservationNotFound when the user holds no
// reservation on it.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, sessions *SessionRepo, roomID uint64, sessionName string, userID uint64) error {
	s, err := sessions.GetByRoomAndNameTx(ctx, tx, roomID, sessionName)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM session_reservations WHERE session_id = ? AND user_id = ?`,
		s.ID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// ListBySession returns the queue for a session, front first.
func (r *ReservationRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.SessionReservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, user_id, created_at
		 FROM session_reservations WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SessionReservation, 0)
	for rows.Next() {
		var sr model.SessionReservation
		if err := rows.Scan(&sr.ID, &sr.SessionID, &sr.UserID, &sr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
