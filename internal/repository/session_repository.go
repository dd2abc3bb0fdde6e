package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rehearsal-room-reservation/internal/model"
)

// SessionRepo provides data access to the sessions table and owns the
// occupancy rules: at most one participant per session and the FIFO
// promotion of reservations when a participant leaves. All mutating
// methods run within a caller-supplied transaction so that a leave and
// the resulting promotion are one atomic step: no observable state
// ever shows a vacated seat while a reservation is still waiting to
// fill it.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// GetByRoomAndNameTx loads a session by its room and name within the
// caller's transaction. ErrSessionNotFound is returned when the room
// has no session with that name.
func (r *SessionRepo) GetByRoomAndNameTx(ctx context.Context, tx *sql.Tx, roomID uint64, name string) (model.Session, error) {
	var (
		s           model.Session
		participant sql.NullString
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, room_id, session_name, participant_nickname, created_at
		 FROM sessions WHERE room_id = ? AND session_name = ?`,
		roomID, name).Scan(&s.ID, &s.RoomID, &s.SessionName, &participant, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	if participant.Valid {
		p := participant.String
		s.ParticipantNickname = &p
	}
	return s, nil
}

// JoinTx seats the user in the named session. It fails with
// ErrSessionNotFound when the session is missing and ErrSessionOccupied
// when someone already holds the seat. The occupancy guard is repeated
// in the UPDATE itself so a concurrent join committing first leaves
// this one with zero affected rows instead of a silent overwrite.
func (r *SessionRepo) JoinTx(ctx context.Context, tx *sql.Tx, roomID uint64, name, nickname string) error {
	s, err := r.GetByRoomAndNameTx(ctx, tx, roomID, name)
	if err != nil {
		return err
	}
	if s.ParticipantNickname != nil {
		return ErrSessionOccupied
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET participant_nickname = ? WHERE id = ? AND participant_nickname IS NULL`,
		nickname, s.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionOccupied
	}
	return nil
}

// LeaveTx removes the user from the named session and promotes the
// oldest reservation, if any, in the same transaction. It returns the
// nickname of the promoted user, or nil when the seat stays vacant.
// Fails with ErrSessionNotFound when the session is missing and
// ErrNotParticipant when the caller is not the current occupant.
//
// Promotion picks the reservation with the smallest ID (ascending
// auto-increment IDs are the queue order), seats that user and deletes
// the reservation row, so the head of the queue and the seat change
// hands atomically.
func (r *SessionRepo) LeaveTx(ctx context.Context, tx *sql.Tx, roomID uint64, name, nickname string) (*string, error) {
	s, err := r.GetByRoomAndNameTx(ctx, tx, roomID, name)
	if err != nil {
		return nil, err
	}
	if s.ParticipantNickname == nil || *s.ParticipantNickname != nickname {
		return nil, ErrNotParticipant
	}

	var (
		resID uint64
		next  string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT sr.id, u.nickname
		 FROM session_reservations sr
		 JOIN users u ON u.id = sr.user_id
		 WHERE sr.session_id = ?
		 ORDER BY sr.id ASC
		 LIMIT 1`, s.ID).Scan(&resID, &next)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`UPDATE sessions SET participant_nickname = NULL WHERE id = ?`, s.ID)
		return nil, err
	case err != nil:
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET participant_nickname = ? WHERE id = ?`, next, s.ID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_reservations WHERE id = ?`, resID); err != nil {
		return nil, err
	}
	return &next, nil
}

// OccupiesAnyTx reports whether the user currently occupies any session
// of the room. Used to enforce one active seat per room per user when
// creating reservations.
func (r *SessionRepo) OccupiesAnyTx(ctx context.Context, tx *sql.Tx, roomID uint64, nickname string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE room_id = ? AND participant_nickname = ?`,
		roomID, nickname).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
