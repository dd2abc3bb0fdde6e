package model

import "time"

// SessionReservation is a queued claim on a currently occupied session.
// When the occupant leaves, the reservation with the smallest ID is
// promoted to participant in the same transaction and its row deleted.
// The auto-increment primary key therefore doubles as the FIFO queue
// order.  At most one reservation exists per (session, user) pair.
//
// Fields:
//
//	ID        – primary key identifier; ascending ID = queue order.
//	SessionID – session being waited on.
//	UserID    – user holding the place in line.
//	CreatedAt – creation timestamp.
type SessionReservation struct {
    ID        uint64    // session_reservations.id
    SessionID uint64    // session_reservations.session_id
    UserID    uint64    // session_reservations.user_id
    CreatedAt time.Time // session_reservations.created_at
}
