// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios: business
// rule failures (occupied seats, duplicate reservations, lifecycle
// violations) are normal outcomes surfaced as sentinels, while anything
// else bubbling out of a repository is an infrastructure error and is
// reported as such.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts a manager-only
// operation on a room they do not manage. Handlers should translate
// this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state that has no more specific sentinel. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrRoomNotFound is returned when the referenced room does not exist.
var ErrRoomNotFound = errors.New("room not found")

// ErrSessionNotFound is returned when the named session does not exist
// within the referenced room.
var ErrSessionNotFound = errors.New("session not found")

// ErrReservationNotFound is returned when no reservation exists for the
// given session and user.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrSessionOccupied is returned by a join attempt against a session
// that already has a participant. This is an expected outcome, not an
// exceptional one; callers report it and move on.
var ErrSessionOccupied = errors.New("session already occupied")

// ErrNotParticipant is returned by a leave attempt when the caller is
// not the session's current participant.
var ErrNotParticipant = errors.New("not the session participant")

// ErrSessionVacant is returned when reserving a vacant session.
// Reservations only make sense against occupied sessions; a vacant
// seat should be joined directly.
var ErrSessionVacant = errors.New("session is vacant")

// ErrAlreadyParticipant is returned when the user already occupies a
// session in the same room. One active seat per room per user.
var ErrAlreadyParticipant = errors.New("already participating in this room")

// ErrAlreadyReserved is returned when the user already holds a
// reservation on the session.
var ErrAlreadyReserved = errors.New("already reserved this session")

// ErrRoomNotReady is returned by confirm when at least one session in
// the room is still vacant.
var ErrRoomNotReady = errors.New("room has vacant sessions")

// ErrRoomConfirmed is returned by occupancy mutations against a room
// whose lineup is already locked.
var ErrRoomConfirmed = errors.New("room already confirmed")

// ErrRoomNotConfirmed is returned by end when the room has not been
// confirmed yet.
var ErrRoomNotConfirmed = errors.New("room not confirmed")

// ErrRoomEnded is returned when the room has already ended.
var ErrRoomEnded = errors.New("room already ended")

// ErrAlreadyEvaluated is returned when the caller already submitted an
// evaluation for the room.
var ErrAlreadyEvaluated = errors.New("evaluation already submitted")
