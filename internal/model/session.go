package model

import "time"

// Session is one instrument slot within a room, e.g. "guitar" or
// "drums".  A session holds at most one participant at a time; a nil
// ParticipantNickname means the seat is vacant.  Session names are
// unique within their room.  Sessions are created together with their
// room and are only ever removed by deleting the room.
//
// Fields:
//
//	ID                  – primary key identifier.
//	RoomID              – room owning this session.
//	SessionName         – instrument name, unique per room.
//	ParticipantNickname – current occupant, nil when vacant.
//	CreatedAt           – creation timestamp.
type Session struct {
    ID                  uint64    // sessions.id
    RoomID              uint64    // sessions.room_id
    SessionName         string    // sessions.session_name
    ParticipantNickname *string   // sessions.participant_nickname (nullable)
    CreatedAt           time.Time // sessions.created_at
}
