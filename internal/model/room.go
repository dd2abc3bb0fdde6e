package model

import "time"

// Room represents one rehearsal-coordination unit: a song to practice
// and a fixed set of named instrument sessions.  Rooms move through a
// strictly linear lifecycle: open → confirmed → ended.  Both flags are
// monotonic and Ended may only be true while Confirmed is true.
//
// Fields:
//
//	ID              – primary key identifier.
//	Title           – room title shown in listings.
//	Song            – song being rehearsed.
//	Artist          – original artist of the song.
//	Description     – optional free-form description.
//	IsPrivate       – whether joining requires the room password.
//	Password        – plain password for private rooms (nil when public).
//	ManagerNickname – nickname of the user managing the room.
//	Confirmed       – lineup locked; joins/leaves/reservations closed.
//	Ended           – rehearsal finished; implies Confirmed.
//	CreatedAt       – creation timestamp.
//	UpdatedAt       – last update timestamp.
type Room struct {
    ID              uint64    // rooms.id
    Title           string    // rooms.title
    Song            string    // rooms.song
    Artist          string    // rooms.artist
    Description     *string   // rooms.description (nullable)
    IsPrivate       bool      // rooms.is_private
    Password        *string   // rooms.password (nullable)
    ManagerNickname string    // rooms.manager_nickname
    Confirmed       bool      // rooms.confirmed
    Ended           bool      // rooms.ended
    CreatedAt       time.Time // rooms.created_at
    UpdatedAt       time.Time // rooms.updated_at
}
