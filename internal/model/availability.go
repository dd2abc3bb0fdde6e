package model

import "time"

// RoomAvailability is one time-slot vote by one user for one room.
// A user's vote set for a room is the collection of their rows for
// that room; updates replace the whole set.  Slots are compared at
// full timestamp precision, no rounding or bucketing.
//
// Fields:
//
//	ID            – primary key identifier.
//	RoomID        – room the vote belongs to.
//	UserID        – user who cast the vote.
//	AvailableSlot – the voted point in time (UTC).
type RoomAvailability struct {
    ID            uint64    // room_availabilities.id
    RoomID        uint64    // room_availabilities.room_id
    UserID        uint64    // room_availabilities.user_id
    AvailableSlot time.Time // room_availabilities.available_slot
}
