package repository

import (
	"context"
	"database/sql"
	"sort"
	"time"
)

// AvailabilityRepo provides data access to the room_availabilities
// table: per-user time-slot votes used to discuss when a room should
// rehearse. A user's votes for a room are always replaced wholesale,
// never merged, and slots are compared at full timestamp precision.
type AvailabilityRepo struct {
	db *sql.DB
}

// NewAvailabilityRepo returns a new AvailabilityRepo bound to the given database.
func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

// AvailabilitySlot is one tallied point in time with the distinct
// nicknames that voted for it.
type AvailabilitySlot struct {
	Time   time.Time `json:"time"`
	Voters []string  `json:"voters"`
}

// ReplaceForUserTx replaces the user's entire vote set for the room
// within the caller's transaction: every existing row for (room, user)
// is deleted, then one row per distinct slot is inserted. An empty
// slot list is legal and simply clears the votes. Duplicate input
// slots collapse to a single row; no other validation is applied,
// any timestamp is a valid slot.
func (r *AvailabilityRepo) ReplaceForUserTx(ctx context.Context, tx *sql.Tx, roomID, userID uint64, slots []time.Time) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM room_availabilities WHERE room_id = ? AND user_id = ?`,
		roomID, userID); err != nil {
		return err
	}
	seen := make(map[int64]struct{}, len(slots))
	for _, slot := range slots {
		slot = slot.UTC()
		if _, dup := seen[slot.UnixNano()]; dup {
			continue
		}
		seen[slot.UnixNano()] = struct{}{}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO room_availabilities (room_id, user_id, available_slot) VALUES (?, ?, ?)`,
			roomID, userID, slot); err != nil {
			return err
		}
	}
	return nil
}

// ListByRoom tallies all votes for the room: rows are grouped by their
// exact slot timestamp and returned ascending by slot, each with the
// distinct voter nicknames in vote-insertion order. A room without
// votes yields an empty slice, never an error.
func (r *AvailabilityRepo) ListByRoom(ctx context.Context, roomID uint64) ([]AvailabilitySlot, error) {
	const q = `SELECT ra.available_slot, u.nickname
	           FROM room_availabilities ra
	           JOIN users u ON u.id = ra.user_id
	           WHERE ra.room_id = ?
	           ORDER BY ra.id`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Group in application code so slot identity is exact timestamp
	// equality regardless of how the driver orders or formats values.
	byNano := make(map[int64]*AvailabilitySlot)
	order := make([]int64, 0)
	for rows.Next() {
		var (
			slot time.Time
			nick string
		)
		if err := rows.Scan(&slot, &nick); err != nil {
			return nil, err
		}
		slot = slot.UTC()
		key := slot.UnixNano()
		entry, ok := byNano[key]
		if !ok {
			entry = &AvailabilitySlot{Time: slot, Voters: []string{}}
			byNano[key] = entry
			order = append(order, key)
		}
		dup := false
		for _, v := range entry.Voters {
			if v == nick {
				dup = true
				break
			}
		}
		if !dup {
			entry.Voters = append(entry.Voters, nick)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]AvailabilitySlot, 0, len(order))
	for _, key := range order {
		out = append(out, *byNano[key])
	}
	return out, nil
}
