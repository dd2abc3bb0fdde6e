package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/rehearsal-room-reservation/internal/model"
)

// RoomRepo provides CRUD operations for rooms and their lifecycle
// transitions. A room owns its sessions; both are created in one
// transaction so a failed session insert never leaves a headless room
// behind. Lifecycle flags are monotonic: confirmed and ended are only
// ever set, never cleared, and ended requires confirmed.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// that span several repositories.
func (r *RoomRepo) DB() *sql.DB { return r.db }

// ReservationView is one entry of a session's waiting queue as shown
// to clients. Queue position follows ascending reservation ID.
type ReservationView struct {
	ID       uint64 `json:"id"`
	Nickname string `json:"nickname"`
}

// SessionView is one instrument slot of a room with its occupant and
// waiting queue.
type SessionView struct {
	SessionName         string            `json:"session_name"`
	ParticipantNickname *string           `json:"participant_nickname"`
	Reservations        []ReservationView `json:"reservations"`
}

// RoomDetail is a room together with its sessions and their queues,
// the shape returned by the browse and detail endpoints. The room
// password is deliberately absent.
type RoomDetail struct {
	ID              uint64        `json:"id"`
	Title           string        `json:"title"`
	Song            string        `json:"song"`
	Artist          string        `json:"artist"`
	Description     *string       `json:"description"`
	IsPrivate       bool          `json:"is_private"`
	ManagerNickname string        `json:"manager_nickname"`
	Confirmed       bool          `json:"confirmed"`
	Ended           bool          `json:"ended"`
	Sessions        []SessionView `json:"sessions"`
}

// CreateTx inserts a new room and one vacant session per name within
// the scope of an existing transaction. It populates the generated ID
// on the provided room. The caller must supply a non-empty name list
// (enforced at the HTTP boundary) and must commit or roll back the
// transaction; rolling back removes the room and all its sessions,
// which is what makes room creation all-or-nothing.
func (r *RoomRepo) CreateTx(ctx context.Context, tx *sql.Tx, room *model.Room, sessionNames []string) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO rooms (title, song, artist, description, is_private, password, manager_nickname, confirmed, ended)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0)`,
		room.Title, room.Song, room.Artist, room.Description, room.IsPrivate, room.Password, room.ManagerNickname)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	query := `INSERT INTO sessions (room_id, session_name) VALUES `
	args := make([]interface{}, 0, len(sessionNames)*2)
	for i, name := range sessionNames {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, room.ID, name)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID returns the room row. ErrRoomNotFound is returned when no
// such room exists.
func (r *RoomRepo) GetByID(ctx context.Context, roomID uint64) (model.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx,
		`SELECT id, title, song, artist, description, is_private, password, manager_nickname, confirmed, ended, created_at, updated_at
		 FROM rooms WHERE id = ?`, roomID))
}

// GetByIDTx is GetByID within an existing transaction, used by
// lifecycle operations that must re-check room state atomically with
// their mutation.
func (r *RoomRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, roomID uint64) (model.Room, error) {
	return scanRoom(tx.QueryRowContext(ctx,
		`SELECT id, title, song, artist, description, is_private, password, manager_nickname, confirmed, ended, created_at, updated_at
		 FROM rooms WHERE id = ?`, roomID))
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanRoom(row rowScanner) (model.Room, error) {
	var rm model.Room
	err := row.Scan(&rm.ID, &rm.Title, &rm.Song, &rm.Artist, &rm.Description,
		&rm.IsPrivate, &rm.Password, &rm.ManagerNickname, &rm.Confirmed, &rm.Ended,
		&rm.CreatedAt, &rm.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Room{}, ErrRoomNotFound
	}
	return rm, err
}

// ConfirmTx locks the room's lineup. It fails with ErrRoomConfirmed for
// an already-confirmed room and with ErrRoomNotReady while any session
// is vacant. The state check and the flag update run in the caller's
// transaction so a concurrent leave cannot slip between them.
func (r *RoomRepo) ConfirmTx(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	room, err := r.GetByIDTx(ctx, tx, roomID)
	if err != nil {
		return err
	}
	if room.Confirmed {
		return ErrRoomConfirmed
	}
	var vacant int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE room_id = ? AND participant_nickname IS NULL`,
		roomID).Scan(&vacant); err != nil {
		return err
	}
	if vacant > 0 {
		return ErrRoomNotReady
	}
	_, err = tx.ExecContext(ctx, `UPDATE rooms SET confirmed = 1 WHERE id = ?`, roomID)
	return err
}

// EndTx marks the room as ended and returns the distinct nicknames of
// everyone involved (session participants plus the manager). It fails
// with ErrRoomNotConfirmed before confirmation and ErrRoomEnded when
// already ended. The caller uses the returned set to create the
// post-rehearsal evaluation prompts.
func (r *RoomRepo) EndTx(ctx context.Context, tx *sql.Tx, roomID uint64) ([]string, error) {
	room, err := r.GetByIDTx(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Ended {
		return nil, ErrRoomEnded
	}
	if !room.Confirmed {
		return nil, ErrRoomNotConfirmed
	}
	if _, err := tx.ExecContext(ctx, `UPDATE rooms SET ended = 1 WHERE id = ?`, roomID); err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT participant_nickname FROM sessions WHERE room_id = ? AND participant_nickname IS NOT NULL ORDER BY id`,
		roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make([]string, 0)
	seen := make(map[string]struct{})
	for rows.Next() {
		var nick string
		if err := rows.Scan(&nick); err != nil {
			return nil, err
		}
		if _, ok := seen[nick]; !ok {
			seen[nick] = struct{}{}
			members = append(members, nick)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if _, ok := seen[room.ManagerNickname]; !ok {
		members = append(members, room.ManagerNickname)
	}
	return members, nil
}

// Delete removes the room. Sessions, their reservations and the room's
// availability votes go with it via ON DELETE CASCADE; no orphan rows
// survive a room delete.
func (r *RoomRepo) Delete(ctx context.Context, roomID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// List returns all rooms with their sessions and queues, unconfirmed
// rooms first and newest first within each group. A non-empty search
// term filters on title, song and artist, case-insensitively.
func (r *RoomRepo) List(ctx context.Context, search string) ([]RoomDetail, error) {
	q := `SELECT id, title, song, artist, description, is_private, manager_nickname, confirmed, ended
	      FROM rooms`
	args := []interface{}{}
	if term := strings.ToLower(strings.TrimSpace(search)); term != "" {
		q += ` WHERE LOWER(title) LIKE ? OR LOWER(song) LIKE ? OR LOWER(artist) LIKE ?`
		like := "%" + term + "%"
		args = append(args, like, like, like)
	}
	q += ` ORDER BY confirmed ASC, id DESC`
	return r.listDetails(ctx, q, args...)
}

// ListByMember returns the rooms a user manages or plays in.
func (r *RoomRepo) ListByMember(ctx context.Context, nickname string) ([]RoomDetail, error) {
	const q = `SELECT id, title, song, artist, description, is_private, manager_nickname, confirmed, ended
	           FROM rooms
	           WHERE manager_nickname = ?
	              OR id IN (SELECT room_id FROM sessions WHERE participant_nickname = ?)
	           ORDER BY confirmed ASC, id DESC`
	return r.listDetails(ctx, q, nickname, nickname)
}

// Detail returns a single room with sessions and queues.
func (r *RoomRepo) Detail(ctx context.Context, roomID uint64) (*RoomDetail, error) {
	details, err := r.listDetails(ctx,
		`SELECT id, title, song, artist, description, is_private, manager_nickname, confirmed, ended
		 FROM rooms WHERE id = ?`, roomID)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, ErrRoomNotFound
	}
	return &details[0], nil
}

// listDetails runs a room query and attaches sessions and reservation
// queues. Sessions for all matched rooms are loaded in one query and
// reservations in another, keyed back by index maps.
func (r *RoomRepo) listDetails(ctx context.Context, query string, args ...interface{}) ([]RoomDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]RoomDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d RoomDetail
		if err := rows.Scan(&d.ID, &d.Title, &d.Song, &d.Artist, &d.Description,
			&d.IsPrivate, &d.ManagerNickname, &d.Confirmed, &d.Ended); err != nil {
			return nil, err
		}
		d.Sessions = []SessionView{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	in := strings.Join(placeholders, ",")

	sessQ := `SELECT id, room_id, session_name, participant_nickname
	          FROM sessions WHERE room_id IN (` + in + `) ORDER BY room_id, id`
	srows, err := r.db.QueryContext(ctx, sessQ, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	// session id -> (room index, session index) for reservation fan-in
	type sessKey struct{ room, sess int }
	sessIndex := make(map[uint64]sessKey)
	for srows.Next() {
		var (
			sid         uint64
			roomID      uint64
			name        string
			participant sql.NullString
		)
		if err := srows.Scan(&sid, &roomID, &name, &participant); err != nil {
			return nil, err
		}
		ri, ok := index[roomID]
		if !ok {
			continue
		}
		sv := SessionView{SessionName: name, Reservations: []ReservationView{}}
		if participant.Valid {
			p := participant.String
			sv.ParticipantNickname = &p
		}
		sessIndex[sid] = sessKey{room: ri, sess: len(details[ri].Sessions)}
		details[ri].Sessions = append(details[ri].Sessions, sv)
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}
	if len(sessIndex) == 0 {
		return details, nil
	}

	sids := make([]interface{}, 0, len(sessIndex))
	ph := make([]string, 0, len(sessIndex))
	for sid := range sessIndex {
		sids = append(sids, sid)
		ph = append(ph, "?")
	}
	resQ := `SELECT sr.id, sr.session_id, u.nickname
	         FROM session_reservations sr
	         JOIN users u ON u.id = sr.user_id
	         WHERE sr.session_id IN (` + strings.Join(ph, ",") + `)
	         ORDER BY sr.id`
	rrows, err := r.db.QueryContext(ctx, resQ, sids...)
	if err != nil {
		return nil, err
	}
	defer rrows.Close()
	for rrows.Next() {
		var (
			rid  uint64
			sid  uint64
			nick string
		)
		if err := rrows.Scan(&rid, &sid, &nick); err != nil {
			return nil, err
		}
		key, ok := sessIndex[sid]
		if !ok {
			continue
		}
		sv := &details[key.room].Sessions[key.sess]
		sv.Reservations = append(sv.Reservations, ReservationView{ID: rid, Nickname: nick})
	}
	if err := rrows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
