package repository

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3" // sqlite driver for the in-memory test database

	"github.com/iliyamo/rehearsal-room-reservation/internal/model"
)

// The repositories run against an in-memory SQLite database in tests.
// The production SQL sticks to the portable subset (`?` placeholders,
// Go-side timestamps, no vendor functions), so the same statements
// exercise the same code paths here as against MySQL.
const testSchema = `
CREATE TABLE users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    nickname      TEXT NOT NULL UNIQUE,
    role          TEXT NOT NULL DEFAULT 'MEMBER',
    manner_score  TEXT NOT NULL DEFAULT 'ROOKIE',
    badges        INTEGER NOT NULL DEFAULT 0,
    is_active     INTEGER NOT NULL DEFAULT 1,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE refresh_tokens (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    token_hash TEXT NOT NULL,
    expires_at DATETIME NOT NULL,
    revoked_at DATETIME
);
CREATE TABLE device_tokens (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    token      TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE rooms (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    title            TEXT NOT NULL,
    song             TEXT NOT NULL,
    artist           TEXT NOT NULL,
    description      TEXT,
    is_private       INTEGER NOT NULL DEFAULT 0,
    password         TEXT,
    manager_nickname TEXT NOT NULL,
    confirmed        INTEGER NOT NULL DEFAULT 0,
    ended            INTEGER NOT NULL DEFAULT 0,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE sessions (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    room_id              INTEGER NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    session_name         TEXT NOT NULL,
    participant_nickname TEXT,
    created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (room_id, session_name)
);
CREATE TABLE session_reservations (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (session_id, user_id)
);
CREATE TABLE room_availabilities (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    room_id        INTEGER NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    user_id        INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    available_slot DATETIME NOT NULL
);
CREATE TABLE alerts (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    user_nickname TEXT NOT NULL,
    message       TEXT NOT NULL,
    related_url   TEXT,
    is_read       INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE evaluations (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    room_id            INTEGER NOT NULL,
    evaluator_nickname TEXT NOT NULL,
    evaluated_nickname TEXT NOT NULL
);
`

// openTestDB returns a fresh in-memory database with the full schema.
// A single connection keeps every statement on the same in-memory
// instance.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seedUser inserts a user directly and returns its ID. Bcrypt is
// skipped on purpose; these tests exercise the room domain, not auth.
func seedUser(t *testing.T, db *sql.DB, nickname string) uint64 {
	t.Helper()
	res, err := db.Exec(
		"INSERT INTO users (email, password_hash, nickname, role, manner_score) VALUES (?,?,?,?,?)",
		nickname+"@example.com", "x", nickname, "MEMBER", MannerScoreRookie)
	if err != nil {
		t.Fatalf("seed user %s: %v", nickname, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("seed user %s: %v", nickname, err)
	}
	return uint64(id)
}

// seedRoom creates a room with the given manager and session names via
// the repository, inside its own transaction, and returns the room.
func seedRoom(t *testing.T, db *sql.DB, manager string, sessionNames ...string) *model.Room {
	t.Helper()
	rooms := NewRoomRepo(db)
	room := &model.Room{
		Title:           manager + "'s room",
		Song:            "Smells Like Teen Spirit",
		Artist:          "Nirvana",
		ManagerNickname: manager,
	}
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := rooms.CreateTx(ctx, tx, room, sessionNames); err != nil {
		_ = tx.Rollback()
		t.Fatalf("create room: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return room
}

// inTx runs fn inside a transaction and commits unless fn returned an
// error, in which case the transaction is rolled back and the error
// returned.
func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx) error) error {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return nil
}

// count is a tiny scalar-query helper for assertions.
func count(t *testing.T, db *sql.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query: %v", err)
	}
	return n
}
