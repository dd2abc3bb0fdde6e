package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	_ "github.com/mattn/go-sqlite3" // sqlite driver for the in-memory test database

	"github.com/iliyamo/rehearsal-room-reservation/internal/notify"
	"github.com/iliyamo/rehearsal-room-reservation/internal/repository"
)

// Handler tests run the full handler + repository stack against an
// in-memory SQLite database, with the authenticated identity injected
// straight into the echo context the way the JWT middleware would.
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

// testEnv bundles everything a handler test needs.
type testEnv struct {
	db       *sql.DB
	echo     *echo.Echo
	rooms    *RoomHandler
	sessions *SessionHandler
	avail    *AvailabilityHandler
	alerts   *AlertHandler
	evals    *EvaluationHandler
	userIDs  map[string]uint64
}

func newTestEnv(t *testing.T) *testEnv {
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

	rooms := repository.NewRoomRepo(db)
	sessions := repository.NewSessionRepo(db)
	reservations := repository.NewReservationRepo(db)
	availability := repository.NewAvailabilityRepo(db)
	alerts := repository.NewAlertRepo(db)
	users := repository.NewUserRepo(db)
	evaluations := repository.NewEvaluationRepo(db)
	nop := notify.NopNotifier{}

	return &testEnv{
		db:       db,
		echo:     echo.New(),
		rooms:    NewRoomHandler(rooms, alerts, nop),
		sessions: NewSessionHandler(rooms, sessions, reservations, alerts, nop),
		avail:    NewAvailabilityHandler(rooms, availability),
		alerts:   NewAlertHandler(alerts),
		evals:    NewEvaluationHandler(rooms, users, evaluations, alerts),
		userIDs:  map[string]uint64{},
	}
}

// addUser inserts a user row and remembers its ID for identity
// injection.
func (env *testEnv) addUser(t *testing.T, nickname string) {
	t.Helper()
	res, err := env.db.Exec(
		"INSERT INTO users (email, password_hash, nickname, role, manner_score) VALUES (?,?,?,?,?)",
		nickname+"@example.com", "x", nickname, "MEMBER", repository.MannerScoreRookie)
	if err != nil {
		t.Fatalf("add user %s: %v", nickname, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatal(err)
	}
	env.userIDs[nickname] = uint64(id)
}

// request runs one handler invocation as the given user and returns the
// recorder. Path parameters are passed as name/value pairs.
func (env *testEnv) request(t *testing.T, as, method, target, body string, h echo.HandlerFunc, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.echo.NewContext(req, rec)
	if len(params) > 0 {
		names := make([]string, 0, len(params)/2)
		values := make([]string, 0, len(params)/2)
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if as != "" {
		c.Set("user_id", env.userIDs[as])
		c.Set("nickname", as)
		c.Set("role", "MEMBER")
	}
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

// decode unmarshals a recorder body into a generic map.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

// createRoom drives the CreateRoom handler and returns the new room ID
// as a string, ready for SetParamValues.
func (env *testEnv) createRoom(t *testing.T, manager, body string) string {
	t.Helper()
	rec := env.request(t, manager, http.MethodPost, "/v1/rooms", body, env.rooms.CreateRoom)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create room: status %d body %s", rec.Code, rec.Body.String())
	}
	id, ok := decode(t, rec)["id"].(float64)
	if !ok {
		t.Fatalf("create room: no id in %s", rec.Body.String())
	}
	return strconv.FormatInt(int64(id), 10)
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
