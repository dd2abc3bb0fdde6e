package handler

import (
	"net/http"
	"testing"
)

// endRehearsal drives a room from creation through end with two
// members, returning the room ID.
func endRehearsal(t *testing.T, env *testEnv) string {
	t.Helper()
	roomID := env.createRoom(t, "alice", `{"title":"t","song":"s","artist":"a","sessions":["guitar","drums"]}`)
	env.request(t, "alice", http.MethodPost, "/v1/rooms/"+roomID+"/sessions/guitar/join", "",
		env.sessions.JoinSession, "id", roomID, "name", "guitar")
	env.request(t, "bob", http.MethodPost, "/v1/rooms/"+roomID+"/sessions/drums/join", "",
		env.sessions.JoinSession, "id", roomID, "name", "drums")
	rec := env.request(t, "alice", http.MethodPost, "/v1/rooms/"+roomID+"/confirm", "", env.rooms.ConfirmRoom, "id", roomID)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm: status = %d (%s)", rec.Code, rec.Body.String())
	}
	rec = env.request(t, "alice", http.MethodPost, "/v1/rooms/"+roomID+"/end", "", env.rooms.EndRoom, "id", roomID)
	if rec.Code != http.StatusOK {
		t.Fatalf("end: status = %d (%s)", rec.Code, rec.Body.String())
	}
	return roomID
}

func TestEvaluationSubmitFlow(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice")
	env.addUser(t, "bob")
	roomID := endRehearsal(t, env)

	submit := func(as, body string, wantCode int) {
		t.Helper()
		rec := env.request(t, as, http.MethodPost, "/v1/rooms/"+roomID+"/evaluation", body,
			env.evals.Submit, "id", roomID)
		if rec.Code != wantCode {
			t.Fatalf("submit as %s: status = %d, want %d (%s)", as, rec.Code, wantCode, rec.Body.String())
		}
	}

	submit("bob", `{"scores":{"bob":5}}`, http.StatusBadRequest)   // self-evaluation
	submit("bob", `{"scores":{"alice":9}}`, http.StatusBadRequest) // out of range
	submit("bob", `{"scores":{"ghost":4}}`, http.StatusBadRequest) // unknown member
	submit("bob", `{"scores":{"alice":4},"mood_maker":"alice"}`, http.StatusCreated)
	submit("bob", `{"scores":{"alice":5}}`, http.StatusConflict) // once per room

	// First score replaced the rookie seed; mood maker got a badge.
	var manner string
	if err := env.db.QueryRow("SELECT manner_score FROM users WHERE nickname = 'alice'").Scan(&manner); err != nil {
		t.Fatal(err)
	}
	if manner != "4" {
		t.Fatalf("manner = %q, want 4", manner)
	}
	if n := count(t, env.db, "SELECT badges FROM users WHERE nickname = 'alice'"); n != 1 {
		t.Fatalf("badges = %d, want 1", n)
	}

	// Submitting marked bob's prompt alert read.
	if n := count(t, env.db,
		"SELECT COUNT(*) FROM alerts WHERE user_nickname = 'bob' AND is_read = 0"); n != 0 {
		t.Fatalf("unread prompts for bob = %d, want 0", n)
	}
}

func TestEvaluationRequiresEndedRoom(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice")
	env.addUser(t, "bob")
	roomID := env.createRoom(t, "alice", `{"title":"t","song":"s","artist":"a","sessions":["guitar"]}`)

	rec := env.request(t, "bob", http.MethodPost, "/v1/rooms/"+roomID+"/evaluation",
		`{"scores":{"alice":4}}`, env.evals.Submit, "id", roomID)
	if rec.Code != http.StatusConflict {
		t.Fatalf("submit before end: status = %d, want 409 (%s)", rec.Code, rec.Body.String())
	}
}

func TestEvaluationStatus(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice")
	env.addUser(t, "bob")
	roomID := endRehearsal(t, env)

	status := func(as string) bool {
		t.Helper()
		rec := env.request(t, as, http.MethodGet, "/v1/rooms/"+roomID+"/evaluation/status", "",
			env.evals.Status, "id", roomID)
		if rec.Code != http.StatusOK {
			t.Fatalf("status: %d (%s)", rec.Code, rec.Body.String())
		}
		done, _ := decode(t, rec)["evaluated"].(bool)
		return done
	}

	if status("bob") {
		t.Fatal("bob evaluated before submitting")
	}
	env.request(t, "bob", http.MethodPost, "/v1/rooms/"+roomID+"/evaluation",
		`{"scores":{"alice":4}}`, env.evals.Submit, "id", roomID)
	if !status("bob") {
		t.Fatal("bob's submission not reflected in status")
	}
	if status("alice") {
		t.Fatal("alice evaluated without submitting")
	}
}
