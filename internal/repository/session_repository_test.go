package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestJoinAndDoubleOccupancy(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")
	room := seedRoom(t, db, "alice", "guitar", "drums")
	sessions := NewSessionRepo(db)
	ctx := context.Background()

	if err := inTx(t, db, func(tx *sql.Tx) error {
		return sessions.JoinTx(ctx, tx, room.ID, "guitar", "alice")
	}); err != nil {
		t.Fatalf("join vacant session: %v", err)
	}

	// A second join on the same session must not overwrite the seat.
	err := inTx(t, db, func(tx *sql.Tx) error {
		return sessions.JoinTx(ctx, tx, room.ID, "guitar", "bob")
	})
	if !errors.Is(err, ErrSessionOccupied) {
		t.Fatalf("join occupied session: got %v, want ErrSessionOccupied", err)
	}

	// Verify the original participant survived.
	if err := inTx(t, db, func(tx *sql.Tx) error {
		s, err := sessions.GetByRoomAndNameTx(ctx, tx, room.ID, "guitar")
		if err != nil {
			return err
		}
		if s.ParticipantNickname == nil || *s.ParticipantNickname != "alice" {
			t.Fatalf("participant = %v, want alice", s.ParticipantNickname)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestJoinUnknownSession(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "alice")
	room := seedRoom(t, db, "alice", "guitar")
	sessions := NewSessionRepo(db)

	err := inTx(t, db, func(tx *sql.Tx) error {
		return sessions.JoinTx(context.Background(), tx, room.ID, "theremin", "alice")
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("got %v, want ErrSessionNotFound", err)
	}
}

func TestLeaveRequiresParticipant(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")
	room := seedRoom(t, db, "alice", "guitar")
	sessions := NewSessionRepo(db)
	ctx := context.Background()

	if err := inTx(t, db, func(tx *sql.Tx) error {
		return sessions.JoinTx(ctx, tx, room.ID, "guitar", "alice")
	}); err != nil {
		t.Fatal(err)
	}

	err := inTx(t, db, func(tx *sql.Tx) error {
		_, err := sessions.LeaveTx(ctx, tx, room.ID, "guitar", "bob")
		return err
	})
	if !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("leave by non-participant: got %v, want ErrNotParticipant", err)
	}
}

func TestLeaveWithoutQueueVacatesSeat(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "alice")
	room := seedRoom(t, db, "alice", "guitar")
	sessions := NewSessionRepo(db)
	ctx := context.Background()

	if err := inTx(t, db, func(tx *sql.Tx) error {
		return sessions.JoinTx(ctx, tx, room.ID, "guitar", "alice")
	}); err != nil {
		t.Fatal(err)
	}
	if err := inTx(t, db, func(tx *sql.Tx) error {
		promoted, err := sessions.LeaveTx(ctx, tx, room.ID, "guitar", "alice")
		if err != nil {
			return err
		}
		if promoted != nil {
			t.Fatalf("promoted = %q, want nil", *promoted)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := inTx(t, db, func(tx *sql.Tx) error {
		s, err := sessions.GetByRoomAndNameTx(ctx, tx, room.ID, "guitar")
		if err != nil {
			return err
		}
		if s.ParticipantNickname != nil {
			t.Fatalf("participant = %q, want vacant", *s.ParticipantNickname)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestFIFOPromotionOrder(t *testing.T) {
	db := openTestDB(t)
	occupant := seedUser(t, db, "occupant")
	_ = occupant
	first := seedUser(t, db, "first")
	second := seedUser(t, db, "second")
	third := seedUser(t, db, "third")
	room := seedRoom(t, db, "occupant", "drums")
	sessions := NewSessionRepo(db)
	reservations := NewReservationRepo(db)
	ctx := context.Background()

	if err := inTx(t, db, func(tx *sql.Tx) error {
		return sessions.JoinTx(ctx, tx, room.ID, "drums", "occupant")
	}); err != nil {
		t.Fatal(err)
	}
	for _, r := range []struct {
		id   uint64
		nick string
	}{{first, "first"}, {second, "second"}, {third, "third"}} {
		if err := inTx(t, db, func(tx *sql.Tx) error {
			_, err := reservations.CreateTx(ctx, tx, sessions, room.ID, "drums", r.id, r.nick)
			return err
		}); err != nil {
			t.Fatalf("reserve for %s: %v", r.nick, err)
		}
	}

	// Each leave hands the seat to the longest-waiting reservation.
	for _, want := range []string{"first", "second", "third"} {
		var current string
		if err := inTx(t, db, func(tx *sql.Tx) error {
			s, err := sessions.GetByRoomAndNameTx(ctx, tx, room.ID, "drums")
			if err != nil {
				return err
			}
			current = *s.ParticipantNickname
			promoted, err := sessions.LeaveTx(ctx, tx, room.ID, "drums", current)
			if err != nil {
				return err
			}
			if promoted == nil || *promoted != want {
				t.Fatalf("promoted = %v, want %s", promoted, want)
			}
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}

	// Queue fully drained.
	if n := count(t, db, "SELECT COUNT(*) FROM session_reservations"); n != 0 {
		t.Fatalf("reservations left = %d, want 0", n)
	}
}

func TestReserveVacantSessionRejected(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice")
	room := seedRoom(t, db, "alice", "guitar")
	sessions := NewSessionRepo(db)
	reservations := NewReservationRepo(db)

	err := inTx(t, db, func(tx *sql.Tx) error {
		_, err := reservations.CreateTx(context.Background(), tx, sessions, room.ID, "guitar", user, "alice")
		return err
	})
	if !errors.Is(err, ErrSessionVacant) {
		t.Fatalf("reserve vacant session: got %v, want ErrSessionVacant", err)
	}
}

func TestReserveWhileOccupyingRoomRejected(t *testing.T) {
	db := openTestDB(t)
	alice := seedUser(t, db, "alice")
	seedUser(t, db, "bob")
	room := seedRoom(t, db, "alice", "guitar", "drums")
	sessions := NewSessionRepo(db)
	reservations := NewReservationRepo(db)
	ctx := context.Background()

	if err := inTx(t, db, func(tx *sql.Tx) error {
		if err := sessions.JoinTx(ctx, tx, room.ID, "guitar", "alice"); err != nil {
			return err
		}
		return sessions.JoinTx(ctx, tx, room.ID, "drums", "bob")
	}); err != nil {
		t.Fatal(err)
	}

	// alice holds guitar, so she cannot queue on drums in the same room.
	err := inTx(t, db, func(tx *sql.Tx) error {
		_, err := reservations.CreateTx(ctx, tx, sessions, room.ID, "drums", alice, "alice")
		return err
	})
	if !errors.Is(err, ErrAlreadyParticipant) {
		t.Fatalf("got %v, want ErrAlreadyParticipant", err)
	}
}

func TestDuplicateReservationRejected(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "occupant")
	waiter := seedUser(t, db, "waiter")
	room := seedRoom(t, db, "occupant", "drums")
	sessions := NewSessionRepo(db)
	reservations := NewReservationRepo(db)
	ctx := context.Background()

	if err := inTx(t, db, func(tx *sql.Tx) error {
		return sessions.JoinTx(ctx, tx, room.ID, "drums", "occupant")
	}); err != nil {
		t.Fatal(err)
	}
	if err := inTx(t, db, func(tx *sql.Tx) error {
		_, err := reservations.CreateTx(ctx, tx, sessions, room.ID, "drums", waiter, "waiter")
		return err
	}); err != nil {
		t.Fatal(err)
	}
	err := inTx(t, db, func(tx *sql.Tx) error {
		_, err := reservations.CreateTx(ctx, tx, sessions, room.ID, "drums", waiter, "waiter")
		return err
	})
	if !errors.Is(err, ErrAlreadyReserved) {
		t.Fatalf("got %v, want ErrAlreadyReserved", err)
	}
}

func TestCancelReservation(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "occupant")
	waiter := seedUser(t, db, "waiter")
	room := seedRoom(t, db, "occupant", "drums")
	sessions := NewSessionRepo(db)
	reservations := NewReservationRepo(db)
	ctx := context.Background()

	if err := inTx(t, db, func(tx *sql.Tx) error {
		return sessions.JoinTx(ctx, tx, room.ID, "drums", "occupant")
	}); err != nil {
		t.Fatal(err)
	}
	if err := inTx(t, db, func(tx *sql.Tx) error {
		_, err := reservations.CreateTx(ctx, tx, sessions, room.ID, "drums", waiter, "waiter")
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if err := inTx(t, db, func(tx *sql.Tx) error {
		return reservations.DeleteTx(ctx, tx, sessions, room.ID, "drums", waiter)
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	// Cancelling again reports the missing reservation.
	err := inTx(t, db, func(tx *sql.Tx) error {
		return reservations.DeleteTx(ctx, tx, sessions, room.ID, "drums", waiter)
	})
	if !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("got %v, want ErrReservationNotFound", err)
	}
}

// TestGuitarDrumsScenario walks the standard two-session flow end to
// end: join, rejected reserve on a vacant seat, queueing, promotion on
// leave and finally a successful confirm.
func TestGuitarDrumsScenario(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "a")
	bID := seedUser(t, db, "b")
	seedUser(t, db, "c")
	room := seedRoom(t, db, "a", "guitar", "drums")
	rooms := NewRoomRepo(db)
	sessions := NewSessionRepo(db)
	reservations := NewReservationRepo(db)
	ctx := context.Background()

	// A joins guitar; drums stays vacant.
	if err := inTx(t, db, func(tx *sql.Tx) error {
		return sessions.JoinTx(ctx, tx, room.ID, "guitar", "a")
	}); err != nil {
		t.Fatal(err)
	}

	// B cannot reserve the vacant drums seat.
	err := inTx(t, db, func(tx *sql.Tx) error {
		_, err := reservations.CreateTx(ctx, tx, sessions, room.ID, "drums", bID, "b")
		return err
	})
	if !errors.Is(err, ErrSessionVacant) {
		t.Fatalf("reserve vacant drums: got %v, want ErrSessionVacant", err)
	}

	// Confirm also fails while drums is vacant.
	err = inTx(t, db, func(tx *sql.Tx) error {
		return rooms.ConfirmTx(ctx, tx, room.ID)
	})
	if !errors.Is(err, ErrRoomNotReady) {
		t.Fatalf("confirm with vacancy: got %v, want ErrRoomNotReady", err)
	}

	// C joins drums, then B reserves it.
	if err := inTx(t, db, func(tx *sql.Tx) error {
		return sessions.JoinTx(ctx, tx, room.ID, "drums", "c")
	}); err != nil {
		t.Fatal(err)
	}
	if err := inTx(t, db, func(tx *sql.Tx) error {
		_, err := reservations.CreateTx(ctx, tx, sessions, room.ID, "drums", bID, "b")
		return err
	}); err != nil {
		t.Fatal(err)
	}

	// C leaves: B is promoted and the reservation row disappears.
	if err := inTx(t, db, func(tx *sql.Tx) error {
		promoted, err := sessions.LeaveTx(ctx, tx, room.ID, "drums", "c")
		if err != nil {
			return err
		}
		if promoted == nil || *promoted != "b" {
			t.Fatalf("promoted = %v, want b", promoted)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if n := count(t, db, "SELECT COUNT(*) FROM session_reservations"); n != 0 {
		t.Fatalf("reservations left = %d, want 0", n)
	}

	// Both seats filled: confirm succeeds now.
	if err := inTx(t, db, func(tx *sql.Tx) error {
		return rooms.ConfirmTx(ctx, tx, room.ID)
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	got, err := rooms.GetByID(ctx, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Confirmed {
		t.Fatal("room not confirmed")
	}
}
