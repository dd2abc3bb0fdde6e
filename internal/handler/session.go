package handler

import (
	"errors"   // errors.Is comparisons against repository sentinels
	"fmt"      // alert message formatting
	"net/http" // HTTP status codes
	"strings"  // input trimming

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/rehearsal-room-reservation/internal/notify"
	"github.com/iliyamo/rehearsal-room-reservation/internal/repository"
)

// SessionHandler covers everything that happens inside a room's
// instrument sessions: joining, leaving (with FIFO promotion of the
// waiting queue) and the reservation queue itself.  Every mutation is
// one transaction; the room's confirmed flag is the gate for all of
// them.
type SessionHandler struct {
	Rooms        *repository.RoomRepo
	Sessions     *repository.SessionRepo
	Reservations *repository.ReservationRepo
	Alerts       *repository.AlertRepo
	Notifier     notify.Notifier
}

// NewSessionHandler constructs a SessionHandler.  All repositories must
// be non-nil; a nil notifier is replaced with a no-op one.
func NewSessionHandler(rooms *repository.RoomRepo, sessions *repository.SessionRepo, reservations *repository.ReservationRepo, alerts *repository.AlertRepo, n notify.Notifier) *SessionHandler {
	if rooms == nil || sessions == nil || reservations == nil || alerts == nil {
		panic("nil repository passed to NewSessionHandler")
	}
	if n == nil {
		n = notify.NopNotifier{}
	}
	return &SessionHandler{Rooms: rooms, Sessions: sessions, Reservations: reservations, Alerts: alerts, Notifier: n}
}

// sessionParams parses the :id and :name path parameters shared by the
// session routes.
func sessionParams(c echo.Context) (uint64, string, error) {
	roomID, err := roomIDParam(c)
	if err != nil {
		return 0, "", err
	}
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		return 0, "", errors.New("invalid session name")
	}
	return roomID, name, nil
}

// JoinSession handles POST /v1/rooms/:id/sessions/:name/join.  The
// session must be vacant and the room still open; private rooms require
// the room password in the body.  When someone other than the manager
// joins, the manager gets an alert and a push.
func (h *SessionHandler) JoinSession(c echo.Context) error {
	nickname, err := getNickname(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, name, err := sessionParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Password *string `json:"password"`
	}
	// the body is optional for public rooms
	_ = c.Bind(&body)

	ctx := c.Request().Context()
	tx, err := h.Rooms.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	room, err := h.Rooms.GetByIDTx(ctx, tx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
	if room.Confirmed {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is already confirmed"})
	}
	// the manager set the password, so only others have to present it
	if room.IsPrivate && nickname != room.ManagerNickname {
		if body.Password == nil || room.Password == nil || *body.Password != *room.Password {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "wrong room password"})
		}
	}
	if err := h.Sessions.JoinTx(ctx, tx, roomID, name, nickname); err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		case errors.Is(err, repository.ErrSessionOccupied):
			return c.JSON(http.StatusConflict, echo.Map{"error": "session is already taken"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to join session"})
	}
	notifyManager := nickname != room.ManagerNickname
	if notifyManager {
		roomURL := fmt.Sprintf("/v1/rooms/%d", roomID)
		msg := fmt.Sprintf("%s joined the %s session in %q.", nickname, name, room.Title)
		if err := h.Alerts.CreateTx(ctx, tx, room.ManagerNickname, msg, &roomURL); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create alert"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	if notifyManager {
		h.Notifier.Notify(ctx, room.ManagerNickname, "New session member",
			fmt.Sprintf("%s joined the %s session in %q.", nickname, name, room.Title))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id":      roomID,
		"session_name": name,
		"participant":  nickname,
	})
}

// LeaveSession handles POST /v1/rooms/:id/sessions/:name/leave.  Only
// the current participant may leave.  Vacating and promoting the oldest
// reservation happen in one transaction, so the seat is never observed
// empty while a queue exists.  A promoted user is alerted and pushed.
func (h *SessionHandler) LeaveSession(c echo.Context) error {
	nickname, err := getNickname(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, name, err := sessionParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx := c.Request().Context()
	tx, err := h.Rooms.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	room, err := h.Rooms.GetByIDTx(ctx, tx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
	if room.Confirmed {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is already confirmed"})
	}
	promoted, err := h.Sessions.LeaveTx(ctx, tx, roomID, name, nickname)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		case errors.Is(err, repository.ErrNotParticipant):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you are not the participant of this session"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to leave session"})
	}
	if promoted != nil {
		roomURL := fmt.Sprintf("/v1/rooms/%d", roomID)
		msg := fmt.Sprintf("A spot opened up: you now hold the %s session in %q.", name, room.Title)
		if err := h.Alerts.CreateTx(ctx, tx, *promoted, msg, &roomURL); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create alert"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	if promoted != nil {
		h.Notifier.Notify(ctx, *promoted, "Session assigned",
			fmt.Sprintf("You now hold the %s session in %q.", name, room.Title))
	}
	resp := echo.Map{"room_id": roomID, "session_name": name}
	if promoted != nil {
		resp["promoted"] = *promoted
	}
	return c.JSON(http.StatusOK, resp)
}

// ReserveSession handles POST /v1/rooms/:id/sessions/:name/reserve.
// Reserving a vacant session is rejected (join it instead), as is
// reserving while already occupying any session of the room or already
// queued on this one.  The new reservation goes to the back of the
// queue.
func (h *SessionHandler) ReserveSession(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	nickname, err := getNickname(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, name, err := sessionParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx := c.Request().Context()
	tx, err := h.Rooms.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	room, err := h.Rooms.GetByIDTx(ctx, tx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
	if room.Confirmed {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is already confirmed"})
	}
	res, err := h.Reservations.CreateTx(ctx, tx, h.Sessions, roomID, name, userID, nickname)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		case errors.Is(err, repository.ErrSessionVacant):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "session is vacant, join it directly"})
		case errors.Is(err, repository.ErrAlreadyParticipant):
			return c.JSON(http.StatusConflict, echo.Map{"error": "you already hold a session in this room"})
		case errors.Is(err, repository.ErrAlreadyReserved):
			return c.JSON(http.StatusConflict, echo.Map{"error": "you already reserved this session"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reserve session"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_id": res.ID,
		"room_id":        roomID,
		"session_name":   name,
	})
}

// CancelReservation handles DELETE /v1/rooms/:id/sessions/:name/reserve
// and removes the caller's reservation from the session's queue.
func (h *SessionHandler) CancelReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, name, err := sessionParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx := c.Request().Context()
	tx, err := h.Rooms.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Reservations.DeleteTx(ctx, tx, h.Sessions, roomID, name, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		case errors.Is(err, repository.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}
