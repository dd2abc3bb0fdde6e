package handler

import (
	"errors"   // errors.Is comparisons against repository sentinels
	"fmt"      // alert message formatting
	"net/http" // HTTP status codes
	"strconv"  // parsing path parameters
	"strings"  // input trimming

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/rehearsal-room-reservation/internal/model"
	"github.com/iliyamo/rehearsal-room-reservation/internal/notify"
	"github.com/iliyamo/rehearsal-room-reservation/internal/repository"
)

// RoomHandler groups the repositories needed for the room lifecycle:
// create, browse, confirm, end and delete.  All mutating methods run
// inside a transaction owned by the handler; alerts caused by a state
// change are written in that same transaction and pushes go out only
// after commit.  JWT authentication is assumed to have populated the
// context already.
type RoomHandler struct {
	Rooms    *repository.RoomRepo  // rooms and their session/queue views
	Alerts   *repository.AlertRepo // in-app alert rows
	Notifier notify.Notifier       // post-commit push dispatch
}

// NewRoomHandler constructs a RoomHandler.  Rooms and Alerts must be
// non-nil; a nil notifier is replaced with a no-op one.
func NewRoomHandler(rooms *repository.RoomRepo, alerts *repository.AlertRepo, n notify.Notifier) *RoomHandler {
	if rooms == nil || alerts == nil {
		panic("nil repository passed to NewRoomHandler")
	}
	if n == nil {
		n = notify.NopNotifier{}
	}
	return &RoomHandler{Rooms: rooms, Alerts: alerts, Notifier: n}
}

// roomIDParam parses the :id path parameter shared by every room route.
func roomIDParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid room id")
	}
	return id, nil
}

// CreateRoom handles POST /v1/rooms.  The request carries the room
// metadata plus the fixed list of instrument session names; the room
// row and one vacant session per name are inserted in a single
// transaction so a half-created room can never be observed.  The
// caller becomes the room manager.
func (h *RoomHandler) CreateRoom(c echo.Context) error {
	nickname, err := getNickname(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Title       string   `json:"title"`
		Song        string   `json:"song"`
		Artist      string   `json:"artist"`
		Description *string  `json:"description"`
		IsPrivate   bool     `json:"is_private"`
		Password    *string  `json:"password"`
		Sessions    []string `json:"sessions"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Title = strings.TrimSpace(body.Title)
	body.Song = strings.TrimSpace(body.Song)
	body.Artist = strings.TrimSpace(body.Artist)
	if body.Title == "" || body.Song == "" || body.Artist == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, song and artist are required"})
	}
	// deduplicate session names; an empty list is rejected here so the
	// repository can assume at least one session per room
	names := make([]string, 0, len(body.Sessions))
	seen := make(map[string]struct{})
	for _, n := range body.Sessions {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one session is required"})
	}
	if body.IsPrivate && (body.Password == nil || strings.TrimSpace(*body.Password) == "") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "private rooms require a password"})
	}
	if !body.IsPrivate {
		body.Password = nil
	}

	room := &model.Room{
		Title:           body.Title,
		Song:            body.Song,
		Artist:          body.Artist,
		Description:     body.Description,
		IsPrivate:       body.IsPrivate,
		Password:        body.Password,
		ManagerNickname: nickname,
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
	if err := h.Rooms.CreateTx(ctx, tx, room, names); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create room"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       room.ID,
		"title":    room.Title,
		"sessions": names,
	})
}

// ListRooms handles GET /v1/rooms.  Optional ?search= filters over
// title, song and artist.  Open rooms come before confirmed ones,
// newest first within each group.
func (h *RoomHandler) ListRooms(c echo.Context) error {
	items, err := h.Rooms.List(c.Request().Context(), strings.TrimSpace(c.QueryParam("search")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rooms"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetRoom handles GET /v1/rooms/:id and returns the room with its
// sessions and their waiting queues.
func (h *RoomHandler) GetRoom(c echo.Context) error {
	roomID, err := roomIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	detail, err := h.Rooms.Detail(c.Request().Context(), roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// MyRooms handles GET /v1/my-rooms: every room the caller manages or
// occupies a session in.
func (h *RoomHandler) MyRooms(c echo.Context) error {
	nickname, err := getNickname(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Rooms.ListByMember(c.Request().Context(), nickname)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rooms"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// DeleteRoom handles DELETE /v1/rooms/:id.  Only the room manager may
// delete; sessions, reservations and availability votes cascade away
// with the room.
func (h *RoomHandler) DeleteRoom(c echo.Context) error {
	nickname, err := getNickname(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, err := roomIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx := c.Request().Context()
	room, err := h.Rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
	if room.ManagerNickname != nickname {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the room manager can delete the room"})
	}
	if err := h.Rooms.Delete(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete room"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ConfirmRoom handles POST /v1/rooms/:id/confirm.  Manager only.  The
// transition succeeds only while every session is occupied; afterwards
// joins, leaves and reservations are closed.  Confirming twice is a
// conflict and leaves the room unchanged.
func (h *RoomHandler) ConfirmRoom(c echo.Context) error {
	nickname, err := getNickname(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, err := roomIDParam(c)
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
	if room.ManagerNickname != nickname {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the room manager can confirm the room"})
	}
	if err := h.Rooms.ConfirmTx(ctx, tx, roomID); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomConfirmed):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room is already confirmed"})
		case errors.Is(err, repository.ErrRoomNotReady):
			return c.JSON(http.StatusConflict, echo.Map{"error": "all sessions must be filled before confirming"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm room"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"id": roomID, "confirmed": true})
}

// EndRoom handles POST /v1/rooms/:id/end.  Manager only; the room must
// already be confirmed and not yet ended.  When the rehearsal involved
// at least two distinct people (participants plus the manager), every
// one of them gets an evaluation-prompt alert in the same transaction,
// followed by a best-effort push after commit.
func (h *RoomHandler) EndRoom(c echo.Context) error {
	nickname, err := getNickname(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, err := roomIDParam(c)
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
	if room.ManagerNickname != nickname {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the room manager can end the room"})
	}
	members, err := h.Rooms.EndTx(ctx, tx, roomID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotConfirmed):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room must be confirmed before ending"})
		case errors.Is(err, repository.ErrRoomEnded):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room has already ended"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to end room"})
	}
	// Evaluation prompts only make sense when someone played with
	// someone else.
	prompted := len(members) >= 2
	if prompted {
		evalURL := fmt.Sprintf("/v1/rooms/%d/evaluation", roomID)
		msg := fmt.Sprintf("Rehearsal %q has ended. How were your bandmates?", room.Title)
		for _, member := range members {
			if err := h.Alerts.CreateTx(ctx, tx, member, msg, &evalURL); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create alerts"})
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	if prompted {
		for _, member := range members {
			h.Notifier.Notify(ctx, member, "Rehearsal ended", fmt.Sprintf("Evaluate your bandmates from %q.", room.Title))
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"id": roomID, "ended": true})
}
