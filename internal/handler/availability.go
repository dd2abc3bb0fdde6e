package handler

import (
	"errors"   // errors.Is comparisons against repository sentinels
	"fmt"      // validation error messages
	"net/http" // HTTP status codes
	"time"     // RFC3339 slot parsing

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/rehearsal-room-reservation/internal/repository"
)

// AvailabilityHandler exposes the per-room availability votes: reading
// the tallied slots and replacing the caller's own votes.
type AvailabilityHandler struct {
	Rooms        *repository.RoomRepo
	Availability *repository.AvailabilityRepo
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(rooms *repository.RoomRepo, availability *repository.AvailabilityRepo) *AvailabilityHandler {
	if rooms == nil || availability == nil {
		panic("nil repository passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Rooms: rooms, Availability: availability}
}

// GetRoomAvailability handles GET /v1/rooms/:id/availability.  Votes
// are grouped by exact slot timestamp and returned ascending; a room
// without votes yields an empty list.
func (h *AvailabilityHandler) GetRoomAvailability(c echo.Context) error {
	roomID, err := roomIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx := c.Request().Context()
	if _, err := h.Rooms.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
	slots, err := h.Availability.ListByRoom(ctx, roomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": slots})
}

// UpdateMyAvailability handles PUT /v1/rooms/:id/availability.  The
// body carries the caller's complete new vote set as RFC3339 strings;
// previous votes for this room are discarded, not merged.  An empty
// list clears the caller's votes.
func (h *AvailabilityHandler) UpdateMyAvailability(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, err := roomIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Slots []string `json:"slots"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	slots := make([]time.Time, 0, len(body.Slots))
	for _, raw := range body.Slots {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("invalid slot %q: expected RFC3339", raw)})
		}
		slots = append(slots, t.UTC())
	}

	ctx := c.Request().Context()
	if _, err := h.Rooms.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
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
	if err := h.Availability.ReplaceForUserTx(ctx, tx, roomID, userID, slots); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "slots": len(slots)})
}
