package handler

import (
	"database/sql" // sentinel for missing users
	"errors"       // errors.Is comparisons
	"fmt"          // alert URL formatting
	"net/http"     // HTTP status codes
	"strings"      // input trimming

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/rehearsal-room-reservation/internal/repository"
)

// EvaluationHandler covers the post-rehearsal manner evaluation: after
// a room ends, each member may submit scores for the others exactly
// once.  Scores fold into the target's manner score and an optional
// mood-maker pick earns a badge.
type EvaluationHandler struct {
	Rooms       *repository.RoomRepo
	Users       *repository.UserRepo
	Evaluations *repository.EvaluationRepo
	Alerts      *repository.AlertRepo
}

// NewEvaluationHandler constructs an EvaluationHandler.
func NewEvaluationHandler(rooms *repository.RoomRepo, users *repository.UserRepo, evaluations *repository.EvaluationRepo, alerts *repository.AlertRepo) *EvaluationHandler {
	if rooms == nil || users == nil || evaluations == nil || alerts == nil {
		panic("nil repository passed to NewEvaluationHandler")
	}
	return &EvaluationHandler{Rooms: rooms, Users: users, Evaluations: evaluations, Alerts: alerts}
}

// Submit handles POST /v1/rooms/:id/evaluation.  The body maps member
// nicknames to scores (1-5) and may name one mood maker.  A member may
// submit once per room, only after the room has ended; self-evaluation
// is rejected.  Everything lands in one transaction.
func (h *EvaluationHandler) Submit(c echo.Context) error {
	nickname, err := getNickname(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, err := roomIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Scores    map[string]int `json:"scores"`
		MoodMaker *string        `json:"mood_maker"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Scores) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scores are required"})
	}
	for target, score := range body.Scores {
		if strings.TrimSpace(target) == "" || score < 1 || score > 5 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "scores must map nicknames to values between 1 and 5"})
		}
		if target == nickname {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "you cannot evaluate yourself"})
		}
	}
	if body.MoodMaker != nil && *body.MoodMaker == nickname {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "you cannot pick yourself as mood maker"})
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
	if !room.Ended {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room has not ended yet"})
	}
	done, err := h.Evaluations.ExistsForEvaluatorTx(ctx, tx, roomID, nickname)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check evaluation"})
	}
	if done {
		return c.JSON(http.StatusConflict, echo.Map{"error": "you already evaluated this room"})
	}
	for target, score := range body.Scores {
		if err := h.Users.ApplyMannerScoreTx(ctx, tx, target, score); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown member " + target})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to apply score"})
		}
		if err := h.Evaluations.CreateTx(ctx, tx, roomID, nickname, target); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record evaluation"})
		}
	}
	if body.MoodMaker != nil && strings.TrimSpace(*body.MoodMaker) != "" {
		if err := h.Users.IncrementBadgesTx(ctx, tx, *body.MoodMaker); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to award badge"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	// The prompt alert for this room is now answered; best effort.
	_, _ = h.Alerts.MarkReadByURL(ctx, nickname, fmt.Sprintf("/v1/rooms/%d/evaluation", roomID))
	return c.JSON(http.StatusCreated, echo.Map{"room_id": roomID, "evaluated": len(body.Scores)})
}

// Status handles GET /v1/rooms/:id/evaluation/status and reports
// whether the caller already submitted for this room.
func (h *EvaluationHandler) Status(c echo.Context) error {
	nickname, err := getNickname(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
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
	done, err := h.Evaluations.ExistsForEvaluator(ctx, roomID, nickname)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check evaluation"})
	}
	return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "evaluated": done})
}
