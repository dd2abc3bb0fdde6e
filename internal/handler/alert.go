package handler

import (
	"database/sql" // sentinel for missing alert rows
	"errors"       // errors.Is comparisons
	"net/http"     // HTTP status codes
	"strconv"      // parsing path parameters
	"strings"      // input trimming
	"time"         // alert timestamps

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/rehearsal-room-reservation/internal/repository"
)

// AlertHandler serves the authenticated user's in-app alerts.
type AlertHandler struct {
	Alerts *repository.AlertRepo
}

// NewAlertHandler constructs an AlertHandler.
func NewAlertHandler(alerts *repository.AlertRepo) *AlertHandler {
	if alerts == nil {
		panic("nil repository passed to NewAlertHandler")
	}
	return &AlertHandler{Alerts: alerts}
}

// alertView is the JSON shape of one alert.
type alertView struct {
	ID         uint64    `json:"id"`
	Message    string    `json:"message"`
	RelatedURL *string   `json:"related_url"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// List handles GET /v1/alerts and returns the caller's alerts, newest
// first.
func (h *AlertHandler) List(c echo.Context) error {
	nickname, err := getNickname(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	alerts, err := h.Alerts.ListByNickname(c.Request().Context(), nickname)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load alerts"})
	}
	items := make([]alertView, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, alertView{
			ID:         a.ID,
			Message:    a.Message,
			RelatedURL: a.RelatedURL,
			IsRead:     a.IsRead,
			CreatedAt:  a.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MarkRead handles POST /v1/alerts/:id/read.  Marking is scoped to the
// caller, so a foreign alert ID behaves like a missing one.
func (h *AlertHandler) MarkRead(c echo.Context) error {
	nickname, err := getNickname(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	alertID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || alertID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid alert id"})
	}
	if err := h.Alerts.MarkRead(c.Request().Context(), alertID, nickname); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "alert not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to mark alert read"})
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkReadByURL handles POST /v1/alerts/read-by-url.  Opening a page
// marks every alert pointing at it as read in one call.
func (h *AlertHandler) MarkReadByURL(c echo.Context) error {
	nickname, err := getNickname(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.URL) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "url is required"})
	}
	n, err := h.Alerts.MarkReadByURL(c.Request().Context(), nickname, strings.TrimSpace(body.URL))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to mark alerts read"})
	}
	return c.JSON(http.StatusOK, echo.Map{"marked": n})
}
