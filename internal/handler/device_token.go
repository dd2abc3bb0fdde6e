package handler

import (
	"net/http" // HTTP status codes
	"strings"  // input trimming

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/rehearsal-room-reservation/internal/repository"
)

// DeviceTokenHandler registers push-delivery tokens for the current
// user.
type DeviceTokenHandler struct {
	Tokens *repository.DeviceTokenRepo
}

// NewDeviceTokenHandler constructs a DeviceTokenHandler.
func NewDeviceTokenHandler(tokens *repository.DeviceTokenRepo) *DeviceTokenHandler {
	if tokens == nil {
		panic("nil repository passed to NewDeviceTokenHandler")
	}
	return &DeviceTokenHandler{Tokens: tokens}
}

// Register handles POST /v1/device-tokens.  Registering a token that
// already exists re-attaches it to the caller, so a shared device
// always pushes to whoever signed in last.
func (h *DeviceTokenHandler) Register(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	if err := h.Tokens.Upsert(c.Request().Context(), userID, strings.TrimSpace(body.Token)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to register device token"})
	}
	return c.NoContent(http.StatusNoContent)
}
