package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rehearsal-room-reservation/internal/handler"
	"github.com/iliyamo/rehearsal-room-reservation/internal/middleware"
)

// MemberHandlers bundles the handlers mounted on the authenticated
// member surface so RegisterMember does not take a dozen parameters.
type MemberHandlers struct {
	Rooms        *handler.RoomHandler
	Sessions     *handler.SessionHandler
	Availability *handler.AvailabilityHandler
	Alerts       *handler.AlertHandler
	DeviceTokens *handler.DeviceTokenHandler
	Evaluations  *handler.EvaluationHandler
}

// RegisterMember registers every member-scoped endpoint under /v1.  All
// routes require a valid JWT; any signed-in role may use them since
// staff and admins are regular members inside a rehearsal room.  Extra
// middleware (typically the Redis token-bucket rate limiter) applies to
// the whole group.
func RegisterMember(e *echo.Echo, h MemberHandlers, jwtSecret string, mw ...echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		append([]echo.MiddlewareFunc{
			middleware.JWTAuth(jwtSecret),
			middleware.RequireRole("MEMBER", "STAFF", "ADMIN"),
		}, mw...)...,
	)

	// ---- Rooms ----
	g.POST("/rooms", h.Rooms.CreateRoom)
	g.GET("/my-rooms", h.Rooms.MyRooms)
	g.DELETE("/rooms/:id", h.Rooms.DeleteRoom)
	g.POST("/rooms/:id/confirm", h.Rooms.ConfirmRoom)
	g.POST("/rooms/:id/end", h.Rooms.EndRoom)

	// ---- Sessions ----
	g.POST("/rooms/:id/sessions/:name/join", h.Sessions.JoinSession)
	g.POST("/rooms/:id/sessions/:name/leave", h.Sessions.LeaveSession)
	g.POST("/rooms/:id/sessions/:name/reserve", h.Sessions.ReserveSession)
	g.DELETE("/rooms/:id/sessions/:name/reserve", h.Sessions.CancelReservation)

	// ---- Availability ----
	g.GET("/rooms/:id/availability", h.Availability.GetRoomAvailability)
	g.PUT("/rooms/:id/availability", h.Availability.UpdateMyAvailability)

	// ---- Alerts ----
	g.GET("/alerts", h.Alerts.List)
	g.POST("/alerts/:id/read", h.Alerts.MarkRead)
	g.POST("/alerts/read-by-url", h.Alerts.MarkReadByURL)

	// ---- Device tokens ----
	g.POST("/device-tokens", h.DeviceTokens.Register)

	// ---- Evaluations ----
	g.POST("/rooms/:id/evaluation", h.Evaluations.Submit)
	g.GET("/rooms/:id/evaluation/status", h.Evaluations.Status)
}
