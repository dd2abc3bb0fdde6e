package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/rehearsal-room-reservation/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated browse endpoints: room
// listing/search and room detail.  Guests can look at rooms and their
// session lineups before signing up; every mutation requires a JWT.
// The optional middleware (typically the Redis response cache) is
// applied only to these read endpoints.
func RegisterPublic(e *echo.Echo, r *handler.RoomHandler, mw ...echo.MiddlewareFunc) {
	// Browse all rooms, optionally filtered with ?search= over title,
	// song and artist.
	e.GET("/v1/rooms", r.ListRooms, mw...)
	// Room detail with sessions and their reservation queues.
	e.GET("/v1/rooms/:id", r.GetRoom, mw...)
}
