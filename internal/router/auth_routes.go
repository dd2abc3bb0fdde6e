package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rehearsal-room-reservation/internal/handler"
	"github.com/iliyamo/rehearsal-room-reservation/internal/middleware"
)

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, while the protected
// profile endpoint lives under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Token issuing endpoints do not require an existing session.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the presented refresh token.
	g.POST("/refresh", a.Refresh)
	// Logout invalidates the presented refresh token.  It deliberately
	// does not require a JWT so an expired session can still be closed.
	g.POST("/logout", a.Logout)

	// The profile endpoint requires a valid access token of any role.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("MEMBER", "STAFF", "ADMIN"))
	auth.GET("/me", a.Me)
}
