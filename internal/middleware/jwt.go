package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject, nickname and role claims into the request
// context.  The provided secret must match the one used when issuing tokens.
// This middleware should wrap protected routes so that handlers can access
// authenticated user information via `c.Get("user_id")`, `c.Get("nickname")`
// and `c.Get("role")`.  The nickname is the identity used throughout the
// room domain (session occupancy, alerts), so injecting it here saves a
// user lookup on every request.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse with HS256 and our secret; reject any other signing
            // method so an attacker cannot downgrade to "none".
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // Store the identity claims in the context.  Handlers and
            // downstream middleware access these via c.Get(); type
            // assertions are left to the consumers.
            c.Set("user_id", claims["sub"])
            c.Set("nickname", claims["nick"])
            c.Set("role", claims["role"])
            return next(c)
        }
    }
}
