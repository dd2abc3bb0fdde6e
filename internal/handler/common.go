package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel values used in the context helpers
    "strconv" // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWT numeric claims arrive as float64 after JSON decoding, so a type
// switch covers every representation the middleware may have stored.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// getNickname extracts the authenticated user's nickname from the
// context. The nickname is the participant identity across the room
// domain, injected by the JWT middleware from the "nick" claim.
func getNickname(c echo.Context) (string, error) {
    if s, ok := c.Get("nickname").(string); ok && s != "" {
        return s, nil
    }
    return "", errors.New("invalid nickname in context")
}
