package middleware

// identity.go holds helpers shared by the rate limiter and cache for
// identifying the caller.  An unauthenticated request is keyed as
// "anon" so public traffic shares one bucket per IP.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user's ID as a string for
// use in Redis keys.  JWTAuth stores the subject as uint64; requests
// that never passed through it get "anon".
func currentUserID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case uint64:
        return strconv.FormatUint(v, 10)
    case float64:
        return strconv.FormatUint(uint64(v), 10)
    case string:
        if v != "" {
            return v
        }
    }
    return "anon"
}
