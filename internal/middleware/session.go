package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/receipt-vault/internal/model"
	"github.com/iliyamo/receipt-vault/internal/utils"
)

// sessionKey is where the decoded snapshot lives in the Echo context.
const sessionKey = "session"

// SessionCookieName is the http-only cookie set at login/registration.
// API clients may instead send the token as a Bearer header; both paths
// verify identically.
const SessionCookieName = "rv_session"

// SessionAuth returns middleware that verifies the session token from the
// Authorization header or the session cookie and stores the decoded
// snapshot in the request context. Every failure (missing token, bad
// signature, malformed claims, expiry) produces the same 401 body so the
// response never reveals which check failed.
func SessionAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFromRequest(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			snap, err := utils.VerifySessionToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			c.Set(sessionKey, snap)
			return next(c)
		}
	}
}

// Snapshot retrieves the decoded session snapshot placed by SessionAuth.
func Snapshot(c echo.Context) (model.SessionSnapshot, bool) {
	snap, ok := c.Get(sessionKey).(model.SessionSnapshot)
	return snap, ok
}

func tokenFromRequest(c echo.Context) string {
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}
