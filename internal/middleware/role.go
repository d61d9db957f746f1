package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/receipt-vault/internal/authz"
)

// RequireStaff restricts a route group to the admin tier (ADMIN or
// SUPER_ADMIN). It only does the coarse tier check; per-target decisions
// (who may delete or re-role whom) stay with the authz policy calls inside
// the handlers. Assumes SessionAuth ran earlier in the chain.
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap, ok := Snapshot(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			if d := authz.CanViewUsers(snap.Role); !d.Allowed {
				return c.JSON(http.StatusForbidden, echo.Map{"error": d.Reason})
			}
			return next(c)
		}
	}
}
