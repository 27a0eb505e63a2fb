package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Context keys set by Auth.
const (
	KeySubject  = "subject"
	KeyRole     = "role"
	KeyClientID = "client_id"
)

// RoleFrom returns the caller's role, or "" when Auth did not run.
func RoleFrom(c echo.Context) string {
	role, _ := c.Get(KeyRole).(string)
	return role
}

// ClientIDFrom returns the client the token was issued to, if any.
func ClientIDFrom(c echo.Context) string {
	id, _ := c.Get(KeyClientID).(string)
	return id
}

// RBAC lets the request through only when the caller holds one of roles.
// It reads what Auth stored, so it must be mounted after it.
func RBAC(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !hasRole(RoleFrom(c), roles) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

func hasRole(role string, roles []string) bool {
	if role == "" {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
