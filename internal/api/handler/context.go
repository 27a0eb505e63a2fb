package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/shipment-lifecycle/internal/api/middleware"
	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

// ctxClaims returns the caller identity stored by the auth middleware.
// A client token without a client_id cannot own anything and is refused.
func ctxClaims(c echo.Context) (role, clientID string, err error) {
	role = middleware.RoleFrom(c)
	if role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	clientID = middleware.ClientIDFrom(c)
	if role == domain.RoleClient && clientID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "token missing client identity")
	}
	return role, clientID, nil
}

// ownerFor resolves the client a request acts for. Admins name it explicitly;
// everyone else acts for the client in their token.
func ownerFor(role, tokenClientID, requested string) (string, error) {
	if role == domain.RoleAdmin && requested != "" {
		return requested, nil
	}
	if tokenClientID == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "client_id is required")
	}
	return tokenClientID, nil
}
