package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrShipmentNotFound):
		return http.StatusNotFound, "shipment not found"
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		return http.StatusNotFound, "subscription not found"
	case errors.Is(err, domain.ErrServiceTypeNotFound):
		return http.StatusNotFound, "service type not found"
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "notification task not found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"

	// The two refusals carry distinct messages the caller acts on.
	case errors.Is(err, domain.ErrCancelInTransit):
		return http.StatusConflict, domain.ErrCancelInTransit.Error()
	case errors.Is(err, domain.ErrCancelFinalized):
		return http.StatusConflict, innermost(err)
	case errors.Is(err, domain.ErrTerminalState):
		return http.StatusConflict, domain.ErrTerminalState.Error()
	case errors.Is(err, domain.ErrSequenceConflict):
		return http.StatusConflict, "shipment was updated concurrently, retry the request"
	case errors.Is(err, domain.ErrDuplicateShipment):
		return http.StatusConflict, "shipment already exists"

	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidPackage),
		errors.Is(err, domain.ErrInvalidSubscription):
		return http.StatusUnprocessableEntity, innermost(err)

	case errors.Is(err, domain.ErrLedgerCorrupted):
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("tracking ledger corrupted")
		return http.StatusInternalServerError, "shipment history is inconsistent and under review"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

// innermost strips the "op: " prefixes added by the service layer and
// returns the message of the last error that still wraps a sentinel.
func innermost(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		if _, ok := next.(interface{ Unwrap() error }); !ok {
			return err.Error()
		}
		err = next
	}
}
