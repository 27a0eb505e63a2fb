package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

type transitionRequest struct {
	Status      string    `json:"status"      validate:"required"`
	Description string    `json:"description" validate:"max=500"`
	Location    string    `json:"location"    validate:"max=200"`
	Timestamp   time.Time `json:"timestamp"`
}

type ledgerEntryResponse struct {
	Sequence    int64     `json:"sequence"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Published   bool      `json:"published"`
}

type historyResponse struct {
	ShipmentID string                `json:"shipment_id"`
	Entries    []ledgerEntryResponse `json:"entries"`
}

type consistencyResponse struct {
	ShipmentID string `json:"shipment_id"`
	Consistent bool   `json:"consistent"`
}

// LifecycleHandler exposes the operator view of the state machine and ledger.
type LifecycleHandler struct {
	service ports.LifecycleService
}

func NewLifecycleHandler(service ports.LifecycleService) *LifecycleHandler {
	return &LifecycleHandler{service: service}
}

// Transition handles POST /v1/admin/shipments/:id/transitions.
//
// @Summary      Apply a status transition
// @Description  Operator path; follows the full transition graph.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Shipment id"
// @Param        body  body      transitionRequest  true  "Target status"
// @Success      200   {object}  shipmentResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/shipments/{id}/transitions [post]
func (h *LifecycleHandler) Transition(c echo.Context) error {
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return err
	}

	shipment, err := h.service.ApplyTransition(c.Request().Context(), ports.TransitionInput{
		ShipmentID:  c.Param("id"),
		Status:      status,
		Description: req.Description,
		Location:    req.Location,
		Timestamp:   req.Timestamp,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toShipmentResponse(shipment))
}

// History handles GET /v1/admin/shipments/:id/history.
//
// @Summary      Raw tracking ledger, oldest first
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment id"
// @Success      200  {object}  historyResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/shipments/{id}/history [get]
func (h *LifecycleHandler) History(c echo.Context) error {
	id := c.Param("id")
	events, err := h.service.History(c.Request().Context(), id)
	if err != nil {
		return err
	}
	entries := make([]ledgerEntryResponse, len(events))
	for i, ev := range events {
		entries[i] = ledgerEntryResponse{
			Sequence:    ev.Sequence,
			Status:      string(ev.Status),
			Description: ev.Description,
			Location:    ev.Location,
			Timestamp:   ev.Timestamp.UTC(),
			Published:   ev.Published,
		}
	}
	return c.JSON(http.StatusOK, historyResponse{ShipmentID: id, Entries: entries})
}

// Verify handles GET /v1/admin/shipments/:id/consistency. An inconsistent
// ledger answers 500 and quarantines the shipment.
//
// @Summary      Replay the ledger against the cached status
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment id"
// @Success      200  {object}  consistencyResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/admin/shipments/{id}/consistency [get]
func (h *LifecycleHandler) Verify(c echo.Context) error {
	id := c.Param("id")
	if err := h.service.VerifyConsistency(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, consistencyResponse{ShipmentID: id, Consistent: true})
}
