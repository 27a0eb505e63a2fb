package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

// maxBatchSize caps a single ingestion request.
const maxBatchSize = 500

// EventDispatcher is the interface the handler uses to enqueue events.
type EventDispatcher interface {
	EnqueueBatch(events []ports.CarrierEventInput)
}

// EventHandler handles carrier status event ingestion.
type EventHandler struct {
	service    ports.EventService
	dispatcher EventDispatcher
}

// NewEventHandler creates an EventHandler. Single events are applied
// synchronously through service; batches go through dispatcher.
func NewEventHandler(service ports.EventService, dispatcher EventDispatcher) *EventHandler {
	return &EventHandler{service: service, dispatcher: dispatcher}
}

// Receive handles POST /v1/events. The event is applied before responding so
// the carrier learns about invalid transitions.
//
// @Summary      Record a carrier status event
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      carrierEventRequest  true  "Carrier event"
// @Success      200   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/events [post]
func (h *EventHandler) Receive(c echo.Context) error {
	var req carrierEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.service.RecordCarrierEvent(c.Request().Context(), toEventInput(req)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acceptedResponse{Message: "event recorded"})
}

// ReceiveBatch handles POST /v1/events/batch. Events are sharded by tracking
// number and applied asynchronously in arrival order per shipment.
//
// @Summary      Ingest a batch of carrier events
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      []carrierEventRequest  true  "Array of carrier events"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/events/batch [post]
func (h *EventHandler) ReceiveBatch(c echo.Context) error {
	var reqs []carrierEventRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(reqs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "batch cannot be empty")
	}
	if len(reqs) > maxBatchSize {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("batch cannot exceed %d events", maxBatchSize))
	}

	// The batch is accepted whole or not at all; every bad item is reported.
	inputs := make([]ports.CarrierEventInput, len(reqs))
	var problems []string
	for i := range reqs {
		if err := c.Validate(&reqs[i]); err != nil {
			problems = append(problems, fmt.Sprintf("event[%d]: %s", i, err.Error()))
			continue
		}
		inputs[i] = toEventInput(reqs[i])
	}
	if len(problems) > 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, strings.Join(problems, "; "))
	}

	h.dispatcher.EnqueueBatch(inputs)
	return c.JSON(http.StatusAccepted, acceptedResponse{
		Message: "events accepted",
		Count:   len(inputs),
	})
}

// toEventInput maps the HTTP request to the service DTO.
func toEventInput(r carrierEventRequest) ports.CarrierEventInput {
	return ports.CarrierEventInput{
		TrackingNumber: r.TrackingNumber,
		Status:         r.Status,
		Location:       r.Location,
		Description:    r.Description,
		Timestamp:      r.Timestamp,
	}
}
