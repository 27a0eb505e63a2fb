package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

// WebhookHandler manages webhook subscriptions and exposes failed deliveries.
type WebhookHandler struct {
	service ports.WebhookService
}

func NewWebhookHandler(service ports.WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// Register handles POST /v1/webhooks.
//
// @Summary      Register a webhook subscription
// @Description  The signing secret is returned only in this response.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerWebhookRequest  true  "Subscription"
// @Success      201   {object}  subscriptionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/webhooks [post]
func (h *WebhookHandler) Register(c echo.Context) error {
	role, tokenClientID, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req registerWebhookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	clientID, err := ownerFor(role, tokenClientID, req.ClientID)
	if err != nil {
		return err
	}

	sub, err := h.service.Register(c.Request().Context(), ports.RegisterSubscriptionInput{
		ClientID: clientID,
		URL:      req.URL,
		Event:    req.Event,
	})
	if err != nil {
		return err
	}

	resp := toSubscriptionResponse(sub)
	resp.Secret = sub.Secret
	return c.JSON(http.StatusCreated, resp)
}

// List handles GET /v1/webhooks.
//
// @Summary      List webhook subscriptions
// @Tags         webhooks
// @Produce      json
// @Security     BearerAuth
// @Param        client_id  query     string  false  "Client to list (admins only)"
// @Success      200        {object}  listSubscriptionsResponse
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Router       /v1/webhooks [get]
func (h *WebhookHandler) List(c echo.Context) error {
	role, tokenClientID, err := ctxClaims(c)
	if err != nil {
		return err
	}
	clientID, err := ownerFor(role, tokenClientID, c.QueryParam("client_id"))
	if err != nil {
		return err
	}

	subs, err := h.service.List(c.Request().Context(), clientID)
	if err != nil {
		return err
	}
	out := make([]subscriptionResponse, len(subs))
	for i, sub := range subs {
		out[i] = toSubscriptionResponse(sub)
	}
	return c.JSON(http.StatusOK, listSubscriptionsResponse{Data: out})
}

// Delete handles DELETE /v1/webhooks/:id. Pending deliveries to the
// subscription are dropped.
//
// @Summary      Delete a webhook subscription
// @Tags         webhooks
// @Security     BearerAuth
// @Param        id  path  string  true  "Subscription id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/webhooks/{id} [delete]
func (h *WebhookHandler) Delete(c echo.Context) error {
	role, clientID, err := ctxClaims(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), ports.DeleteSubscriptionInput{
		ID:       c.Param("id"),
		Role:     role,
		ClientID: clientID,
	}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAbandoned handles GET /v1/webhooks/deliveries/abandoned.
//
// @Summary      List abandoned webhook deliveries
// @Description  Abandoned deliveries are never retried automatically.
// @Tags         webhooks
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum rows (default 50, max 500)"
// @Success      200    {object}  listAbandonedResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /v1/webhooks/deliveries/abandoned [get]
func (h *WebhookHandler) ListAbandoned(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	tasks, err := h.service.ListAbandoned(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	out := make([]abandonedTaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = abandonedTaskResponse{
			ID:             t.ID,
			SubscriptionID: t.SubscriptionID,
			ShipmentID:     t.ShipmentID,
			Sequence:       t.Sequence,
			Event:          string(t.Event),
			TrackingNumber: t.TrackingNumber,
			NewStatus:      string(t.NewStatus),
			Attempts:       t.Attempts,
			LastError:      t.LastError,
			LastStatusCode: t.LastStatusCode,
			OccurredAt:     t.OccurredAt.UTC(),
			UpdatedAt:      t.UpdatedAt.UTC(),
		}
	}
	return c.JSON(http.StatusOK, listAbandonedResponse{Data: out})
}

// toSubscriptionResponse never carries the secret.
func toSubscriptionResponse(sub *domain.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:        sub.ID,
		ClientID:  sub.ClientID,
		URL:       sub.URL,
		Event:     string(sub.Event),
		Active:    sub.Active,
		CreatedAt: sub.CreatedAt.UTC(),
	}
}
