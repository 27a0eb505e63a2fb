package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

// RateHandler serves price quotes.
type RateHandler struct {
	service ports.RateService
}

func NewRateHandler(service ports.RateService) *RateHandler {
	return &RateHandler{service: service}
}

// Quote handles POST /v1/rates.
//
// @Summary      Quote every active service for a package
// @Description  Rates are sorted by cost, then by delivery time.
// @Tags         rates
// @Accept       json
// @Produce      json
// @Param        body  body      rateRequest  true  "Route and package"
// @Success      200   {object}  quoteResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/rates [post]
func (h *RateHandler) Quote(c echo.Context) error {
	var req rateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	rates, err := h.service.Quote(c.Request().Context(), ports.RateRequest{
		Origin:      toRateAddress(req.Origin),
		Destination: toRateAddress(req.Destination),
		Package:     toPackageInput(req.Package),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toQuoteResponse(rates))
}

func toRateAddress(a rateAddressRequest) ports.AddressInput {
	return ports.AddressInput{
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func toQuoteResponse(rates []domain.Rate) quoteResponse {
	out := make([]rateResponse, len(rates))
	for i, r := range rates {
		out[i] = rateResponse{
			ServiceCode:          r.ServiceCode,
			ServiceName:          r.ServiceName,
			Cost:                 r.Cost,
			EstimatedDaysMin:     r.EstimatedDaysMin,
			EstimatedDaysMax:     r.EstimatedDaysMax,
			EstimatedDeliveryMin: r.EstimatedDeliveryMin.UTC(),
			EstimatedDeliveryMax: r.EstimatedDeliveryMax.UTC(),
		}
	}
	return quoteResponse{Rates: out}
}
