package http

import (
	"strconv"

	"equity-marketplace/internal/apperrors"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupInstruments(base *echo.Group) {
	v1 := base.Group("/v1/instruments")
	{
		v1.GET("/:id/quote", h.GetInstrumentQuote)
	}
}

// GetInstrumentQuote serves the short-lived cached read. Quotes lag
// writes by at most the cache TTL.
func (h *HttpAPIHandler) GetInstrumentQuote(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return respondError(c, apperrors.NewValidation("invalid instrument id %q", c.Param("id")))
	}
	instrument, err := h.service.PricingService.GetQuote(c.Request().Context(), uint(id))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Instrument quote", instrument)
}
