package http

import (
	"strconv"

	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/model"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupPricing(base *echo.Group) {
	v1 := base.Group("/v1/pricing")
	{
		v1.POST("/:instrumentID/recalculate", h.RecalculatePrice)
		v1.POST("/:instrumentID/mode", h.SwitchPriceMode)
		v1.POST("/:instrumentID/manual", h.SetManualPrice)
		v1.GET("/history", h.GetPriceHistory)
	}
}

func instrumentIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("instrumentID"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.NewValidation("invalid instrument id %q", c.Param("instrumentID"))
	}
	return uint(id), nil
}

func (h *HttpAPIHandler) RecalculatePrice(c echo.Context) error {
	instrumentID, err := instrumentIDParam(c)
	if err != nil {
		return respondError(c, err)
	}
	result, err := h.service.PricingService.ComputeNextPrice(c.Request().Context(), instrumentID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Price recalculated", result)
}

func (h *HttpAPIHandler) SwitchPriceMode(c echo.Context) error {
	instrumentID, err := instrumentIDParam(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.SwitchModeRequest
	if err := h.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	history, err := h.service.PricingService.SwitchMode(c.Request().Context(), instrumentID, model.PriceMode(req.Mode))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Price mode switched", history)
}

func (h *HttpAPIHandler) SetManualPrice(c echo.Context) error {
	instrumentID, err := instrumentIDParam(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.SetManualPriceRequest
	if err := h.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	history, err := h.service.PricingService.SetManualPrice(c.Request().Context(), instrumentID, req.Price, req.SetBy)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Manual price set", history)
}

func (h *HttpAPIHandler) GetPriceHistory(c echo.Context) error {
	var param dto.GetPriceHistoryParam
	if err := c.Bind(&param); err != nil {
		return respondError(c, apperrors.NewValidation("invalid query: %v", err))
	}
	if param.InstrumentID == 0 {
		return respondError(c, apperrors.NewValidation("instrument_id is required"))
	}
	histories, err := h.service.PricingService.GetPriceHistory(c.Request().Context(), param)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Price history", histories)
}
