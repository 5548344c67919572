package http

import (
	"strconv"

	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupSettings(base *echo.Group) {
	v1 := base.Group("/v1/settings")
	{
		v1.GET("", h.GetSettings)
		v1.PUT("", h.UpdateSettings)
	}
}

func settingsInstrumentID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.QueryParam("instrument_id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.NewValidation("instrument_id is required")
	}
	return uint(id), nil
}

func (h *HttpAPIHandler) GetSettings(c echo.Context) error {
	instrumentID, err := settingsInstrumentID(c)
	if err != nil {
		return respondError(c, err)
	}
	setting, err := h.service.SettingsService.Get(c.Request().Context(), instrumentID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Market settings", setting)
}

func (h *HttpAPIHandler) UpdateSettings(c echo.Context) error {
	instrumentID, err := settingsInstrumentID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.UpdateSettingsRequest
	if err := h.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	setting, err := h.service.SettingsService.Update(c.Request().Context(), instrumentID, req)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Market settings updated", setting)
}
