package http

import (
	"strconv"

	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupOrders(base *echo.Group) {
	v1 := base.Group("/v1/orders")
	{
		v1.POST("", h.SubmitOrder)
		v1.GET("/queue", h.GetOrderQueue)
		v1.POST("/:id/modify", h.ModifyOrder)
		v1.GET("/:id/settlements", h.GetOrderSettlements)
		v1.DELETE("/:id", h.CancelOrder)
		v1.POST("/process", h.ProcessSettlementBatch)
	}
}

func (h *HttpAPIHandler) SubmitOrder(c echo.Context) error {
	var req dto.SubmitOrderRequest
	if err := h.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	order, err := h.service.SettlementService.Submit(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return respondCreated(c, "Order queued", order)
}

func (h *HttpAPIHandler) GetOrderQueue(c echo.Context) error {
	instrumentID, err := strconv.ParseUint(c.QueryParam("instrument_id"), 10, 32)
	if err != nil || instrumentID == 0 {
		return respondError(c, apperrors.NewValidation("instrument_id is required"))
	}
	queue, err := h.service.SettlementService.GetQueue(c.Request().Context(), uint(instrumentID))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Order queue", queue)
}

func (h *HttpAPIHandler) ModifyOrder(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.ModifyOrderRequest
	if err := h.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	order, err := h.service.SettlementService.Modify(c.Request().Context(), id, req.NewQuantity)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Order modified", order)
}

func (h *HttpAPIHandler) GetOrderSettlements(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}
	settlements, err := h.service.SettlementService.GetSettlements(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Settlements", settlements)
}

func (h *HttpAPIHandler) CancelOrder(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.service.SettlementService.Cancel(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Order cancelled", order)
}

func (h *HttpAPIHandler) ProcessSettlementBatch(c echo.Context) error {
	instrumentID, err := strconv.ParseUint(c.QueryParam("instrument_id"), 10, 32)
	if err != nil || instrumentID == 0 {
		return respondError(c, apperrors.NewValidation("instrument_id is required"))
	}
	result, err := h.service.SettlementService.ProcessBatch(c.Request().Context(), uint(instrumentID))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Settlement batch processed", result)
}
