package http

import (
	"strconv"

	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/dto"
	"equity-marketplace/pkg/utils"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupBookings(base *echo.Group) {
	v1 := base.Group("/v1/bookings")
	{
		v1.POST("", h.CreateBooking)
		v1.GET("", h.GetBookings)
		v1.POST("/:id/payments", h.ApplyBookingPayment)
		v1.POST("/:id/reduce", h.ReduceBookingQuantity)
		v1.DELETE("/:id", h.CancelBooking)
	}
}

func idParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.NewValidation("invalid id %q", c.Param("id"))
	}
	return uint(id), nil
}

func (h *HttpAPIHandler) CreateBooking(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := h.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	booking, err := h.service.BookingService.CreateBooking(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return respondCreated(c, "Booking created", booking)
}

func (h *HttpAPIHandler) GetBookings(c echo.Context) error {
	var param dto.GetBookingsParam
	if userID, err := strconv.ParseUint(c.QueryParam("user_id"), 10, 32); err == nil {
		param.UserID = utils.ToPointer(uint(userID))
	}
	if instrumentID, err := strconv.ParseUint(c.QueryParam("instrument_id"), 10, 32); err == nil {
		param.InstrumentID = utils.ToPointer(uint(instrumentID))
	}
	bookings, err := h.service.BookingService.Get(c.Request().Context(), param)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Bookings", bookings)
}

func (h *HttpAPIHandler) ApplyBookingPayment(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.ApplyPaymentRequest
	if err := h.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	booking, err := h.service.BookingService.ApplyPayment(c.Request().Context(), id, req.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Payment applied", booking)
}

func (h *HttpAPIHandler) ReduceBookingQuantity(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.ReduceQuantityRequest
	if err := h.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	booking, err := h.service.BookingService.ReduceQuantity(c.Request().Context(), id, req.NewQuantity)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Booking reduced", booking)
}

func (h *HttpAPIHandler) CancelBooking(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}
	booking, err := h.service.BookingService.Cancel(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Booking cancelled", booking)
}
