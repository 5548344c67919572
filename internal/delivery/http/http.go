package http

import (
	"context"
	"net/http"

	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/service"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
}

func NewHttpAPIHandler(ctx context.Context, echo *echo.Echo, validator *goValidator.Validate, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		service:   service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	base := h.echo.Group("/api")
	h.SetupInstruments(base)
	h.SetupPricing(base)
	h.SetupBookings(base)
	h.SetupOrders(base)
	h.SetupSettings(base)
	h.SetupJobs(base)
}

func (h *HttpAPIHandler) bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.NewValidation("invalid request body: %v", err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apperrors.NewValidation("%v", err)
	}
	return nil
}

// respondError maps the error kind to an HTTP status so clients can tell
// a bad request from an exhausted fund or a concurrent retry.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsValidation(err):
		status = http.StatusBadRequest
	case apperrors.IsConfiguration(err):
		status = http.StatusUnprocessableEntity
	case apperrors.IsConcurrencyConflict(err):
		status = http.StatusConflict
	case apperrors.IsInsufficientFunds(err):
		status = http.StatusPaymentRequired
	case apperrors.IsNotFound(err):
		status = http.StatusNotFound
	}
	return c.JSON(status, dto.NewBaseResponse(status, err.Error(), nil))
}

func respondOK(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse(message, data))
}

func respondCreated(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, dto.NewBaseResponse(http.StatusCreated, message, data))
}
