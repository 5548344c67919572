package dto

import (
	"equity-marketplace/internal/model"

	"github.com/shopspring/decimal"
)

type CreateBookingRequest struct {
	UserID             uint            `json:"user_id" validate:"required"`
	InstrumentID       uint            `json:"instrument_id" validate:"required"`
	Quantity           int64           `json:"quantity" validate:"required,gt=0"`
	DownPaymentPercent decimal.Decimal `json:"down_payment_percent" validate:"required"`
}

type ApplyPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type ReduceQuantityRequest struct {
	NewQuantity int64 `json:"new_quantity" validate:"required,gt=0"`
}

type GetBookingsParam struct {
	IDs          []uint
	UserID       *uint
	InstrumentID *uint
	Statuses     []model.BookingStatus
	ExpiredOnly  bool
	Limit        *int
}
