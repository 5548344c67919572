package dto

import (
	"equity-marketplace/internal/model"

	"github.com/shopspring/decimal"
)

type SubmitOrderRequest struct {
	UserID       uint  `json:"user_id" validate:"required"`
	InstrumentID uint  `json:"instrument_id" validate:"required"`
	Quantity     int64 `json:"quantity" validate:"required,gt=0"`
	// RequestedPrice of zero means "sell at the current instrument price".
	RequestedPrice decimal.Decimal `json:"requested_price"`
}

type ModifyOrderRequest struct {
	NewQuantity int64 `json:"new_quantity" validate:"required,gt=0"`
}

// BatchOrderOutcome describes what happened to a single order during one
// settlement batch run.
type BatchOrderOutcome struct {
	OrderID  uint              `json:"order_id"`
	Status   model.OrderStatus `json:"status"`
	Quantity int64             `json:"quantity"`
	Amount   decimal.Decimal   `json:"amount"`
	Error    string            `json:"error,omitempty"`
}

// ProcessBatchResult summarizes one settlement batch run.
type ProcessBatchResult struct {
	Processed  []BatchOrderOutcome `json:"processed"`
	Failed     []BatchOrderOutcome `json:"failed"`
	TotalSpent decimal.Decimal     `json:"total_spent"`
	CapReached bool                `json:"cap_reached"`
}

type GetOrdersParam struct {
	IDs          []uint
	UserID       *uint
	InstrumentID *uint
	Statuses     []model.OrderStatus
	Limit        *int
}
