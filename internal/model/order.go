package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPartial   OrderStatus = "partial"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPartial, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusPartial: {OrderStatusPartial, OrderStatusCompleted, OrderStatusCancelled},
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) Queued() bool {
	return s == OrderStatusPending || s == OrderStatusPartial
}

// SellOrder is an exit request waiting in the buyback queue. FIFOPosition
// is a dense, strictly increasing rank among queued (pending/partial)
// orders; modifying the quantity forfeits it and re-enters at the tail.
type SellOrder struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"not null;index" json:"user_id"`
	InstrumentID      uint            `gorm:"not null;index" json:"instrument_id"`
	Quantity          int64           `gorm:"not null" json:"quantity"`
	RemainingQuantity int64           `gorm:"not null" json:"remaining_quantity"`
	ProcessedQuantity int64           `gorm:"not null;default:0" json:"processed_quantity"`
	RequestedPrice    decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"requested_price"`
	FIFOPosition      int64           `gorm:"column:fifo_position;not null;index" json:"fifo_position"`
	Status            OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SellOrder) TableName() string {
	return "sell_orders"
}

// RemainingValue is the cash required to fully settle what is left of the
// order at its requested price.
func (o *SellOrder) RemainingValue() decimal.Decimal {
	return o.RequestedPrice.Mul(decimal.NewFromInt(o.RemainingQuantity))
}

// Settlement records one fill against a sell order: the quantity bought
// back, the cash paid out, and the fund-ledger transfer reference.
type Settlement struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"not null;index" json:"order_id"`
	InstrumentID  uint            `gorm:"not null;index" json:"instrument_id"`
	Quantity      int64           `gorm:"not null" json:"quantity"`
	Amount        decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"amount"`
	FundReference string          `gorm:"type:varchar(64);not null" json:"fund_reference"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Settlement) TableName() string {
	return "settlements"
}
