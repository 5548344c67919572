package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypeBuyback  TransactionType = "buyback"
)

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusReversed  TransactionStatus = "reversed"
)

// ShareTransaction feeds the trade-activity aggregates behind automatic
// pricing: a purchase row per unlocked-share delta on booking payments, a
// buyback row per settlement fill. Only completed rows count.
type ShareTransaction struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	InstrumentID uint              `gorm:"not null;index" json:"instrument_id"`
	UserID       uint              `gorm:"not null;index" json:"user_id"`
	Type         TransactionType   `gorm:"type:varchar(20);not null;index" json:"type"`
	Quantity     int64             `gorm:"not null" json:"quantity"`
	Price        decimal.Decimal   `gorm:"type:numeric(24,8);not null" json:"price"`
	Status       TransactionStatus `gorm:"type:varchar(20);not null;default:completed" json:"status"`
	CreatedAt    time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ShareTransaction) TableName() string {
	return "share_transactions"
}
