package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PriceMode string

const (
	PriceModeManual    PriceMode = "manual"
	PriceModeAutomatic PriceMode = "automatic"
)

func (m PriceMode) Valid() bool {
	return m == PriceModeManual || m == PriceModeAutomatic
}

// Instrument is the single pooled equity instrument traded on the
// marketplace. Version guards read-modify-write cycles: every price or
// share mutation must match the version it read or the write is rejected.
type Instrument struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	CurrentPrice    decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"current_price"`
	AvailableShares int64           `gorm:"not null" json:"available_shares"`
	TotalShares     int64           `gorm:"not null" json:"total_shares"`
	Currency        string          `gorm:"type:varchar(10);not null" json:"currency"`
	PriceMode       PriceMode       `gorm:"column:price_calculation_mode;type:varchar(20);not null;default:manual" json:"price_calculation_mode"`
	Version         int64           `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Instrument) TableName() string {
	return "instruments"
}
