package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type CalculationMethod string

const (
	CalculationMethodManual             CalculationMethod = "manual"
	CalculationMethodAutoMarketActivity CalculationMethod = "auto_market_activity"
	CalculationMethodModeSwitchToAuto   CalculationMethod = "mode_switch_to_auto"
	CalculationMethodModeSwitchToManual CalculationMethod = "mode_switch_to_manual"
)

// MethodsForMode returns the calculation-method lineage of a pricing mode.
// A mode switch seeds its baseline from the latest record in the target
// mode's lineage, so switch records belong to the lineage they switch into.
func MethodsForMode(mode PriceMode) []CalculationMethod {
	if mode == PriceModeManual {
		return []CalculationMethod{CalculationMethodManual, CalculationMethodModeSwitchToManual}
	}
	return []CalculationMethod{CalculationMethodAutoMarketActivity, CalculationMethodModeSwitchToAuto}
}

// PriceHistory is an append-only record of every price the instrument has
// carried, including mode-switch baseline records.
type PriceHistory struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	InstrumentID      uint              `gorm:"not null;index" json:"instrument_id"`
	Price             decimal.Decimal   `gorm:"type:numeric(24,8);not null" json:"price"`
	PreviousPrice     decimal.Decimal   `gorm:"type:numeric(24,8);not null" json:"previous_price"`
	PercentChange     decimal.Decimal   `gorm:"type:numeric(12,6);not null" json:"percent_change"`
	CalculationMethod CalculationMethod `gorm:"type:varchar(40);not null;index" json:"calculation_method"`
	Factors           datatypes.JSON    `gorm:"type:jsonb" json:"factors"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (PriceHistory) TableName() string {
	return "price_histories"
}
