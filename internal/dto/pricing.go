package dto

import (
	"time"

	"equity-marketplace/internal/model"

	"github.com/shopspring/decimal"
)

// TradeActivity is the aggregated market movement for one window period.
type TradeActivity struct {
	SoldQuantity       int64 `json:"sold_quantity"`
	BoughtBackQuantity int64 `json:"bought_back_quantity"`
}

// NetMovement is sold minus bought back.
func (a TradeActivity) NetMovement() int64 {
	return a.SoldQuantity - a.BoughtBackQuantity
}

// PriceFactors is the input snapshot persisted with every automatic price
// history record, so any computed price can be audited later.
type PriceFactors struct {
	CurrentNet         int64           `json:"current_net"`
	PreviousNet        int64           `json:"previous_net"`
	RawChangePercent   decimal.Decimal `json:"raw_change_percent"`
	SensitivityScale   int             `json:"sensitivity_scale"`
	WeightedChange     decimal.Decimal `json:"weighted_change"`
	CappedChange       decimal.Decimal `json:"capped_change"`
	MaxIncreasePercent decimal.Decimal `json:"max_increase_percent"`
	MaxDecreasePercent decimal.Decimal `json:"max_decrease_percent"`
	MinimumPriceFloor  decimal.Decimal `json:"minimum_price_floor"`
	Window             string          `json:"window"`
	PeriodStart        time.Time       `json:"period_start"`
}

// ManualPriceFactors is the snapshot stored with manual overrides and
// mode-switch records.
type ManualPriceFactors struct {
	SetBy         string          `json:"set_by,omitempty"`
	BaselinePrice decimal.Decimal `json:"baseline_price"`
	BaselineFrom  string          `json:"baseline_from"`
}

// PriceRecalculationResult reports one automatic recalculation run.
// Updated is false when the change fell under the noise gate and the
// previous price was left untouched.
type PriceRecalculationResult struct {
	Updated       bool                `json:"updated"`
	Price         decimal.Decimal     `json:"price"`
	PreviousPrice decimal.Decimal     `json:"previous_price"`
	PercentChange decimal.Decimal     `json:"percent_change"`
	History       *model.PriceHistory `json:"history,omitempty"`
}

type SwitchModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=manual automatic"`
}

type SetManualPriceRequest struct {
	Price decimal.Decimal `json:"price" validate:"required"`
	SetBy string          `json:"set_by"`
}

type GetPriceHistoryParam struct {
	InstrumentID uint                      `query:"instrument_id"`
	Methods      []model.CalculationMethod `query:"methods"`
	Limit        int                       `query:"limit"`
	Offset       int                       `query:"offset"`
}
