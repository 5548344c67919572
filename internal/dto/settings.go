package dto

import "github.com/shopspring/decimal"

// UpdateSettingsRequest is the admin configuration surface. Every bound is
// re-validated server-side through model.MarketSetting.Validate before any
// write; client-supplied ranges are never trusted.
type UpdateSettingsRequest struct {
	SensitivityScale      int             `json:"sensitivity_scale" validate:"required,min=1,max=10"`
	MaxIncreasePercent    decimal.Decimal `json:"max_increase_percent" validate:"required"`
	MaxDecreasePercent    decimal.Decimal `json:"max_decrease_percent" validate:"required"`
	MinimumPriceFloor     decimal.Decimal `json:"minimum_price_floor" validate:"required"`
	RecalculationWindow   string          `json:"recalculation_window" validate:"required,oneof=daily weekly monthly quarterly yearly"`
	AutoApprovalLimit     decimal.Decimal `json:"auto_approval_limit" validate:"required"`
	DailySpendCap         decimal.Decimal `json:"daily_spend_cap" validate:"required"`
	WeeklySpendCap        decimal.Decimal `json:"weekly_spend_cap" validate:"required"`
	BatchSize             int             `json:"batch_size" validate:"required,min=1"`
	MinDownPaymentPercent decimal.Decimal `json:"min_down_payment_percent" validate:"required"`
	BookingExpiryDays     int             `json:"booking_expiry_days" validate:"required,min=1"`
}
