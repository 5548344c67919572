package model

import (
	"time"

	"equity-marketplace/internal/apperrors"

	"github.com/shopspring/decimal"
)

type RecalculationWindow string

const (
	WindowDaily     RecalculationWindow = "daily"
	WindowWeekly    RecalculationWindow = "weekly"
	WindowMonthly   RecalculationWindow = "monthly"
	WindowQuarterly RecalculationWindow = "quarterly"
	WindowYearly    RecalculationWindow = "yearly"
)

func (w RecalculationWindow) Valid() bool {
	switch w {
	case WindowDaily, WindowWeekly, WindowMonthly, WindowQuarterly, WindowYearly:
		return true
	}
	return false
}

// MarketSetting is the admin-tuned configuration row for pricing and
// settlement. It is read from the store once per operation and passed
// down explicitly, never cached between calls.
type MarketSetting struct {
	ID                    uint                `gorm:"primaryKey" json:"id"`
	InstrumentID          uint                `gorm:"not null;uniqueIndex" json:"instrument_id"`
	SensitivityScale      int                 `gorm:"not null;default:5" json:"sensitivity_scale"`
	MaxIncreasePercent    decimal.Decimal     `gorm:"type:numeric(8,4);not null" json:"max_increase_percent"`
	MaxDecreasePercent    decimal.Decimal     `gorm:"type:numeric(8,4);not null" json:"max_decrease_percent"`
	MinimumPriceFloor     decimal.Decimal     `gorm:"type:numeric(24,8);not null" json:"minimum_price_floor"`
	RecalculationWindow   RecalculationWindow `gorm:"type:varchar(20);not null;default:daily" json:"recalculation_window"`
	AutoApprovalLimit     decimal.Decimal     `gorm:"type:numeric(24,8);not null" json:"auto_approval_limit"`
	DailySpendCap         decimal.Decimal     `gorm:"type:numeric(24,8);not null" json:"daily_spend_cap"`
	WeeklySpendCap        decimal.Decimal     `gorm:"type:numeric(24,8);not null" json:"weekly_spend_cap"`
	BatchSize             int                 `gorm:"not null;default:50" json:"batch_size"`
	MinDownPaymentPercent decimal.Decimal     `gorm:"type:numeric(8,4);not null" json:"min_down_payment_percent"`
	BookingExpiryDays     int                 `gorm:"not null;default:30" json:"booking_expiry_days"`
	UpdatedAt             time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MarketSetting) TableName() string {
	return "market_settings"
}

var oneHundred = decimal.NewFromInt(100)

// Validate enforces server-side range checks on the admin-supplied bounds.
// The unreachable-floor check lives in the pricing engine, where the
// current price is known.
func (s *MarketSetting) Validate() error {
	if s.SensitivityScale < 1 || s.SensitivityScale > 10 {
		return apperrors.NewValidation("sensitivity scale must be between 1 and 10, got %d", s.SensitivityScale)
	}
	if s.MaxIncreasePercent.IsNegative() || s.MaxIncreasePercent.GreaterThan(oneHundred) {
		return apperrors.NewValidation("max increase percent must be between 0 and 100")
	}
	if s.MaxDecreasePercent.IsNegative() || s.MaxDecreasePercent.GreaterThan(oneHundred) {
		return apperrors.NewValidation("max decrease percent must be between 0 and 100")
	}
	if s.MinimumPriceFloor.IsNegative() {
		return apperrors.NewValidation("minimum price floor cannot be negative")
	}
	if !s.RecalculationWindow.Valid() {
		return apperrors.NewValidation("invalid recalculation window %q", s.RecalculationWindow)
	}
	if s.AutoApprovalLimit.LessThanOrEqual(decimal.Zero) {
		return apperrors.NewValidation("auto approval limit must be positive")
	}
	if s.DailySpendCap.LessThanOrEqual(decimal.Zero) || s.WeeklySpendCap.LessThanOrEqual(decimal.Zero) {
		return apperrors.NewValidation("spend caps must be positive")
	}
	if s.WeeklySpendCap.LessThan(s.DailySpendCap) {
		return apperrors.NewValidation("weekly spend cap cannot be below the daily cap")
	}
	if s.BatchSize < 1 {
		return apperrors.NewValidation("batch size must be at least 1")
	}
	if s.MinDownPaymentPercent.LessThanOrEqual(decimal.Zero) || s.MinDownPaymentPercent.GreaterThan(oneHundred) {
		return apperrors.NewValidation("min down payment percent must be within (0, 100]")
	}
	if s.BookingExpiryDays < 1 {
		return apperrors.NewValidation("booking expiry days must be at least 1")
	}
	return nil
}
