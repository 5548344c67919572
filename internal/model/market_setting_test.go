package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validSetting() MarketSetting {
	return MarketSetting{
		InstrumentID:          1,
		SensitivityScale:      5,
		MaxIncreasePercent:    decimal.NewFromInt(10),
		MaxDecreasePercent:    decimal.NewFromInt(10),
		MinimumPriceFloor:     decimal.NewFromInt(100),
		RecalculationWindow:   WindowDaily,
		AutoApprovalLimit:     decimal.NewFromInt(1_000_000),
		DailySpendCap:         decimal.NewFromInt(5_000_000),
		WeeklySpendCap:        decimal.NewFromInt(20_000_000),
		BatchSize:             50,
		MinDownPaymentPercent: decimal.NewFromInt(20),
		BookingExpiryDays:     30,
	}
}

func TestMarketSettingValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*MarketSetting)
		wantErr bool
	}{
		{"valid", func(s *MarketSetting) {}, false},
		{"sensitivity too low", func(s *MarketSetting) { s.SensitivityScale = 0 }, true},
		{"sensitivity too high", func(s *MarketSetting) { s.SensitivityScale = 11 }, true},
		{"negative max increase", func(s *MarketSetting) { s.MaxIncreasePercent = decimal.NewFromInt(-1) }, true},
		{"max decrease over 100", func(s *MarketSetting) { s.MaxDecreasePercent = decimal.NewFromInt(101) }, true},
		{"negative floor", func(s *MarketSetting) { s.MinimumPriceFloor = decimal.NewFromInt(-5) }, true},
		{"bad window", func(s *MarketSetting) { s.RecalculationWindow = "hourly" }, true},
		{"zero approval limit", func(s *MarketSetting) { s.AutoApprovalLimit = decimal.Zero }, true},
		{"zero daily cap", func(s *MarketSetting) { s.DailySpendCap = decimal.Zero }, true},
		{"weekly cap below daily", func(s *MarketSetting) { s.WeeklySpendCap = decimal.NewFromInt(1_000_000) }, true},
		{"zero batch size", func(s *MarketSetting) { s.BatchSize = 0 }, true},
		{"down payment over 100", func(s *MarketSetting) { s.MinDownPaymentPercent = decimal.NewFromInt(101) }, true},
		{"zero expiry days", func(s *MarketSetting) { s.BookingExpiryDays = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSetting()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMethodsForMode(t *testing.T) {
	manual := MethodsForMode(PriceModeManual)
	assert.Contains(t, manual, CalculationMethodManual)
	assert.Contains(t, manual, CalculationMethodModeSwitchToManual)
	assert.NotContains(t, manual, CalculationMethodAutoMarketActivity)

	auto := MethodsForMode(PriceModeAutomatic)
	assert.Contains(t, auto, CalculationMethodAutoMarketActivity)
	assert.Contains(t, auto, CalculationMethodModeSwitchToAuto)
	assert.NotContains(t, auto, CalculationMethodManual)
}
