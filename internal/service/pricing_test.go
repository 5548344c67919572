package service

import (
	"context"
	"testing"

	"equity-marketplace/config"
	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/model"
	"equity-marketplace/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func defaultSetting() model.MarketSetting {
	return model.MarketSetting{
		ID:                    1,
		InstrumentID:          1,
		SensitivityScale:      5,
		MaxIncreasePercent:    decimal.NewFromInt(10),
		MaxDecreasePercent:    decimal.NewFromInt(10),
		MinimumPriceFloor:     decimal.NewFromInt(1000),
		RecalculationWindow:   model.WindowDaily,
		AutoApprovalLimit:     decimal.NewFromInt(2_000_000),
		DailySpendCap:         decimal.NewFromInt(5_000_000),
		WeeklySpendCap:        decimal.NewFromInt(20_000_000),
		BatchSize:             50,
		MinDownPaymentPercent: decimal.NewFromInt(20),
		BookingExpiryDays:     30,
	}
}

func newPricingFixture(t *testing.T, instrument model.Instrument, setting model.MarketSetting, activities []dto.TradeActivity) (PricingService, *fakeInstrumentRepo, *fakePriceHistoryRepo) {
	t.Helper()
	instrumentRepo := &fakeInstrumentRepo{instrument: instrument}
	historyRepo := &fakePriceHistoryRepo{}
	activityRepo := &fakeActivityRepo{activities: activities}
	settingRepo := &fakeSettingRepo{setting: setting}
	svc := NewPricingService(&config.Config{}, testLogger(t), instrumentRepo, historyRepo, activityRepo, settingRepo, &fakeUnitOfWork{})
	return svc, instrumentRepo, historyRepo
}

func TestRawChangePercent(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		previous int64
		want     string
	}{
		{"growth", 150, 100, "50"},
		{"decline", 50, 100, "-50"},
		{"negative previous", -50, -100, "50"},
		{"no previous positive current", 80, 0, "5"},
		{"no previous negative current", -80, 0, "-5"},
		{"no activity at all", 0, 0, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rawChangePercent(tt.current, tt.previous)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestClamp(t *testing.T) {
	min := decimal.NewFromInt(-10)
	max := decimal.NewFromInt(10)
	assert.True(t, clamp(decimal.NewFromInt(50), min, max).Equal(max))
	assert.True(t, clamp(decimal.NewFromInt(-50), min, max).Equal(min))
	assert.True(t, clamp(decimal.NewFromInt(3), min, max).Equal(decimal.NewFromInt(3)))
}

func TestComputeNextPrice_CappedIncrease(t *testing.T) {
	instrument := model.Instrument{
		ID:           1,
		CurrentPrice: decimal.NewFromInt(20_000),
		PriceMode:    model.PriceModeAutomatic,
		TotalShares:  10_000,
		Version:      1,
	}
	// 50% raw growth at scale 5 passes through unweighted, then the 10%
	// ceiling caps it: 20,000 -> 22,000.
	activities := []dto.TradeActivity{
		{SoldQuantity: 150},
		{SoldQuantity: 100},
	}
	svc, instrumentRepo, historyRepo := newPricingFixture(t, instrument, defaultSetting(), activities)

	result, err := svc.ComputeNextPrice(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Updated)
	assert.True(t, result.Price.Equal(decimal.NewFromInt(22_000)), "got %s", result.Price)
	assert.True(t, result.PercentChange.Equal(decimal.NewFromInt(10)), "got %s", result.PercentChange)

	require.Len(t, historyRepo.records, 1)
	rec := historyRepo.records[0]
	assert.Equal(t, model.CalculationMethodAutoMarketActivity, rec.CalculationMethod)
	assert.True(t, rec.PreviousPrice.Equal(decimal.NewFromInt(20_000)))
	assert.True(t, instrumentRepo.instrument.CurrentPrice.Equal(decimal.NewFromInt(22_000)))
	assert.Equal(t, int64(2), instrumentRepo.instrument.Version)
}

func TestComputeNextPrice_SensitivityWeighting(t *testing.T) {
	instrument := model.Instrument{
		ID:           1,
		CurrentPrice: decimal.NewFromInt(10_000),
		PriceMode:    model.PriceModeAutomatic,
		TotalShares:  10_000,
		Version:      1,
	}
	setting := defaultSetting()
	setting.SensitivityScale = 2
	// 20% raw growth weighted by 2*0.2 gives 8%, under the cap.
	activities := []dto.TradeActivity{
		{SoldQuantity: 120},
		{SoldQuantity: 100},
	}
	svc, _, _ := newPricingFixture(t, instrument, setting, activities)

	result, err := svc.ComputeNextPrice(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Updated)
	assert.True(t, result.Price.Equal(decimal.NewFromInt(10_800)), "got %s", result.Price)
}

func TestComputeNextPrice_ManualModeSkips(t *testing.T) {
	instrument := model.Instrument{
		ID:           1,
		CurrentPrice: decimal.NewFromInt(5_000),
		PriceMode:    model.PriceModeManual,
		Version:      1,
	}
	svc, instrumentRepo, historyRepo := newPricingFixture(t, instrument, defaultSetting(), nil)

	result, err := svc.ComputeNextPrice(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, result.Updated)
	assert.Empty(t, historyRepo.records)
	assert.Equal(t, int64(1), instrumentRepo.instrument.Version)
}

func TestComputeNextPrice_NoiseGateSkipsWrite(t *testing.T) {
	instrument := model.Instrument{
		ID:           1,
		CurrentPrice: decimal.NewFromInt(20_000),
		PriceMode:    model.PriceModeAutomatic,
		Version:      1,
	}
	// Identical periods produce a zero raw change, well under the gate.
	activities := []dto.TradeActivity{
		{SoldQuantity: 100},
		{SoldQuantity: 100},
	}
	svc, instrumentRepo, historyRepo := newPricingFixture(t, instrument, defaultSetting(), activities)

	result, err := svc.ComputeNextPrice(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, result.Updated)
	assert.True(t, result.Price.Equal(decimal.NewFromInt(20_000)))
	assert.Empty(t, historyRepo.records)
	assert.Equal(t, int64(1), instrumentRepo.instrument.Version)
}

func TestComputeNextPrice_FloorHoldsDecline(t *testing.T) {
	instrument := model.Instrument{
		ID:           1,
		CurrentPrice: decimal.NewFromInt(1_000),
		PriceMode:    model.PriceModeAutomatic,
		Version:      1,
	}
	setting := defaultSetting()
	setting.MinimumPriceFloor = decimal.NewFromInt(950)
	// A full -10% capped decline would land at 900; the floor holds 950.
	activities := []dto.TradeActivity{
		{SoldQuantity: 10},
		{SoldQuantity: 100},
	}
	svc, _, historyRepo := newPricingFixture(t, instrument, setting, activities)

	result, err := svc.ComputeNextPrice(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Updated)
	assert.True(t, result.Price.Equal(decimal.NewFromInt(950)), "got %s", result.Price)
	require.Len(t, historyRepo.records, 1)
	assert.True(t, historyRepo.records[0].PercentChange.Equal(decimal.NewFromInt(-5)))
}

func TestComputeNextPrice_UnreachableFloorRejected(t *testing.T) {
	instrument := model.Instrument{
		ID:           1,
		CurrentPrice: decimal.NewFromInt(100),
		PriceMode:    model.PriceModeAutomatic,
		Version:      1,
	}
	setting := defaultSetting()
	setting.MinimumPriceFloor = decimal.NewFromInt(200)

	svc, _, _ := newPricingFixture(t, instrument, setting, nil)

	_, err := svc.ComputeNextPrice(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConfiguration, apperrors.KindOf(err))
}

func TestSwitchMode_BaselineFromTargetLineage(t *testing.T) {
	instrument := model.Instrument{
		ID:           1,
		CurrentPrice: decimal.NewFromInt(120),
		PriceMode:    model.PriceModeAutomatic,
		Version:      3,
	}
	svc, instrumentRepo, historyRepo := newPricingFixture(t, instrument, defaultSetting(), nil)
	historyRepo.records = []model.PriceHistory{
		{InstrumentID: 1, Price: decimal.NewFromInt(100), CalculationMethod: model.CalculationMethodManual},
		{InstrumentID: 1, Price: decimal.NewFromInt(120), CalculationMethod: model.CalculationMethodAutoMarketActivity},
	}

	record, err := svc.SwitchMode(context.Background(), 1, model.PriceModeManual)
	require.NoError(t, err)
	assert.Equal(t, model.CalculationMethodModeSwitchToManual, record.CalculationMethod)
	assert.True(t, record.Price.Equal(decimal.NewFromInt(100)), "baseline should come from the manual lineage, got %s", record.Price)
	assert.Equal(t, model.PriceModeManual, instrumentRepo.instrument.PriceMode)
	assert.True(t, instrumentRepo.instrument.CurrentPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(4), instrumentRepo.instrument.Version)
}

func TestSwitchMode_NoLineageUsesCurrentPrice(t *testing.T) {
	instrument := model.Instrument{
		ID:           1,
		CurrentPrice: decimal.NewFromInt(500),
		PriceMode:    model.PriceModeManual,
		Version:      1,
	}
	svc, instrumentRepo, _ := newPricingFixture(t, instrument, defaultSetting(), nil)

	record, err := svc.SwitchMode(context.Background(), 1, model.PriceModeAutomatic)
	require.NoError(t, err)
	assert.Equal(t, model.CalculationMethodModeSwitchToAuto, record.CalculationMethod)
	assert.True(t, record.Price.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, model.PriceModeAutomatic, instrumentRepo.instrument.PriceMode)
}

func TestSwitchMode_RoundTripRestoresPrice(t *testing.T) {
	instrument := model.Instrument{
		ID:           1,
		CurrentPrice: decimal.NewFromInt(120),
		PriceMode:    model.PriceModeAutomatic,
		Version:      1,
	}
	svc, instrumentRepo, historyRepo := newPricingFixture(t, instrument, defaultSetting(), nil)
	historyRepo.records = []model.PriceHistory{
		{InstrumentID: 1, Price: decimal.NewFromInt(100), CalculationMethod: model.CalculationMethodManual},
		{InstrumentID: 1, Price: decimal.NewFromInt(120), CalculationMethod: model.CalculationMethodAutoMarketActivity},
	}

	// Switching away and straight back, with no price event in between,
	// must land on the price the instrument left with.
	_, err := svc.SwitchMode(context.Background(), 1, model.PriceModeManual)
	require.NoError(t, err)
	assert.True(t, instrumentRepo.instrument.CurrentPrice.Equal(decimal.NewFromInt(100)))

	record, err := svc.SwitchMode(context.Background(), 1, model.PriceModeAutomatic)
	require.NoError(t, err)
	assert.Equal(t, model.CalculationMethodModeSwitchToAuto, record.CalculationMethod)
	assert.True(t, instrumentRepo.instrument.CurrentPrice.Equal(decimal.NewFromInt(120)),
		"got %s", instrumentRepo.instrument.CurrentPrice)
	assert.Equal(t, model.PriceModeAutomatic, instrumentRepo.instrument.PriceMode)
	assert.Equal(t, int64(3), instrumentRepo.instrument.Version)
}

func TestSwitchMode_SameModeRejected(t *testing.T) {
	instrument := model.Instrument{
		ID:           1,
		CurrentPrice: decimal.NewFromInt(500),
		PriceMode:    model.PriceModeManual,
		Version:      1,
	}
	svc, _, _ := newPricingFixture(t, instrument, defaultSetting(), nil)

	_, err := svc.SwitchMode(context.Background(), 1, model.PriceModeManual)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestSetManualPrice(t *testing.T) {
	instrument := model.Instrument{
		ID:           1,
		CurrentPrice: decimal.NewFromInt(100),
		PriceMode:    model.PriceModeAutomatic,
		Version:      1,
	}
	svc, instrumentRepo, historyRepo := newPricingFixture(t, instrument, defaultSetting(), nil)

	record, err := svc.SetManualPrice(context.Background(), 1, decimal.NewFromInt(150), "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.CalculationMethodManual, record.CalculationMethod)
	assert.True(t, record.PercentChange.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, model.PriceModeManual, instrumentRepo.instrument.PriceMode)
	require.Len(t, historyRepo.records, 1)

	_, err = svc.SetManualPrice(context.Background(), 1, decimal.Zero, "admin@example.com")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
