package service

import (
	"context"

	"equity-marketplace/config"
	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/model"
	"equity-marketplace/internal/repository"
	"equity-marketplace/pkg/logger"
)

type SettingsService interface {
	Get(ctx context.Context, instrumentID uint) (*model.MarketSetting, error)
	Update(ctx context.Context, instrumentID uint, req dto.UpdateSettingsRequest) (*model.MarketSetting, error)
}

type settingsService struct {
	cfg         *config.Config
	log         *logger.Logger
	settingRepo repository.MarketSettingRepository
}

func NewSettingsService(cfg *config.Config, log *logger.Logger, settingRepo repository.MarketSettingRepository) SettingsService {
	return &settingsService{cfg: cfg, log: log, settingRepo: settingRepo}
}

func (s *settingsService) Get(ctx context.Context, instrumentID uint) (*model.MarketSetting, error) {
	return s.settingRepo.GetByInstrument(ctx, instrumentID)
}

func (s *settingsService) Update(ctx context.Context, instrumentID uint, req dto.UpdateSettingsRequest) (*model.MarketSetting, error) {
	setting, err := s.settingRepo.GetByInstrument(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	setting.SensitivityScale = req.SensitivityScale
	setting.MaxIncreasePercent = req.MaxIncreasePercent
	setting.MaxDecreasePercent = req.MaxDecreasePercent
	setting.MinimumPriceFloor = req.MinimumPriceFloor
	setting.RecalculationWindow = model.RecalculationWindow(req.RecalculationWindow)
	setting.AutoApprovalLimit = req.AutoApprovalLimit
	setting.DailySpendCap = req.DailySpendCap
	setting.WeeklySpendCap = req.WeeklySpendCap
	setting.BatchSize = req.BatchSize
	setting.MinDownPaymentPercent = req.MinDownPaymentPercent
	setting.BookingExpiryDays = req.BookingExpiryDays

	// Update re-runs setting.Validate, so an out-of-range combination
	// never reaches the table. Running recalculations keep the values
	// they loaded at start; the next run picks these up.
	if err := s.settingRepo.Update(ctx, setting); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Market settings updated",
		logger.IntField("instrument_id", int(instrumentID)))

	return setting, nil
}
