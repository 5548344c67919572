package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"equity-marketplace/config"
	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/model"
	"equity-marketplace/internal/repository"
	"equity-marketplace/pkg/logger"
	"equity-marketplace/pkg/utils"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// noiseGatePercent is the minimum absolute price movement worth recording.
// Changes below it are dropped so market noise does not churn the history,
// but the run still reports success and automatic mode stays engaged.
var noiseGatePercent = decimal.NewFromFloat(0.1)

var neutralUpPercent = decimal.NewFromInt(5)

type PricingService interface {
	// ComputeNextPrice recalculates the price from trade activity in the
	// configured window. A no-op when the instrument is in manual mode or
	// the movement falls under the noise gate.
	ComputeNextPrice(ctx context.Context, instrumentID uint) (*dto.PriceRecalculationResult, error)
	SwitchMode(ctx context.Context, instrumentID uint, target model.PriceMode) (*model.PriceHistory, error)
	SetManualPrice(ctx context.Context, instrumentID uint, price decimal.Decimal, setBy string) (*model.PriceHistory, error)
	GetPriceHistory(ctx context.Context, param dto.GetPriceHistoryParam) ([]model.PriceHistory, error)
	// GetQuote serves the cached instrument read used by quote endpoints.
	GetQuote(ctx context.Context, instrumentID uint) (*model.Instrument, error)
}

type pricingService struct {
	cfg              *config.Config
	log              *logger.Logger
	instrumentRepo   repository.InstrumentRepository
	priceHistoryRepo repository.PriceHistoryRepository
	activityRepo     repository.ShareTransactionRepository
	settingRepo      repository.MarketSettingRepository
	uow              repository.UnitOfWork
}

func NewPricingService(
	cfg *config.Config,
	log *logger.Logger,
	instrumentRepo repository.InstrumentRepository,
	priceHistoryRepo repository.PriceHistoryRepository,
	activityRepo repository.ShareTransactionRepository,
	settingRepo repository.MarketSettingRepository,
	uow repository.UnitOfWork,
) PricingService {
	return &pricingService{
		cfg:              cfg,
		log:              log,
		instrumentRepo:   instrumentRepo,
		priceHistoryRepo: priceHistoryRepo,
		activityRepo:     activityRepo,
		settingRepo:      settingRepo,
		uow:              uow,
	}
}

func (s *pricingService) ComputeNextPrice(ctx context.Context, instrumentID uint) (*dto.PriceRecalculationResult, error) {
	instrument, err := s.instrumentRepo.Get(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	if instrument.PriceMode != model.PriceModeAutomatic {
		s.log.InfoContext(ctx, "Skipping recalculation, instrument is in manual mode",
			logger.IntField("instrument_id", int(instrumentID)))
		return &dto.PriceRecalculationResult{
			Updated:       false,
			Price:         instrument.CurrentPrice,
			PreviousPrice: instrument.CurrentPrice,
			PercentChange: decimal.Zero,
		}, nil
	}

	setting, err := s.settingRepo.GetByInstrument(ctx, instrumentID)
	if err != nil {
		return nil, err
	}
	if err := s.checkBounds(instrument, setting); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	window := string(setting.RecalculationWindow)
	currentStart := utils.PeriodStart(now, window)
	previousStart := utils.PreviousPeriodStart(now, window)

	current, err := s.activityRepo.GetActivity(ctx, instrumentID, currentStart, now)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate current period activity: %w", err)
	}
	previous, err := s.activityRepo.GetActivity(ctx, instrumentID, previousStart, currentStart)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate previous period activity: %w", err)
	}

	rawChange := rawChangePercent(current.NetMovement(), previous.NetMovement())

	// weight = sensitivity_scale * 0.2, i.e. scale 5 passes the raw change
	// through unweighted.
	weighted := rawChange.Mul(decimal.NewFromInt(int64(setting.SensitivityScale))).Div(decimal.NewFromInt(5))
	capped := clamp(weighted, setting.MaxDecreasePercent.Neg(), setting.MaxIncreasePercent)

	newPrice := instrument.CurrentPrice.Mul(
		decimal.NewFromInt(1).Add(capped.Div(oneHundredDec)),
	)
	if newPrice.LessThan(setting.MinimumPriceFloor) {
		newPrice = setting.MinimumPriceFloor
	}

	actualChange := percentChange(instrument.CurrentPrice, newPrice)
	if actualChange.Abs().LessThan(noiseGatePercent) {
		s.log.InfoContext(ctx, "Price movement under noise gate, keeping current price",
			logger.IntField("instrument_id", int(instrumentID)),
			logger.StringField("actual_change_pct", actualChange.String()))
		return &dto.PriceRecalculationResult{
			Updated:       false,
			Price:         instrument.CurrentPrice,
			PreviousPrice: instrument.CurrentPrice,
			PercentChange: decimal.Zero,
		}, nil
	}

	factors, err := json.Marshal(dto.PriceFactors{
		CurrentNet:         current.NetMovement(),
		PreviousNet:        previous.NetMovement(),
		RawChangePercent:   rawChange,
		SensitivityScale:   setting.SensitivityScale,
		WeightedChange:     weighted,
		CappedChange:       capped,
		MaxIncreasePercent: setting.MaxIncreasePercent,
		MaxDecreasePercent: setting.MaxDecreasePercent,
		MinimumPriceFloor:  setting.MinimumPriceFloor,
		Window:             window,
		PeriodStart:        currentStart,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal price factors: %w", err)
	}

	record := &model.PriceHistory{
		InstrumentID:      instrumentID,
		Price:             newPrice,
		PreviousPrice:     instrument.CurrentPrice,
		PercentChange:     actualChange,
		CalculationMethod: model.CalculationMethodAutoMarketActivity,
		Factors:           datatypes.JSON(factors),
	}

	err = s.uow.Run(func(opts ...utils.DBOption) error {
		if err := s.priceHistoryRepo.Create(ctx, record, opts...); err != nil {
			return err
		}
		return s.instrumentRepo.UpdateVersioned(ctx, instrumentID, instrument.Version, map[string]interface{}{
			"current_price": newPrice,
		}, opts...)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Price recalculated",
		logger.IntField("instrument_id", int(instrumentID)),
		logger.StringField("previous_price", instrument.CurrentPrice.String()),
		logger.StringField("new_price", newPrice.String()),
		logger.StringField("percent_change", actualChange.String()))

	return &dto.PriceRecalculationResult{
		Updated:       true,
		Price:         newPrice,
		PreviousPrice: instrument.CurrentPrice,
		PercentChange: actualChange,
		History:       record,
	}, nil
}

func (s *pricingService) SwitchMode(ctx context.Context, instrumentID uint, target model.PriceMode) (*model.PriceHistory, error) {
	if !target.Valid() {
		return nil, apperrors.NewValidation("invalid price mode %q", target)
	}

	instrument, err := s.instrumentRepo.Get(ctx, instrumentID)
	if err != nil {
		return nil, err
	}
	if instrument.PriceMode == target {
		return nil, apperrors.NewValidation("instrument is already in %s mode", target)
	}

	// The baseline seeds the new mode from its own lineage so toggling
	// modes never produces a discontinuous jump from stale state.
	baseline := instrument.CurrentPrice
	baselineFrom := "current_price"
	latest, err := s.priceHistoryRepo.GetLatestByMethods(ctx, instrumentID, model.MethodsForMode(target))
	if err != nil {
		return nil, err
	}
	if latest != nil {
		baseline = latest.Price
		baselineFrom = fmt.Sprintf("history:%s", latest.CalculationMethod)
	}

	method := model.CalculationMethodModeSwitchToManual
	if target == model.PriceModeAutomatic {
		method = model.CalculationMethodModeSwitchToAuto
	}

	factors, err := json.Marshal(dto.ManualPriceFactors{
		BaselinePrice: baseline,
		BaselineFrom:  baselineFrom,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mode switch factors: %w", err)
	}

	record := &model.PriceHistory{
		InstrumentID:      instrumentID,
		Price:             baseline,
		PreviousPrice:     instrument.CurrentPrice,
		PercentChange:     percentChange(instrument.CurrentPrice, baseline),
		CalculationMethod: method,
		Factors:           datatypes.JSON(factors),
	}

	err = s.uow.Run(func(opts ...utils.DBOption) error {
		if err := s.priceHistoryRepo.Create(ctx, record, opts...); err != nil {
			return err
		}
		return s.instrumentRepo.UpdateVersioned(ctx, instrumentID, instrument.Version, map[string]interface{}{
			"current_price":          baseline,
			"price_calculation_mode": target,
		}, opts...)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Price mode switched",
		logger.IntField("instrument_id", int(instrumentID)),
		logger.StringField("target_mode", string(target)),
		logger.StringField("baseline_price", baseline.String()),
		logger.StringField("baseline_from", baselineFrom))

	return record, nil
}

func (s *pricingService) SetManualPrice(ctx context.Context, instrumentID uint, price decimal.Decimal, setBy string) (*model.PriceHistory, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewValidation("manual price must be positive, got %s", price)
	}

	instrument, err := s.instrumentRepo.Get(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	factors, err := json.Marshal(dto.ManualPriceFactors{
		SetBy:         setBy,
		BaselinePrice: instrument.CurrentPrice,
		BaselineFrom:  "current_price",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manual price factors: %w", err)
	}

	record := &model.PriceHistory{
		InstrumentID:      instrumentID,
		Price:             price,
		PreviousPrice:     instrument.CurrentPrice,
		PercentChange:     percentChange(instrument.CurrentPrice, price),
		CalculationMethod: model.CalculationMethodManual,
		Factors:           datatypes.JSON(factors),
	}

	err = s.uow.Run(func(opts ...utils.DBOption) error {
		if err := s.priceHistoryRepo.Create(ctx, record, opts...); err != nil {
			return err
		}
		return s.instrumentRepo.UpdateVersioned(ctx, instrumentID, instrument.Version, map[string]interface{}{
			"current_price":          price,
			"price_calculation_mode": model.PriceModeManual,
		}, opts...)
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (s *pricingService) GetPriceHistory(ctx context.Context, param dto.GetPriceHistoryParam) ([]model.PriceHistory, error) {
	return s.priceHistoryRepo.Get(ctx, param)
}

func (s *pricingService) GetQuote(ctx context.Context, instrumentID uint) (*model.Instrument, error) {
	return s.instrumentRepo.GetQuote(ctx, instrumentID)
}

// checkBounds rejects a floor that no single capped increase can reach.
// That configuration would silently pin the price, so it is surfaced to
// the admin instead of clamped.
func (s *pricingService) checkBounds(instrument *model.Instrument, setting *model.MarketSetting) error {
	if instrument.CurrentPrice.LessThanOrEqual(decimal.Zero) {
		return apperrors.NewConfiguration("instrument %d has non-positive current price %s", instrument.ID, instrument.CurrentPrice)
	}
	maxReachable := instrument.CurrentPrice.Mul(
		decimal.NewFromInt(1).Add(setting.MaxIncreasePercent.Div(oneHundredDec)),
	)
	if setting.MinimumPriceFloor.GreaterThan(maxReachable) {
		return apperrors.NewConfiguration(
			"minimum price floor %s is unreachable: current price %s capped at +%s%% tops out at %s",
			setting.MinimumPriceFloor, instrument.CurrentPrice, setting.MaxIncreasePercent, maxReachable)
	}
	return nil
}

var oneHundredDec = decimal.NewFromInt(100)

// rawChangePercent is the period-over-period net movement change. With no
// previous movement to compare against, a fixed ±5% nudge follows the
// direction of the current period.
func rawChangePercent(currentNet, previousNet int64) decimal.Decimal {
	if previousNet != 0 {
		cur := decimal.NewFromInt(currentNet)
		prev := decimal.NewFromInt(previousNet)
		return cur.Sub(prev).Div(prev.Abs()).Mul(oneHundredDec)
	}
	switch {
	case currentNet > 0:
		return neutralUpPercent
	case currentNet < 0:
		return neutralUpPercent.Neg()
	default:
		return decimal.Zero
	}
}

func clamp(v, min, max decimal.Decimal) decimal.Decimal {
	if v.LessThan(min) {
		return min
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}

func percentChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(oneHundredDec)
}
