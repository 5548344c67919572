package repository

import (
	"context"

	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/model"
	"equity-marketplace/pkg/utils"

	"gorm.io/gorm"
)

// MarketSettingRepository reads and writes the admin configuration row.
// Reads always hit the store: settings are fetched once per operation and
// passed down explicitly, never cached between calls.
type MarketSettingRepository interface {
	GetByInstrument(ctx context.Context, instrumentID uint, opts ...utils.DBOption) (*model.MarketSetting, error)
	Update(ctx context.Context, setting *model.MarketSetting, opts ...utils.DBOption) error
}

type marketSettingRepository struct {
	db *gorm.DB
}

func NewMarketSettingRepository(db *gorm.DB) MarketSettingRepository {
	return &marketSettingRepository{db: db}
}

func (r *marketSettingRepository) GetByInstrument(ctx context.Context, instrumentID uint, opts ...utils.DBOption) (*model.MarketSetting, error) {
	var setting model.MarketSetting
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("instrument_id = ?", instrumentID).
		First(&setting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFound("market settings for instrument %d not found", instrumentID)
		}
		return nil, err
	}
	return &setting, nil
}

func (r *marketSettingRepository) Update(ctx context.Context, setting *model.MarketSetting, opts ...utils.DBOption) error {
	if err := setting.Validate(); err != nil {
		return err
	}
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(setting).
		Select("*").
		Omit("id").
		Updates(setting).Error
}
