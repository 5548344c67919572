package repository

import (
	"context"

	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/model"
	"equity-marketplace/pkg/utils"

	"gorm.io/gorm"
)

type PriceHistoryRepository interface {
	Create(ctx context.Context, record *model.PriceHistory, opts ...utils.DBOption) error
	// GetLatestByMethods returns the most recent record whose calculation
	// method is in methods, or nil when that lineage has no history yet.
	GetLatestByMethods(ctx context.Context, instrumentID uint, methods []model.CalculationMethod, opts ...utils.DBOption) (*model.PriceHistory, error)
	Get(ctx context.Context, param dto.GetPriceHistoryParam) ([]model.PriceHistory, error)
}

type priceHistoryRepository struct {
	db *gorm.DB
}

func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &priceHistoryRepository{db: db}
}

func (r *priceHistoryRepository) Create(ctx context.Context, record *model.PriceHistory, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(record).Error
}

func (r *priceHistoryRepository) GetLatestByMethods(ctx context.Context, instrumentID uint, methods []model.CalculationMethod, opts ...utils.DBOption) (*model.PriceHistory, error) {
	var record model.PriceHistory
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("instrument_id = ? AND calculation_method IN ?", instrumentID, methods).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *priceHistoryRepository) Get(ctx context.Context, param dto.GetPriceHistoryParam) ([]model.PriceHistory, error) {
	var records []model.PriceHistory
	db := r.db.WithContext(ctx).Where("instrument_id = ?", param.InstrumentID)
	if len(param.Methods) > 0 {
		db = db.Where("calculation_method IN ?", param.Methods)
	}
	limit := param.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	err := db.Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(param.Offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
