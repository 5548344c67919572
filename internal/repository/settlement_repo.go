package repository

import (
	"context"
	"time"

	"equity-marketplace/internal/model"
	"equity-marketplace/pkg/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SettlementRepository interface {
	Create(ctx context.Context, settlement *model.Settlement, opts ...utils.DBOption) error
	// SumAmountSince is the cash paid out for an instrument since a period
	// start; the rolling daily/weekly spend caps are enforced against it.
	SumAmountSince(ctx context.Context, instrumentID uint, since time.Time) (decimal.Decimal, error)
	GetByOrder(ctx context.Context, orderID uint) ([]model.Settlement, error)
}

type settlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) Create(ctx context.Context, settlement *model.Settlement, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(settlement).Error
}

func (r *settlementRepository) SumAmountSince(ctx context.Context, instrumentID uint, since time.Time) (decimal.Decimal, error) {
	var raw string
	err := r.db.WithContext(ctx).
		Model(&model.Settlement{}).
		Select("COALESCE(SUM(amount), 0)::TEXT").
		Where("instrument_id = ? AND created_at >= ?", instrumentID, since).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	sum, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *settlementRepository) GetByOrder(ctx context.Context, orderID uint) ([]model.Settlement, error) {
	var settlements []model.Settlement
	err := utils.ApplyOptions(r.db.WithContext(ctx), utils.WithWhere("order_id = ?", orderID)).
		Order("created_at ASC").
		Find(&settlements).Error
	if err != nil {
		return nil, err
	}
	return settlements, nil
}
