package repository

import (
	"context"
	"time"

	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/model"
	"equity-marketplace/pkg/utils"

	"gorm.io/gorm"
)

type ShareTransactionRepository interface {
	Create(ctx context.Context, txn *model.ShareTransaction, opts ...utils.DBOption) error
	// GetActivity aggregates completed purchase/buyback quantities in
	// [from, to).
	GetActivity(ctx context.Context, instrumentID uint, from, to time.Time) (dto.TradeActivity, error)
}

type shareTransactionRepository struct {
	db *gorm.DB
}

func NewShareTransactionRepository(db *gorm.DB) ShareTransactionRepository {
	return &shareTransactionRepository{db: db}
}

func (r *shareTransactionRepository) Create(ctx context.Context, txn *model.ShareTransaction, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(txn).Error
}

func (r *shareTransactionRepository) GetActivity(ctx context.Context, instrumentID uint, from, to time.Time) (dto.TradeActivity, error) {
	var row struct {
		Sold       int64
		BoughtBack int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.ShareTransaction{}).
		Select(
			"COALESCE(SUM(CASE WHEN type = ? THEN quantity ELSE 0 END), 0) AS sold, "+
				"COALESCE(SUM(CASE WHEN type = ? THEN quantity ELSE 0 END), 0) AS bought_back",
			model.TransactionTypePurchase, model.TransactionTypeBuyback,
		).
		Where("instrument_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			instrumentID, model.TransactionStatusCompleted, from, to).
		Scan(&row).Error
	if err != nil {
		return dto.TradeActivity{}, err
	}
	return dto.TradeActivity{
		SoldQuantity:       row.Sold,
		BoughtBackQuantity: row.BoughtBack,
	}, nil
}
