package repository

import (
	"context"

	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/model"
	"equity-marketplace/pkg/utils"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.SellOrder, opts ...utils.DBOption) error
	GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.SellOrder, error)
	Update(ctx context.Context, order *model.SellOrder, opts ...utils.DBOption) error
	Get(ctx context.Context, param dto.GetOrdersParam) ([]model.SellOrder, error)
	// GetQueue returns queued (pending/partial) orders in strict ascending
	// fifo_position order.
	GetQueue(ctx context.Context, instrumentID uint, limit int, opts ...utils.DBOption) ([]model.SellOrder, error)
	// MaxFIFOPosition is the highest position among queued orders, 0 when
	// the queue is empty. Must be called inside the same transaction as
	// the insert or requeue that consumes it.
	MaxFIFOPosition(ctx context.Context, instrumentID uint, opts ...utils.DBOption) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.SellOrder, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.SellOrder, error) {
	var order model.SellOrder
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).First(&order, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFound("order %d not found", id)
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Update(ctx context.Context, order *model.SellOrder, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(order).
		Select("*").
		Omit("id", "created_at").
		Updates(order).Error
}

func (r *orderRepository) Get(ctx context.Context, param dto.GetOrdersParam) ([]model.SellOrder, error) {
	var orders []model.SellOrder
	db := r.db.WithContext(ctx)

	if len(param.IDs) > 0 {
		db = db.Where("id IN ?", param.IDs)
	}
	if param.UserID != nil {
		db = db.Where("user_id = ?", *param.UserID)
	}
	if param.InstrumentID != nil {
		db = db.Where("instrument_id = ?", *param.InstrumentID)
	}
	if len(param.Statuses) > 0 {
		db = db.Where("status IN ?", param.Statuses)
	}
	if param.Limit != nil {
		db = db.Limit(*param.Limit)
	}

	if err := db.Order("fifo_position ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) GetQueue(ctx context.Context, instrumentID uint, limit int, opts ...utils.DBOption) ([]model.SellOrder, error) {
	var orders []model.SellOrder
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("instrument_id = ? AND status IN ?", instrumentID,
			[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusPartial}).
		Order("fifo_position ASC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if err := db.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) MaxFIFOPosition(ctx context.Context, instrumentID uint, opts ...utils.DBOption) (int64, error) {
	var max int64
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.SellOrder{}).
		Select("COALESCE(MAX(fifo_position), 0)").
		Where("instrument_id = ? AND status IN ?", instrumentID,
			[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusPartial}).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}
