package repository

import (
	"context"
	"time"

	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/model"
	"equity-marketplace/pkg/utils"

	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking, opts ...utils.DBOption) error
	GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking, opts ...utils.DBOption) error
	Get(ctx context.Context, param dto.GetBookingsParam) ([]model.Booking, error)
	CreatePayment(ctx context.Context, payment *model.BookingPayment, opts ...utils.DBOption) error
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(booking).Error
}

func (r *bookingRepository) GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Booking, error) {
	var booking model.Booking
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).First(&booking, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFound("booking %d not found", id)
		}
		return nil, err
	}
	return &booking, nil
}

// Update writes the full row. Select("*") keeps zeroed fields such as a
// cleared cumulative amount from being skipped by gorm.
func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(booking).
		Select("*").
		Omit("id", "created_at").
		Updates(booking).Error
}

func (r *bookingRepository) Get(ctx context.Context, param dto.GetBookingsParam) ([]model.Booking, error) {
	var bookings []model.Booking
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
	if param.ExpiredOnly {
		db = db.Where("expires_at < ?", time.Now().UTC())
	}
	if param.Limit != nil {
		db = db.Limit(*param.Limit)
	}

	if err := db.Order("created_at ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) CreatePayment(ctx context.Context, payment *model.BookingPayment, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(payment).Error
}
