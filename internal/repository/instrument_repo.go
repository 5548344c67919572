package repository

import (
	"context"
	"fmt"
	"time"

	"equity-marketplace/config"
	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/model"
	"equity-marketplace/pkg/cache"
	"equity-marketplace/pkg/utils"

	"gorm.io/gorm"
)

type InstrumentRepository interface {
	Get(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Instrument, error)
	// GetQuote serves the public read path through a short-lived cache;
	// mutating paths must use Get, which always hits the store.
	GetQuote(ctx context.Context, id uint) (*model.Instrument, error)
	// UpdateVersioned applies updates only if the row still carries the
	// version the caller read. A stale version surfaces a concurrency
	// conflict and nothing is written.
	UpdateVersioned(ctx context.Context, id uint, readVersion int64, updates map[string]interface{}, opts ...utils.DBOption) error
	// AdjustAvailableShares atomically moves available_shares by delta,
	// rejecting any adjustment that would leave the pool negative or
	// above total_shares.
	AdjustAvailableShares(ctx context.Context, id uint, delta int64, opts ...utils.DBOption) error
}

type instrumentRepository struct {
	cfg           *config.Config
	db            *gorm.DB
	inmemoryCache cache.Cache
}

func NewInstrumentRepository(cfg *config.Config, inmemoryCache cache.Cache, db *gorm.DB) InstrumentRepository {
	return &instrumentRepository{cfg: cfg, inmemoryCache: inmemoryCache, db: db}
}

func quoteCacheKey(id uint) string {
	return fmt.Sprintf("instrument_quote:%d", id)
}

func (r *instrumentRepository) Get(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Instrument, error) {
	var instrument model.Instrument
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).First(&instrument, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFound("instrument %d not found", id)
		}
		return nil, err
	}
	return &instrument, nil
}

func (r *instrumentRepository) GetQuote(ctx context.Context, id uint) (*model.Instrument, error) {
	if val, found := cache.GetTyped[*model.Instrument](r.inmemoryCache, quoteCacheKey(id)); found {
		return val, nil
	}
	instrument, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ttl := r.cfg.Cache.QuoteExpiration
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	r.inmemoryCache.Set(quoteCacheKey(id), instrument, ttl)
	return instrument, nil
}

func (r *instrumentRepository) UpdateVersioned(ctx context.Context, id uint, readVersion int64, updates map[string]interface{}, opts ...utils.DBOption) error {
	updates["version"] = readVersion + 1
	res := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.Instrument{}).
		Where("id = ? AND version = ?", id, readVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NewConcurrencyConflict("instrument %d changed since it was read (version %d)", id, readVersion)
	}
	r.inmemoryCache.Delete(quoteCacheKey(id))
	return nil
}

func (r *instrumentRepository) AdjustAvailableShares(ctx context.Context, id uint, delta int64, opts ...utils.DBOption) error {
	res := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.Instrument{}).
		Where("id = ? AND available_shares + ? >= 0 AND available_shares + ? <= total_shares", id, delta, delta).
		Update("available_shares", gorm.Expr("available_shares + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NewValidation("share adjustment of %d rejected for instrument %d", delta, id)
	}
	r.inmemoryCache.Delete(quoteCacheKey(id))
	return nil
}
