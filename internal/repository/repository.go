package repository

import (
	"equity-marketplace/config"
	"equity-marketplace/pkg/cache"
	"equity-marketplace/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	InstrumentRepo       InstrumentRepository
	PriceHistoryRepo     PriceHistoryRepository
	ShareTransactionRepo ShareTransactionRepository
	BookingRepo          BookingRepository
	OrderRepo            OrderRepository
	SettlementRepo       SettlementRepository
	MarketSettingRepo    MarketSettingRepository
	FundLedgerRepo       FundLedgerRepository
	UserRepo             UserRepository
	JobRepo              JobRepository
	UnitOfWork           UnitOfWork
}

func NewRepository(cfg *config.Config, inmemoryCache cache.Cache, db *gorm.DB, log *logger.Logger) (*Repository, error) {
	return &Repository{
		InstrumentRepo:       NewInstrumentRepository(cfg, inmemoryCache, db),
		PriceHistoryRepo:     NewPriceHistoryRepository(db),
		ShareTransactionRepo: NewShareTransactionRepository(db),
		BookingRepo:          NewBookingRepository(db),
		OrderRepo:            NewOrderRepository(db),
		SettlementRepo:       NewSettlementRepository(db),
		MarketSettingRepo:    NewMarketSettingRepository(db),
		FundLedgerRepo:       NewFundLedgerRepository(cfg, log),
		UserRepo:             NewUserRepository(db),
		JobRepo:              NewJobRepository(db),
		UnitOfWork:           NewUnitOfWork(db),
	}, nil
}
