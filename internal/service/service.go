package service

import (
	"equity-marketplace/config"
	"equity-marketplace/internal/model"
	"equity-marketplace/internal/repository"
	"equity-marketplace/internal/task"
	"equity-marketplace/pkg/logger"
)

type Service struct {
	PricingService    PricingService
	BookingService    BookingService
	SettlementService SettlementService
	SettingsService   SettingsService
	SchedulerService  SchedulerService
	TaskExecutor      TaskExecutor
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
) *Service {
	pricingService := NewPricingService(cfg, log, repo.InstrumentRepo, repo.PriceHistoryRepo, repo.ShareTransactionRepo, repo.MarketSettingRepo, repo.UnitOfWork)
	bookingService := NewBookingService(cfg, log, repo.InstrumentRepo, repo.BookingRepo, repo.ShareTransactionRepo, repo.MarketSettingRepo, repo.FundLedgerRepo, repo.UserRepo, repo.UnitOfWork)
	settlementService := NewSettlementService(cfg, log, repo.InstrumentRepo, repo.OrderRepo, repo.SettlementRepo, repo.MarketSettingRepo, repo.ShareTransactionRepo, repo.FundLedgerRepo, repo.UserRepo, repo.UnitOfWork)
	settingsService := NewSettingsService(cfg, log, repo.MarketSettingRepo)

	strategies := map[model.JobType]task.Strategy{
		model.JobTypePriceRecalculation: task.NewPriceRecalculationStrategy(log, pricingService),
		model.JobTypeSettlementBatch:    task.NewSettlementBatchStrategy(log, settlementService),
		model.JobTypeBookingExpiry:      task.NewBookingExpiryStrategy(log, bookingService),
	}

	taskExecutor := NewTaskExecutor(cfg, log, repo.JobRepo, strategies)
	schedulerService := NewSchedulerService(cfg, log, repo.JobRepo, taskExecutor)

	return &Service{
		PricingService:    pricingService,
		BookingService:    bookingService,
		SettlementService: settlementService,
		SettingsService:   settingsService,
		SchedulerService:  schedulerService,
		TaskExecutor:      taskExecutor,
	}
}
