package service

import (
	"context"
	"fmt"
	"time"

	"equity-marketplace/config"
	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/model"
	"equity-marketplace/internal/repository"
	"equity-marketplace/pkg/locks"
	"equity-marketplace/pkg/logger"
	"equity-marketplace/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SettlementService interface {
	// Submit appends a sell order at the tail of the instrument's buyback
	// queue. The position is assigned inside the insert transaction so two
	// concurrent submissions can never share one.
	Submit(ctx context.Context, req dto.SubmitOrderRequest) (*model.SellOrder, error)
	// Modify changes a pending order's quantity. The order forfeits its
	// place and re-enters at the tail of the queue.
	Modify(ctx context.Context, orderID uint, newQuantity int64) (*model.SellOrder, error)
	Cancel(ctx context.Context, orderID uint) (*model.SellOrder, error)
	GetQueue(ctx context.Context, instrumentID uint) ([]model.SellOrder, error)
	Get(ctx context.Context, param dto.GetOrdersParam) ([]model.SellOrder, error)
	// GetSettlements lists the fills recorded for one order, oldest first.
	GetSettlements(ctx context.Context, orderID uint) ([]model.Settlement, error)
	// ProcessBatch drains the queue front in strict order, paying sellers
	// out of the buyback fund until the fund, the spend caps, or the
	// per-order approval limit stop it.
	ProcessBatch(ctx context.Context, instrumentID uint) (*dto.ProcessBatchResult, error)
}

type settlementService struct {
	cfg            *config.Config
	log            *logger.Logger
	instrumentRepo repository.InstrumentRepository
	orderRepo      repository.OrderRepository
	settlementRepo repository.SettlementRepository
	settingRepo    repository.MarketSettingRepository
	activityRepo   repository.ShareTransactionRepository
	fundLedgerRepo repository.FundLedgerRepository
	userRepo       repository.UserRepository
	uow            repository.UnitOfWork
	queueLocks     *locks.KeyedMutex
	batchLocks     *locks.KeyedMutex
}

func NewSettlementService(
	cfg *config.Config,
	log *logger.Logger,
	instrumentRepo repository.InstrumentRepository,
	orderRepo repository.OrderRepository,
	settlementRepo repository.SettlementRepository,
	settingRepo repository.MarketSettingRepository,
	activityRepo repository.ShareTransactionRepository,
	fundLedgerRepo repository.FundLedgerRepository,
	userRepo repository.UserRepository,
	uow repository.UnitOfWork,
) SettlementService {
	return &settlementService{
		cfg:            cfg,
		log:            log,
		instrumentRepo: instrumentRepo,
		orderRepo:      orderRepo,
		settlementRepo: settlementRepo,
		settingRepo:    settingRepo,
		activityRepo:   activityRepo,
		fundLedgerRepo: fundLedgerRepo,
		userRepo:       userRepo,
		uow:            uow,
		queueLocks:     locks.NewKeyedMutex(),
		batchLocks:     locks.NewKeyedMutex(),
	}
}

func queueLockKey(instrumentID uint) string {
	return fmt.Sprintf("queue:%d", instrumentID)
}

func batchLockKey(instrumentID uint) string {
	return fmt.Sprintf("settlement:%d", instrumentID)
}

func (s *settlementService) Submit(ctx context.Context, req dto.SubmitOrderRequest) (*model.SellOrder, error) {
	if req.Quantity <= 0 {
		return nil, apperrors.NewValidation("order quantity must be positive, got %d", req.Quantity)
	}
	if req.RequestedPrice.IsNegative() {
		return nil, apperrors.NewValidation("requested price cannot be negative, got %s", req.RequestedPrice)
	}

	instrument, err := s.instrumentRepo.Get(ctx, req.InstrumentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	price := req.RequestedPrice
	if price.IsZero() {
		price = instrument.CurrentPrice
	}

	order := &model.SellOrder{
		UserID:            req.UserID,
		InstrumentID:      req.InstrumentID,
		Quantity:          req.Quantity,
		RemainingQuantity: req.Quantity,
		RequestedPrice:    price,
		Status:            model.OrderStatusPending,
	}

	s.queueLocks.Lock(queueLockKey(req.InstrumentID))
	defer s.queueLocks.Unlock(queueLockKey(req.InstrumentID))

	err = s.uow.Run(func(opts ...utils.DBOption) error {
		max, err := s.orderRepo.MaxFIFOPosition(ctx, req.InstrumentID, opts...)
		if err != nil {
			return err
		}
		order.FIFOPosition = max + 1
		return s.orderRepo.Create(ctx, order, opts...)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Sell order queued",
		logger.IntField("order_id", int(order.ID)),
		logger.IntField("instrument_id", int(req.InstrumentID)),
		logger.Int64Field("fifo_position", order.FIFOPosition))

	return order, nil
}

func (s *settlementService) Modify(ctx context.Context, orderID uint, newQuantity int64) (*model.SellOrder, error) {
	if newQuantity <= 0 {
		return nil, apperrors.NewValidation("new quantity must be positive, got %d", newQuantity)
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.queueLocks.Lock(queueLockKey(order.InstrumentID))
	defer s.queueLocks.Unlock(queueLockKey(order.InstrumentID))

	err = s.uow.Run(func(opts ...utils.DBOption) error {
		locked, err := s.orderRepo.GetByID(ctx, orderID, append(opts, utils.WithLockForUpdate())...)
		if err != nil {
			return err
		}
		if locked.Status != model.OrderStatusPending {
			return apperrors.NewValidation("order %d is %s; only pending orders can be modified", orderID, locked.Status)
		}
		if locked.Quantity == newQuantity {
			return apperrors.NewValidation("new quantity %d equals the current quantity", newQuantity)
		}

		max, err := s.orderRepo.MaxFIFOPosition(ctx, locked.InstrumentID, opts...)
		if err != nil {
			return err
		}
		locked.Quantity = newQuantity
		locked.RemainingQuantity = newQuantity
		locked.FIFOPosition = max + 1
		if err := s.orderRepo.Update(ctx, locked, opts...); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Sell order modified, requeued at tail",
		logger.IntField("order_id", int(orderID)),
		logger.Int64Field("new_quantity", newQuantity),
		logger.Int64Field("fifo_position", order.FIFOPosition))

	return order, nil
}

func (s *settlementService) Cancel(ctx context.Context, orderID uint) (*model.SellOrder, error) {
	var order *model.SellOrder
	err := s.uow.Run(func(opts ...utils.DBOption) error {
		locked, err := s.orderRepo.GetByID(ctx, orderID, append(opts, utils.WithLockForUpdate())...)
		if err != nil {
			return err
		}
		if !locked.Status.CanTransition(model.OrderStatusCancelled) {
			return apperrors.NewValidation("order %d is %s and cannot be cancelled", orderID, locked.Status)
		}
		// Already-settled quantity stays settled, only the remainder
		// leaves the queue.
		locked.Status = model.OrderStatusCancelled
		if err := s.orderRepo.Update(ctx, locked, opts...); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *settlementService) GetQueue(ctx context.Context, instrumentID uint) ([]model.SellOrder, error) {
	return s.orderRepo.GetQueue(ctx, instrumentID, 0)
}

func (s *settlementService) Get(ctx context.Context, param dto.GetOrdersParam) ([]model.SellOrder, error) {
	return s.orderRepo.Get(ctx, param)
}

func (s *settlementService) GetSettlements(ctx context.Context, orderID uint) ([]model.Settlement, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.settlementRepo.GetByOrder(ctx, orderID)
}

func (s *settlementService) ProcessBatch(ctx context.Context, instrumentID uint) (*dto.ProcessBatchResult, error) {
	if !s.batchLocks.TryLock(batchLockKey(instrumentID)) {
		return nil, apperrors.NewConcurrencyConflict("settlement batch already running for instrument %d", instrumentID)
	}
	defer s.batchLocks.Unlock(batchLockKey(instrumentID))

	instrument, err := s.instrumentRepo.Get(ctx, instrumentID)
	if err != nil {
		return nil, err
	}
	setting, err := s.settingRepo.GetByInstrument(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	remainingCap, err := s.remainingSpendCap(ctx, instrumentID, setting)
	if err != nil {
		return nil, err
	}

	balance, err := s.fundLedgerRepo.GetBalance(ctx, repository.WalletTypeBuybackFund, instrument.Currency)
	if err != nil {
		return nil, err
	}
	batchFunds := decimal.Min(balance, remainingCap)

	queue, err := s.orderRepo.GetQueue(ctx, instrumentID, setting.BatchSize)
	if err != nil {
		return nil, err
	}

	result := &dto.ProcessBatchResult{TotalSpent: decimal.Zero}
	for i := range queue {
		order := &queue[i]

		fundable := decimal.Min(order.RemainingValue(), setting.AutoApprovalLimit, batchFunds)
		quantity := int64(0)
		if order.RequestedPrice.IsPositive() {
			quantity = fundable.Div(order.RequestedPrice).Floor().IntPart()
		}
		if quantity <= 0 {
			// Strict queue order: when the front order cannot be funded
			// for even one share, nothing behind it may jump ahead.
			result.CapReached = batchFunds.LessThan(order.RemainingValue())
			break
		}
		if quantity > order.RemainingQuantity {
			quantity = order.RemainingQuantity
		}
		amount := order.RequestedPrice.Mul(decimal.NewFromInt(quantity))

		outcome, err := s.settleOrder(ctx, instrument, order, quantity, amount)
		if err != nil {
			if apperrors.IsInsufficientFunds(err) {
				result.CapReached = true
				result.Failed = append(result.Failed, dto.BatchOrderOutcome{
					OrderID: order.ID, Status: order.Status, Error: err.Error(),
				})
				break
			}
			s.log.ErrorContext(ctx, "Order settlement failed",
				logger.ErrorField(err),
				logger.IntField("order_id", int(order.ID)))
			result.Failed = append(result.Failed, dto.BatchOrderOutcome{
				OrderID: order.ID, Status: order.Status, Error: err.Error(),
			})
			break
		}

		result.Processed = append(result.Processed, *outcome)
		result.TotalSpent = result.TotalSpent.Add(amount)
		batchFunds = batchFunds.Sub(amount)
	}

	s.log.InfoContext(ctx, "Settlement batch finished",
		logger.IntField("instrument_id", int(instrumentID)),
		logger.IntField("orders_settled", len(result.Processed)),
		logger.StringField("total_spent", result.TotalSpent.String()))

	return result, nil
}

// remainingSpendCap is how much the buyback fund may still spend on this
// instrument without breaching the daily or weekly cap.
func (s *settlementService) remainingSpendCap(ctx context.Context, instrumentID uint, setting *model.MarketSetting) (decimal.Decimal, error) {
	now := time.Now().UTC()

	spentToday, err := s.settlementRepo.SumAmountSince(ctx, instrumentID, utils.PeriodStart(now, string(model.WindowDaily)))
	if err != nil {
		return decimal.Zero, err
	}
	spentThisWeek, err := s.settlementRepo.SumAmountSince(ctx, instrumentID, utils.PeriodStart(now, string(model.WindowWeekly)))
	if err != nil {
		return decimal.Zero, err
	}

	remaining := decimal.Min(
		setting.DailySpendCap.Sub(spentToday),
		setting.WeeklySpendCap.Sub(spentThisWeek),
	)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return remaining, nil
}

// settleOrder moves the money first, then records the fill. A failed
// record is compensated by crediting the buyback fund back.
func (s *settlementService) settleOrder(ctx context.Context, instrument *model.Instrument, order *model.SellOrder, quantity int64, amount decimal.Decimal) (*dto.BatchOrderOutcome, error) {
	seller, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		return nil, err
	}

	reference := uuid.NewString()
	if err := s.fundLedgerRepo.Debit(ctx, repository.WalletTypeBuybackFund, amount, instrument.Currency, reference); err != nil {
		return nil, err
	}
	if err := s.fundLedgerRepo.Credit(ctx, seller.WalletID, amount, instrument.Currency, reference); err != nil {
		s.compensate(ctx, repository.WalletTypeBuybackFund, amount, instrument.Currency, reference)
		return nil, err
	}

	err = s.uow.Run(func(opts ...utils.DBOption) error {
		locked, err := s.orderRepo.GetByID(ctx, order.ID, append(opts, utils.WithLockForUpdate())...)
		if err != nil {
			return err
		}

		if err := s.settlementRepo.Create(ctx, &model.Settlement{
			OrderID:       order.ID,
			InstrumentID:  instrument.ID,
			Quantity:      quantity,
			Amount:        amount,
			FundReference: reference,
		}, opts...); err != nil {
			return err
		}

		locked.RemainingQuantity -= quantity
		locked.ProcessedQuantity += quantity
		next := model.OrderStatusPartial
		if locked.RemainingQuantity <= 0 {
			next = model.OrderStatusCompleted
		}
		if !locked.Status.CanTransition(next) {
			return apperrors.NewValidation("order %d cannot move from %s to %s", order.ID, locked.Status, next)
		}
		locked.Status = next
		if err := s.orderRepo.Update(ctx, locked, opts...); err != nil {
			return err
		}

		if err := s.instrumentRepo.AdjustAvailableShares(ctx, instrument.ID, quantity, opts...); err != nil {
			return err
		}
		if err := s.activityRepo.Create(ctx, &model.ShareTransaction{
			InstrumentID: instrument.ID,
			UserID:       order.UserID,
			Type:         model.TransactionTypeBuyback,
			Quantity:     quantity,
			Price:        order.RequestedPrice,
			Status:       model.TransactionStatusCompleted,
		}, opts...); err != nil {
			return err
		}

		*order = *locked
		return nil
	})
	if err != nil {
		// The seller was already paid. Claw the payout back and restore
		// the fund so the payout matches the recorded fills.
		if derr := s.fundLedgerRepo.Debit(ctx, seller.WalletID, amount, instrument.Currency, reference); derr != nil {
			s.log.ErrorContext(ctx, "Payout claw-back failed, manual reconciliation required",
				logger.ErrorField(derr),
				logger.StringField("wallet_id", seller.WalletID),
				logger.StringField("reference", reference))
		} else {
			s.compensate(ctx, repository.WalletTypeBuybackFund, amount, instrument.Currency, reference)
		}
		return nil, err
	}

	return &dto.BatchOrderOutcome{
		OrderID:  order.ID,
		Status:   order.Status,
		Quantity: quantity,
		Amount:   amount,
	}, nil
}

func (s *settlementService) compensate(ctx context.Context, walletID string, amount decimal.Decimal, currency, reference string) {
	if err := s.fundLedgerRepo.Credit(ctx, walletID, amount, currency, reference); err != nil {
		s.log.ErrorContext(ctx, "Compensating credit failed, manual reconciliation required",
			logger.ErrorField(err),
			logger.StringField("wallet_id", walletID),
			logger.StringField("amount", amount.String()),
			logger.StringField("reference", reference))
	}
}
