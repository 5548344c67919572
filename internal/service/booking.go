package service

import (
	"context"
	"fmt"
	"sync/atomic"
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
	"golang.org/x/sync/errgroup"
)

type BookingService interface {
	// CreateBooking reserves shares and records the down payment as the
	// first applied payment. A 100% down payment settles immediately.
	CreateBooking(ctx context.Context, req dto.CreateBookingRequest) (*model.Booking, error)
	ApplyPayment(ctx context.Context, bookingID uint, amount decimal.Decimal) (*model.Booking, error)
	ReduceQuantity(ctx context.Context, bookingID uint, newQuantity int64) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID uint) (*model.Booking, error)
	// ExpireDue cancels bookings past their expiry with the same
	// truncation rule as a manual cancellation. Safe to call when nothing
	// is due.
	ExpireDue(ctx context.Context) (int, error)
	Get(ctx context.Context, param dto.GetBookingsParam) ([]model.Booking, error)
}

type bookingService struct {
	cfg            *config.Config
	log            *logger.Logger
	instrumentRepo repository.InstrumentRepository
	bookingRepo    repository.BookingRepository
	activityRepo   repository.ShareTransactionRepository
	settingRepo    repository.MarketSettingRepository
	fundLedgerRepo repository.FundLedgerRepository
	userRepo       repository.UserRepository
	uow            repository.UnitOfWork
	bookingLocks   *locks.KeyedMutex
}

func NewBookingService(
	cfg *config.Config,
	log *logger.Logger,
	instrumentRepo repository.InstrumentRepository,
	bookingRepo repository.BookingRepository,
	activityRepo repository.ShareTransactionRepository,
	settingRepo repository.MarketSettingRepository,
	fundLedgerRepo repository.FundLedgerRepository,
	userRepo repository.UserRepository,
	uow repository.UnitOfWork,
) BookingService {
	return &bookingService{
		cfg:            cfg,
		log:            log,
		instrumentRepo: instrumentRepo,
		bookingRepo:    bookingRepo,
		activityRepo:   activityRepo,
		settingRepo:    settingRepo,
		fundLedgerRepo: fundLedgerRepo,
		userRepo:       userRepo,
		uow:            uow,
		bookingLocks:   locks.NewKeyedMutex(),
	}
}

func bookingLockKey(id uint) string {
	return fmt.Sprintf("booking:%d", id)
}

func (s *bookingService) CreateBooking(ctx context.Context, req dto.CreateBookingRequest) (*model.Booking, error) {
	if req.Quantity <= 0 {
		return nil, apperrors.NewValidation("booking quantity must be positive, got %d", req.Quantity)
	}

	setting, err := s.settingRepo.GetByInstrument(ctx, req.InstrumentID)
	if err != nil {
		return nil, err
	}
	if req.DownPaymentPercent.LessThan(setting.MinDownPaymentPercent) ||
		req.DownPaymentPercent.GreaterThan(oneHundredDec) {
		return nil, apperrors.NewValidation("down payment percent must be within [%s, 100], got %s",
			setting.MinDownPaymentPercent, req.DownPaymentPercent)
	}

	instrument, err := s.instrumentRepo.Get(ctx, req.InstrumentID)
	if err != nil {
		return nil, err
	}
	if req.Quantity > instrument.AvailableShares {
		return nil, apperrors.NewValidation("requested %d shares but only %d available",
			req.Quantity, instrument.AvailableShares)
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	totalAmount := instrument.CurrentPrice.Mul(decimal.NewFromInt(req.Quantity))
	downPayment := totalAmount.Mul(req.DownPaymentPercent).Div(oneHundredDec)
	reference := uuid.NewString()

	// The debit is the point of no return for the payer; a failed store
	// write below is compensated with a credit.
	if err := s.fundLedgerRepo.Debit(ctx, user.WalletID, downPayment, instrument.Currency, reference); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		UserID:              req.UserID,
		InstrumentID:        req.InstrumentID,
		Quantity:            req.Quantity,
		TotalAmount:         totalAmount,
		DownPaymentAmount:   downPayment,
		CumulativePayments:  downPayment,
		BookedPricePerShare: instrument.CurrentPrice,
		Status:              model.BookingStatusActive,
		ExpiresAt:           time.Now().UTC().AddDate(0, 0, setting.BookingExpiryDays),
	}
	if booking.PaymentPercentage().GreaterThanOrEqual(oneHundredDec) {
		booking.Status = model.BookingStatusCompleted
	}

	err = s.uow.Run(func(opts ...utils.DBOption) error {
		if err := s.instrumentRepo.AdjustAvailableShares(ctx, req.InstrumentID, -req.Quantity, opts...); err != nil {
			return err
		}
		if err := s.bookingRepo.Create(ctx, booking, opts...); err != nil {
			return err
		}
		unlocked := booking.SharesOwned()
		payment := &model.BookingPayment{
			BookingID:      booking.ID,
			Amount:         downPayment,
			SharesUnlocked: unlocked,
		}
		if err := s.bookingRepo.CreatePayment(ctx, payment, opts...); err != nil {
			return err
		}
		if unlocked > 0 {
			return s.activityRepo.Create(ctx, &model.ShareTransaction{
				InstrumentID: req.InstrumentID,
				UserID:       req.UserID,
				Type:         model.TransactionTypePurchase,
				Quantity:     unlocked,
				Price:        instrument.CurrentPrice,
				Status:       model.TransactionStatusCompleted,
			}, opts...)
		}
		return nil
	})
	if err != nil {
		s.refund(ctx, user.WalletID, downPayment, instrument.Currency, reference)
		return nil, err
	}

	s.log.InfoContext(ctx, "Booking created",
		logger.IntField("booking_id", int(booking.ID)),
		logger.IntField("user_id", int(req.UserID)),
		logger.Int64Field("quantity", req.Quantity),
		logger.StringField("down_payment", downPayment.String()))

	return booking, nil
}

func (s *bookingService) ApplyPayment(ctx context.Context, bookingID uint, amount decimal.Decimal) (*model.Booking, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewValidation("payment amount must be positive, got %s", amount)
	}

	s.bookingLocks.Lock(bookingLockKey(bookingID))
	defer s.bookingLocks.Unlock(bookingLockKey(bookingID))

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status.Terminal() {
		return nil, apperrors.NewValidation("booking %d is %s and cannot accept payments", bookingID, booking.Status)
	}
	if booking.CumulativePayments.Add(amount).GreaterThan(booking.TotalAmount) {
		return nil, apperrors.NewValidation("payment of %s would exceed remaining amount %s",
			amount, booking.RemainingAmount())
	}

	user, err := s.userRepo.GetByID(ctx, booking.UserID)
	if err != nil {
		return nil, err
	}
	instrument, err := s.instrumentRepo.Get(ctx, booking.InstrumentID)
	if err != nil {
		return nil, err
	}

	reference := uuid.NewString()
	if err := s.fundLedgerRepo.Debit(ctx, user.WalletID, amount, instrument.Currency, reference); err != nil {
		return nil, err
	}

	err = s.uow.Run(func(opts ...utils.DBOption) error {
		locked, err := s.bookingRepo.GetByID(ctx, bookingID, append(opts, utils.WithLockForUpdate())...)
		if err != nil {
			return err
		}
		// Re-checked on the locked row: the pre-lock read may be stale when
		// another process writes the booking without the in-process lock.
		if locked.CumulativePayments.Add(amount).GreaterThan(locked.TotalAmount) {
			return apperrors.NewValidation("payment of %s would exceed remaining amount %s",
				amount, locked.RemainingAmount())
		}

		oldOwned := locked.SharesOwned()
		locked.CumulativePayments = locked.CumulativePayments.Add(amount)
		newOwned := locked.SharesOwned()

		next := model.BookingStatusPartiallyPaid
		if locked.PaymentPercentage().GreaterThanOrEqual(oneHundredDec) {
			next = model.BookingStatusCompleted
		}
		if !locked.Status.CanTransition(next) {
			return apperrors.NewValidation("booking %d cannot move from %s to %s", bookingID, locked.Status, next)
		}
		locked.Status = next

		if err := s.bookingRepo.Update(ctx, locked, opts...); err != nil {
			return err
		}
		if err := s.bookingRepo.CreatePayment(ctx, &model.BookingPayment{
			BookingID:      bookingID,
			Amount:         amount,
			SharesUnlocked: newOwned - oldOwned,
		}, opts...); err != nil {
			return err
		}
		if delta := newOwned - oldOwned; delta > 0 {
			if err := s.activityRepo.Create(ctx, &model.ShareTransaction{
				InstrumentID: locked.InstrumentID,
				UserID:       locked.UserID,
				Type:         model.TransactionTypePurchase,
				Quantity:     delta,
				Price:        locked.BookedPricePerShare,
				Status:       model.TransactionStatusCompleted,
			}, opts...); err != nil {
				return err
			}
		}
		booking = locked
		return nil
	})
	if err != nil {
		s.refund(ctx, user.WalletID, amount, instrument.Currency, reference)
		return nil, err
	}

	return booking, nil
}

func (s *bookingService) ReduceQuantity(ctx context.Context, bookingID uint, newQuantity int64) (*model.Booking, error) {
	if newQuantity <= 0 {
		return nil, apperrors.NewValidation("new quantity must be positive, got %d", newQuantity)
	}

	s.bookingLocks.Lock(bookingLockKey(bookingID))
	defer s.bookingLocks.Unlock(bookingLockKey(bookingID))

	var booking *model.Booking
	err := s.uow.Run(func(opts ...utils.DBOption) error {
		locked, err := s.bookingRepo.GetByID(ctx, bookingID, append(opts, utils.WithLockForUpdate())...)
		if err != nil {
			return err
		}
		if locked.Status.Terminal() {
			return apperrors.NewValidation("booking %d is %s and cannot be reduced", bookingID, locked.Status)
		}

		owned := locked.SharesOwned()
		if newQuantity <= owned {
			return apperrors.NewValidation("cannot reduce to %d shares: %d already earned", newQuantity, owned)
		}
		if newQuantity >= locked.Quantity {
			return apperrors.NewValidation("new quantity %d must be below current quantity %d", newQuantity, locked.Quantity)
		}

		released := locked.Quantity - newQuantity
		if err := s.instrumentRepo.AdjustAvailableShares(ctx, locked.InstrumentID, released, opts...); err != nil {
			return err
		}

		locked.Quantity = newQuantity
		locked.TotalAmount = locked.BookedPricePerShare.Mul(decimal.NewFromInt(newQuantity))
		if err := s.bookingRepo.Update(ctx, locked, opts...); err != nil {
			return err
		}
		booking = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Booking reduced",
		logger.IntField("booking_id", int(bookingID)),
		logger.Int64Field("new_quantity", newQuantity))

	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, bookingID uint) (*model.Booking, error) {
	s.bookingLocks.Lock(bookingLockKey(bookingID))
	defer s.bookingLocks.Unlock(bookingLockKey(bookingID))

	return s.cancelLocked(ctx, bookingID)
}

// cancelLocked applies the truncation rule: earned shares are kept by the
// payer (the booking closes as completed for the owned portion, no
// refund), only the unpaid remainder returns to the pool.
func (s *bookingService) cancelLocked(ctx context.Context, bookingID uint) (*model.Booking, error) {
	var booking *model.Booking
	err := s.uow.Run(func(opts ...utils.DBOption) error {
		locked, err := s.bookingRepo.GetByID(ctx, bookingID, append(opts, utils.WithLockForUpdate())...)
		if err != nil {
			return err
		}
		if locked.Status.Terminal() {
			return apperrors.NewValidation("booking %d is already %s", bookingID, locked.Status)
		}

		owned := locked.SharesOwned()
		released := locked.Quantity - owned
		if released > 0 {
			if err := s.instrumentRepo.AdjustAvailableShares(ctx, locked.InstrumentID, released, opts...); err != nil {
				return err
			}
		}

		if owned > 0 {
			locked.Quantity = owned
			locked.TotalAmount = locked.CumulativePayments
			locked.Status = model.BookingStatusCompleted
		} else {
			locked.Status = model.BookingStatusCancelled
		}

		if err := s.bookingRepo.Update(ctx, locked, opts...); err != nil {
			return err
		}
		booking = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Booking closed",
		logger.IntField("booking_id", int(bookingID)),
		logger.StringField("status", string(booking.Status)))

	return booking, nil
}

func (s *bookingService) ExpireDue(ctx context.Context) (int, error) {
	due, err := s.bookingRepo.Get(ctx, dto.GetBookingsParam{
		Statuses:    []model.BookingStatus{model.BookingStatusActive, model.BookingStatusPartiallyPaid},
		ExpiredOnly: true,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to find expired bookings: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	var expired atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Scheduler.MaxConcurrency)
	for _, booking := range due {
		id := booking.ID
		g.Go(func() error {
			if _, err := s.Cancel(gctx, id); err != nil {
				s.log.ErrorContext(gctx, "Failed to expire booking",
					logger.ErrorField(err),
					logger.IntField("booking_id", int(id)))
				return err
			}
			expired.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return int(expired.Load()), err
}

func (s *bookingService) Get(ctx context.Context, param dto.GetBookingsParam) ([]model.Booking, error) {
	return s.bookingRepo.Get(ctx, param)
}

// refund is the compensating credit after a debit whose state transition
// failed. A failed refund is logged with the reference so it can be
// reconciled manually against the fund ledger.
func (s *bookingService) refund(ctx context.Context, walletID string, amount decimal.Decimal, currency, reference string) {
	if err := s.fundLedgerRepo.Credit(ctx, walletID, amount, currency, reference); err != nil {
		s.log.ErrorContext(ctx, "Compensating credit failed, manual reconciliation required",
			logger.ErrorField(err),
			logger.StringField("wallet_id", walletID),
			logger.StringField("amount", amount.String()),
			logger.StringField("reference", reference))
	}
}
