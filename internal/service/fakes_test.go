package service

import (
	"context"
	"sync"
	"time"

	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/model"
	"equity-marketplace/internal/repository"
	"equity-marketplace/pkg/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the store-level guarantees the
// services rely on (versioned writes, share bounds, queue ordering) without
// a database.

type fakeUnitOfWork struct {
	mu sync.Mutex
	// runErr fails the next Run without invoking the closure, standing in
	// for a rolled-back transaction. beforeRun fires just before the next
	// closure, standing in for a concurrent writer that slips in between a
	// service's unlocked read and its transaction. Both are one-shot.
	runErr    error
	beforeRun func()
}

func (f *fakeUnitOfWork) Begin() *gorm.DB { return nil }
func (f *fakeUnitOfWork) Commit() error   { return nil }
func (f *fakeUnitOfWork) Rollback() error { return nil }

func (f *fakeUnitOfWork) Run(fn func(opts ...utils.DBOption) error) error {
	f.mu.Lock()
	err := f.runErr
	hook := f.beforeRun
	f.runErr = nil
	f.beforeRun = nil
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook()
	}
	return fn()
}

type fakeInstrumentRepo struct {
	mu         sync.Mutex
	instrument model.Instrument
}

func (f *fakeInstrumentRepo) Get(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Instrument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.instrument.ID != id {
		return nil, apperrors.NewNotFound("instrument %d not found", id)
	}
	cp := f.instrument
	return &cp, nil
}

func (f *fakeInstrumentRepo) GetQuote(ctx context.Context, id uint) (*model.Instrument, error) {
	return f.Get(ctx, id)
}

func (f *fakeInstrumentRepo) UpdateVersioned(ctx context.Context, id uint, readVersion int64, updates map[string]interface{}, opts ...utils.DBOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.instrument.ID != id || f.instrument.Version != readVersion {
		return apperrors.NewConcurrencyConflict("instrument %d version changed", id)
	}
	if v, ok := updates["current_price"].(decimal.Decimal); ok {
		f.instrument.CurrentPrice = v
	}
	if v, ok := updates["price_calculation_mode"].(model.PriceMode); ok {
		f.instrument.PriceMode = v
	}
	f.instrument.Version++
	return nil
}

func (f *fakeInstrumentRepo) AdjustAvailableShares(ctx context.Context, id uint, delta int64, opts ...utils.DBOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.instrument.AvailableShares + delta
	if next < 0 || next > f.instrument.TotalShares {
		return apperrors.NewValidation("share adjustment of %d out of range", delta)
	}
	f.instrument.AvailableShares = next
	return nil
}

type fakePriceHistoryRepo struct {
	records []model.PriceHistory
}

func (f *fakePriceHistoryRepo) Create(ctx context.Context, record *model.PriceHistory, opts ...utils.DBOption) error {
	record.ID = uint(len(f.records) + 1)
	f.records = append(f.records, *record)
	return nil
}

func (f *fakePriceHistoryRepo) GetLatestByMethods(ctx context.Context, instrumentID uint, methods []model.CalculationMethod, opts ...utils.DBOption) (*model.PriceHistory, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		rec := f.records[i]
		if rec.InstrumentID != instrumentID {
			continue
		}
		for _, m := range methods {
			if rec.CalculationMethod == m {
				cp := rec
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (f *fakePriceHistoryRepo) Get(ctx context.Context, param dto.GetPriceHistoryParam) ([]model.PriceHistory, error) {
	return f.records, nil
}

type fakeActivityRepo struct {
	// first GetActivity call serves the current period, second the previous.
	activities []dto.TradeActivity
	calls      int
	txns       []model.ShareTransaction
}

func (f *fakeActivityRepo) Create(ctx context.Context, txn *model.ShareTransaction, opts ...utils.DBOption) error {
	f.txns = append(f.txns, *txn)
	return nil
}

func (f *fakeActivityRepo) GetActivity(ctx context.Context, instrumentID uint, from, to time.Time) (dto.TradeActivity, error) {
	if f.calls >= len(f.activities) {
		return dto.TradeActivity{}, nil
	}
	a := f.activities[f.calls]
	f.calls++
	return a, nil
}

type fakeSettingRepo struct {
	setting model.MarketSetting
}

func (f *fakeSettingRepo) GetByInstrument(ctx context.Context, instrumentID uint, opts ...utils.DBOption) (*model.MarketSetting, error) {
	cp := f.setting
	return &cp, nil
}

func (f *fakeSettingRepo) Update(ctx context.Context, setting *model.MarketSetting, opts ...utils.DBOption) error {
	if err := setting.Validate(); err != nil {
		return err
	}
	f.setting = *setting
	return nil
}

type fundCall struct {
	WalletID  string
	Amount    decimal.Decimal
	Reference string
}

type fakeFundLedger struct {
	balance decimal.Decimal
	debits  []fundCall
	credits []fundCall
	// debitErr and creditErr fail the next matching call and are then
	// cleared, so a compensating transfer after the failure goes through.
	debitErr  error
	creditErr error
}

func (f *fakeFundLedger) Debit(ctx context.Context, walletID string, amount decimal.Decimal, currency, reference string) error {
	if err := f.debitErr; err != nil {
		f.debitErr = nil
		return err
	}
	if walletID == repository.WalletTypeBuybackFund {
		if amount.GreaterThan(f.balance) {
			return apperrors.NewInsufficientFunds("buyback fund balance %s below %s", f.balance, amount)
		}
		f.balance = f.balance.Sub(amount)
	}
	f.debits = append(f.debits, fundCall{WalletID: walletID, Amount: amount, Reference: reference})
	return nil
}

func (f *fakeFundLedger) Credit(ctx context.Context, walletID string, amount decimal.Decimal, currency, reference string) error {
	if err := f.creditErr; err != nil {
		f.creditErr = nil
		return err
	}
	if walletID == repository.WalletTypeBuybackFund {
		f.balance = f.balance.Add(amount)
	}
	f.credits = append(f.credits, fundCall{WalletID: walletID, Amount: amount, Reference: reference})
	return nil
}

func (f *fakeFundLedger) GetBalance(ctx context.Context, walletType, currency string) (decimal.Decimal, error) {
	return f.balance, nil
}

type fakeUserRepo struct {
	users map[uint]model.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("user %d not found", id)
	}
	return &u, nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uint]model.Booking
	payments []model.BookingPayment
	nextID   uint
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[uint]model.Booking{}, nextID: 1}
}

func (f *fakeBookingRepo) Create(ctx context.Context, booking *model.Booking, opts ...utils.DBOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking.ID = f.nextID
	f.nextID++
	f.bookings[booking.ID] = *booking
	return nil
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, apperrors.NewNotFound("booking %d not found", id)
	}
	return &b, nil
}

func (f *fakeBookingRepo) Update(ctx context.Context, booking *model.Booking, opts ...utils.DBOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[booking.ID] = *booking
	return nil
}

func (f *fakeBookingRepo) Get(ctx context.Context, param dto.GetBookingsParam) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.bookings {
		if len(param.Statuses) > 0 {
			match := false
			for _, st := range param.Statuses {
				if b.Status == st {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		if param.ExpiredOnly && !time.Now().UTC().After(b.ExpiresAt) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBookingRepo) CreatePayment(ctx context.Context, payment *model.BookingPayment, opts ...utils.DBOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment.ID = uint(len(f.payments) + 1)
	f.payments = append(f.payments, *payment)
	return nil
}

type fakeOrderRepo struct {
	orders map[uint]model.SellOrder
	nextID uint
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uint]model.SellOrder{}, nextID: 1}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *model.SellOrder, opts ...utils.DBOption) error {
	order.ID = f.nextID
	f.nextID++
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.SellOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, apperrors.NewNotFound("order %d not found", id)
	}
	return &o, nil
}

func (f *fakeOrderRepo) Update(ctx context.Context, order *model.SellOrder, opts ...utils.DBOption) error {
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeOrderRepo) Get(ctx context.Context, param dto.GetOrdersParam) ([]model.SellOrder, error) {
	var out []model.SellOrder
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrderRepo) GetQueue(ctx context.Context, instrumentID uint, limit int, opts ...utils.DBOption) ([]model.SellOrder, error) {
	var out []model.SellOrder
	for _, o := range f.orders {
		if o.InstrumentID == instrumentID && o.Status.Queued() {
			out = append(out, o)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].FIFOPosition < out[i].FIFOPosition {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeOrderRepo) MaxFIFOPosition(ctx context.Context, instrumentID uint, opts ...utils.DBOption) (int64, error) {
	var max int64
	for _, o := range f.orders {
		if o.InstrumentID == instrumentID && o.Status.Queued() && o.FIFOPosition > max {
			max = o.FIFOPosition
		}
	}
	return max, nil
}

type fakeSettlementRepo struct {
	settlements   []model.Settlement
	spentToday    decimal.Decimal
	spentThisWeek decimal.Decimal
	sumCalls      int
}

func (f *fakeSettlementRepo) Create(ctx context.Context, settlement *model.Settlement, opts ...utils.DBOption) error {
	settlement.ID = uint(len(f.settlements) + 1)
	f.settlements = append(f.settlements, *settlement)
	return nil
}

// SumAmountSince serves the daily total on the first call of a batch and
// the weekly total on the second, matching the cap-check call order.
func (f *fakeSettlementRepo) SumAmountSince(ctx context.Context, instrumentID uint, since time.Time) (decimal.Decimal, error) {
	f.sumCalls++
	if f.sumCalls%2 == 1 {
		return f.spentToday, nil
	}
	return f.spentThisWeek, nil
}

func (f *fakeSettlementRepo) GetByOrder(ctx context.Context, orderID uint) ([]model.Settlement, error) {
	var out []model.Settlement
	for _, s := range f.settlements {
		if s.OrderID == orderID {
			out = append(out, s)
		}
	}
	return out, nil
}
