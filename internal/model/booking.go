package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusActive        BookingStatus = "active"
	BookingStatusPartiallyPaid BookingStatus = "partially_paid"
	BookingStatusCompleted     BookingStatus = "completed"
	BookingStatusCancelled     BookingStatus = "cancelled"
)

// bookingTransitions is the closed set of legal status moves. Anything
// not listed is rejected by CanTransition.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusActive:        {BookingStatusPartiallyPaid, BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusPartiallyPaid: {BookingStatusPartiallyPaid, BookingStatusCompleted, BookingStatusCancelled},
}

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// Booking is an installment purchase contract: the buyer reserves Quantity
// shares at BookedPricePerShare and earns ownership progressively as
// cumulative payments approach TotalAmount.
type Booking struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	UserID              uint            `gorm:"not null;index" json:"user_id"`
	InstrumentID        uint            `gorm:"not null;index" json:"instrument_id"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	TotalAmount         decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"total_amount"`
	DownPaymentAmount   decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"down_payment_amount"`
	CumulativePayments  decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"cumulative_payments"`
	BookedPricePerShare decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"booked_price_per_share"`
	Status              BookingStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	ExpiresAt           time.Time       `gorm:"not null" json:"expires_at"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// PaymentPercentage is cumulative payments over total amount, in percent.
func (b *Booking) PaymentPercentage() decimal.Decimal {
	if b.TotalAmount.IsZero() {
		return decimal.Zero
	}
	return b.CumulativePayments.Div(b.TotalAmount).Mul(decimal.NewFromInt(100))
}

// SharesOwned is the progressively earned share count:
// floor(payment_percentage/100 * quantity). Never exceeds Quantity.
func (b *Booking) SharesOwned() int64 {
	if b.TotalAmount.IsZero() {
		return 0
	}
	owned := b.CumulativePayments.
		Div(b.TotalAmount).
		Mul(decimal.NewFromInt(b.Quantity)).
		Floor().
		IntPart()
	if owned > b.Quantity {
		return b.Quantity
	}
	return owned
}

func (b *Booking) RemainingAmount() decimal.Decimal {
	return b.TotalAmount.Sub(b.CumulativePayments)
}

func (b *Booking) Expired(now time.Time) bool {
	return !b.Status.Terminal() && now.After(b.ExpiresAt)
}

// BookingPayment is the audit row for every applied payment, including the
// down payment, and the share delta it unlocked.
type BookingPayment struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	BookingID      uint            `gorm:"not null;index" json:"booking_id"`
	Amount         decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"amount"`
	SharesUnlocked int64           `gorm:"not null" json:"shares_unlocked"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (BookingPayment) TableName() string {
	return "booking_payments"
}
