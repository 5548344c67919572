package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSharesOwned(t *testing.T) {
	tests := []struct {
		name       string
		cumulative int64
		total      int64
		quantity   int64
		want       int64
	}{
		{"nothing paid", 0, 1000, 10, 0},
		{"under one share", 99, 1000, 10, 0},
		{"exactly one share", 100, 1000, 10, 1},
		{"floors between shares", 349, 1000, 10, 3},
		{"fully paid", 1000, 1000, 10, 10},
		{"overpaid never exceeds quantity", 1200, 1000, 10, 10},
		{"zero total", 0, 0, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Booking{
				Quantity:           tt.quantity,
				TotalAmount:        decimal.NewFromInt(tt.total),
				CumulativePayments: decimal.NewFromInt(tt.cumulative),
			}
			assert.Equal(t, tt.want, b.SharesOwned())
		})
	}
}

func TestSharesOwnedMonotonic(t *testing.T) {
	b := Booking{Quantity: 7, TotalAmount: decimal.NewFromInt(1000)}
	prev := int64(0)
	for paid := int64(0); paid <= 1000; paid += 13 {
		b.CumulativePayments = decimal.NewFromInt(paid)
		owned := b.SharesOwned()
		assert.GreaterOrEqual(t, owned, prev, "ownership regressed at cumulative %d", paid)
		prev = owned
	}
}

func TestBookingStatusTransitions(t *testing.T) {
	assert.True(t, BookingStatusActive.CanTransition(BookingStatusPartiallyPaid))
	assert.True(t, BookingStatusActive.CanTransition(BookingStatusCompleted))
	assert.True(t, BookingStatusActive.CanTransition(BookingStatusCancelled))
	assert.True(t, BookingStatusPartiallyPaid.CanTransition(BookingStatusPartiallyPaid))
	assert.True(t, BookingStatusPartiallyPaid.CanTransition(BookingStatusCompleted))

	assert.False(t, BookingStatusCompleted.CanTransition(BookingStatusActive))
	assert.False(t, BookingStatusCancelled.CanTransition(BookingStatusPartiallyPaid))
	assert.False(t, BookingStatusPartiallyPaid.CanTransition(BookingStatusActive))

	assert.True(t, BookingStatusCompleted.Terminal())
	assert.True(t, BookingStatusCancelled.Terminal())
	assert.False(t, BookingStatusActive.Terminal())
}

func TestBookingExpired(t *testing.T) {
	now := time.Now().UTC()
	b := Booking{Status: BookingStatusActive, ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, b.Expired(now))

	b.ExpiresAt = now.Add(time.Minute)
	assert.False(t, b.Expired(now))

	b.Status = BookingStatusCompleted
	b.ExpiresAt = now.Add(-time.Minute)
	assert.False(t, b.Expired(now), "terminal bookings never expire")
}
