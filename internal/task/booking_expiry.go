package task

import (
	"context"
	"fmt"

	"equity-marketplace/internal/model"
	"equity-marketplace/pkg/logger"
)

type BookingExpirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

type bookingExpiryStrategy struct {
	log      *logger.Logger
	bookings BookingExpirer
}

func NewBookingExpiryStrategy(log *logger.Logger, bookings BookingExpirer) Strategy {
	return &bookingExpiryStrategy{log: log, bookings: bookings}
}

func (s *bookingExpiryStrategy) Execute(ctx context.Context, job *model.Job) (*ExecutionResult, error) {
	expired, err := s.bookings.ExpireDue(ctx)
	if err != nil {
		return nil, err
	}
	if expired > 0 {
		s.log.InfoContext(ctx, "Expired overdue bookings", logger.IntField("count", expired))
	}
	return &ExecutionResult{Output: fmt.Sprintf("expired %d bookings", expired)}, nil
}
