package task

import (
	"context"
	"fmt"

	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/model"
	"equity-marketplace/pkg/logger"
)

type PriceRecalculator interface {
	ComputeNextPrice(ctx context.Context, instrumentID uint) (*dto.PriceRecalculationResult, error)
}

type priceRecalculationStrategy struct {
	log     *logger.Logger
	pricing PriceRecalculator
}

func NewPriceRecalculationStrategy(log *logger.Logger, pricing PriceRecalculator) Strategy {
	return &priceRecalculationStrategy{log: log, pricing: pricing}
}

func (s *priceRecalculationStrategy) Execute(ctx context.Context, job *model.Job) (*ExecutionResult, error) {
	payload, err := ParsePayload(job)
	if err != nil {
		return nil, err
	}
	if payload.InstrumentID == 0 {
		return nil, apperrors.NewValidation("job %d has no instrument_id in payload", job.ID)
	}

	result, err := s.pricing.ComputeNextPrice(ctx, payload.InstrumentID)
	if err != nil {
		return nil, err
	}
	if !result.Updated {
		return &ExecutionResult{
			Output: fmt.Sprintf("instrument %d: price unchanged at %s", payload.InstrumentID, result.Price),
		}, nil
	}

	s.log.InfoContext(ctx, "Scheduled price recalculation applied",
		logger.IntField("instrument_id", int(payload.InstrumentID)),
		logger.StringField("price", result.Price.String()),
		logger.StringField("percent_change", result.PercentChange.String()))

	return &ExecutionResult{
		Output: fmt.Sprintf("instrument %d: %s -> %s (%s%%)",
			payload.InstrumentID, result.PreviousPrice, result.Price, result.PercentChange),
	}, nil
}
