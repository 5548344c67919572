package task

import (
	"context"
	"fmt"

	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/dto"
	"equity-marketplace/internal/model"
	"equity-marketplace/pkg/logger"
)

type BatchProcessor interface {
	ProcessBatch(ctx context.Context, instrumentID uint) (*dto.ProcessBatchResult, error)
}

type settlementBatchStrategy struct {
	log        *logger.Logger
	settlement BatchProcessor
}

func NewSettlementBatchStrategy(log *logger.Logger, settlement BatchProcessor) Strategy {
	return &settlementBatchStrategy{log: log, settlement: settlement}
}

func (s *settlementBatchStrategy) Execute(ctx context.Context, job *model.Job) (*ExecutionResult, error) {
	payload, err := ParsePayload(job)
	if err != nil {
		return nil, err
	}
	if payload.InstrumentID == 0 {
		return nil, apperrors.NewValidation("job %d has no instrument_id in payload", job.ID)
	}

	result, err := s.settlement.ProcessBatch(ctx, payload.InstrumentID)
	if err != nil {
		// Another batch holding the lock is not a failure, the next tick
		// will pick the queue up again.
		if apperrors.IsConcurrencyConflict(err) {
			return &ExecutionResult{
				Output: fmt.Sprintf("instrument %d: batch already running, skipped", payload.InstrumentID),
			}, nil
		}
		return nil, err
	}

	return &ExecutionResult{
		Output: fmt.Sprintf("instrument %d: settled %d orders, spent %s, cap_reached=%t",
			payload.InstrumentID, len(result.Processed), result.TotalSpent, result.CapReached),
	}, nil
}
