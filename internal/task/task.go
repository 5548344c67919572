package task

import (
	"context"
	"encoding/json"

	"equity-marketplace/internal/apperrors"
	"equity-marketplace/internal/model"
)

// ExecutionResult carries whatever a strategy wants recorded in the task
// execution history for operators to read.
type ExecutionResult struct {
	Output string
}

// Strategy executes one scheduled job type. Implementations read their
// parameters from the job's JSON payload.
type Strategy interface {
	Execute(ctx context.Context, job *model.Job) (*ExecutionResult, error)
}

// Payload is the common job parameter shape. Jobs are seeded one per
// instrument; booking expiry sweeps every instrument and ignores it.
type Payload struct {
	InstrumentID uint `json:"instrument_id"`
}

func ParsePayload(job *model.Job) (*Payload, error) {
	var p Payload
	if len(job.Payload) == 0 {
		return &p, nil
	}
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return nil, apperrors.NewValidation("invalid payload for job %d: %v", job.ID, err)
	}
	return &p, nil
}
