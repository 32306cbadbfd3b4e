package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/certinal/booth-backend/internal/tokens"
	"github.com/certinal/booth-backend/pkg/queue"
)

// RegistrationProcessor consumes registration-created jobs and runs token
// assignment plus the confirmation email for each.
type RegistrationProcessor struct {
	assigner *tokens.Assigner
	queue    *queue.Queue
	logger   *zap.Logger
}

// NewRegistrationProcessor creates a registration job processor.
func NewRegistrationProcessor(assigner *tokens.Assigner, q *queue.Queue, logger *zap.Logger) *RegistrationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationProcessor{assigner: assigner, queue: q, logger: logger}
}

// Process executes one registration-created job. Re-delivery is safe:
// the assigner's null-token guard skips rows that already have a token.
func (p *RegistrationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeRegistrationCreated {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.RegistrationCreatedPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	res, err := p.assigner.Assign(ctx, payload.Record)
	if err != nil {
		return fmt.Errorf("assign token: %w", err)
	}
	if res.AlreadyAssigned {
		p.logger.Info("registration already has token",
			zap.String("registration_id", payload.Record.ID),
		)
		return nil
	}

	p.logger.Info("registration processed",
		zap.String("registration_id", payload.Record.ID),
		zap.String("email_id", res.EmailID),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *RegistrationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("registration worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
