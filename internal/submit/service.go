package submit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/certinal/booth-backend/internal/models"
	"github.com/certinal/booth-backend/pkg/queue"
)

// Inserter is the slice of the store client the service needs.
type Inserter interface {
	Insert(ctx context.Context, table string, records []models.Registration) ([]models.Registration, error)
}

// Events emits the registration-created message consumed by the token
// assignment worker.
type Events interface {
	EnqueueRegistrationCreated(ctx context.Context, payload queue.RegistrationCreatedPayload) error
}

// Service validates a submission and writes the registration row.
type Service struct {
	store  Inserter
	table  string
	events Events // nil when only the store-side trigger drives assignment
	logger *zap.Logger
}

// NewService creates a submission service.
func NewService(store Inserter, table string, events Events, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, table: table, events: events, logger: logger}
}

// Submit validates sub and inserts exactly one row with no token and
// book_collected false. On success the registration-created event is
// emitted fire-and-forget: an enqueue failure is logged, never surfaced,
// because the registrant already has a stored row and the webhook trigger
// path still covers token assignment.
func (s *Service) Submit(ctx context.Context, sub Submission) (*models.Registration, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.store.Insert(ctx, s.table, []models.Registration{{
		Name:    sub.Name,
		Email:   sub.Email,
		Title:   sub.Title,
		Phone:   sub.Phone,
		Consent: sub.Consent,
		Company: sub.Company,
	}})
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("store returned %d rows for single insert", len(rows))
	}
	rec := rows[0]

	if s.events != nil {
		if err := s.events.EnqueueRegistrationCreated(ctx, queue.RegistrationCreatedPayload{Record: rec}); err != nil {
			s.logger.Error("enqueue registration event failed",
				zap.String("registration_id", rec.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("registration created", zap.String("registration_id", rec.ID))
	return &rec, nil
}
