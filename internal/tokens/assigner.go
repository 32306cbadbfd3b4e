package tokens

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/certinal/booth-backend/config"
	"github.com/certinal/booth-backend/internal/email"
	"github.com/certinal/booth-backend/internal/models"
	"github.com/certinal/booth-backend/internal/store"
)

// uniqueAttempts bounds the generate-until-unique loop. Six-digit space
// over a few thousand rows makes more than a couple of collisions in a
// row vanishingly unlikely.
const uniqueAttempts = 5

// Store is the slice of the store client the assigner needs.
type Store interface {
	Select(ctx context.Context, table string, opts ...store.Option) ([]models.Registration, error)
	Update(ctx context.Context, table, id string, patch map[string]any, opts ...store.Option) (*models.Registration, error)
}

// Sender dispatches one transactional email.
type Sender interface {
	Send(ctx context.Context, msg email.Message) (string, error)
}

// Result is the outcome of one assignment invocation.
type Result struct {
	Token           string
	EmailID         string
	AlreadyAssigned bool // guard hit: row had a token, no email was sent
}

// Assigner mints a collection token for a newly created registration,
// persists it, and sends the confirmation email.
type Assigner struct {
	store  Store
	table  string
	sender Sender
	event  config.EventConfig
	logger *zap.Logger
	intn   func(n int) int // nil = crypto-seeded
}

// NewAssigner creates a token assigner.
func NewAssigner(st Store, table string, sender Sender, event config.EventConfig, logger *zap.Logger) *Assigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assigner{store: st, table: table, sender: sender, event: event, logger: logger}
}

// Assign runs the full pipeline for rec: generate a token unused by any
// other row, persist it onto the row guarded by token_number being null
// (so a re-delivered trigger never mints a second token or a second
// email), render the confirmation email, and dispatch it. A persist
// failure is logged and the email still goes out; an email failure is
// fatal for the invocation.
func (a *Assigner) Assign(ctx context.Context, rec models.Registration) (*Result, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("registration id required")
	}
	if rec.Email == "" {
		return nil, fmt.Errorf("registration email required")
	}

	token := a.uniqueToken(ctx)

	_, err := a.store.Update(ctx, a.table, rec.ID,
		map[string]any{"token_number": token},
		store.Filter("token_number", "is", "null"),
	)
	switch {
	case err == nil:
	case store.IsNotFound(err):
		// Guard miss: either the row already carries a token (the
		// trigger fired twice) or the row is gone. Never send a
		// second email for an assigned row.
		existing, selErr := a.store.Select(ctx, a.table, store.Filter("id", "eq", rec.ID))
		if selErr == nil && len(existing) == 1 && existing[0].TokenNumber != nil {
			a.logger.Info("token already assigned, skipping email",
				zap.String("registration_id", rec.ID),
			)
			return &Result{Token: *existing[0].TokenNumber, AlreadyAssigned: true}, nil
		}
		return nil, fmt.Errorf("registration %s: %w", rec.ID, store.ErrNotFound)
	default:
		// The token is still usable from the email body even when the
		// persisted copy is lost; operators follow up from logs.
		a.logger.Error("persist token failed",
			zap.String("registration_id", rec.ID),
			zap.Error(err),
		)
	}

	html, err := RenderEmail(rec.Name, token, a.event)
	if err != nil {
		return nil, err
	}
	emailID, err := a.sender.Send(ctx, email.Message{
		To:      rec.Email,
		Subject: "Your Book Collection Token - Certinal at THIT 2026",
		HTML:    html,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch confirmation: %w", err)
	}

	a.logger.Info("token assigned",
		zap.String("registration_id", rec.ID),
		zap.String("email_id", emailID),
	)
	return &Result{Token: token, EmailID: emailID}, nil
}

// uniqueToken generates candidates until one is unused by any existing
// row, bounded by uniqueAttempts. If the uniqueness lookup itself fails
// the candidate is accepted as-is; the draw is uniform and the lookup is
// best-effort hardening, not a gate on registration.
func (a *Assigner) uniqueToken(ctx context.Context) string {
	var token string
	for i := 0; i < uniqueAttempts; i++ {
		token = Generate(a.intn)
		rows, err := a.store.Select(ctx, a.table, store.Filter("token_number", "eq", token))
		if err != nil {
			a.logger.Warn("token uniqueness check failed", zap.Error(err))
			return token
		}
		if len(rows) == 0 {
			return token
		}
		a.logger.Info("token collision, regenerating", zap.Int("attempt", i+1))
	}
	return token
}
