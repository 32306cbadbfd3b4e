// Package review is the internal dashboard over registration rows:
// a cached listing with manual correction, CSV export and a few derived
// counts. The store stays the single source of truth; change
// notifications only trigger a re-fetch, never a local patch.
package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/certinal/booth-backend/internal/models"
	"github.com/certinal/booth-backend/internal/store"
)

// Store is the slice of the store client the session needs.
type Store interface {
	Select(ctx context.Context, table string, opts ...store.Option) ([]models.Registration, error)
	Update(ctx context.Context, table, id string, patch map[string]any, opts ...store.Option) (*models.Registration, error)
}

// ErrEditInProgress is returned by BeginEdit while another row is open.
var ErrEditInProgress = fmt.Errorf("another row is being edited")

// Session holds one dashboard client's view of the registration table.
// At most one row is in edit mode at a time. Two sessions committing an
// edit to the same row race last-write-wins at the store; that is an
// accepted limitation, not an error.
type Session struct {
	store  Store
	table  string
	logger *zap.Logger

	mu          sync.Mutex
	rows        []models.Registration
	lastRefresh time.Time
	editing     string // row id in edit mode, empty when none
	sub         *store.Subscription
}

// NewSession creates a review session.
func NewSession(st Store, table string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{store: st, table: table, logger: logger}
}

// Refresh re-fetches all rows, newest first. A fetch failure empties the
// cached view (the dashboard shows an empty table, not an error screen)
// and is returned for logging.
func (s *Session) Refresh(ctx context.Context) error {
	rows, err := s.store.Select(ctx, s.table, store.OrderDesc("created_at"))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRefresh = time.Now()
	if err != nil {
		s.rows = nil
		s.logger.Warn("refresh failed", zap.Error(err))
		return err
	}
	s.rows = rows
	return nil
}

// Rows returns a copy of the cached rows.
func (s *Session) Rows() []models.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Registration, len(s.rows))
	copy(out, s.rows)
	return out
}

// LastRefresh returns when the cache was last (re)loaded.
func (s *Session) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}

// BeginEdit opens edit mode for the cached row id.
func (s *Session) BeginEdit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing != "" && s.editing != id {
		return ErrEditInProgress
	}
	for _, r := range s.rows {
		if r.ID == id {
			s.editing = id
			return nil
		}
	}
	return store.ErrNotFound
}

// CancelEdit leaves edit mode without touching the store. Safe to call
// when nothing is being edited.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = ""
}

// Editing returns the id of the row in edit mode, empty when none.
func (s *Session) Editing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

// CommitEdit applies patch to the row via the store. On success the
// cached row is replaced and edit mode ends; on failure edit mode stays
// open so the operator can retry or cancel.
func (s *Session) CommitEdit(ctx context.Context, id string, patch map[string]any) (*models.Registration, error) {
	updated, err := s.store.Update(ctx, s.table, id, patch)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.ID == id {
			s.rows[i] = *updated
			break
		}
	}
	if s.editing == id {
		s.editing = ""
	}
	return updated, nil
}

// Watch attaches the store change subscription so external row changes
// refresh the cache. The session owns the subscription from here on.
func (s *Session) Watch(sub *store.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sub = sub
}

// Close releases the change subscription. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}
