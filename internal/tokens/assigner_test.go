package tokens

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certinal/booth-backend/config"
	"github.com/certinal/booth-backend/internal/email"
	"github.com/certinal/booth-backend/internal/models"
	"github.com/certinal/booth-backend/internal/store"
)

var testEvent = config.EventConfig{
	Dates:     "January 30-31, 2026",
	Venue:     "HICC, Hyderabad, India",
	Booth:     "#121",
	BookTitle: "When the CIO Holds the Scalpel",
}

type fakeStore struct {
	rows       map[string]*models.Registration // keyed by id
	updateErr  error
	selectErr  error
	updateCnt  int
	selectCnt  int
	lastFilter map[string]string
}

func newFakeStore(rows ...*models.Registration) *fakeStore {
	m := make(map[string]*models.Registration)
	for _, r := range rows {
		m[r.ID] = r
	}
	return &fakeStore{rows: m}
}

func optsToQuery(opts []store.Option) map[string]string {
	q := url.Values{}
	for _, opt := range opts {
		opt(q)
	}
	out := make(map[string]string)
	for k := range q {
		out[k] = q.Get(k)
	}
	return out
}

func (f *fakeStore) Select(ctx context.Context, table string, opts ...store.Option) ([]models.Registration, error) {
	f.selectCnt++
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	q := optsToQuery(opts)
	var out []models.Registration
	for _, r := range f.rows {
		if id, ok := q["id"]; ok && "eq."+r.ID != id {
			continue
		}
		if tok, ok := q["token_number"]; ok {
			if r.TokenNumber == nil || "eq."+*r.TokenNumber != tok {
				continue
			}
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, table, id string, patch map[string]any, opts ...store.Option) (*models.Registration, error) {
	f.updateCnt++
	f.lastFilter = optsToQuery(opts)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	r, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if v, guarded := f.lastFilter["token_number"]; guarded && v == "is.null" && r.TokenNumber != nil {
		return nil, store.ErrNotFound
	}
	if tok, ok := patch["token_number"].(string); ok {
		r.TokenNumber = &tok
	}
	cp := *r
	return &cp, nil
}

type fakeSender struct {
	sent []email.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg email.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "email-1", nil
}

func TestAssignHappyPath(t *testing.T) {
	rec := &models.Registration{ID: "row-1", Name: "Asha Rao", Email: "asha@hosp.org"}
	st := newFakeStore(rec)
	sender := &fakeSender{}
	a := NewAssigner(st, "thit_registrations", sender, testEvent, nil)

	res, err := a.Assign(context.Background(), *rec)
	require.NoError(t, err)
	assert.Len(t, res.Token, 6)
	assert.Equal(t, "email-1", res.EmailID)
	assert.False(t, res.AlreadyAssigned)

	// Token persisted onto the row, guarded by token_number being null.
	require.NotNil(t, rec.TokenNumber)
	assert.Equal(t, res.Token, *rec.TokenNumber)
	assert.Equal(t, "is.null", st.lastFilter["token_number"])

	// Email dispatched to the submitted address with token in the body.
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "asha@hosp.org", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].HTML, res.Token)
	assert.Contains(t, sender.sent[0].HTML, "Asha Rao")
}

func TestAssignSecondInvocationSendsNothing(t *testing.T) {
	rec := &models.Registration{ID: "row-1", Name: "Asha Rao", Email: "asha@hosp.org"}
	st := newFakeStore(rec)
	sender := &fakeSender{}
	a := NewAssigner(st, "thit_registrations", sender, testEvent, nil)

	first, err := a.Assign(context.Background(), *rec)
	require.NoError(t, err)

	second, err := a.Assign(context.Background(), *rec)
	require.NoError(t, err)
	assert.True(t, second.AlreadyAssigned)
	assert.Equal(t, first.Token, second.Token)

	// One email total: the guard miss must not mint a second send.
	assert.Len(t, sender.sent, 1)
}

func TestAssignRegeneratesOnCollision(t *testing.T) {
	taken := "100000"
	existing := &models.Registration{ID: "row-0", Email: "x@y.z", TokenNumber: &taken}
	rec := &models.Registration{ID: "row-1", Name: "B", Email: "b@y.z"}
	st := newFakeStore(existing, rec)
	sender := &fakeSender{}

	a := NewAssigner(st, "thit_registrations", sender, testEvent, nil)
	draws := []int{0, 1} // first draw collides with row-0, second is free
	a.intn = func(n int) int {
		d := draws[0]
		if len(draws) > 1 {
			draws = draws[1:]
		}
		return d
	}

	res, err := a.Assign(context.Background(), *rec)
	require.NoError(t, err)
	assert.Equal(t, "100001", res.Token)
}

func TestAssignPersistFailureStillSendsEmail(t *testing.T) {
	rec := &models.Registration{ID: "row-1", Name: "C", Email: "c@y.z"}
	st := newFakeStore(rec)
	st.updateErr = &store.RemoteError{Op: "update", Status: http.StatusInternalServerError, Body: "boom"}
	sender := &fakeSender{}
	a := NewAssigner(st, "thit_registrations", sender, testEvent, nil)

	res, err := a.Assign(context.Background(), *rec)
	require.NoError(t, err)
	assert.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].HTML, res.Token)
}

func TestAssignEmailFailureIsFatal(t *testing.T) {
	rec := &models.Registration{ID: "row-1", Name: "D", Email: "d@y.z"}
	st := newFakeStore(rec)
	sender := &fakeSender{err: &store.RemoteError{Op: "send email", Status: http.StatusBadGateway, Body: "provider down"}}
	a := NewAssigner(st, "thit_registrations", sender, testEvent, nil)

	_, err := a.Assign(context.Background(), *rec)
	require.Error(t, err)
	var re *store.RemoteError
	assert.ErrorAs(t, err, &re)
}

func TestAssignMissingRowFails(t *testing.T) {
	st := newFakeStore()
	sender := &fakeSender{}
	a := NewAssigner(st, "thit_registrations", sender, testEvent, nil)

	_, err := a.Assign(context.Background(), models.Registration{ID: "ghost", Email: "g@y.z"})
	assert.True(t, store.IsNotFound(err))
	assert.Empty(t, sender.sent)
}

func TestAssignRequiresIDAndEmail(t *testing.T) {
	a := NewAssigner(newFakeStore(), "thit_registrations", &fakeSender{}, testEvent, nil)

	_, err := a.Assign(context.Background(), models.Registration{Email: "x@y.z"})
	assert.Error(t, err)
	_, err = a.Assign(context.Background(), models.Registration{ID: "row-1"})
	assert.Error(t, err)
}
