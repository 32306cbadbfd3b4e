package submit

import (
	"context"
	"sync"

	"github.com/certinal/booth-backend/internal/store"
)

// State is the submission form lifecycle.
type State int

const (
	// StateEditing accepts field changes; submit is enabled once the
	// submission is complete.
	StateEditing State = iota
	// StateSubmitting has one insert in flight; further submits no-op.
	StateSubmitting
	// StateSucceeded is terminal; the form does not reset to Editing.
	StateSucceeded
	// StateFailed keeps the entered fields and re-enables submit.
	StateFailed
)

// User-facing failure messages. Configuration and missing-table problems
// get distinct generic wording so staff can diagnose without the page
// leaking infrastructure detail.
const (
	msgConfig       = "Registration is temporarily unavailable. Please see our staff at the booth."
	msgMissingTable = "Registration is still being set up. Please try again in a few minutes."
	msgRetry        = "Something went wrong. Please try again."
)

// Form is the submission state machine for one form instance. It is
// safe for concurrent use, though the intended model is a single
// logical task per instance.
type Form struct {
	service *Service

	mu      sync.Mutex
	state   State
	sub     Submission
	message string
}

// NewForm creates a form bound to the submission service.
func NewForm(service *Service) *Form {
	return &Form{service: service}
}

// SetFields replaces the locally held field values. Ignored outside
// Editing and Failed (editing after success has nowhere to go).
func (f *Form) SetFields(sub Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateEditing || f.state == StateFailed {
		f.sub = sub
	}
}

// Fields returns the locally held field values.
func (f *Form) Fields() Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sub
}

// State returns the current lifecycle state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Message returns the user-facing failure message, empty unless Failed.
func (f *Form) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// CanSubmit reports whether the submit action is currently enabled.
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (f.state == StateEditing || f.state == StateFailed) && f.sub.Complete()
}

// Submit runs one submission attempt. It is a no-op while a submission
// is in flight or after success. On success the fields are cleared and
// the form is terminal; on failure the fields are retained and submit is
// re-enabled.
func (f *Form) Submit(ctx context.Context) State {
	f.mu.Lock()
	if f.state == StateSubmitting || f.state == StateSucceeded {
		state := f.state
		f.mu.Unlock()
		return state
	}
	if !f.sub.Complete() {
		f.mu.Unlock()
		return f.State()
	}
	f.state = StateSubmitting
	f.message = ""
	sub := f.sub
	f.mu.Unlock()

	_, err := f.service.Submit(ctx, sub)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateFailed
		f.message = failureMessage(err)
		return f.state
	}
	f.state = StateSucceeded
	f.sub = Submission{}
	return f.state
}

func failureMessage(err error) string {
	switch {
	case store.IsConfig(err):
		return msgConfig
	case store.MissingTable(err):
		return msgMissingTable
	default:
		return msgRetry
	}
}
