package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an update or lookup matched no row. A
// guarded update whose filter missed (e.g. token already assigned)
// surfaces the same way, so callers interrogate the guard via IsNotFound.
var ErrNotFound = errors.New("store: no matching row")

// ConfigError means required store configuration (endpoint or credential)
// is absent. It is fatal to the operation, not to the process.
type ConfigError struct {
	Missing string // which setting is absent
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("store: missing configuration: %s", e.Missing)
}

// TransportError wraps a network-level failure reaching the store,
// including client-side timeouts.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is a non-2xx response from the store. Status and Body are
// kept for operator diagnostics; they are never shown to end users.
type RemoteError struct {
	Op     string
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("store: %s: HTTP %d: %s", e.Op, e.Status, e.Body)
}

// IsConfig reports whether err is a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err means no row matched.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// MissingTable reports whether err is the store telling us the table does
// not exist (PostgREST responds 404 with a relation error). Operators get
// a distinct message for this so misconfiguration is diagnosable without
// leaking the detail to end users.
func MissingTable(err error) bool {
	var re *RemoteError
	if !errors.As(err, &re) {
		return false
	}
	return re.Status == 404
}
