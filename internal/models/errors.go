package models

import (
	"errors"
	"fmt"
)

// AuthErrorKind discriminates authentication failures. All of them are fatal
// to a batch run - there is no per-organization retry for login.
type AuthErrorKind string

const (
	AuthMissingCredentials AuthErrorKind = "missing_credentials"
	AuthTimeout            AuthErrorKind = "timeout"
	AuthRejected           AuthErrorKind = "rejected"
)

// AuthError is returned by the session manager when login fails.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("authentication failed (%s)", e.Kind)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates an AuthError wrapping an optional cause.
func NewAuthError(kind AuthErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// ConfigError marks configuration problems detected before any browser
// session is acquired. Fatal at startup.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %q: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// StoreError wraps record store failures. The orchestrator logs these and
// drops the affected event - there is no in-memory retry queue.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

var (
	// ErrNotFound is returned by bounded waits when a selector never appears
	// within the timeout. Recovered at organization granularity.
	ErrNotFound = errors.New("element not found")

	// ErrElementMissing is returned by per-card field extraction when a
	// required sub-element is absent. The caller skips the card and
	// continues; one malformed card never aborts an organization's crawl.
	ErrElementMissing = errors.New("required element missing from card")
)
