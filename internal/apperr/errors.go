// Package apperr defines the error taxonomy shared by every layer. Handlers
// map these to HTTP statuses; no layer below the handlers knows about HTTP.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated: missing, invalid or expired access credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden: authenticated but lacking a required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound: the operation target does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAuthFailure covers bad login credentials and invalid, expired or
	// revoked refresh/reset tokens. Deliberately undifferentiated so callers
	// cannot probe which check failed.
	ErrAuthFailure = errors.New("authentication failed")
	// ErrInternal: a collaborator (permission source, mailer) is unavailable.
	ErrInternal = errors.New("internal error")
)

// ValidationError reports malformed payloads field by field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// PersistenceError wraps a store-layer failure (constraint violation,
// connection loss). Never retried by the callers in this module.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err unless it is already part of the taxonomy.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
