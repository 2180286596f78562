package domain

import (
	"errors"
	"fmt"
)

// Sentinel error classes. Handlers map these to HTTP status codes; services
// and repositories only ever wrap them in a DomainError.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state transition")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUnsupported  = errors.New("unsupported operation")
	ErrUnavailable  = errors.New("upstream unavailable")
)

// DomainError carries a sentinel class and a human-readable message.
type DomainError struct {
	Err     error
	Message string
}

func (e *DomainError) Error() string { return e.Message }

func (e *DomainError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a not-found domain error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnsupported reports whether err marks a missing provider capability.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// NewValidationError reports malformed or out-of-range input.
func NewValidationError(msg string) *DomainError {
	return &DomainError{Err: ErrValidation, Message: msg}
}

// NewNotFoundError reports a missing entity by type and identifier.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Err: ErrNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewConflictError reports a uniqueness or concurrent-modification conflict.
func NewConflictError(msg string) *DomainError {
	return &DomainError{Err: ErrConflict, Message: msg}
}

// NewInvalidStateError reports an illegal aggregate state transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{Err: ErrInvalidState, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

// NewForbiddenError reports an authorization failure.
func NewForbiddenError(msg string) *DomainError {
	return &DomainError{Err: ErrForbidden, Message: msg}
}

// NewUnsupportedError reports an operation a provider does not implement.
func NewUnsupportedError(msg string) *DomainError {
	return &DomainError{Err: ErrUnsupported, Message: msg}
}

// NewUnavailableError reports an exhausted retry budget against an upstream.
func NewUnavailableError(msg string) *DomainError {
	return &DomainError{Err: ErrUnavailable, Message: msg}
}
