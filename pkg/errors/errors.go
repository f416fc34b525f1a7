package errors

import (
	"errors"
	"fmt"
)

type baseError struct {
	message string
	cause   error
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *baseError) Unwrap() error {
	return e.cause
}

// TransportError represents a connection or network failure. It is never
// retried inline; a worker surfaces it and exits through its cleanup path.
type TransportError struct {
	baseError
}

func NewTransportError(message string, cause error) *TransportError {
	return &TransportError{baseError{message: message, cause: cause}}
}

func NewTransportErrorf(format string, args ...interface{}) *TransportError {
	return &TransportError{baseError{message: fmt.Sprintf(format, args...)}}
}

// CredentialError represents a session that is no longer usable. Callers
// demote the account instead of retrying.
type CredentialError struct {
	baseError
}

func NewCredentialError(message string, cause error) *CredentialError {
	return &CredentialError{baseError{message: message, cause: cause}}
}

func NewCredentialErrorf(format string, args ...interface{}) *CredentialError {
	return &CredentialError{baseError{message: fmt.Sprintf(format, args...)}}
}

// ConflictError represents transient persistence contention. Retried with
// bounded exponential backoff before being surfaced.
type ConflictError struct {
	baseError
}

func NewConflictError(message string, cause error) *ConflictError {
	return &ConflictError{baseError{message: message, cause: cause}}
}

func NewConflictErrorf(format string, args ...interface{}) *ConflictError {
	return &ConflictError{baseError{message: fmt.Sprintf(format, args...)}}
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsCredential reports whether err is (or wraps) a CredentialError.
func IsCredential(err error) bool {
	var target *CredentialError
	return errors.As(err, &target)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
