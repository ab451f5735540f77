package ports

import (
	"errors"
	"net/http"
)

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrInvalidRequest  = errors.New("invalid request parameters or format")
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthenticated = errors.New("missing or invalid credentials")

	// Ledger rule violations
	ErrInsufficientFunds    = errors.New("insufficient funds for operation")
	ErrInsufficientQuantity = errors.New("insufficient quantity for operation")
	ErrSettledRecord        = errors.New("record is settled and cannot be changed")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrConflict       = errors.New("record was modified concurrently")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
	ErrDeleteFailed   = errors.New("database delete failed")
)

// ErrorKind classifies an error for callers of the ledger.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindNotFound        ErrorKind = "not_found"
	KindBusinessRule    ErrorKind = "business_rule"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindStorage         ErrorKind = "storage"
)

// Error carries a kind, a stable user-visible message and the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status equivalent of the error kind.
func (e *Error) Status() int {
	return StatusOf(e.Kind)
}

// StatusOf maps an error kind to an HTTP status code.
func StatusOf(kind ErrorKind) int {
	switch kind {
	case KindValidation, KindBusinessRule:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Validation returns a validation error with the given message.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: ErrInvalidRequest}
}

// NotFound returns a not-found error with the given message.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Err: ErrNotFound}
}

// BusinessRule returns a rule violation wrapping one of the ledger sentinels.
func BusinessRule(msg string, cause error) *Error {
	return &Error{Kind: KindBusinessRule, Message: msg, Err: cause}
}

// Unauthenticated returns an authentication failure.
func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg, Err: ErrUnauthenticated}
}

// KindOf classifies any error. Errors that are not *Error are storage failures,
// except bare sentinels that have an obvious kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidRequest):
		return KindValidation
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrInsufficientQuantity),
		errors.Is(err, ErrDuplicateEntry), errors.Is(err, ErrSettledRecord):
		return KindBusinessRule
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	default:
		return KindStorage
	}
}

// MessageOf returns the user-visible message for err. Storage failures never
// leak their cause.
func MessageOf(err error) string {
	if KindOf(err) == KindStorage {
		return "internal server error"
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
