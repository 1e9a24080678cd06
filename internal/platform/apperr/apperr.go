package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary. Everything that is not one
// of the four expected kinds is treated as a database/infrastructure fault.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindBusiness
	KindConflict
	KindDatabase
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindBusiness:
		return "business_error"
	case KindConflict:
		return "conflict"
	case KindDatabase:
		return "database_error"
	default:
		return "unknown"
	}
}

// Error is the single error type crossing service boundaries. Field is set for
// validation errors so the boundary layer can point at the offending input.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Validation reports a malformed or missing field, detected before any I/O.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// NotFound reports an absent entity, or one outside the caller's clinic scope.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// Business reports a domain rule rejecting the operation.
func Business(message string) *Error {
	return &Error{Kind: KindBusiness, Message: message}
}

// Conflict reports a repository-level resource conflict (e.g. double booking,
// duplicate unique key). Services usually translate these into Business errors.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Wrap marks err as an unexpected database/infrastructure failure. The
// original error is preserved for logging but never shown to clients outside
// development.
func Wrap(err error, context string) *Error {
	return &Error{Kind: KindDatabase, Message: context, cause: err}
}

// KindOf returns the kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }
