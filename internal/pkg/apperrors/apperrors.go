// Package apperrors defines the error taxonomy shared by the store adapter,
// the invitation workflow and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of a fixed set of error categories.
type Kind string

const (
	Unauthorized     Kind = "UNAUTHORIZED"
	NotFound         Kind = "NOT_FOUND"
	ValidationFailed Kind = "VALIDATION_FAILED"
	CreateFailed     Kind = "CREATE_FAILED"
	ReadFailed       Kind = "READ_FAILED"
	UpdateFailed     Kind = "UPDATE_FAILED"
	DeleteFailed     Kind = "DELETE_FAILED"
	Expired          Kind = "EXPIRED"
	Unknown          Kind = "UNKNOWN_ERROR"
)

const genericUserMessage = "Something went wrong. Please try again."

// Error carries the failing operation, a developer message, an optional
// user-facing message and the original cause.
type Error struct {
	Op          string
	Message     string
	UserMessage string
	Kind        Kind
	Cause       error
	// Conflict marks a CREATE_FAILED caused by a uniqueness violation.
	Conflict bool
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s [%s]: %v", e.Op, e.Message, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s [%s]", e.Op, e.Message, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by kind, so errors.Is(err, apperrors.E(NotFound)) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Kind == e.Kind
}

// E returns a bare kind marker for use with errors.Is.
func E(kind Kind) *Error {
	return &Error{Kind: kind}
}

// New builds an error without an underlying cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Op: op, Message: message, Kind: kind}
}

// Wrap builds an error around cause. The cause is kept for diagnostics.
func Wrap(cause error, kind Kind, op, message string) *Error {
	return &Error{Op: op, Message: message, Kind: kind, Cause: cause}
}

// WithUserMessage sets the message shown to end users.
func (e *Error) WithUserMessage(msg string) *Error {
	e.UserMessage = msg
	return e
}

// KindOf returns the kind of err, or Unknown for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsKind reports whether err belongs to kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage returns the user-facing message of err, or a generic fallback.
// The raw cause is never returned.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.UserMessage != "" {
		return e.UserMessage
	}
	if errors.As(err, &e) {
		switch e.Kind {
		case Unauthorized:
			return "Unauthorized"
		case NotFound:
			return "Not found"
		case Expired:
			return "This link has expired"
		case ValidationFailed:
			return "Invalid request"
		}
	}
	return genericUserMessage
}

// HTTPStatus maps err onto a response status code.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case Unauthorized:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case ValidationFailed:
		return http.StatusBadRequest
	case Expired:
		return http.StatusGone
	case CreateFailed:
		if e.Conflict {
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}
