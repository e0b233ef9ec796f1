package models

import (
	"errors"
	"net/http"
)

// ErrorKind tags an AppError with the failure class it represents.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}

// AppError is the single domain error type. Only Message is ever shown to a
// client; Err keeps the underlying cause for logs.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError of the same kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of its message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// StatusCode returns the HTTP status for the error kind.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Sentinel errors for common failure conditions
var (
	ErrValidation   = &AppError{Kind: KindValidation, Message: "validation failed"}
	ErrConflict     = &AppError{Kind: KindConflict, Message: "resource already exists"}
	ErrUnauthorized = &AppError{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &AppError{Kind: KindForbidden, Message: "forbidden"}
	ErrNotFound     = &AppError{Kind: KindNotFound, Message: "resource not found"}
	ErrInternal     = &AppError{Kind: KindInternal, Message: "Internal server error"}

	// Returned for unknown email, inactive account and wrong password alike.
	ErrInvalidCredentials = &AppError{Kind: KindUnauthorized, Message: "Invalid credentials"}
	ErrEmailTaken         = &AppError{Kind: KindConflict, Message: "User with this email already exists"}
	ErrUserNotFound       = &AppError{Kind: KindNotFound, Message: "User not found"}
)

func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

// NewInternalError wraps cause behind the generic internal message.
func NewInternalError(cause error) *AppError {
	return &AppError{Kind: KindInternal, Message: ErrInternal.Message, Err: cause}
}

// AsAppError extracts the AppError from err, or wraps err as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}
