package asset

import (
	"errors"
	"net/http"
)

// Kind classifies workflow errors into the fixed set the HTTP surface maps
// onto status codes.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindStorage    Kind = "storage"
	KindUnknown    Kind = "unknown"
)

// Error is the single error type surfaced by the asset service. Status is
// the HTTP status the handler responds with; Message is safe to return to
// the client. Missing lists absent required fields on validation errors.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Missing []string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewValidationError reports missing or malformed request fields.
func NewValidationError(message string, missing ...string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: message, Missing: missing}
}

// NewNotFoundError reports an absent referenced asset.
func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: message}
}

// NewStorageError reports an object-store or database failure.
func NewStorageError(message string, cause error) *Error {
	return &Error{Kind: KindStorage, Status: http.StatusInternalServerError, Message: message, cause: cause}
}

// From returns err as an *Error, wrapping uncategorized errors as unknown.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindUnknown, Status: http.StatusInternalServerError, Message: "internal error", cause: err}
}
