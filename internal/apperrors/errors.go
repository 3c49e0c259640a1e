package apperrors

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindBadRequest   Kind = "BAD_REQUEST"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindConflict     Kind = "CONFLICT"
	KindRateLimited  Kind = "RATE_LIMITED"
	KindInternal     Kind = "INTERNAL"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed error returned by handlers and the socket gateway.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error     { return New(KindNotFound, message) }
func BadRequest(message string) *Error   { return New(KindBadRequest, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }
func RateLimited(message string) *Error  { return New(KindRateLimited, message) }

func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// Validation builds a BAD_REQUEST carrying per-field errors.
func Validation(fields []FieldError) *Error {
	return &Error{Kind: KindBadRequest, Message: "validation failed", Fields: fields}
}

// KindOf returns the kind of err, INTERNAL for untyped errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Body is the wire shape of an error.
type Body struct {
	Code    Kind         `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// ToBody converts err to its wire shape. Internal causes are not exposed.
func ToBody(err error) Body {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return Body{Code: KindInternal, Message: "internal error"}
	}
	if appErr.Kind == KindInternal {
		return Body{Code: KindInternal, Message: appErr.Message}
	}
	return Body{Code: appErr.Kind, Message: appErr.Message, Fields: appErr.Fields}
}
