// Package apierror provides the error taxonomy shared by services and the
// standardized response envelope for the API. All errors returned to clients
// go through this package to ensure consistency and to prevent leaking
// internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"
)

// Kind classifies an error so the HTTP layer can map it to a status code
// without string matching.
type Kind int

const (
	KindValidation Kind = iota + 1 // malformed or constraint-violating input
	KindNotFound                   // referenced entity absent
	KindForbidden                  // access policy denial, always with a reason
	KindConflict                   // lost race (e.g. concurrent version promotion)
)

// Error is the canonical domain error. Services return it directly; handlers
// translate it via Envelope/HTTPStatus.
type Error struct {
	Kind   Kind
	Detail string
	Fields map[string]string
}

func (e *Error) Error() string { return e.Detail }

func NewValidation(detail string) *Error {
	return &Error{Kind: KindValidation, Detail: detail}
}

// NewValidationFields wraps multiple field errors from request binding.
func NewValidationFields(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Detail: "Error de validacion", Fields: fields}
}

func NewNotFound(detail string) *Error {
	return &Error{Kind: KindNotFound, Detail: detail}
}

// NewForbidden always carries a human-readable reason so callers can
// distinguish "empty result" from "denied".
func NewForbidden(reason string) *Error {
	return &Error{Kind: KindForbidden, Detail: reason}
}

func NewConflict(detail string) *Error {
	return &Error{Kind: KindConflict, Detail: detail}
}

// KindOf returns the Kind of err, or 0 when err is not a taxonomy error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsForbidden(err error) bool  { return KindOf(err) == KindForbidden }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }

// HTTPStatus maps a taxonomy error to its status code. Unclassified errors
// map to 500 — the handler must not expose their message.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Envelope converts any error into the response body. Internal errors are
// masked with a generic message.
func Envelope(err error) *APIError {
	var e *Error
	if errors.As(err, &e) {
		return &APIError{Detail: e.Detail, Fields: e.Fields}
	}
	return &APIError{Detail: "Error interno del servidor"}
}
