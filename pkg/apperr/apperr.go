// Package apperr carries the rejection taxonomy from the domain layer to the
// transport boundary. Handlers map codes to HTTP statuses; nothing below the
// boundary knows about HTTP.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// Admission errors: caller-fixable, reported before any state mutation.
	CodeItemNotFound      = "ITEM_NOT_FOUND"
	CodeOutletClosed      = "OUTLET_CLOSED"
	CodeCrossOutletItem   = "CROSS_OUTLET_ITEM"
	CodeItemUnavailable   = "ITEM_UNAVAILABLE"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeMissingReason     = "MISSING_REASON"
	CodeExceedsStock      = "EXCEEDS_STOCK"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeEmptyOrder        = "EMPTY_ORDER"
	CodeValidation        = "VALIDATION_ERROR"

	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL_ERROR"
)

type Error struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: status}
}

// Admission builds a caller-fixable rejection. These always map to 400.
func Admission(code, message string) *Error {
	return New(code, message, http.StatusBadRequest)
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message, http.StatusNotFound)
}

func Conflict(message string) *Error {
	return New(CodeConflict, message, http.StatusConflict)
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "authentication required"
	}
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *Error {
	if message == "" {
		message = "access denied"
	}
	return New(CodeForbidden, message, http.StatusForbidden)
}

// Internal wraps an integrity failure. The cause travels in Err for logs;
// callers only ever see the opaque message.
func Internal(err error) *Error {
	return &Error{
		Code:       CodeInternal,
		Message:    "internal error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// From normalizes any error into an *Error, treating unknown errors as
// integrity failures.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return Internal(err)
}
