// Package apperr classifies failures into the kinds the API and its clients
// render differently: access denied, missing resource, bad input and so on.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindValidation
	KindUnsupportedPreview
	KindPartialUpload
	KindTransientIO
)

var kindCodes = map[Kind]string{
	KindInternal:           "INTERNAL_ERROR",
	KindUnauthenticated:    "UNAUTHENTICATED",
	KindForbidden:          "FORBIDDEN",
	KindNotFound:           "NOT_FOUND",
	KindValidation:         "VALIDATION_ERROR",
	KindUnsupportedPreview: "UNSUPPORTED_PREVIEW",
	KindPartialUpload:      "PARTIAL_UPLOAD_FAILURE",
	KindTransientIO:        "TRANSIENT_IO_FAILURE",
}

var kindStatus = map[Kind]int{
	KindInternal:           http.StatusInternalServerError,
	KindUnauthenticated:    http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindNotFound:           http.StatusNotFound,
	KindValidation:         http.StatusBadRequest,
	KindUnsupportedPreview: http.StatusUnsupportedMediaType,
	KindPartialUpload:      http.StatusMultiStatus,
	KindTransientIO:        http.StatusServiceUnavailable,
}

// Code is the stable wire code for the kind.
func (k Kind) Code() string {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return kindCodes[KindInternal]
}

func (k Kind) HTTPStatus() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Retryable reports whether repeating the same request can succeed.
// Permission and validation failures are deterministic.
func (k Kind) Retryable() bool {
	return k == KindTransientIO
}

func (k Kind) String() string { return k.Code() }

// KindFromCode is the inverse of Code; unknown codes map to KindInternal.
func KindFromCode(code string) Kind {
	for k, c := range kindCodes {
		if c == code {
			return k
		}
	}
	return KindInternal
}

// Error is a classified error. Domain packages declare their sentinels with New
// and compare them with errors.Is.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of a classified error.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "An internal error occurred"
}
