// Package domainerrors carries the two failure kinds that cross service
// boundaries: AuthFailure (token issuance, refresh and validation) and
// UserFailure (provisioning and admin operations against the identity provider).
//
// Each failure carries the HTTP status to report, a fixed operation-specific
// message and an optional cause. Transport layers expose only the status and
// message; the cause stays in logs.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies which service boundary produced a failure.
type Kind string

const (
	KindAuth Kind = "auth"
	KindUser Kind = "user"
)

// Error is a structured failure with an HTTP status and a fixed message.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewAuth builds an AuthFailure.
func NewAuth(status int, msg string) *Error {
	return &Error{Kind: KindAuth, Status: status, Message: msg}
}

// WrapAuth builds an AuthFailure around an underlying cause.
func WrapAuth(err error, status int, msg string) *Error {
	return &Error{Kind: KindAuth, Status: status, Message: msg, Cause: err}
}

// NewUser builds a UserFailure.
func NewUser(status int, msg string) *Error {
	return &Error{Kind: KindUser, Status: status, Message: msg}
}

// WrapUser builds a UserFailure around an underlying cause.
func WrapUser(err error, status int, msg string) *Error {
	return &Error{Kind: KindUser, Status: status, Message: msg, Cause: err}
}

// New builds a failure of the given kind. Useful for code shared by both
// services where the caller decides the boundary.
func New(kind Kind, status int, msg string) *Error {
	return &Error{Kind: kind, Status: status, Message: msg}
}

// Wrap builds a failure of the given kind around an underlying cause.
func Wrap(err error, kind Kind, status int, msg string) *Error {
	return &Error{Kind: kind, Status: status, Message: msg, Cause: err}
}

// As extracts the first domain error in err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Is reports whether err is a domain error of the given kind.
func Is(err error, kind Kind) bool {
	de, ok := As(err)
	return ok && de.Kind == kind
}

// StatusOf returns the HTTP status carried by err, or 500 for anything that
// is not a domain error.
func StatusOf(err error) int {
	if de, ok := As(err); ok && de.Status != 0 {
		return de.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the public message carried by err. Non-domain errors are
// reported with a generic message so internals never leak.
func MessageOf(err error) string {
	if de, ok := As(err); ok {
		return de.Message
	}
	return "internal error"
}
