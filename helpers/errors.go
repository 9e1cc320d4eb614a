package helpers

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error for the HTTP layer and for cycle
// bookkeeping. Per-item Upstream and Persistence errors never abort a cycle.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindAuth        Kind = "auth"
	KindForbidden   Kind = "forbidden"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindUpstream    Kind = "upstream"
	KindPersistence Kind = "persistence"
)

type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidation(reason string) *Error {
	return &Error{Kind: KindValidation, Reason: reason}
}

func NewAuth(reason string) *Error {
	return &Error{Kind: KindAuth, Reason: reason}
}

func NewForbidden(reason string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason}
}

func NewNotFound(reason string) *Error {
	return &Error{Kind: KindNotFound, Reason: reason}
}

func NewConflict(reason string) *Error {
	return &Error{Kind: KindConflict, Reason: reason}
}

func NewUpstream(reason string, err error) *Error {
	return &Error{Kind: KindUpstream, Reason: reason, Err: err}
}

func NewPersistence(reason string, err error) *Error {
	return &Error{Kind: KindPersistence, Reason: reason, Err: err}
}

// KindOf returns the Kind of err, or KindPersistence for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// ReasonOf returns the stable reason code of err, or "internal_error".
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return "internal_error"
}
