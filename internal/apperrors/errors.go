package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can decide whether a retry is safe.
// Validation and configuration errors are never retried; concurrency
// conflicts may be retried from a fresh read.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindInsufficientFunds
	KindConcurrencyConflict
	KindConfiguration
	KindNotFound
)

type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func NewValidation(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func NewInsufficientFunds(format string, args ...interface{}) *Error {
	return newError(KindInsufficientFunds, format, args...)
}

func NewConcurrencyConflict(format string, args ...interface{}) *Error {
	return newError(KindConcurrencyConflict, format, args...)
}

func NewConfiguration(format string, args ...interface{}) *Error {
	return newError(KindConfiguration, format, args...)
}

func NewNotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

// Wrap keeps the original error reachable through errors.Unwrap while
// stamping it with a kind.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{kind: kind, msg: msg, err: err}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindUnknown
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }

func IsInsufficientFunds(err error) bool { return KindOf(err) == KindInsufficientFunds }

func IsConcurrencyConflict(err error) bool { return KindOf(err) == KindConcurrencyConflict }

func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
