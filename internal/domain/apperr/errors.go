// Package apperr is the failure taxonomy shared by the store gateway and the
// orchestrators. Every failure carries a Kind, the operation that produced it,
// a human-readable message and, optionally, the underlying cause.
package apperr

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindStore
	KindParse
	KindConflict
)

var (
	// ErrNotFound matches failures where an entity or referenced id is absent.
	ErrNotFound = errors.New("not found")
	// ErrValidation matches rejected input (grade range, self-feedback, malformed payload).
	ErrValidation = errors.New("validation failed")
	// ErrStore matches store round trips that acknowledged an error or were cancelled.
	ErrStore = errors.New("store operation failed")
	// ErrParse matches stored nodes that do not decode into the expected shape.
	ErrParse = errors.New("parse failed")
	// ErrConflict matches conditional writes that kept losing against concurrent writers.
	ErrConflict = errors.New("conflict")
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "ValidationFailed"
	case KindStore:
		return "StoreOperationFailed"
	case KindParse:
		return "ParseFailed"
	case KindConflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	case KindStore:
		return ErrStore
	case KindParse:
		return ErrParse
	case KindConflict:
		return ErrConflict
	default:
		return nil
	}
}

// Error wraps a Kind with the operation, message and original cause so callers
// can use errors.Is(err, apperr.ErrNotFound) or inspect the raw cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newErr(kind Kind, op string, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: cause}
}

func NotFound(op, format string, args ...any) *Error {
	return newErr(KindNotFound, op, nil, format, args...)
}

func Validation(op, format string, args ...any) *Error {
	return newErr(KindValidation, op, nil, format, args...)
}

func Store(op string, cause error, format string, args ...any) *Error {
	return newErr(KindStore, op, cause, format, args...)
}

func Parse(op string, cause error, format string, args ...any) *Error {
	return newErr(KindParse, op, cause, format, args...)
}

func Conflict(op string, cause error, format string, args ...any) *Error {
	return newErr(KindConflict, op, cause, format, args...)
}

// KindOf returns the Kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Rephrase keeps the Kind of err (StoreOperationFailed when err is untyped)
// and replaces its message with a more specific one for the calling step.
// NotFound, Validation and Parse failures already carry the most specific
// message and are returned unchanged.
func Rephrase(err error, op, format string, args ...any) error {
	if err == nil {
		return nil
	}
	switch KindOf(err) {
	case KindNotFound, KindValidation, KindParse:
		return err
	case KindUnknown:
		return newErr(KindStore, op, err, format, args...)
	default:
		return newErr(KindOf(err), op, err, format, args...)
	}
}

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsStore(err error) bool      { return errors.Is(err, ErrStore) }
func IsParse(err error) bool      { return errors.Is(err, ErrParse) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
