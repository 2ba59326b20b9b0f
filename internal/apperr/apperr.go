// Package apperr defines the error taxonomy shared by services and the API layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for HTTP mapping.
type Kind int

const (
	// KindNotFound covers missing entities and entities not owned by the
	// caller. Ownership failures deliberately look identical to missing
	// rows so ids cannot be probed for existence.
	KindNotFound Kind = iota + 1
	// KindInvalidArgument covers malformed input that passed JSON decoding:
	// non-positive quantities, unknown order statuses, bad price ranges.
	KindInvalidArgument
	// KindAlreadyExists covers unique-constraint conflicts (duplicate email, isbn).
	KindAlreadyExists
	// KindUnauthenticated covers missing or invalid credentials.
	KindUnauthenticated
	// KindStorage covers database and broker failures. Not recoverable by the
	// caller; surfaces as a 5xx.
	KindStorage
)

// Error carries a kind alongside a message and an optional wrapped cause.
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

// Kind returns the classification of the error.
func (e *Error) Kind() Kind { return e.kind }

// NotFound builds a KindNotFound error. The message should name the offending id.
func NotFound(format string, args ...any) error {
	return &Error{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

// InvalidArgument builds a KindInvalidArgument error.
func InvalidArgument(format string, args ...any) error {
	return &Error{kind: KindInvalidArgument, msg: fmt.Sprintf(format, args...)}
}

// AlreadyExists builds a KindAlreadyExists error.
func AlreadyExists(format string, args ...any) error {
	return &Error{kind: KindAlreadyExists, msg: fmt.Sprintf(format, args...)}
}

// Unauthenticated builds a KindUnauthenticated error.
func Unauthenticated(format string, args ...any) error {
	return &Error{kind: KindUnauthenticated, msg: fmt.Sprintf(format, args...)}
}

// Storage wraps a low-level failure so it surfaces as a 5xx.
func Storage(msg string, err error) error {
	return &Error{kind: KindStorage, msg: msg, err: err}
}

// KindOf extracts the Kind from err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return 0
}

// IsNotFound reports whether err is a KindNotFound error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsInvalidArgument reports whether err is a KindInvalidArgument error.
func IsInvalidArgument(err error) bool { return KindOf(err) == KindInvalidArgument }

// IsStorage reports whether err is a KindStorage error.
func IsStorage(err error) bool { return KindOf(err) == KindStorage }
