package service

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable machine-readable classification carried by every
// error surfaced from the core.
type ErrorKind string

const (
	// KindValidation marks missing or malformed input; nothing was changed.
	KindValidation ErrorKind = "validation"
	// KindNotFound marks an unknown user, wager, or event.
	KindNotFound ErrorKind = "not_found"
	// KindConflict marks insufficient balance, a wager not in the expected
	// state, or a duplicate username; nothing was changed.
	KindConflict ErrorKind = "conflict"
	// KindUpstreamUnavailable marks an event feed timeout or error; the
	// operation is safe to retry later.
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	// KindReconciliation marks a committed status transition whose paired
	// balance mutation could not be confirmed. Requires repair, never
	// swallowed.
	KindReconciliation ErrorKind = "reconciliation"
	// KindInternal marks everything else.
	KindInternal ErrorKind = "internal"
)

// Error pairs an ErrorKind with a human message and an optional cause
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error with a formatted message
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the classification from an error chain, defaulting to
// KindInternal for unclassified errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether the error chain carries the given classification
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
