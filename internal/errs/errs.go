// Package errs gives the core a small set of tagged error kinds instead of
// exception-only propagation, so the HTTP layer can switch on Kind rather
// than matching sentinel values one at a time.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purposes of status-code mapping and
// circuit-breaking, per the taxonomy in the spec's error handling section.
type Kind int

const (
	// Validation errors are the caller's fault: bad price, quantity, margin.
	Validation Kind = iota
	// State errors are transient: e.g. an empty opposing book.
	State
	// External errors come from I/O: oracle reads, settlement RPCs.
	External
	// Invariant errors indicate a bug: negative resting quantity, duplicate
	// ids. The HTTP layer logs them and answers 500; nothing trips a
	// circuit breaker or halts the engine.
	Invariant
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case State:
		return "state"
	case External:
		return "external"
	case Invariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is a tagged core error: a Kind plus a message and optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a Kind-tagged error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a Kind-tagged error wrapping an existing error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validationf builds a Validation error from a format string.
func Validationf(format string, args ...any) *Error {
	return New(Validation, fmt.Sprintf(format, args...))
}

// Statef builds a State error from a format string.
func Statef(format string, args ...any) *Error {
	return New(State, fmt.Sprintf(format, args...))
}

// KindOf extracts the Kind of err if it (or something it wraps) is an *Error.
// Unrecognized errors are reported as Invariant, since anything that reaches
// the HTTP boundary without having been classified is itself a bug.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Invariant
}
