package ai

import (
	"errors"
	"fmt"
)

// ErrorKind classifies completion and extraction failures.
type ErrorKind string

const (
	KindEmptyResponse ErrorKind = "empty_response"
	KindProvider      ErrorKind = "provider_error"
	KindMalformedJSON ErrorKind = "malformed_json"
	KindUnexpected    ErrorKind = "unexpected_error"
)

// Error is the error type returned by providers and by Extract.
type Error struct {
	Kind    ErrorKind
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

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrEmptyResponse = &Error{Kind: KindEmptyResponse, Message: "no choices in completion"}
	ErrProvider      = &Error{Kind: KindProvider, Message: "completion provider failed"}
	ErrMalformedJSON = &Error{Kind: KindMalformedJSON, Message: "fenced block is not valid JSON"}
	ErrUnexpected    = &Error{Kind: KindUnexpected, Message: "unexpected failure"}
)

func newError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// KindOf returns the kind carried by err. Errors that are not *Error are unexpected.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}
