// ABOUTME: Contract shared by every backend adapter: handler signature and error kinds.
// ABOUTME: Adapter failures carry a Kind so callers can classify them without string matching.

package adapter

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an adapter failure.
type Kind string

const (
	// KindCommandFailed means the wrapped CLI exited non-zero or wrote an error to stderr.
	KindCommandFailed Kind = "CommandExecutionFailed"
	// KindMalformedResponse means the backend output could not be parsed.
	KindMalformedResponse Kind = "MalformedResponse"
	// KindBackendUnavailable means the backend could not be reached or started.
	KindBackendUnavailable Kind = "BackendUnavailable"
	// KindInvalidArgument means the arguments passed the schema but cannot be served.
	KindInvalidArgument Kind = "InvalidArgument"
)

// Handler executes one tool. The returned value is serialized as indented JSON.
type Handler func(ctx context.Context, args Arguments) (any, error)

// Error is a classified adapter failure. Error() is the message shown to the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same Kind, so sentinel-style checks work:
// errors.Is(err, &adapter.Error{Kind: adapter.KindMalformedResponse}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Errorf builds a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err, keeping it reachable through errors.Unwrap.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		if msg == "" {
			msg = err.Error()
		} else {
			msg = msg + ": " + err.Error()
		}
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
