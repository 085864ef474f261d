package pubsub

import (
	"errors"
	"fmt"
)

// Sentinel errors for the registry.
var (
	// ErrInvalidArgument is matched by every argument validation failure.
	ErrInvalidArgument = errors.New("pubsub: invalid argument")

	// ErrCallbackPanic is matched by a *PanicError.
	ErrCallbackPanic = errors.New("pubsub: callback panicked")
)

// ArgumentError describes a rejected argument to Subscribe or Unsubscribe.
type ArgumentError struct {
	// Op is the operation that rejected the argument.
	Op string

	// Arg names the argument.
	Arg string

	// Reason says what was wrong with it.
	Reason string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return "pubsub: " + e.Op + ": invalid argument " + e.Arg + ": " + e.Reason
}

// Is allows errors.Is to match ArgumentError with ErrInvalidArgument.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// CallbackError reports a callback that failed during Publish.
type CallbackError struct {
	// Channel is the published channel (possibly a wildcard pattern).
	Channel string

	// Subject is the subscribed channel of the failing subscription.
	Subject string

	// HandleID identifies the failing subscription.
	HandleID string

	// Err is the error the callback returned, or a *PanicError.
	Err error
}

// Error implements the error interface.
func (e *CallbackError) Error() string {
	return fmt.Sprintf("pubsub: callback %s on %q (published %q): %v", e.HandleID, e.Subject, e.Channel, e.Err)
}

// Unwrap returns the underlying error.
func (e *CallbackError) Unwrap() error {
	return e.Err
}

// PanicError wraps the value a callback panicked with.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("pubsub: callback panicked: %v", e.Value)
}

// Is allows errors.Is to match PanicError with ErrCallbackPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrCallbackPanic
}
