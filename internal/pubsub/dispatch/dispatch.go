package dispatch

import "time"

// Invoker is anything the executor can call with a published argument list.
// This mirrors pubsub.Callback to avoid an import cycle.
type Invoker interface {
	Invoke(args ...any) error
}

// Result represents the outcome of one callback invocation.
type Result struct {
	// Success is true if the callback returned without error or panic.
	Success bool

	// Error is the error returned by the callback, if any.
	Error error

	// Panicked is true if the callback panicked.
	Panicked bool

	// PanicValue is the value passed to panic(), if Panicked is true.
	PanicValue any

	// PanicStack is the stack trace at the point of panic.
	PanicStack []byte

	// Duration is how long the callback took.
	Duration time.Duration
}

// IsSuccess returns true if the result indicates successful execution.
func (r Result) IsSuccess() bool {
	return r.Success && !r.Panicked && r.Error == nil
}

// IsError returns true if the callback returned an error (not a panic).
func (r Result) IsError() bool {
	return r.Error != nil && !r.Panicked
}

// IsPanic returns true if the callback panicked.
func (r Result) IsPanic() bool {
	return r.Panicked
}

// PanicHandler is called when a callback panics.
// It receives the panic value and the stack trace.
type PanicHandler func(panicValue any, stack []byte)

// Stats contains running totals for an Executor.
type Stats struct {
	// Dispatched is the total number of invocations.
	Dispatched uint64

	// Succeeded is the number of callbacks that returned nil.
	Succeeded uint64

	// Failed is the number of callbacks that returned an error.
	Failed uint64

	// Panicked is the number of callbacks that panicked.
	Panicked uint64

	// TotalDuration is the cumulative time spent in callbacks.
	TotalDuration time.Duration

	// AvgDuration is the average callback execution time.
	AvgDuration time.Duration
}
