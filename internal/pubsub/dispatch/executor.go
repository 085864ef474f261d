package dispatch

import (
	"runtime/debug"
	"sync/atomic"
	"time"
)

// Executor invokes callbacks with panic recovery and timing.
// It is safe for concurrent and reentrant use.
type Executor struct {
	panicHandler PanicHandler

	dispatched  atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	totalTimeNs atomic.Int64
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithPanicHandler sets the function called after a callback panics.
func WithPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		e.panicHandler = h
	}
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute calls inv with args and reports the outcome.
// A panic inside inv is recovered and reported in the Result.
func (e *Executor) Execute(inv Invoker, args []any) (result Result) {
	e.dispatched.Add(1)
	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)
		e.totalTimeNs.Add(result.Duration.Nanoseconds())

		if r := recover(); r != nil {
			stack := debug.Stack()

			result.Success = false
			result.Panicked = true
			result.PanicValue = r
			result.PanicStack = stack
			e.panicked.Add(1)

			// Panics in the handler are swallowed.
			if e.panicHandler != nil {
				func() {
					defer func() { _ = recover() }()
					e.panicHandler(r, stack)
				}()
			}
			return
		}

		if result.Error != nil {
			e.failed.Add(1)
		} else {
			e.succeeded.Add(1)
		}
	}()

	if err := inv.Invoke(args...); err != nil {
		result.Error = err
		return result
	}
	result.Success = true
	return result
}

// Stats returns execution statistics.
// Values are read without a lock and may be slightly inconsistent while
// callbacks are running.
func (e *Executor) Stats() Stats {
	dispatched := e.dispatched.Load()
	totalNs := e.totalTimeNs.Load()

	var avgNs int64
	if dispatched > 0 {
		avgNs = totalNs / int64(dispatched)
	}

	return Stats{
		Dispatched:    dispatched,
		Succeeded:     e.succeeded.Load(),
		Failed:        e.failed.Load(),
		Panicked:      e.panicked.Load(),
		TotalDuration: time.Duration(totalNs),
		AvgDuration:   time.Duration(avgNs),
	}
}

// ResetStats resets all statistics to zero.
func (e *Executor) ResetStats() {
	e.dispatched.Store(0)
	e.succeeded.Store(0)
	e.failed.Store(0)
	e.panicked.Store(0)
	e.totalTimeNs.Store(0)
}
