// Package dispatch runs subscriber callbacks for the pub/sub registry.
//
// The Executor invokes one callback synchronously in the caller's goroutine,
// recovers panics, times the call and keeps running totals. It knows nothing
// about channels or matching; the registry decides which callbacks to run and
// what to do with a failed Result.
package dispatch
