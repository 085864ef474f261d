package pubsub

import "sync/atomic"

var defaultRegistry atomic.Pointer[Registry]

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	if r := defaultRegistry.Load(); r != nil {
		return r
	}
	defaultRegistry.CompareAndSwap(nil, New())
	return defaultRegistry.Load()
}

// SetDefault replaces the process-wide registry. Passing nil resets it to a
// fresh empty registry on next use.
func SetDefault(r *Registry) {
	defaultRegistry.Store(r)
}

// Subscribe registers cb on channel in the default registry.
func Subscribe(channel string, cb Callback) (*Handle, error) {
	return Default().Subscribe(channel, cb)
}

// Unsubscribe removes h from the default registry.
func Unsubscribe(h *Handle) error {
	return Default().Unsubscribe(h)
}

// UnsubscribeChannel removes cb from channel in the default registry.
func UnsubscribeChannel(channel string, cb Callback) error {
	return Default().UnsubscribeChannel(channel, cb)
}

// Publish publishes to the default registry.
func Publish(channel string, args ...any) error {
	return Default().Publish(channel, args...)
}
