package pubsub

// Handle is a registered subscription. It is returned by Subscribe and is the
// same value the registry stores, so it can be passed back to Unsubscribe.
// A Handle never changes after it is created.
type Handle struct {
	id       string
	channel  string
	callback Callback
}

// ID returns the unique identifier assigned at subscribe time.
// It appears in logs and traces; unsubscribe does not use it.
func (h *Handle) ID() string {
	return h.id
}

// Channel returns the channel passed to Subscribe.
func (h *Handle) Channel() string {
	return h.channel
}

// Callback returns the callback passed to Subscribe.
func (h *Handle) Callback() Callback {
	return h.callback
}

// String returns "channel#id".
func (h *Handle) String() string {
	return h.channel + "#" + h.id
}

// matches reports whether h was registered with this channel and callback.
func (h *Handle) matches(channel string, cb Callback) bool {
	return h.channel == channel && h.callback == cb
}
