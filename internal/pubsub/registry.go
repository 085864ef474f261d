package pubsub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/pubsub/internal/pubsub/dispatch"
	"github.com/dshills/pubsub/internal/pubsub/pattern"
)

// Registry is an ordered collection of subscriptions.
// Insertion order is dispatch order. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	subs []*Handle

	config   registryConfig
	logger   *zap.Logger
	patterns *pattern.Cache
	executor *dispatch.Executor

	publishes atomic.Uint64
}

// Stats contains registry statistics.
type Stats struct {
	// Subscriptions is the current number of registrations.
	Subscriptions int

	// Publishes is the number of Publish calls.
	Publishes uint64

	// Dispatch holds callback execution totals.
	Dispatch dispatch.Stats
}

// New creates an empty registry with the given options.
func New(opts ...Option) *Registry {
	config := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&config)
	}

	patterns, err := pattern.NewCache(config.cacheSize, config.wildcard)
	if err != nil {
		patterns, _ = pattern.NewCache(0, config.wildcard)
	}

	r := &Registry{
		config:   config,
		logger:   config.logger,
		patterns: patterns,
	}
	r.executor = dispatch.NewExecutor(dispatch.WithPanicHandler(func(v any, stack []byte) {
		r.logger.Error("callback panicked",
			zap.Any("value", v),
			zap.ByteString("stack", stack),
		)
	}))
	return r
}

// Subscribe registers cb on channel and returns its handle.
// The channel is stored as literal text; wildcard characters in it have no
// special meaning.
func (r *Registry) Subscribe(channel string, cb Callback) (*Handle, error) {
	if err := validChannel("subscribe", channel); err != nil {
		return nil, err
	}
	if err := validCallback("subscribe", cb); err != nil {
		return nil, err
	}

	h := &Handle{
		id:       uuid.NewString(),
		channel:  channel,
		callback: cb,
	}

	r.mu.Lock()
	r.subs = append(r.subs, h)
	r.mu.Unlock()

	r.logger.Debug("subscribed",
		zap.String("channel", channel),
		zap.String("id", h.id),
	)
	r.observe(Event{Kind: EventSubscribe, Channel: channel, HandleID: h.id})

	return h, nil
}

// Unsubscribe removes every subscription with the handle's channel and
// callback. It is a no-op if none are registered.
func (r *Registry) Unsubscribe(h *Handle) error {
	if h == nil {
		return &ArgumentError{Op: "unsubscribe", Arg: "handle", Reason: "is nil"}
	}
	if err := validChannel("unsubscribe", h.channel); err != nil {
		return err
	}
	if err := validCallback("unsubscribe", h.callback); err != nil {
		return err
	}

	r.remove(h.channel, h.callback)
	return nil
}

// UnsubscribeChannel removes every subscription of cb on channel.
// It is a no-op if none are registered.
func (r *Registry) UnsubscribeChannel(channel string, cb Callback) error {
	if err := validChannel("unsubscribe", channel); err != nil {
		return err
	}
	if err := validCallback("unsubscribe", cb); err != nil {
		return err
	}

	r.remove(channel, cb)
	return nil
}

// remove deletes all registrations of (channel, cb) and returns how many
// were removed.
func (r *Registry) remove(channel string, cb Callback) int {
	r.mu.Lock()
	kept := make([]*Handle, 0, len(r.subs))
	for _, h := range r.subs {
		if !h.matches(channel, cb) {
			kept = append(kept, h)
		}
	}
	removed := len(r.subs) - len(kept)
	r.subs = kept
	r.mu.Unlock()

	r.logger.Debug("unsubscribed",
		zap.String("channel", channel),
		zap.Int("removed", removed),
	)
	r.observe(Event{Kind: EventUnsubscribe, Channel: channel, Removed: removed})

	return removed
}

// Subscriptions returns a snapshot of all subscriptions in insertion order.
func (r *Registry) Subscriptions() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.subs) == 0 {
		return nil
	}

	result := make([]*Handle, len(r.subs))
	copy(result, r.subs)
	return result
}

// Matching returns the subscriptions a publish of channel would invoke now,
// in dispatch order.
func (r *Registry) Matching(channel string) []*Handle {
	return r.match(r.patterns.Get(channel), r.Subscriptions())
}

// match filters a snapshot down to the subscriptions p matches.
func (r *Registry) match(p *pattern.Pattern, snapshot []*Handle) []*Handle {
	var matched []*Handle
	for _, h := range snapshot {
		if p.Match(h.channel) {
			matched = append(matched, h)
		}
	}
	return matched
}

// Len returns the number of subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subs)
}

// Clear removes every subscription and returns how many there were.
func (r *Registry) Clear() int {
	r.mu.Lock()
	n := len(r.subs)
	r.subs = nil
	r.mu.Unlock()

	r.logger.Debug("cleared", zap.Int("removed", n))
	return n
}

// Wildcard returns the wildcard character used for published channels.
func (r *Registry) Wildcard() rune {
	return r.config.wildcard
}

// FailurePolicy returns the configured failure policy.
func (r *Registry) FailurePolicy() FailurePolicy {
	return r.config.failurePolicy
}

// Stats returns registry statistics.
func (r *Registry) Stats() Stats {
	return Stats{
		Subscriptions: r.Len(),
		Publishes:     r.publishes.Load(),
		Dispatch:      r.executor.Stats(),
	}
}

// observe forwards e to the observer, if any.
func (r *Registry) observe(e Event) {
	if r.config.observer == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	r.config.observer.Observe(e)
}
