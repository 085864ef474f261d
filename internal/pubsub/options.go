package pubsub

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dshills/pubsub/internal/pubsub/pattern"
)

// FailurePolicy decides what Publish does when a callback fails.
type FailurePolicy int

const (
	// FailureIsolate keeps delivering to the remaining matches and returns
	// every failure once the publish completes.
	FailureIsolate FailurePolicy = iota

	// FailureAbort stops delivery at the first failure and returns it.
	FailureAbort
)

// String returns the policy name used in configuration files.
func (p FailurePolicy) String() string {
	switch p {
	case FailureIsolate:
		return "isolate"
	case FailureAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// ParseFailurePolicy parses "isolate" or "abort".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "isolate", "":
		return FailureIsolate, nil
	case "abort":
		return FailureAbort, nil
	default:
		return FailureIsolate, fmt.Errorf("unknown failure policy %q", s)
	}
}

// Option configures a Registry.
type Option func(*registryConfig)

// registryConfig contains configuration for a registry.
type registryConfig struct {
	wildcard      rune
	failurePolicy FailurePolicy
	cacheSize     int
	logger        *zap.Logger
	observer      Observer
}

// defaultRegistryConfig returns the configuration used by New.
func defaultRegistryConfig() registryConfig {
	return registryConfig{
		wildcard:      pattern.DefaultWildcard,
		failurePolicy: FailureIsolate,
		cacheSize:     pattern.DefaultCacheSize,
		logger:        zap.NewNop(),
	}
}

// WithWildcard sets the character that acts as a wildcard in published
// channels. Invalid runes are ignored.
func WithWildcard(r rune) Option {
	return func(c *registryConfig) {
		if r != 0 && r != utf8.RuneError && utf8.ValidRune(r) {
			c.wildcard = r
		}
	}
}

// WithFailurePolicy sets how Publish reacts to failing callbacks.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(c *registryConfig) {
		c.failurePolicy = p
	}
}

// WithPatternCacheSize sets how many compiled publish patterns are kept.
// Zero or less disables the cache.
func WithPatternCacheSize(n int) Option {
	return func(c *registryConfig) {
		c.cacheSize = n
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *registryConfig) {
		if l == nil {
			l = zap.NewNop()
		}
		c.logger = l
	}
}

// WithObserver sets an observer that is told about every registry event.
func WithObserver(o Observer) Option {
	return func(c *registryConfig) {
		c.observer = o
	}
}
