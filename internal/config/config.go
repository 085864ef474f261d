package config

import (
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/multierr"

	"github.com/dshills/pubsub/internal/pubsub"
	"github.com/dshills/pubsub/internal/pubsub/pattern"
)

// Config is the complete pubsub configuration.
type Config struct {
	Registry RegistryConfig `toml:"registry" yaml:"registry"`
	Log      LogConfig      `toml:"log" yaml:"log"`
	Trace    TraceConfig    `toml:"trace" yaml:"trace"`
	Watch    WatchConfig    `toml:"watch" yaml:"watch"`
}

// RegistryConfig configures the subscription registry.
type RegistryConfig struct {
	// Wildcard is the single character treated as a wildcard in published
	// channels.
	Wildcard string `toml:"wildcard" yaml:"wildcard"`

	// FailurePolicy is "isolate" or "abort".
	FailurePolicy string `toml:"failure_policy" yaml:"failure_policy"`

	// PatternCacheSize is how many compiled publish patterns are kept.
	// Zero or less disables the cache.
	PatternCacheSize int `toml:"pattern_cache_size" yaml:"pattern_cache_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" yaml:"level"`

	// Format is console or json.
	Format string `toml:"format" yaml:"format"`

	// Output is stderr, stdout or a file path.
	Output string `toml:"output" yaml:"output"`
}

// TraceConfig configures event tracing.
type TraceConfig struct {
	// Path is the trace file. Empty disables tracing.
	Path string `toml:"path" yaml:"path"`
}

// WatchConfig configures script watching.
type WatchConfig struct {
	// Debounce is a duration string such as "200ms".
	Debounce string `toml:"debounce" yaml:"debounce"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{
			Wildcard:         string(pattern.DefaultWildcard),
			FailurePolicy:    pubsub.FailureIsolate.String(),
			PatternCacheSize: pattern.DefaultCacheSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Watch: WatchConfig{
			Debounce: "200ms",
		},
	}
}

// Validate checks every setting and returns all problems found.
func (c *Config) Validate() error {
	var errs error

	if utf8.RuneCountInString(c.Registry.Wildcard) != 1 || c.Registry.Wildcard == string(utf8.RuneError) {
		errs = multierr.Append(errs, &ValidationError{
			Key: "registry.wildcard", Value: c.Registry.Wildcard, Message: "must be a single character",
		})
	}
	if _, err := pubsub.ParseFailurePolicy(c.Registry.FailurePolicy); err != nil {
		errs = multierr.Append(errs, &ValidationError{
			Key: "registry.failure_policy", Value: c.Registry.FailurePolicy, Message: "must be isolate or abort",
		})
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = multierr.Append(errs, &ValidationError{
			Key: "log.level", Value: c.Log.Level, Message: "must be debug, info, warn or error",
		})
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = multierr.Append(errs, &ValidationError{
			Key: "log.format", Value: c.Log.Format, Message: "must be console or json",
		})
	}
	if c.Log.Output == "" {
		errs = multierr.Append(errs, &ValidationError{
			Key: "log.output", Value: c.Log.Output, Message: "must not be empty",
		})
	}

	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d < 0 {
		errs = multierr.Append(errs, &ValidationError{
			Key: "watch.debounce", Value: c.Watch.Debounce, Message: "must be a non-negative duration",
		})
	}

	return errs
}

// WildcardRune returns the configured wildcard character.
func (c RegistryConfig) WildcardRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Wildcard)
	if r == utf8.RuneError {
		return pattern.DefaultWildcard
	}
	return r
}

// Options translates the registry settings into registry options.
func (c RegistryConfig) Options() ([]pubsub.Option, error) {
	policy, err := pubsub.ParseFailurePolicy(c.FailurePolicy)
	if err != nil {
		return nil, fmt.Errorf("registry.failure_policy: %w", err)
	}
	return []pubsub.Option{
		pubsub.WithWildcard(c.WildcardRune()),
		pubsub.WithFailurePolicy(policy),
		pubsub.WithPatternCacheSize(c.PatternCacheSize),
	}, nil
}

// DebounceDuration returns the parsed debounce, or zero if it is invalid.
func (c WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
