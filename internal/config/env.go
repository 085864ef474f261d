package config

import "strconv"

// EnvPrefix is the prefix shared by all environment overrides.
const EnvPrefix = "PUBSUB_"

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// envSetters maps environment variables to the setting they override.
var envSetters = map[string]func(c *Config, v string){
	"PUBSUB_REGISTRY_WILDCARD":       func(c *Config, v string) { c.Registry.Wildcard = v },
	"PUBSUB_REGISTRY_FAILURE_POLICY": func(c *Config, v string) { c.Registry.FailurePolicy = v },
	"PUBSUB_REGISTRY_PATTERN_CACHE_SIZE": func(c *Config, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.Registry.PatternCacheSize = n
		}
	},
	"PUBSUB_LOG_LEVEL":      func(c *Config, v string) { c.Log.Level = v },
	"PUBSUB_LOG_FORMAT":     func(c *Config, v string) { c.Log.Format = v },
	"PUBSUB_LOG_OUTPUT":     func(c *Config, v string) { c.Log.Output = v },
	"PUBSUB_TRACE_PATH":     func(c *Config, v string) { c.Trace.Path = v },
	"PUBSUB_WATCH_DEBOUNCE": func(c *Config, v string) { c.Watch.Debounce = v },
}

// ApplyEnv overrides settings from PUBSUB_* variables.
// Empty values are treated as set, not as unset.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	for env, set := range envSetters {
		if v, ok := lookup(env); ok {
			set(cfg, v)
		}
	}
}
