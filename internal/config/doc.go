// Package config loads pubsub settings from TOML or YAML files and the
// environment.
//
// Settings are layered in this order, later layers overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. The configuration file, if one is given (Load)
//  3. PUBSUB_* environment variables (ApplyEnv)
//
// A file only needs to contain the settings it changes:
//
//	[registry]
//	wildcard = "*"
//	failure_policy = "isolate"
//	pattern_cache_size = 256
//
//	[log]
//	level = "debug"
//	format = "json"
//
//	[trace]
//	path = "pubsub.trace"
//
//	[watch]
//	debounce = "250ms"
package config
