package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/dshills/pubsub/internal/pubsub"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "*", cfg.Registry.Wildcard)
	assert.Equal(t, "isolate", cfg.Registry.FailurePolicy)
	assert.Equal(t, 256, cfg.Registry.PatternCacheSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.Empty(t, cfg.Trace.Path)
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.DebounceDuration())
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "pubsub.toml", `
[registry]
wildcard = "%"
failure_policy = "abort"

[log]
level = "debug"

[trace]
path = "events.trace"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "%", cfg.Registry.Wildcard)
	assert.Equal(t, '%', cfg.Registry.WildcardRune())
	assert.Equal(t, "abort", cfg.Registry.FailurePolicy)
	assert.Equal(t, 256, cfg.Registry.PatternCacheSize, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "events.trace", cfg.Trace.Path)
}

func TestLoad_YAML(t *testing.T) {
	for _, name := range []string{"pubsub.yaml", "pubsub.yml"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, name, `
registry:
  pattern_cache_size: 0
log:
  format: json
  output: stdout
watch:
  debounce: 1s
`)

			cfg, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, 0, cfg.Registry.PatternCacheSize)
			assert.Equal(t, "json", cfg.Log.Format)
			assert.Equal(t, "stdout", cfg.Log.Output)
			assert.Equal(t, time.Second, cfg.Watch.DebounceDuration())
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := Load(writeFile(t, "pubsub.json", "{}"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("bad syntax", func(t *testing.T) {
		_, err := Load(writeFile(t, "pubsub.toml", "[registry\nwildcard ="))

		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.True(t, strings.HasSuffix(pe.Path, "pubsub.toml"))
		assert.Contains(t, pe.Error(), "parse error in")
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeFile(t, "pubsub.toml", `
[registry]
wildcard = "**"

[log]
level = "loud"
`))
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Len(t, multierr.Errors(err), 2)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		key    string
	}{
		{"empty wildcard", func(c *Config) { c.Registry.Wildcard = "" }, "registry.wildcard"},
		{"multi-rune wildcard", func(c *Config) { c.Registry.Wildcard = "ab" }, "registry.wildcard"},
		{"bad policy", func(c *Config) { c.Registry.FailurePolicy = "retry" }, "registry.failure_policy"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"empty output", func(c *Config) { c.Log.Output = "" }, "log.output"},
		{"bad debounce", func(c *Config) { c.Watch.Debounce = "soon" }, "watch.debounce"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = "-1s" }, "watch.debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.key, ve.Key)
		})
	}
}

func TestValidate_MultiByteWildcard(t *testing.T) {
	cfg := Default()
	cfg.Registry.Wildcard = "→"

	require.NoError(t, cfg.Validate())
	assert.Equal(t, '→', cfg.Registry.WildcardRune())
}

func TestRegistryConfig_Options(t *testing.T) {
	cfg := Default()
	cfg.Registry.Wildcard = "#"
	cfg.Registry.FailurePolicy = "abort"

	opts, err := cfg.Registry.Options()
	require.NoError(t, err)

	r := pubsub.New(opts...)
	assert.Equal(t, '#', r.Wildcard())
	assert.Equal(t, pubsub.FailureAbort, r.FailurePolicy())

	cfg.Registry.FailurePolicy = "bogus"
	_, err = cfg.Registry.Options()
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PUBSUB_REGISTRY_WILDCARD":           "?",
		"PUBSUB_REGISTRY_PATTERN_CACHE_SIZE": "12",
		"PUBSUB_LOG_LEVEL":                   "warn",
		"PUBSUB_TRACE_PATH":                  "",
		"PUBSUB_WATCH_DEBOUNCE":              "5ms",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	cfg.Trace.Path = "from-file.trace"
	ApplyEnv(cfg, lookup)

	assert.Equal(t, "?", cfg.Registry.Wildcard)
	assert.Equal(t, 12, cfg.Registry.PatternCacheSize)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "", cfg.Trace.Path, "empty values override")
	assert.Equal(t, 5*time.Millisecond, cfg.Watch.DebounceDuration())
	assert.Equal(t, "isolate", cfg.Registry.FailurePolicy)
}

func TestApplyEnv_BadNumberIgnored(t *testing.T) {
	cfg := Default()
	ApplyEnv(cfg, func(key string) (string, bool) {
		if key == "PUBSUB_REGISTRY_PATTERN_CACHE_SIZE" {
			return "many", true
		}
		return "", false
	})
	assert.Equal(t, 256, cfg.Registry.PatternCacheSize)
}

func TestLoadReader_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatTOML, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			cfg := Default()
			cfg.Log.Level = "error"
			cfg.Trace.Path = "t.cbor"

			data, err := Marshal(cfg, format)
			require.NoError(t, err)

			got, err := LoadReader(strings.NewReader(string(data)), format)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("/etc/pubsub/CONFIG.TOML")
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, f)

	f, err = FormatFromPath("x.yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatFromPath("x.ini")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
