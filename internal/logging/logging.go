// Package logging builds the zap loggers used by the pubsub command and its
// components.
package logging

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/pubsub/internal/config"
)

// Component names a part of the system. It becomes the logger name.
type Component string

const (
	ComponentRegistry Component = "registry"
	ComponentScript   Component = "script"
	ComponentWatcher  Component = "watcher"
	ComponentTrace    Component = "trace"
	ComponentCLI      Component = "cli"
)

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (zapcore.Level, error) {
	switch s {
	case "debug", "info", "warn", "error":
		return zapcore.ParseLevel(s)
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// New builds a logger from cfg. The returned function closes the output and
// must be called when the logger is no longer used.
func New(cfg config.LogConfig) (*zap.Logger, func(), error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	encoder, err := newEncoder(cfg.Format)
	if err != nil {
		return nil, nil, err
	}

	sink, closeSink, err := zap.Open(cfg.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log output %s: %w", cfg.Output, err)
	}

	core := zapcore.NewCore(encoder, sink, level)
	logger := zap.New(core, zap.ErrorOutput(sink))

	return logger, func() {
		_ = logger.Sync()
		closeSink()
	}, nil
}

// NewWithWriter builds a logger from cfg that writes to w instead of
// cfg.Output.
func NewWithWriter(cfg config.LogConfig, w io.Writer) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	encoder, err := newEncoder(cfg.Format)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core), nil
}

// For returns the logger for a component. A nil logger yields a no-op one.
func For(l *zap.Logger, c Component) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.Named(string(c))
}

func newEncoder(format string) (zapcore.Encoder, error) {
	switch format {
	case "console", "":
		return consoleEncoder(), nil
	case "json":
		config := zap.NewProductionEncoderConfig()
		config.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		return zapcore.NewJSONEncoder(config), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// consoleEncoder is a compact console encoder: HH:MM:SS.mmm, a one letter
// level, the component name and the message.
func consoleEncoder() zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()

	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("15:04:05.000"))
	}

	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		switch level {
		case zapcore.DebugLevel:
			enc.AppendString("D")
		case zapcore.InfoLevel:
			enc.AppendString("I")
		case zapcore.WarnLevel:
			enc.AppendString("W")
		case zapcore.ErrorLevel:
			enc.AppendString("E")
		default:
			enc.AppendString("?")
		}
	}

	config.CallerKey = zapcore.OmitKey
	config.StacktraceKey = zapcore.OmitKey

	return zapcore.NewConsoleEncoder(config)
}
