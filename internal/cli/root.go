// Package cli implements the pubsub command.
package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/pubsub/internal/config"
	"github.com/dshills/pubsub/internal/logging"
	"github.com/dshills/pubsub/internal/pubsub"
)

// Build information, set with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "unknown"
)

// RootOptions holds global flags and the state they resolve to.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Format     string // "text" | "json"

	Config *config.Config
	Logger *zap.Logger

	closeLog func()
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pubsub",
		Short: "In-process publish/subscribe with wildcard channels",
		Long: `pubsub drives an in-process publish/subscribe registry.

Published channels may contain the wildcard character (default "*"), which
matches any run of characters, including none. Subscribed channels are always
literal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.teardown()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (.toml, .yaml or .yml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error), overrides the config")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// setup validates flags, loads configuration and builds the logger.
func (o *RootOptions) setup() error {
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	var cfg *config.Config
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
		config.ApplyEnv(cfg, os.LookupEnv)
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create logger", err)
	}

	logging.For(logger, logging.ComponentCLI).Debug("config loaded",
		zap.String("path", o.ConfigPath),
		zap.String("wildcard", cfg.Registry.Wildcard),
		zap.String("failure_policy", cfg.Registry.FailurePolicy),
	)

	o.Config = cfg
	o.Logger = logger
	o.closeLog = closeLog
	return nil
}

// teardown flushes and closes the logger.
func (o *RootOptions) teardown() {
	if o.closeLog != nil {
		o.closeLog()
		o.closeLog = nil
	}
}

// newRegistry builds a registry from the loaded configuration.
func (o *RootOptions) newRegistry(extra ...pubsub.Option) (*pubsub.Registry, error) {
	opts, err := o.Config.Registry.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, pubsub.WithLogger(logging.For(o.Logger, logging.ComponentRegistry)))
	opts = append(opts, extra...)
	return pubsub.New(opts...), nil
}
