package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/pubsub/internal/logging"
	"github.com/dshills/pubsub/internal/pubsub"
	"github.com/dshills/pubsub/internal/script"
	"github.com/dshills/pubsub/internal/trace"
	"github.com/dshills/pubsub/internal/watcher"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Watch     bool
	TracePath string
}

// RunSummary is the JSON summary printed after a script run.
type RunSummary struct {
	Script        string `json:"script"`
	Subscriptions int    `json:"subscriptions"`
	Publishes     uint64 `json:"publishes"`
	Dispatched    uint64 `json:"dispatched"`
	Failed        uint64 `json:"failed"`
	Panicked      uint64 `json:"panicked"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Run a Lua script against a fresh registry",
		Long: `Run a Lua script with a global "pubsub" table bound to a fresh registry.

With --watch the script is run again, against a new registry, every time the
file changes, until interrupted.

Examples:
  pubsub run demo.lua
  pubsub run demo.lua --trace events.trace
  pubsub run demo.lua --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if opts.Watch {
				return watchScript(ctx, opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
			}
			return runScript(ctx, opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "re-run the script when it changes")
	cmd.Flags().StringVar(&opts.TracePath, "trace", "", "append registry events to this trace file (overrides trace.path)")

	return cmd
}

// openTrace opens the trace recorder if one is configured.
func openTrace(opts *RunOptions) (*trace.Recorder, error) {
	path := opts.TracePath
	if path == "" {
		path = opts.Config.Trace.Path
	}
	if path == "" {
		return nil, nil
	}
	rec, err := trace.NewRecorder(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open trace", err)
	}
	logging.For(opts.Logger, logging.ComponentTrace).Debug("recording trace", zap.String("path", path))
	return rec, nil
}

// runScript runs path once.
func runScript(ctx context.Context, opts *RunOptions, path string, out io.Writer) error {
	rec, err := openTrace(opts)
	if err != nil {
		return err
	}
	if rec != nil {
		defer rec.Close()
	}

	summary, err := executeScript(ctx, opts, rec, path, out)
	if summary != nil && opts.Format == "json" {
		if jsonErr := writeJSON(out, summary); jsonErr != nil && err == nil {
			err = jsonErr
		}
	}
	return err
}

// executeScript runs path against a new registry. The summary is returned
// whenever the script ran, including when callbacks failed.
func executeScript(ctx context.Context, opts *RunOptions, rec *trace.Recorder, path string, out io.Writer) (*RunSummary, error) {
	if err := checkScript(path); err != nil {
		return nil, err
	}

	var extra []pubsub.Option
	if rec != nil {
		extra = append(extra, pubsub.WithObserver(rec))
	}
	reg, err := opts.newRegistry(extra...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid registry config", err)
	}

	runner := script.NewRunner(reg,
		script.WithOutput(out),
		script.WithLogger(logging.For(opts.Logger, logging.ComponentScript)),
	)
	runErr := runner.RunFile(ctx, path)
	stats := reg.Stats()
	_ = runner.Close()

	if runErr != nil {
		return nil, WrapExitError(ExitFailure, "script failed", runErr)
	}
	summary := &RunSummary{
		Script:        path,
		Subscriptions: stats.Subscriptions,
		Publishes:     stats.Publishes,
		Dispatched:    stats.Dispatch.Dispatched,
		Failed:        stats.Dispatch.Failed,
		Panicked:      stats.Dispatch.Panicked,
	}
	if failed := summary.Failed + summary.Panicked; failed > 0 {
		return summary, NewExitError(ExitFailure, fmt.Sprintf("%d of %d callbacks failed", failed, summary.Dispatched))
	}
	return summary, nil
}

// checkScript reports a script that cannot be opened as a command error.
func checkScript(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot read script", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot read script", err)
	}
	if info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("cannot read script: %s is a directory", path))
	}
	return nil
}

// watchScript runs path, then runs it again after every change until ctx is
// done. Script failures are reported and do not stop the loop.
func watchScript(ctx context.Context, opts *RunOptions, path string, out, errOut io.Writer) error {
	logger := logging.For(opts.Logger, logging.ComponentWatcher)

	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "cannot watch script", err)
	}

	rec, err := openTrace(opts)
	if err != nil {
		return err
	}
	if rec != nil {
		defer rec.Close()
	}

	w, err := watcher.New(opts.Config.Watch.DebounceDuration(), watcher.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start watcher", err)
	}
	defer w.Close()

	if err := w.Watch(path); err != nil {
		return WrapExitError(ExitCommandError, "cannot watch script", err)
	}

	runOnce := func() {
		if _, err := executeScript(ctx, opts, rec, path, out); err != nil && ctx.Err() == nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
		}
	}

	runOnce()
	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-w.Events():
			if !ok {
				return nil
			}
			if e.Op.Has(watcher.OpRemove) || e.Op.Has(watcher.OpRename) {
				if _, err := os.Stat(path); err != nil {
					logger.Info("script removed, waiting for it to return", zap.String("path", e.Path))
					continue
				}
			}
			logger.Info("script changed, running again", zap.String("path", e.Path), zap.Stringer("op", e.Op))
			runOnce()

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}
