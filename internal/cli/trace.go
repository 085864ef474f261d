package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/pubsub/internal/pubsub"
	"github.com/dshills/pubsub/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Kind    string
	Channel string
}

// TraceEntry is the JSON form of a trace record.
type TraceEntry struct {
	Time     time.Time `json:"time"`
	Kind     string    `json:"kind"`
	Channel  string    `json:"channel,omitempty"`
	Subject  string    `json:"subject,omitempty"`
	HandleID string    `json:"handle_id,omitempty"`
	Args     int       `json:"args,omitempty"`
	Matched  int       `json:"matched,omitempty"`
	Removed  int       `json:"removed,omitempty"`
	Duration string    `json:"duration,omitempty"`
	Err      string    `json:"error,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <file>",
		Short: "Print a recorded event trace",
		Long: `Print the registry events recorded by "pubsub run --trace".

--channel takes a pattern, matched against both the published channel and
the subscription a message was delivered to.

Examples:
  pubsub trace events.trace
  pubsub trace events.trace --kind failure
  pubsub trace events.trace --channel 'nav.*' --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only show events of this kind (subscribe|unsubscribe|publish|deliver|failure)")
	cmd.Flags().StringVar(&opts.Channel, "channel", "", "only show events whose channel matches this pattern")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command, path string) error {
	filter := trace.Filter{Channel: opts.Channel}
	if opts.Kind != "" {
		kind, ok := pubsub.ParseEventKind(opts.Kind)
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown event kind %q", opts.Kind))
		}
		filter.Kind = kind
	}

	reader, err := trace.NewFilteredReader(path, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace", err)
	}
	defer reader.Close()

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		records, err := reader.All()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read trace", err)
		}
		entries := make([]TraceEntry, len(records))
		for i, rec := range records {
			entries[i] = toTraceEntry(rec)
		}
		return writeJSON(out, entries)
	}

	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read trace", err)
		}
		fmt.Fprintln(out, trace.Format(rec))
	}
}

func toTraceEntry(rec trace.Record) TraceEntry {
	entry := TraceEntry{
		Time:     rec.Time.UTC(),
		Kind:     rec.Kind.String(),
		Channel:  rec.Channel,
		Subject:  rec.Subject,
		HandleID: rec.HandleID,
		Args:     rec.Args,
		Matched:  rec.Matched,
		Removed:  rec.Removed,
		Err:      rec.Err,
	}
	if rec.Duration > 0 {
		entry.Duration = rec.Duration.String()
	}
	return entry
}
