package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/pubsub/internal/pubsub"
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	*RootOptions
}

// MatchResult is the outcome of publishing a pattern to a set of subjects.
type MatchResult struct {
	Pattern  string         `json:"pattern"`
	Wildcard string         `json:"wildcard"`
	Matched  int            `json:"matched"`
	Subjects []SubjectMatch `json:"subjects"`
}

// SubjectMatch reports whether one subscribed channel received the publish.
type SubjectMatch struct {
	Subject string `json:"subject"`
	Matched bool   `json:"matched"`
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	return &cobra.Command{
		Use:   "match <pattern> <subject>...",
		Short: "Show which subscribed channels a published channel reaches",
		Long: `Subscribe each subject to a fresh registry, publish the pattern once and
report which subjects were invoked.

Examples:
  pubsub match 'nav.*' nav.click nav.hover footer
  pubsub match '*.hover' bad.hover hover.body --format json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runMatch(opts, args[0], args[1:])
			if err != nil {
				return err
			}
			return writeMatch(cmd, opts.Format, result)
		},
	}
}

func runMatch(opts *MatchOptions, channel string, subjects []string) (*MatchResult, error) {
	reg, err := opts.newRegistry()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid registry config", err)
	}

	result := &MatchResult{
		Pattern:  channel,
		Wildcard: string(reg.Wildcard()),
		Subjects: make([]SubjectMatch, len(subjects)),
	}
	for i, subject := range subjects {
		result.Subjects[i].Subject = subject
		if _, err := reg.Subscribe(subject, pubsub.NewFunc(func(args ...any) {
			result.Subjects[i].Matched = true
		})); err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid subject", err)
		}
	}

	if err := reg.Publish(channel); err != nil {
		return nil, WrapExitError(ExitFailure, "publish failed", err)
	}

	for _, s := range result.Subjects {
		if s.Matched {
			result.Matched++
		}
	}
	return result, nil
}

func writeMatch(cmd *cobra.Command, format string, result *MatchResult) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, result)
	}

	fmt.Fprintf(out, "%q matched %d of %d subjects\n", result.Pattern, result.Matched, len(result.Subjects))
	for _, s := range result.Subjects {
		mark := "no "
		if s.Matched {
			mark = "yes"
		}
		fmt.Fprintf(out, "  %s  %s\n", mark, s.Subject)
	}
	return nil
}
