package pubsub

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dshills/pubsub/internal/pubsub/dispatch"
)

// Publish invokes every subscription whose channel matches the published
// channel, passing args through unchanged. It returns only after all of them
// have run.
//
// Publish never rejects its arguments: an empty channel, a channel nobody is
// subscribed to and a missing payload all do nothing. The returned error is
// nil unless a callback failed; failures are *CallbackError values combined
// with multierr under FailureIsolate, or the single first failure under
// FailureAbort.
func (r *Registry) Publish(channel string, args ...any) error {
	r.publishes.Add(1)

	// The snapshot fixes who receives this publish. Callbacks may change the
	// registry while it runs.
	targets := r.match(r.patterns.Get(channel), r.Subscriptions())

	r.logger.Debug("publish",
		zap.String("channel", channel),
		zap.Int("args", len(args)),
		zap.Int("matched", len(targets)),
	)
	r.observe(Event{Kind: EventPublish, Channel: channel, Args: len(args), Matched: len(targets)})

	var errs error
	for _, h := range targets {
		result := r.executor.Execute(h.callback, args)
		if result.IsSuccess() {
			r.observe(Event{
				Kind:     EventDeliver,
				Channel:  channel,
				Subject:  h.channel,
				HandleID: h.id,
				Args:     len(args),
				Duration: result.Duration,
			})
			continue
		}

		err := callbackError(channel, h, result)
		r.logger.Warn("callback failed",
			zap.String("channel", channel),
			zap.String("subject", h.channel),
			zap.String("id", h.id),
			zap.Error(err),
		)
		r.observe(Event{
			Kind:     EventFailure,
			Channel:  channel,
			Subject:  h.channel,
			HandleID: h.id,
			Args:     len(args),
			Duration: result.Duration,
			Err:      err.Error(),
		})

		if r.config.failurePolicy == FailureAbort {
			return err
		}
		errs = multierr.Append(errs, err)
	}

	return errs
}

// callbackError converts a failed dispatch result into a *CallbackError.
func callbackError(channel string, h *Handle, result dispatch.Result) *CallbackError {
	cause := result.Error
	if result.Panicked {
		cause = &PanicError{Value: result.PanicValue, Stack: string(result.PanicStack)}
	}
	return &CallbackError{
		Channel:  channel,
		Subject:  h.channel,
		HandleID: h.id,
		Err:      cause,
	}
}
