// Package pubsub is an in-process publish/subscribe registry.
//
// Callers subscribe a Callback to a channel name and receive a Handle. Other
// callers publish to a channel with any number of arguments; every matching
// subscription is invoked synchronously, in the order it was registered, with
// those arguments passed through unchanged.
//
// # Channels and Wildcards
//
// Subscribed channels are literal strings. A published channel may contain
// the wildcard character ('*' unless configured otherwise), which matches any
// run of zero or more characters across '/' and '.' alike. The match is
// anchored to the whole subscribed channel:
//
//	Publish("/hover/*")      invokes "/hover/body/reviewStars/"
//	                         but not "/bad/hover/body/reviewStars/"
//	Publish("*nav.click.*")  invokes "nav.click.tops"
//	                         but not "click.header.publishing"
//
// See package pattern for the matching rules.
//
// # Basic Usage
//
//	r := pubsub.New(pubsub.WithLogger(logger))
//
//	h, err := r.Subscribe("/cart/add", pubsub.NewFunc(func(args ...any) {
//	    fmt.Println("added", args...)
//	}))
//
//	r.Publish("/cart/add", sku, qty)
//	r.Publish("/cart/*")
//
//	r.Unsubscribe(h)
//
// # Unsubscribing
//
// Unsubscribe(h) and UnsubscribeChannel(channel, cb) both remove every
// registration whose channel equals the given one and whose callback is the
// same callback (Go interface equality). Subscribing the same pair twice
// registers it twice; one unsubscribe removes both. Removing something that
// is not registered is a no-op.
//
// Callbacks must be of a comparable type so they can be told apart. Wrap
// plain functions with NewFunc or NewFuncE, which return pointers.
//
// # Failures
//
// Subscribe, Unsubscribe and UnsubscribeChannel validate their arguments and
// return an error matching ErrInvalidArgument. Publish never rejects its
// arguments. A callback that returns an error or panics is reported as a
// *CallbackError; by default delivery continues to the remaining matches and
// all failures are returned together (see go.uber.org/multierr). With
// WithFailurePolicy(FailureAbort) the first failure stops delivery.
//
// # Reentrancy and Thread Safety
//
// Publish snapshots the registry before invoking anything and holds no lock
// while callbacks run. A callback may subscribe, unsubscribe or publish on the
// same registry; nested calls complete before the outer publish continues.
// Subscriptions added during a publish do not receive it, and subscriptions
// removed during a publish still receive it.
//
// A Registry is safe for concurrent use. Callbacks must manage their own
// thread safety.
package pubsub
