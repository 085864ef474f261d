package pubsub

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter is a comparable callback that counts invocations and keeps the
// last argument list.
type counter struct {
	mu    sync.Mutex
	calls int
	last  []any
}

func (c *counter) Invoke(args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.last = args
	return nil
}

func (c *counter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// sliceCallback is invocable but not comparable.
type sliceCallback []int

func (sliceCallback) Invoke(args ...any) error { return nil }

func TestRegistry_Subscribe(t *testing.T) {
	r := New()
	cb := &counter{}

	h, err := r.Subscribe("/test/subscribing/3", cb)
	require.NoError(t, err)
	require.NotNil(t, h)

	assert.Equal(t, "/test/subscribing/3", h.Channel())
	assert.Same(t, cb, h.Callback())
	assert.NotEmpty(t, h.ID())
	assert.Equal(t, 1, r.Len())
	assert.Same(t, h, r.Subscriptions()[0], "handle must be the stored entry")
}

func TestRegistry_Subscribe_UniqueIDs(t *testing.T) {
	r := New()
	cb := &counter{}

	h1, err := r.Subscribe("/a", cb)
	require.NoError(t, err)
	h2, err := r.Subscribe("/a", cb)
	require.NoError(t, err)

	assert.NotEqual(t, h1.ID(), h2.ID())
	assert.Equal(t, "/a#"+h1.ID(), h1.String())
}

func TestRegistry_Subscribe_Invalid(t *testing.T) {
	var nilFunc *Func

	tests := []struct {
		name    string
		channel string
		cb      Callback
	}{
		{"empty channel", "", &counter{}},
		{"nil callback", "/a", nil},
		{"typed nil callback", "/a", nilFunc},
		{"func wrapping nil", "/a", NewFunc(nil)},
		{"funcE wrapping nil", "/a", NewFuncE(nil)},
		{"not comparable", "/a", sliceCallback{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()

			h, err := r.Subscribe(tt.channel, tt.cb)
			assert.Nil(t, h)
			assert.ErrorIs(t, err, ErrInvalidArgument)

			var argErr *ArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, "subscribe", argErr.Op)
			assert.Equal(t, 0, r.Len())
		})
	}
}

func TestRegistry_Subscribe_WildcardChannel(t *testing.T) {
	r := New()

	h, err := r.Subscribe("*", NewFunc(func(args ...any) {}))
	require.NoError(t, err)
	assert.Equal(t, "*", h.Channel())
}

func TestRegistry_Publish_NoSubscribers(t *testing.T) {
	r := New()

	for _, channel := range []string{"/test/publishing/1", "/test/*", "/*", "*", "test.*", ""} {
		assert.NoError(t, r.Publish(channel, 1))
		assert.NoError(t, r.Publish(channel))
	}
	assert.Equal(t, uint64(0), r.Stats().Dispatch.Dispatched)
}

func TestRegistry_Publish_RunsCallback(t *testing.T) {
	r := New()

	var check any
	_, err := r.Subscribe("/test/publishing/3", NewFunc(func(args ...any) {
		check = args[0]
	}))
	require.NoError(t, err)

	require.NoError(t, r.Publish("/test/publishing/3", 1))
	assert.Equal(t, 1, check)
}

func TestRegistry_Publish_PassesArguments(t *testing.T) {
	r := New()
	cb := &counter{}
	_, err := r.Subscribe("/a/b", cb)
	require.NoError(t, err)

	require.NoError(t, r.Publish("/a/b", 1, "2", []int{3}))
	assert.Equal(t, 1, cb.Calls())
	require.Len(t, cb.last, 3)
	assert.Equal(t, 1, cb.last[0])
	assert.Equal(t, "2", cb.last[1])
	assert.Equal(t, []int{3}, cb.last[2])

	require.NoError(t, r.Publish("/a/b", map[string]string{"type": "test"}))
	require.Len(t, cb.last, 1)

	require.NoError(t, r.Publish("/a/b"))
	assert.Len(t, cb.last, 0)

	require.NoError(t, r.Publish("/a/b", nil))
	assert.Equal(t, []any{nil}, cb.last)
}

func TestRegistry_Publish_ExactDoesNotPrefixMatch(t *testing.T) {
	r := New()
	cb := &counter{}
	_, err := r.Subscribe("/a/b", cb)
	require.NoError(t, err)

	require.NoError(t, r.Publish("/a"))
	require.NoError(t, r.Publish("/a/b/c"))
	assert.Equal(t, 0, cb.Calls())
}

// subscribeAll registers cb on every channel.
func subscribeAll(t *testing.T, r *Registry, channels []string, cb Callback) {
	t.Helper()
	for _, c := range channels {
		_, err := r.Subscribe(c, cb)
		require.NoError(t, err)
	}
}

func TestRegistry_Publish_Wildcards(t *testing.T) {
	slash := []string{
		"/click/header/publishing/",
		"/click/footer/socialTag/",
		"/click/body/reviewStars/",
		"/hover/body/reviewStars/",
		"/bad/hover/body/reviewStars/",
		"bad/hover/body/reviewStars/",
		"bad/hover/body/reviewStars/",
		"bad/hover/",
		"bad/hover",
		"/bad/hover",
		"/bad/*/hover",
		"*/bad/*/hover",
		"*//bad/*/hover",
	}
	dots := []string{
		"click.header.publishing",
		"click.footer.socialTag",
		"click.body.reviewStars",
		"hover.body.reviewStars",
		"bad.hover.body.reviewStars",
		"bad.hover.body.reviewStars",
		"bad.hover.body.reviewStars",
		"bad.hover",
		"bad.hover",
		"bad.hover",
		"bad.*.hover",
		"*.bad.*.hover",
		"*..bad.*.hover",
	}
	hovers := []string{
		"click.header.publishing",
		"click.footer.socialTag",
		"click.body.reviewStars",
		"hovers.body.reviewStars",
		"bad.hover.body.reviewStars",
		"bad.hover",
		"bad.*.hover",
		"*.bad.*.hover",
		"*..bad.*.hover",
	}
	shovers := []string{
		"click.header.publishing",
		"click.footer.socialTag",
		"click.body.reviewStars",
		"huver.body.reviewStars",
		"shover.body.reviewStars",
		"shover.body.reviewStars",
		"bad.hover.body.reviewStars",
		"bad.hover.body.reviewStars",
		"bad.hover.body.reviewStars",
		"bad.hover",
		"bad.hover",
		"bad.hover",
		"bad.*.hover",
		"*.bad.*.hover",
		"*..bad.*.hover",
	}
	nav := []string{
		"click.header.publishing",
		"nav.click.dresses",
		"nav.click.tops",
		"nav.click.bottoms",
		"nav.click.accessories",
	}

	tests := []struct {
		name     string
		channels []string
		publish  string
		want     int
	}{
		{"slash prefix", slash, "/hover/*", 1},
		{"dot prefix", dots, "hover.*", 1},
		{"prefix without delimiter", hovers, "hover*", 1},
		{"no prefix match", shovers, "hover*", 0},
		{"suffix", shovers, "*.hover", 6},
		{"infix", nav, "*nav.click.*", 4},
		{"bare wildcard", nav, "*", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			cb := &counter{}
			subscribeAll(t, r, tt.channels, cb)

			require.NoError(t, r.Publish(tt.publish, 1))
			assert.Equal(t, tt.want, cb.Calls())
			assert.Len(t, r.Matching(tt.publish), tt.want)
		})
	}
}

func TestRegistry_Publish_WildcardWithArguments(t *testing.T) {
	r := New()
	check := 0
	cb := NewFunc(func(args ...any) {
		if args[0] == "hi there" {
			check += args[1].(int)
		}
	})
	subscribeAll(t, r, []string{
		"click.header.publishing",
		"nav.click.dresses",
		"nav.click.tops",
		"nav.click.bottoms",
		"nav.click.accessories",
	}, cb)

	require.NoError(t, r.Publish("*nav.click.*", "hi there", 1))
	assert.Equal(t, 4, check)
}

func TestRegistry_Publish_SubjectWildcardIsLiteral(t *testing.T) {
	r := New()
	cb := &counter{}
	_, err := r.Subscribe("/a/*", cb)
	require.NoError(t, err)

	require.NoError(t, r.Publish("/a/b"))
	assert.Equal(t, 0, cb.Calls(), "a subscribed wildcard must not expand")

	require.NoError(t, r.Publish("/a/*"))
	assert.Equal(t, 1, cb.Calls())
}

func TestRegistry_Publish_Order(t *testing.T) {
	r := New()

	var order []string
	record := func(name string) Callback {
		return NewFunc(func(args ...any) { order = append(order, name) })
	}

	_, _ = r.Subscribe("a.2", record("first"))
	_, _ = r.Subscribe("b.1", record("second"))
	_, _ = r.Subscribe("a.1", record("third"))
	_, _ = r.Subscribe("c.1", record("skipped"))
	_, _ = r.Subscribe("a.3", record("fourth"))

	require.NoError(t, r.Publish("*.?", "ignored"))
	assert.Empty(t, order, "'?' is not a wildcard")

	require.NoError(t, r.Publish("[ab].*"))
	assert.Empty(t, order, "brackets are literal")

	require.NoError(t, r.Publish("*"))
	assert.Equal(t, []string{"first", "second", "third", "skipped", "fourth"}, order)

	order = nil
	_, _ = r.Subscribe("a.0", record("fifth"))
	for _, h := range r.Matching("a.*") {
		require.NoError(t, r.Publish(h.Channel()))
	}
	assert.Equal(t, []string{"first", "third", "fourth", "fifth"}, order)
}

func TestRegistry_Publish_Duplicates(t *testing.T) {
	r := New()
	cb := &counter{}

	_, err := r.Subscribe("/dup", cb)
	require.NoError(t, err)
	_, err = r.Subscribe("/dup", cb)
	require.NoError(t, err)

	require.NoError(t, r.Publish("/dup"))
	assert.Equal(t, 2, cb.Calls())
}

func TestRegistry_Unsubscribe_NoMatch(t *testing.T) {
	r := New()
	other := &counter{}
	_, err := r.Subscribe("/keep", other)
	require.NoError(t, err)

	assert.NoError(t, r.UnsubscribeChannel("/test/unsubscribe/3", &counter{}))
	assert.NoError(t, r.UnsubscribeChannel("/keep", &counter{}))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Unsubscribe_Republish(t *testing.T) {
	r := New()
	invoked := false
	a := NewFunc(func(args ...any) { invoked = true })
	c := "/test/unsubscribe/5"

	x, err := r.Subscribe(c, a)
	require.NoError(t, err)
	require.NoError(t, r.Publish(c))
	assert.True(t, invoked)

	invoked = false
	require.NoError(t, r.Unsubscribe(x))
	require.NoError(t, r.Publish(c))
	assert.False(t, invoked)

	_, err = r.Subscribe(c, a)
	require.NoError(t, err)
	require.NoError(t, r.Publish(c))
	assert.True(t, invoked)

	invoked = false
	require.NoError(t, r.UnsubscribeChannel(c, a))
	require.NoError(t, r.Publish(c))
	assert.False(t, invoked)
}

func TestRegistry_Unsubscribe_RemovesAllMatching(t *testing.T) {
	r := New()
	a := &counter{}
	b := &counter{}

	h, err := r.Subscribe("/x", a)
	require.NoError(t, err)
	_, _ = r.Subscribe("/x", a)
	_, _ = r.Subscribe("/x", b)
	_, _ = r.Subscribe("/y", a)

	require.NoError(t, r.Unsubscribe(h))
	require.Equal(t, 2, r.Len())

	require.NoError(t, r.Publish("*"))
	assert.Equal(t, 1, a.Calls(), "only the /y registration of a remains")
	assert.Equal(t, 1, b.Calls())

	// Removing again is a no-op
	assert.NoError(t, r.Unsubscribe(h))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Unsubscribe_ChannelIsLiteral(t *testing.T) {
	r := New()
	a := &counter{}
	_, _ = r.Subscribe("/x/1", a)
	_, _ = r.Subscribe("/x/*", a)

	require.NoError(t, r.UnsubscribeChannel("/x/*", a))

	subs := r.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, "/x/1", subs[0].Channel())
}

func TestRegistry_Unsubscribe_ValueCallbacks(t *testing.T) {
	r := New()

	_, err := r.Subscribe("/v", valueCallback{name: "v"})
	require.NoError(t, err)
	_, err = r.Subscribe("/v", valueCallback{name: "w"})
	require.NoError(t, err)

	// Comparable values compare by value.
	require.NoError(t, r.UnsubscribeChannel("/v", valueCallback{name: "v"}))
	subs := r.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, valueCallback{name: "w"}, subs[0].Callback())
}

// valueCallback is a comparable non-pointer callback.
type valueCallback struct{ name string }

func (valueCallback) Invoke(args ...any) error { return nil }

func TestRegistry_Unsubscribe_Invalid(t *testing.T) {
	var nilFunc *Func
	cb := &counter{}

	tests := []struct {
		name string
		call func(r *Registry) error
	}{
		{"nil handle", func(r *Registry) error { return r.Unsubscribe(nil) }},
		{"zero handle", func(r *Registry) error { return r.Unsubscribe(&Handle{}) }},
		{"handle without callback", func(r *Registry) error { return r.Unsubscribe(&Handle{channel: "/a"}) }},
		{"handle without channel", func(r *Registry) error { return r.Unsubscribe(&Handle{callback: cb}) }},
		{"empty channel", func(r *Registry) error { return r.UnsubscribeChannel("", cb) }},
		{"nil callback", func(r *Registry) error { return r.UnsubscribeChannel("/a", nil) }},
		{"typed nil callback", func(r *Registry) error { return r.UnsubscribeChannel("/a", nilFunc) }},
		{"not comparable", func(r *Registry) error { return r.UnsubscribeChannel("/a", sliceCallback{}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			_, err := r.Subscribe("/a", cb)
			require.NoError(t, err)

			err = tt.call(r)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Equal(t, 1, r.Len())
		})
	}
}

func TestRegistry_Publish_SnapshotAdd(t *testing.T) {
	r := New()
	late := &counter{}

	_, err := r.Subscribe("/s", NewFunc(func(args ...any) {
		_, _ = r.Subscribe("/s", late)
	}))
	require.NoError(t, err)

	require.NoError(t, r.Publish("/s"))
	assert.Equal(t, 0, late.Calls(), "added during publish must not receive it")

	require.NoError(t, r.Publish("/s"))
	assert.Equal(t, 1, late.Calls())
}

func TestRegistry_Publish_SnapshotRemove(t *testing.T) {
	r := New()
	victim := &counter{}

	_, err := r.Subscribe("/s", NewFunc(func(args ...any) {
		_ = r.UnsubscribeChannel("/s", victim)
	}))
	require.NoError(t, err)
	_, err = r.Subscribe("/s", victim)
	require.NoError(t, err)

	require.NoError(t, r.Publish("/s"))
	assert.Equal(t, 1, victim.Calls(), "removed during publish still receives it")

	require.NoError(t, r.Publish("/s"))
	assert.Equal(t, 1, victim.Calls())
}

func TestRegistry_Publish_Reentrant(t *testing.T) {
	r := New()
	var order []string

	_, _ = r.Subscribe("/outer", NewFunc(func(args ...any) {
		order = append(order, "outer-1 start")
		_ = r.Publish("/inner")
		order = append(order, "outer-1 end")
	}))
	_, _ = r.Subscribe("/outer", NewFunc(func(args ...any) {
		order = append(order, "outer-2")
	}))
	_, _ = r.Subscribe("/inner", NewFunc(func(args ...any) {
		order = append(order, "inner")
	}))

	require.NoError(t, r.Publish("/outer"))
	assert.Equal(t, []string{"outer-1 start", "inner", "outer-1 end", "outer-2"}, order)
}

func TestRegistry_Publish_IsolatesFailures(t *testing.T) {
	r := New()
	boom := errors.New("boom")
	after := &counter{}

	_, _ = r.Subscribe("/f", NewFuncE(func(args ...any) error { return boom }))
	_, _ = r.Subscribe("/f", NewFunc(func(args ...any) { panic("kaboom") }))
	_, _ = r.Subscribe("/f", after)

	err := r.Publish("/f", 1)
	require.Error(t, err)
	assert.Equal(t, 1, after.Calls(), "later subscribers still receive the message")

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrCallbackPanic)

	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, "/f", cbErr.Channel)
	assert.Equal(t, "/f", cbErr.Subject)
	assert.NotEmpty(t, cbErr.HandleID)

	stats := r.Stats()
	assert.Equal(t, uint64(3), stats.Dispatch.Dispatched)
	assert.Equal(t, uint64(1), stats.Dispatch.Failed)
	assert.Equal(t, uint64(1), stats.Dispatch.Panicked)
}

func TestRegistry_Publish_AbortPolicy(t *testing.T) {
	r := New(WithFailurePolicy(FailureAbort))
	boom := errors.New("boom")
	after := &counter{}

	_, _ = r.Subscribe("/f", NewFuncE(func(args ...any) error { return boom }))
	_, _ = r.Subscribe("/f", after)

	err := r.Publish("/f")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, after.Calls())
	assert.Equal(t, FailureAbort, r.FailurePolicy())
}

func TestRegistry_CustomWildcard(t *testing.T) {
	r := New(WithWildcard('#'))
	cb := &counter{}
	_, _ = r.Subscribe("nav.click", cb)
	_, _ = r.Subscribe("nav.*", cb)

	require.NoError(t, r.Publish("nav.#"))
	assert.Equal(t, 2, cb.Calls())

	require.NoError(t, r.Publish("nav.*"))
	assert.Equal(t, 3, cb.Calls(), "'*' is literal under '#'")
	assert.Equal(t, '#', r.Wildcard())
}

func TestRegistry_InvalidWildcardIgnored(t *testing.T) {
	r := New(WithWildcard(0))
	assert.Equal(t, '*', r.Wildcard())
}

func TestRegistry_PatternCacheDisabled(t *testing.T) {
	r := New(WithPatternCacheSize(0))
	cb := &counter{}
	_, _ = r.Subscribe("a.b", cb)

	require.NoError(t, r.Publish("a.*"))
	require.NoError(t, r.Publish("a.*"))
	assert.Equal(t, 2, cb.Calls())
}

func TestRegistry_Clear(t *testing.T) {
	r := New()
	cb := &counter{}
	_, _ = r.Subscribe("/a", cb)
	_, _ = r.Subscribe("/b", cb)

	assert.Equal(t, 2, r.Clear())
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Subscriptions())

	require.NoError(t, r.Publish("*"))
	assert.Equal(t, 0, cb.Calls())
}

func TestRegistry_Stats(t *testing.T) {
	r := New()
	cb := &counter{}
	_, _ = r.Subscribe("/a", cb)

	_ = r.Publish("/a")
	_ = r.Publish("/b")

	stats := r.Stats()
	assert.Equal(t, 1, stats.Subscriptions)
	assert.Equal(t, uint64(2), stats.Publishes)
	assert.Equal(t, uint64(1), stats.Dispatch.Dispatched)
	assert.Equal(t, uint64(1), stats.Dispatch.Succeeded)
}

func TestRegistry_Concurrent(t *testing.T) {
	r := New()
	cb := &counter{}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h, err := r.Subscribe("/c", cb)
				assert.NoError(t, err)
				assert.NoError(t, r.Publish("/c"))
				assert.NoError(t, r.Publish("/*"))
				_ = r.Matching("/c")
				if j%2 == 0 {
					assert.NoError(t, r.Unsubscribe(h))
				}
			}
		}()
	}
	wg.Wait()

	assert.Greater(t, cb.Calls(), 0)
}

func TestFailurePolicy_Parse(t *testing.T) {
	tests := []struct {
		in      string
		want    FailurePolicy
		wantErr bool
	}{
		{"isolate", FailureIsolate, false},
		{"", FailureIsolate, false},
		{"abort", FailureAbort, false},
		{"explode", FailureIsolate, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFailurePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" {
				assert.Equal(t, tt.in, got.String())
			}
		})
	}
}
