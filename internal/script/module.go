package script

import (
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/pubsub/internal/pubsub"
)

// GlobalName is the name of the Lua table holding the pubsub functions.
const GlobalName = "pubsub"

// Module exposes a registry to one Lua state.
type Module struct {
	reg    *pubsub.Registry
	logger *zap.Logger
	L      *lua.LState

	mu        sync.Mutex
	callbacks map[*lua.LFunction]*luaCallback
}

// NewModule creates a module publishing to reg.
func NewModule(reg *pubsub.Registry, logger *zap.Logger) *Module {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Module{
		reg:       reg,
		logger:    logger,
		callbacks: make(map[*lua.LFunction]*luaCallback),
	}
}

// Register installs the pubsub table into L.
func (m *Module) Register(L *lua.LState) {
	m.L = L

	mod := L.NewTable()
	L.SetField(mod, "subscribe", L.NewFunction(m.subscribe))
	L.SetField(mod, "unsubscribe", L.NewFunction(m.unsubscribe))
	L.SetField(mod, "publish", L.NewFunction(m.publish))
	L.SetGlobal(GlobalName, mod)
}

// Cleanup removes every registration made through this module.
func (m *Module) Cleanup() {
	m.mu.Lock()
	owned := m.callbacks
	m.callbacks = make(map[*lua.LFunction]*luaCallback)
	m.mu.Unlock()

	for _, h := range m.reg.Subscriptions() {
		cb, ok := h.Callback().(*luaCallback)
		if ok && owned[cb.fn] == cb {
			_ = m.reg.Unsubscribe(h)
		}
	}
}

// callbackFor returns the callback for fn, creating it on first use.
func (m *Module) callbackFor(fn *lua.LFunction) *luaCallback {
	m.mu.Lock()
	defer m.mu.Unlock()

	cb, ok := m.callbacks[fn]
	if !ok {
		cb = &luaCallback{module: m, fn: fn}
		m.callbacks[fn] = cb
	}
	return cb
}

// lookup returns the callback for fn if it was ever subscribed.
func (m *Module) lookup(fn *lua.LFunction) (*luaCallback, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cb, ok := m.callbacks[fn]
	return cb, ok
}

// release forgets cb once the registry holds no registration of it.
func (m *Module) release(cb *luaCallback) {
	for _, h := range m.reg.Subscriptions() {
		if h.Callback() == pubsub.Callback(cb) {
			return
		}
	}

	m.mu.Lock()
	if m.callbacks[cb.fn] == cb {
		delete(m.callbacks, cb.fn)
	}
	m.mu.Unlock()
}

// subscribe(channel, fn) -> handle
func (m *Module) subscribe(L *lua.LState) int {
	channel, ok := L.Get(1).(lua.LString)
	if !ok || channel == "" {
		L.RaiseError("subscribe: invalid argument: channel must be a non-empty string, got %s", L.Get(1).Type())
		return 0
	}
	fn, ok := L.Get(2).(*lua.LFunction)
	if !ok {
		L.RaiseError("subscribe: invalid argument: callback must be a function, got %s", L.Get(2).Type())
		return 0
	}

	h, err := m.reg.Subscribe(string(channel), m.callbackFor(fn))
	if err != nil {
		L.RaiseError("subscribe: %v", err)
		return 0
	}

	handle := L.NewTable()
	handle.RawSetString("id", lua.LString(h.ID()))
	handle.RawSetString("channel", channel)
	handle.RawSetString("callback", fn)
	L.Push(handle)
	return 1
}

// unsubscribe(handle) or unsubscribe(channel, fn)
func (m *Module) unsubscribe(L *lua.LState) int {
	var (
		channel lua.LString
		fn      *lua.LFunction
		ok      bool
	)

	switch first := L.Get(1).(type) {
	case *lua.LTable:
		channel, ok = first.RawGetString("channel").(lua.LString)
		if !ok || channel == "" {
			L.RaiseError("unsubscribe: invalid argument: handle has no channel")
			return 0
		}
		fn, ok = first.RawGetString("callback").(*lua.LFunction)
		if !ok {
			L.RaiseError("unsubscribe: invalid argument: handle has no callback function")
			return 0
		}

	case lua.LString:
		channel = first
		if channel == "" {
			L.RaiseError("unsubscribe: invalid argument: channel must be a non-empty string")
			return 0
		}
		fn, ok = L.Get(2).(*lua.LFunction)
		if !ok {
			L.RaiseError("unsubscribe: invalid argument: callback must be a function, got %s", L.Get(2).Type())
			return 0
		}

	default:
		L.RaiseError("unsubscribe: invalid argument: expected a handle table or a channel, got %s", L.Get(1).Type())
		return 0
	}

	cb, known := m.lookup(fn)
	if !known {
		return 0
	}
	if err := m.reg.UnsubscribeChannel(string(channel), cb); err != nil {
		L.RaiseError("unsubscribe: %v", err)
		return 0
	}
	m.release(cb)
	return 0
}

// publish(channel, ...) -> true | false, message
func (m *Module) publish(L *lua.LState) int {
	channel, ok := L.Get(1).(lua.LString)
	if !ok {
		m.logger.Debug("publish ignored", zap.String("type", L.Get(1).Type().String()))
		L.Push(lua.LTrue)
		return 1
	}

	top := L.GetTop()
	args := make([]any, 0, max(top-1, 0))
	for i := 2; i <= top; i++ {
		args = append(args, L.Get(i))
	}

	if err := m.reg.Publish(string(channel), args...); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// luaCallback invokes a Lua function. One exists per function per module, so
// interface equality matches Lua function identity.
type luaCallback struct {
	module *Module
	fn     *lua.LFunction
}

// Invoke calls the function in protected mode on a new thread of the
// script's state. A Lua error becomes the returned error and leaves the
// script's own stack untouched.
func (c *luaCallback) Invoke(args ...any) error {
	co, cancel := c.module.L.NewThread()
	if cancel != nil {
		defer cancel()
	}

	co.Push(c.fn)
	for _, a := range args {
		co.Push(toLua(co, a))
	}
	return co.PCall(len(args), 0, nil)
}
