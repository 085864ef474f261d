package script

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/pubsub/internal/pubsub"
)

// Runner executes Lua code in a sandboxed state wired to a registry.
//
// A Runner is not goroutine-safe beyond the mutex guarding its entry points;
// see the package documentation.
type Runner struct {
	mu     sync.Mutex
	L      *lua.LState
	module *Module
	out    io.Writer
	logger *zap.Logger
	closed bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithOutput sets where print writes. The default is os.Stdout.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner whose scripts use reg.
func NewRunner(reg *pubsub.Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		out:    os.Stdout,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(r.L)
	r.L.SetGlobal("print", r.L.NewFunction(r.print))

	r.module = NewModule(reg, r.logger)
	r.module.Register(r.L)

	return r
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	L.SetTop(0)

	// Not opened: io, os, debug and package. Base still installs loaders
	// that bypass that, so remove them.
	blocked := []string{
		"dofile",     // execute a file
		"loadfile",   // compile a file
		"load",       // compile a chunk
		"loadstring", // compile a string
		"require",    // load a module; no package library is opened
	}
	for _, name := range blocked {
		L.SetGlobal(name, lua.LNil)
	}
}

// print writes its arguments, tab separated, to the runner output.
func (r *Runner) print(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, top)
	for i := 1; i <= top; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(r.out, strings.Join(parts, "\t"))
	return 0
}

// RunFile executes the Lua file at path. Cancelling ctx stops the script.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	return r.run(ctx, path, func() error {
		return r.L.DoFile(path)
	})
}

// RunString executes Lua source. Cancelling ctx stops the script.
func (r *Runner) RunString(ctx context.Context, src string) error {
	return r.run(ctx, "<string>", func() error {
		return r.L.DoString(src)
	})
}

func (r *Runner) run(ctx context.Context, name string, fn func() error) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRunnerClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("lua panic: %v", p)
		}
	}()

	r.logger.Debug("running script", zap.String("source", name))
	if err := fn(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", name, ctxErr)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Close removes the script's subscriptions from the registry and closes the
// Lua state. It is safe to call Close multiple times.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	r.module.Cleanup()
	r.L.Close()
	return nil
}
