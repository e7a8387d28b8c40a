// Package handlers holds the registry of Go-implemented callables that the
// local evaluator can dispatch hook calls to.
//
// The registry maps a "module.function/arity" identity to a compiled Go
// function, the bridge between names appearing in module bodies and the host
// code that implements them. Registration is a startup-time concern:
// duplicate registration is a programmer error and panics.
package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/loom/internal/model"
)

// Callable is a Go-implemented function reachable from module bodies and
// hooks. It receives the evaluated arguments and the current environment and
// returns a value plus a possibly-updated environment.
type Callable func(ctx context.Context, args []cty.Value, env *model.Env) (cty.Value, *model.Env, error)

// Module is a compiled-in collection of callables that registers itself at
// startup.
type Module interface {
	Register(h *Handlers)
}

// Handlers is the callable registry for one compiler instance.
type Handlers struct {
	all map[string]Callable
}

// New creates an empty handler registry.
func New() *Handlers {
	return &Handlers{all: make(map[string]Callable)}
}

func key(module string, fa model.FA) string {
	return fmt.Sprintf("%s.%s", module, fa)
}

// Register adds a callable under the given module and function identity.
func (h *Handlers) Register(module string, fa model.FA, fn Callable) {
	k := key(module, fa)
	if _, exists := h.all[k]; exists {
		panic(fmt.Sprintf("handler %q already registered", k))
	}
	slog.Debug("Registering callable handler.", "key", k)
	h.all[k] = fn
}

// Resolve looks up a callable by module and function identity.
func (h *Handlers) Resolve(module string, fa model.FA) (Callable, bool) {
	fn, ok := h.all[key(module, fa)]
	return fn, ok
}

// Len returns the number of registered callables.
func (h *Handlers) Len() int {
	return len(h.all)
}
