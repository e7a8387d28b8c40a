// Package tracker is a compiled-in hook module. Modules that register its
// callables as lifecycle hooks get their definition activity logged through
// the process logger.
package tracker

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/loom/internal/compile"
	"github.com/vk/loom/internal/ctxlog"
	"github.com/vk/loom/internal/handlers"
	"github.com/vk/loom/internal/model"
)

// Module implements the handlers.Module interface for this package.
type Module struct{}

// OnDefinition is the handler for on_definition hooks. It receives the
// module, kind, name, and arity of the definition that just landed.
func OnDefinition(ctx context.Context, args []cty.Value, env *model.Env) (cty.Value, *model.Env, error) {
	logger := ctxlog.FromContext(ctx)
	if len(args) != 4 {
		return cty.NilVal, env, fmt.Errorf("on_definition expects 4 arguments, got %d", len(args))
	}
	logger.Info("Definition recorded.",
		"module", args[0].AsString(),
		"kind", args[1].AsString(),
		"name", args[2].AsString(),
		"arity", args[3].AsBigFloat().String(),
	)
	return cty.True, env, nil
}

// BeforeCompile is the handler for before_compile hooks. It reports the size
// of the definitions table while it is still open for additions.
func BeforeCompile(ctx context.Context, args []cty.Value, env *model.Env) (cty.Value, *model.Env, error) {
	logger := ctxlog.FromContext(ctx)
	if entry := compile.EntryFromContext(ctx); entry != nil {
		logger.Info("Module about to be compiled.",
			"module", entry.Name,
			"definitions", entry.Defs.Len(),
		)
	}
	return cty.True, env, nil
}

// AfterCompile is the handler for after_compile hooks. It receives the module
// name and the finished artifact binary, base64-encoded.
func AfterCompile(ctx context.Context, args []cty.Value, env *model.Env) (cty.Value, *model.Env, error) {
	logger := ctxlog.FromContext(ctx)
	if len(args) != 2 {
		return cty.NilVal, env, fmt.Errorf("after_compile expects 2 arguments, got %d", len(args))
	}
	binary, err := base64.StdEncoding.DecodeString(args[1].AsString())
	if err != nil {
		return cty.NilVal, env, fmt.Errorf("after_compile received a malformed artifact: %w", err)
	}
	logger.Info("Module compiled.", "module", args[0].AsString(), "artifact_bytes", len(binary))
	return cty.True, env, nil
}

// Register registers the hook handlers with the engine.
func (m *Module) Register(h *handlers.Handlers) {
	h.Register("tracker", model.FA{Name: "on_definition", Arity: 4}, OnDefinition)
	h.Register("tracker", model.FA{Name: "before_compile", Arity: 1}, BeforeCompile)
	h.Register("tracker", model.FA{Name: "after_compile", Arity: 2}, AfterCompile)
}
