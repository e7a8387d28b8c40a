// Package localeval provides the in-process implementation of the evaluator
// and macro-dispatch collaborators.
//
// The compile pipeline only depends on the Evaluator and Dispatcher
// interfaces; a full language runtime would sit behind them. This local
// implementation evaluates HCL expressions against the environment bindings
// plus a small standard function table, and dispatches callable lookups
// against the Go handler registry. It is what the CLI and the tests wire in.
package localeval

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/vk/loom/internal/diag"
	"github.com/vk/loom/internal/handlers"
	"github.com/vk/loom/internal/model"
)

// stdFunctions is the function table available to every expression.
var stdFunctions = map[string]function.Function{
	"upper":  stdlib.UpperFunc,
	"lower":  stdlib.LowerFunc,
	"format": stdlib.FormatFunc,
	"concat": stdlib.ConcatFunc,
	"length": stdlib.LengthFunc,
	"max":    stdlib.MaxFunc,
	"min":    stdlib.MinFunc,
}

// Eval implements the Evaluator and Dispatcher collaborators in-process.
type Eval struct {
	handlers *handlers.Handlers
}

// New creates a local evaluator dispatching against the given handler
// registry.
func New(h *handlers.Handlers) *Eval {
	return &Eval{handlers: h}
}

// Evaluate evaluates one expression against the environment's bindings.
func (e *Eval) Evaluate(ctx context.Context, expr hcl.Expression, env *model.Env) (cty.Value, *model.Env, error) {
	evalCtx := env.EvalContext()
	evalCtx.Functions = stdFunctions

	value, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, env, fmt.Errorf("expression evaluation failed: %s", diags.Error())
	}
	return value, env, nil
}

// Dispatch resolves (module, function/arity) against the Go handler
// registry. The third result is false when no handler is registered, which
// sends the hook engine down the expanded-form fallback path.
func (e *Eval) Dispatch(ctx context.Context, module string, fa model.FA, args []cty.Value, env *model.Env) (cty.Value, *model.Env, bool, error) {
	fn, ok := e.handlers.Resolve(module, fa)
	if !ok {
		return cty.NilVal, env, false, nil
	}
	value, updated, err := fn(ctx, args, env)
	if err != nil {
		return cty.NilVal, env, true, err
	}
	return value, updated, true, nil
}

// ExpandEval evaluates the expanded form of a call that could not be
// resolved as a user-level callable. With no registered handler there is
// nothing to expand to: the reference is undefined. When the target module
// is itself on the compiling stack, the raw undefined-reference error is
// reported so the compiler can rewrite it into its function-not-available
// diagnostic.
func (e *Eval) ExpandEval(ctx context.Context, module string, fa model.FA, args []cty.Value, env *model.Env) (cty.Value, *model.Env, error) {
	if env.OnStack(module) {
		return cty.NilVal, env, &diag.UndefinedError{Module: module, Function: fa.Name, Arity: fa.Arity}
	}
	return cty.NilVal, env, fmt.Errorf("undefined function %s.%s", module, fa)
}
