package hooks

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/loom/internal/attrstore"
	"github.com/vk/loom/internal/ctxlog"
	"github.com/vk/loom/internal/diag"
	"github.com/vk/loom/internal/model"
)

// Dispatcher is the macro-dispatch capability of the evaluation engine,
// consumed as an external collaborator.
type Dispatcher interface {
	// Dispatch resolves (module, function/arity) as a user-level callable
	// and invokes it. The third result is false when the call cannot be
	// resolved; the engine then falls back to ExpandEval.
	Dispatch(ctx context.Context, module string, fa model.FA, args []cty.Value, env *model.Env) (cty.Value, *model.Env, bool, error)

	// ExpandEval evaluates the expanded form of the call directly.
	ExpandEval(ctx context.Context, module string, fa model.FA, args []cty.Value, env *model.Env) (cty.Value, *model.Env, error)
}

// Ref is one registered hook target.
type Ref struct {
	Module   string
	Function string
	SrcRange hcl.Range
}

// Engine drives hook execution for one compilation.
type Engine struct {
	dispatcher Dispatcher
	phase      Phase

	// firing guards against on-definition self-triggering: while a hook
	// runs for a definition, newly registered on-definition hooks only
	// apply to later definitions.
	firing bool
}

// NewEngine creates a hook engine in the Evaluating phase.
func NewEngine(dispatcher Dispatcher) *Engine {
	return &Engine{dispatcher: dispatcher, phase: PhaseEvaluating}
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Advance moves the compilation to the next lifecycle phase. Phases only
// move forward; a backwards transition is a programmer error.
func (e *Engine) Advance(to Phase) error {
	if to < e.phase {
		return fmt.Errorf("invalid phase transition %s -> %s", e.phase, to)
	}
	e.phase = to
	return nil
}

// RefsFromEntries parses hook registrations out of accumulated attribute
// entries. Each value is a two-element tuple of (module, function) strings.
func RefsFromEntries(entries []attrstore.Entry) ([]Ref, error) {
	refs := make([]Ref, 0, len(entries))
	for _, entry := range entries {
		v := entry.Value
		if !v.Type().IsTupleType() || v.LengthInt() != 2 {
			return nil, fmt.Errorf("invalid hook registration: expected (module, function) pair, got %s", v.Type().FriendlyName())
		}
		elems := v.AsValueSlice()
		if elems[0].Type() != cty.String || elems[1].Type() != cty.String {
			return nil, fmt.Errorf("invalid hook registration: module and function must be strings")
		}
		refs = append(refs, Ref{
			Module:   elems[0].AsString(),
			Function: elems[1].AsString(),
			SrcRange: entry.SrcRange,
		})
	}
	return refs, nil
}

// RunOnDefinition fires the currently registered on-definition hooks for one
// new definition. The hook list is snapshotted first: a hook cannot trigger
// itself for the definition it is reacting to.
func (e *Engine) RunOnDefinition(ctx context.Context, attrs *attrstore.Store, moduleName string, kind model.DefKind, fa model.FA, env *model.Env) error {
	if e.phase != PhaseEvaluating {
		return fmt.Errorf("on-definition hooks can only fire during %s, not %s", PhaseEvaluating, e.phase)
	}
	if e.firing {
		return nil
	}

	refs, err := RefsFromEntries(attrs.EntriesReversed(attrstore.KeyOnDefinition))
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}

	e.firing = true
	defer func() { e.firing = false }()

	args := []cty.Value{
		cty.StringVal(moduleName),
		cty.StringVal(kind.String()),
		cty.StringVal(fa.Name),
		cty.NumberIntVal(int64(fa.Arity)),
	}
	for _, ref := range refs {
		if _, _, err := e.call(ctx, ref, args, env); err != nil {
			return err
		}
	}
	return nil
}

// RunBefore fires the before-compile hooks in reverse-registration order.
// Each hook receives the evaluation environment and returns a possibly
// updated one, which is threaded into the next hook. Hooks may still add
// definitions during this phase.
func (e *Engine) RunBefore(ctx context.Context, attrs *attrstore.Store, moduleName string, env *model.Env) (*model.Env, error) {
	if err := e.Advance(PhaseBeforeHooks); err != nil {
		return env, err
	}

	refs, err := RefsFromEntries(attrs.EntriesReversed(attrstore.KeyBeforeCompile))
	if err != nil {
		return env, err
	}

	logger := ctxlog.FromContext(ctx)
	args := []cty.Value{cty.StringVal(moduleName)}
	for _, ref := range refs {
		logger.Debug("Running before-compile hook.", "module", moduleName, "hook", ref.Module+"."+ref.Function)
		_, updated, err := e.call(ctx, ref, args, env)
		if err != nil {
			return env, err
		}
		if updated != nil {
			env = updated
		}
	}
	return env, nil
}

// RunAfter fires the after-compile hooks in reverse-registration order. Each
// hook receives the final environment and the completed, chunk-augmented
// artifact. The artifact is immutable by now; a hook failure becomes the
// compilation's failure, but teardown still runs in the caller.
func (e *Engine) RunAfter(ctx context.Context, attrs *attrstore.Store, moduleName string, env *model.Env, binary []byte) error {
	if err := e.Advance(PhaseAfterHooks); err != nil {
		return err
	}

	refs, err := RefsFromEntries(attrs.EntriesReversed(attrstore.KeyAfterCompile))
	if err != nil {
		return err
	}

	logger := ctxlog.FromContext(ctx)
	args := []cty.Value{
		cty.StringVal(moduleName),
		cty.StringVal(base64.StdEncoding.EncodeToString(binary)),
	}
	for _, ref := range refs {
		logger.Debug("Running after-compile hook.", "module", moduleName, "hook", ref.Module+"."+ref.Function)
		if _, _, err := e.call(ctx, ref, args, env); err != nil {
			return err
		}
	}
	return nil
}

// call invokes one hook through the dispatcher, falling back to direct
// evaluation of the expanded form when the target is not a user-level
// callable. Any error from either path is annotated with the hook identity
// and call site, with evaluator-internal frames pruned.
func (e *Engine) call(ctx context.Context, ref Ref, args []cty.Value, env *model.Env) (cty.Value, *model.Env, error) {
	fa := model.FA{Name: ref.Function, Arity: len(args)}

	value, updated, ok, err := e.dispatcher.Dispatch(ctx, ref.Module, fa, args, env)
	if err != nil {
		return cty.NilVal, nil, diag.AnnotateCall(err, ref.Module, ref.Function, fa.Arity, ref.SrcRange)
	}
	if ok {
		return value, updated, nil
	}

	value, updated, err = e.dispatcher.ExpandEval(ctx, ref.Module, fa, args, env)
	if err != nil {
		return cty.NilVal, nil, diag.AnnotateCall(err, ref.Module, ref.Function, fa.Arity, ref.SrcRange)
	}
	return value, updated, nil
}
