package hooks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/loom/internal/attrstore"
	"github.com/vk/loom/internal/ctxlog"
	"github.com/vk/loom/internal/diag"
	"github.com/vk/loom/internal/model"
)

// recordedCall is one dispatched hook invocation.
type recordedCall struct {
	Module string
	FA     model.FA
	Args   []cty.Value
}

// fakeDispatcher records calls and lets tests script failures and fallbacks.
type fakeDispatcher struct {
	calls      []recordedCall
	failOn     string
	unresolved map[string]bool
	expandErr  error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, module string, fa model.FA, args []cty.Value, env *model.Env) (cty.Value, *model.Env, bool, error) {
	if d.unresolved[module+"."+fa.Name] {
		return cty.NilVal, env, false, nil
	}
	d.calls = append(d.calls, recordedCall{Module: module, FA: fa, Args: args})
	if d.failOn == module+"."+fa.Name {
		return cty.NilVal, env, true, errors.New("hook failed")
	}
	return cty.True, env, true, nil
}

func (d *fakeDispatcher) ExpandEval(ctx context.Context, module string, fa model.FA, args []cty.Value, env *model.Env) (cty.Value, *model.Env, error) {
	d.calls = append(d.calls, recordedCall{Module: module, FA: fa, Args: args})
	if d.expandErr != nil {
		return cty.NilVal, env, d.expandErr
	}
	return cty.NullVal(cty.DynamicPseudoType), env, nil
}

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

func hookRef(module, function string) cty.Value {
	return cty.TupleVal([]cty.Value{cty.StringVal(module), cty.StringVal(function)})
}

func registerHook(t *testing.T, attrs *attrstore.Store, key, module, function string, line int) {
	t.Helper()
	require.NoError(t, attrs.Put(key, hookRef(module, function),
		hcl.Range{Filename: "test.loom", Start: hcl.Pos{Line: line}}))
}

func TestPhaseAdvance(t *testing.T) {
	e := NewEngine(&fakeDispatcher{})
	assert.Equal(t, PhaseEvaluating, e.Phase())

	require.NoError(t, e.Advance(PhaseAssembling))
	require.NoError(t, e.Advance(PhaseAssembling)) // same phase is fine
	require.NoError(t, e.Advance(PhaseClosed))

	err := e.Advance(PhaseBuilding)
	assert.ErrorContains(t, err, "invalid phase transition")
}

func TestRefsFromEntries(t *testing.T) {
	t.Run("valid pairs", func(t *testing.T) {
		entries := []attrstore.Entry{
			{Value: hookRef("a", "one")},
			{Value: hookRef("b", "two")},
		}
		refs, err := RefsFromEntries(entries)
		require.NoError(t, err)
		require.Len(t, refs, 2)
		assert.Equal(t, "a", refs[0].Module)
		assert.Equal(t, "two", refs[1].Function)
	})

	t.Run("wrong shape", func(t *testing.T) {
		_, err := RefsFromEntries([]attrstore.Entry{{Value: cty.StringVal("nope")}})
		assert.ErrorContains(t, err, "expected (module, function) pair")
	})

	t.Run("wrong element types", func(t *testing.T) {
		_, err := RefsFromEntries([]attrstore.Entry{
			{Value: cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.NumberIntVal(1)})},
		})
		assert.ErrorContains(t, err, "must be strings")
	})
}

func TestRunOnDefinition(t *testing.T) {
	t.Run("fires in reverse registration order with definition args", func(t *testing.T) {
		d := &fakeDispatcher{}
		e := NewEngine(d)
		attrs := attrstore.New()
		registerHook(t, attrs, attrstore.KeyOnDefinition, "hooks", "first", 1)
		registerHook(t, attrs, attrstore.KeyOnDefinition, "hooks", "second", 2)

		err := e.RunOnDefinition(testCtx(), attrs, "m", model.Defmacro, model.FA{Name: "unless", Arity: 2}, model.NewEnv(nil))
		require.NoError(t, err)

		require.Len(t, d.calls, 2)
		assert.Equal(t, "second", d.calls[0].FA.Name)
		assert.Equal(t, "first", d.calls[1].FA.Name)

		args := d.calls[0].Args
		require.Len(t, args, 4)
		assert.Equal(t, "m", args[0].AsString())
		assert.Equal(t, "defmacro", args[1].AsString())
		assert.Equal(t, "unless", args[2].AsString())
	})

	t.Run("no hooks is a no-op", func(t *testing.T) {
		d := &fakeDispatcher{}
		e := NewEngine(d)
		err := e.RunOnDefinition(testCtx(), attrstore.New(), "m", model.Def, model.FA{Name: "f"}, model.NewEnv(nil))
		require.NoError(t, err)
		assert.Empty(t, d.calls)
	})

	t.Run("only fires while evaluating", func(t *testing.T) {
		e := NewEngine(&fakeDispatcher{})
		require.NoError(t, e.Advance(PhaseAssembling))
		err := e.RunOnDefinition(testCtx(), attrstore.New(), "m", model.Def, model.FA{Name: "f"}, model.NewEnv(nil))
		assert.Error(t, err)
	})

	t.Run("hook failure propagates with annotation", func(t *testing.T) {
		d := &fakeDispatcher{failOn: "hooks.boom"}
		e := NewEngine(d)
		attrs := attrstore.New()
		registerHook(t, attrs, attrstore.KeyOnDefinition, "hooks", "boom", 1)

		err := e.RunOnDefinition(testCtx(), attrs, "m", model.Def, model.FA{Name: "f", Arity: 0}, model.NewEnv(nil))
		var derr *diag.Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "hooks", derr.Module)
		assert.Equal(t, "boom", derr.Function)
		assert.Len(t, derr.Frames, 2)
	})
}

func TestRunBefore(t *testing.T) {
	t.Run("reverse order and env threading", func(t *testing.T) {
		d := &fakeDispatcher{}
		e := NewEngine(d)
		attrs := attrstore.New()
		registerHook(t, attrs, attrstore.KeyBeforeCompile, "hooks", "first", 1)
		registerHook(t, attrs, attrstore.KeyBeforeCompile, "hooks", "second", 2)

		env, err := e.RunBefore(testCtx(), attrs, "m", model.NewEnv(nil))
		require.NoError(t, err)
		require.NotNil(t, env)
		assert.Equal(t, PhaseBeforeHooks, e.Phase())

		require.Len(t, d.calls, 2)
		assert.Equal(t, "second", d.calls[0].FA.Name)
		assert.Equal(t, "first", d.calls[1].FA.Name)
		require.Len(t, d.calls[0].Args, 1)
		assert.Equal(t, "m", d.calls[0].Args[0].AsString())
	})

	t.Run("unresolved hook falls back to expanded evaluation", func(t *testing.T) {
		d := &fakeDispatcher{unresolved: map[string]bool{"m.helper": true}}
		e := NewEngine(d)
		attrs := attrstore.New()
		registerHook(t, attrs, attrstore.KeyBeforeCompile, "m", "helper", 1)

		_, err := e.RunBefore(testCtx(), attrs, "m", model.NewEnv(nil))
		require.NoError(t, err)
		require.Len(t, d.calls, 1)
	})

	t.Run("expanded evaluation failure is annotated", func(t *testing.T) {
		d := &fakeDispatcher{
			unresolved: map[string]bool{"m.helper": true},
			expandErr:  &diag.UndefinedError{Module: "m", Function: "helper", Arity: 1},
		}
		e := NewEngine(d)
		attrs := attrstore.New()
		registerHook(t, attrs, attrstore.KeyBeforeCompile, "m", "helper", 7)

		_, err := e.RunBefore(testCtx(), attrs, "m", model.NewEnv(nil))
		var derr *diag.Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, diag.KindEvalError, derr.Kind)
		assert.Equal(t, 7, derr.Subject.Start.Line)

		var undef *diag.UndefinedError
		assert.ErrorAs(t, err, &undef)
	})
}

func TestRunAfter(t *testing.T) {
	d := &fakeDispatcher{}
	e := NewEngine(d)
	attrs := attrstore.New()
	registerHook(t, attrs, attrstore.KeyAfterCompile, "hooks", "done", 1)

	binary := []byte{0x01, 0x02, 0x03}
	err := e.RunAfter(testCtx(), attrs, "m", model.NewEnv(nil), binary)
	require.NoError(t, err)
	assert.Equal(t, PhaseAfterHooks, e.Phase())

	require.Len(t, d.calls, 1)
	args := d.calls[0].Args
	require.Len(t, args, 2)
	assert.Equal(t, "m", args[0].AsString())
	assert.Equal(t, "AQID", args[1].AsString())
}

func TestPhaseString(t *testing.T) {
	for phase, want := range map[Phase]string{
		PhaseEvaluating:  "Evaluating",
		PhaseBeforeHooks: "BeforeHooks",
		PhaseAssembling:  "Assembling",
		PhaseBuilding:    "Building",
		PhaseAfterHooks:  "AfterHooks",
		PhaseClosed:      "Closed",
	} {
		assert.Equal(t, want, phase.String(), fmt.Sprint(int(phase)))
	}
}
