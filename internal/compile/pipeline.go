package compile

import (
	"context"
	"errors"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/loom/internal/artifact"
	"github.com/vk/loom/internal/assemble"
	"github.com/vk/loom/internal/ctxlog"
	"github.com/vk/loom/internal/diag"
	"github.com/vk/loom/internal/hooks"
	"github.com/vk/loom/internal/model"
	"github.com/vk/loom/internal/registry"
)

// CompileModule runs the full pipeline for one module definition and returns
// the body's result value together with the loaded artifact binary.
//
// The registry entry is torn down on every exit path. Errors from any phase
// abort the compilation and propagate to the caller after cleanup.
func (c *Compiler) CompileModule(ctx context.Context, mod *model.Module, env *model.Env) (cty.Value, []byte, error) {
	logger := ctxlog.FromContext(ctx).With("module", mod.Name)

	if env == nil {
		env = model.NewEnv(nil)
	}

	entry, err := c.registry.Open(ctx, mod.Name, mod.Location, registry.OpenOptions{
		IgnoreModuleConflict: c.opts.IgnoreModuleConflict,
		Warnings:             c.warnings,
	})
	if err != nil {
		return cty.NilVal, nil, err
	}
	defer c.registry.Close(entry)

	env = env.Push(mod.Name)
	ctx = WithEntry(ctx, entry)
	engine := hooks.NewEngine(c.dispatcher)

	logger.Debug("Evaluating module body.", "forms", len(mod.Forms))
	result, env, err := c.evaluateBody(ctx, entry, engine, mod, env)
	if err != nil {
		return cty.NilVal, nil, c.fail(mod, err)
	}

	env, err = engine.RunBefore(ctx, entry.Attrs, mod.Name, env)
	if err != nil {
		return cty.NilVal, nil, c.fail(mod, err)
	}
	entry.Defs.Freeze()

	if err := engine.Advance(hooks.PhaseAssembling); err != nil {
		return cty.NilVal, nil, c.fail(mod, err)
	}
	assembled, err := assemble.Assemble(ctx, mod.Name, mod.Location, entry.Defs, entry.Attrs,
		assemble.Options{Docs: c.opts.Docs}, c.warnings)
	if err != nil {
		return cty.NilVal, nil, c.fail(mod, err)
	}

	if err := engine.Advance(hooks.PhaseBuilding); err != nil {
		return cty.NilVal, nil, c.fail(mod, err)
	}
	binary, err := artifact.Build(assembled.Chunks, artifact.BuildOptions{
		Flags:   assembled.Flags,
		Subject: mod.Location,
	})
	if err != nil {
		return cty.NilVal, nil, c.fail(mod, err)
	}

	if assembled.DocsPayload != nil {
		binary, err = artifact.WithChunk(binary, artifact.ChunkDocs, assembled.DocsPayload)
		if err != nil {
			return cty.NilVal, nil, c.fail(mod, err)
		}
	}

	// The artifact is immutable from here on.
	if err := engine.RunAfter(ctx, entry.Attrs, mod.Name, env, binary); err != nil {
		return cty.NilVal, nil, c.fail(mod, err)
	}

	if _, err := c.loader.Load(ctx, mod.Name, binary); err != nil {
		derr := diag.Newf(diag.KindBuildError, mod.Location, "loading module %s failed", mod.Name)
		derr.Err = err
		return cty.NilVal, nil, derr
	}

	if err := engine.Advance(hooks.PhaseClosed); err != nil {
		return cty.NilVal, nil, c.fail(mod, err)
	}
	logger.Debug("Module compiled and loaded.", "bytes", len(binary))
	return result, binary, nil
}

// fail normalizes an error before it propagates: undefined references
// against the module being compiled become FunctionNotAvailable, and errors
// without a structured kind are wrapped with the module's location.
func (c *Compiler) fail(mod *model.Module, err error) error {
	err = diag.NormalizeUndefined(err, mod.Name)
	var derr *diag.Error
	if errors.As(err, &derr) {
		return err
	}
	wrapped := diag.Newf(diag.KindEvalError, mod.Location, "compilation of %s failed", mod.Name)
	wrapped.Module = mod.Name
	wrapped.Err = err
	return wrapped
}
