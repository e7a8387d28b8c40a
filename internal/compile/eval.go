package compile

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/loom/internal/attrstore"
	"github.com/vk/loom/internal/diag"
	"github.com/vk/loom/internal/hooks"
	"github.com/vk/loom/internal/model"
	"github.com/vk/loom/internal/registry"
)

// evaluateBody walks the module's forms in order, populating the entry's
// attribute store and definitions table. The value of the last expression
// form becomes the compilation's result value.
func (c *Compiler) evaluateBody(ctx context.Context, entry *registry.Entry, engine *hooks.Engine, mod *model.Module, env *model.Env) (cty.Value, *model.Env, error) {
	result := cty.NullVal(cty.DynamicPseudoType)

	for _, form := range mod.Forms {
		switch f := form.(type) {
		case *model.DeclareAttrForm:
			if err := entry.Attrs.Declare(f.Key, f.Accumulate, f.Persist); err != nil {
				return cty.NilVal, env, formError(f, err)
			}

		case *model.AttrForm:
			value, updated, err := c.evaluator.Evaluate(ctx, f.Value, env)
			if err != nil {
				return cty.NilVal, env, formError(f, err)
			}
			env = updated
			if err := entry.Attrs.Put(f.Key, value, f.SrcRange); err != nil {
				return cty.NilVal, env, formError(f, err)
			}

		case *model.DefineForm:
			fa := model.FA{Name: f.Name, Arity: f.Arity}
			_, isNew, err := entry.Defs.Define(fa, f.Kind, f.Clause, f.SrcRange)
			if err != nil {
				return cty.NilVal, env, err
			}
			if doc, ok := entry.Attrs.Get(attrstore.KeyDoc); ok && doc.Type() == cty.String {
				entry.Defs.AttachDoc(fa, doc.AsString())
				entry.Attrs.Delete(attrstore.KeyDoc)
			}
			if isNew {
				if err := engine.RunOnDefinition(ctx, entry.Attrs, mod.Name, f.Kind, fa, env); err != nil {
					return cty.NilVal, env, err
				}
			}

		case *model.SpecForm:
			key := attrstore.KeySpec
			switch f.Kind {
			case model.SpecCallback:
				key = attrstore.KeyCallback
			case model.SpecMacroCallback:
				key = attrstore.KeyMacroCallback
			}
			value := cty.ObjectVal(map[string]cty.Value{
				"name":      cty.StringVal(f.Target.Name),
				"arity":     cty.NumberIntVal(int64(f.Target.Arity)),
				"signature": cty.StringVal(f.Signature),
			})
			if err := entry.Attrs.Put(key, value, f.SrcRange); err != nil {
				return cty.NilVal, env, formError(f, err)
			}

		case *model.TypeForm:
			fields := map[string]cty.Value{
				"name":       cty.StringVal(f.Name),
				"arity":      cty.NumberIntVal(int64(f.Arity)),
				"opaque":     cty.BoolVal(f.Opaque),
				"definition": cty.StringVal(f.Definition),
			}
			if doc, ok := entry.Attrs.Get(attrstore.KeyTypedoc); ok && doc.Type() == cty.String {
				fields["doc"] = doc
				entry.Attrs.Delete(attrstore.KeyTypedoc)
			}
			if err := entry.Attrs.Put(attrstore.KeyType, cty.ObjectVal(fields), f.SrcRange); err != nil {
				return cty.NilVal, env, formError(f, err)
			}

		case *model.ExprForm:
			value, updated, err := c.evaluator.Evaluate(ctx, f.Expr, env)
			if err != nil {
				return cty.NilVal, env, formError(f, err)
			}
			env = updated
			result = value

		case *model.NestedModuleForm:
			if _, _, err := c.CompileModule(ctx, f.Module, env); err != nil {
				return cty.NilVal, env, err
			}

		default:
			return cty.NilVal, env, fmt.Errorf("unknown body form %T", form)
		}
	}

	return result, env, nil
}

// formError attaches the form's source range to a plain error.
func formError(form model.Form, err error) error {
	derr := diag.Newf(diag.KindEvalError, form.Range(), "%v", err)
	derr.Err = err
	return derr
}
