package engine

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/loom/internal/model"
	"github.com/vk/loom/internal/schema"
)

// TranslateModule converts one decoded module block into the compilation
// pipeline's form list. Forms are re-ordered by source position so that the
// body evaluates exactly as written, regardless of block type.
func TranslateModule(block *schema.ModuleBlock, file *hcl.File) (*model.Module, error) {
	location := block.Body.MissingItemRange()
	var forms []model.Form

	for _, b := range block.Declares {
		forms = append(forms, &model.DeclareAttrForm{
			Key:        b.Key,
			Accumulate: b.Accumulate,
			Persist:    b.Persist,
			SrcRange:   b.Body.MissingItemRange(),
		})
	}

	for _, b := range block.Attrs {
		forms = append(forms, &model.AttrForm{
			Key:      b.Key,
			Value:    b.Value,
			SrcRange: b.Value.Range(),
		})
	}

	for _, b := range block.Defs {
		kind, err := model.ParseDefKind(b.Kind)
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", block.Name, err)
		}
		srcRange := b.Value.Range()
		forms = append(forms, &model.DefineForm{
			Name:  b.Name,
			Arity: len(b.Params),
			Kind:  kind,
			Clause: model.Clause{
				Params:   b.Params,
				Body:     b.Value,
				Source:   clauseSource(file, b.Value),
				SrcRange: srcRange,
			},
			SrcRange: srcRange,
		})
	}

	for _, b := range block.Specs {
		kind, err := parseSpecKind(b.Kind)
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", block.Name, err)
		}
		forms = append(forms, &model.SpecForm{
			Kind:      kind,
			Target:    model.FA{Name: b.Name, Arity: b.Arity},
			Signature: b.Signature,
			SrcRange:  b.Body.MissingItemRange(),
		})
	}

	for _, b := range block.Types {
		forms = append(forms, &model.TypeForm{
			Name:       b.Name,
			Arity:      b.Arity,
			Opaque:     b.Opaque,
			Definition: b.Definition,
			SrcRange:   b.Body.MissingItemRange(),
		})
	}

	for _, b := range block.Exprs {
		forms = append(forms, &model.ExprForm{
			Expr:     b.Value,
			SrcRange: b.Value.Range(),
		})
	}

	for _, nb := range block.Modules {
		nested, err := TranslateModule(nb, file)
		if err != nil {
			return nil, err
		}
		forms = append(forms, &model.NestedModuleForm{
			Module:   nested,
			SrcRange: nested.Location,
		})
	}

	// gohcl groups blocks by type; source order is what the body semantics
	// need, so restore it from the ranges.
	sort.SliceStable(forms, func(i, j int) bool {
		return forms[i].Range().Start.Byte < forms[j].Range().Start.Byte
	})

	return &model.Module{
		Name:     block.Name,
		Location: location,
		Forms:    forms,
	}, nil
}

// clauseSource slices the verbatim text of a clause body out of the file for
// the code section of the compiled artifact.
func clauseSource(file *hcl.File, expr hcl.Expression) string {
	if file == nil {
		return ""
	}
	return string(expr.Range().SliceBytes(file.Bytes))
}

func parseSpecKind(s string) (model.SpecKind, error) {
	switch s {
	case "spec":
		return model.SpecFunction, nil
	case "callback":
		return model.SpecCallback, nil
	case "macrocallback":
		return model.SpecMacroCallback, nil
	default:
		return 0, fmt.Errorf("unknown spec kind %q", s)
	}
}
