package assemble

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/loom/internal/artifact"
	"github.com/vk/loom/internal/attrstore"
	"github.com/vk/loom/internal/defs"
	"github.com/vk/loom/internal/model"
)

// specTarget decodes one accumulated spec/callback/type attribute value.
func specTarget(val cty.Value) (model.FA, cty.Value, error) {
	if !val.Type().IsObjectType() {
		return model.FA{}, cty.NilVal, fmt.Errorf("invalid declaration value: expected object, got %s", val.Type().FriendlyName())
	}
	name := val.GetAttr("name")
	arity := val.GetAttr("arity")
	if name.Type() != cty.String || arity.Type() != cty.Number {
		return model.FA{}, cty.NilVal, fmt.Errorf("invalid declaration value: name must be string, arity must be number")
	}
	arityInt, _ := arity.AsBigFloat().Int64()
	return model.FA{Name: name.AsString(), Arity: int(arityInt)}, val, nil
}

func stringField(val cty.Value, field string) string {
	if !val.Type().HasAttribute(field) {
		return ""
	}
	v := val.GetAttr(field)
	if v.IsNull() || v.Type() != cty.String {
		return ""
	}
	return v.AsString()
}

func boolField(val cty.Value, field string) bool {
	if !val.Type().HasAttribute(field) {
		return false
	}
	v := val.GetAttr(field)
	return v.Type() == cty.Bool && !v.IsNull() && v.True()
}

// assembleSpecs translates the accumulated spec, callback, and macrocallback
// declarations into artifact entries.
//
// Macro call-specs are retargeted: a spec for a macro of arity N is emitted
// at arity N+1 under the macro's internal dispatch name. Specs naming a
// (name, arity) outside the optional-callback and exported-definition sets
// are dropped silently. Optional-callback declarations resolve against the
// macro renaming the same way.
func assembleSpecs(table *defs.Table, attrs *attrstore.Store, exportSet map[model.FA]bool) ([]artifact.SpecEntry, error) {
	macroCallbacks := make(map[model.FA]bool)
	for _, entry := range attrs.Entries(attrstore.KeyMacroCallback) {
		fa, _, err := specTarget(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("macrocallback: %w", err)
		}
		macroCallbacks[fa] = true
	}

	optional := make(map[model.FA]bool)
	for _, entry := range attrs.Entries(attrstore.KeyOptionalCallbacks) {
		v := entry.Value
		if !v.Type().IsTupleType() || v.LengthInt() != 2 {
			return nil, fmt.Errorf("optional_callbacks value must be a (name, arity) pair")
		}
		elems := v.AsValueSlice()
		if elems[0].Type() != cty.String || elems[1].Type() != cty.Number {
			return nil, fmt.Errorf("optional_callbacks value must be a (name, arity) pair")
		}
		arity, _ := elems[1].AsBigFloat().Int64()
		optional[model.FA{Name: elems[0].AsString(), Arity: int(arity)}] = true
	}

	var specs []artifact.SpecEntry

	for _, entry := range attrs.Entries(attrstore.KeySpec) {
		fa, val, err := specTarget(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("spec: %w", err)
		}
		if !exportSet[fa] && !optional[fa] {
			continue
		}
		emitted := fa
		if def, ok := table.Lookup(fa); ok && def.Kind.Macro() {
			emitted = model.MacroDispatch(fa)
		}
		specs = append(specs, artifact.SpecEntry{
			Kind:      model.SpecFunction.String(),
			Name:      emitted.Name,
			Arity:     emitted.Arity,
			Signature: stringField(val, "signature"),
		})
	}

	for _, entry := range attrs.Entries(attrstore.KeyCallback) {
		fa, val, err := specTarget(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("callback: %w", err)
		}
		specs = append(specs, artifact.SpecEntry{
			Kind:      model.SpecCallback.String(),
			Name:      fa.Name,
			Arity:     fa.Arity,
			Signature: stringField(val, "signature"),
			Optional:  optional[fa],
		})
	}

	for _, entry := range attrs.Entries(attrstore.KeyMacroCallback) {
		fa, val, err := specTarget(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("macrocallback: %w", err)
		}
		emitted := model.MacroDispatch(fa)
		specs = append(specs, artifact.SpecEntry{
			Kind:      model.SpecMacroCallback.String(),
			Name:      emitted.Name,
			Arity:     emitted.Arity,
			Signature: stringField(val, "signature"),
			Optional:  optional[fa],
		})
	}

	return specs, nil
}

// assembleTypes translates accumulated type declarations.
func assembleTypes(attrs *attrstore.Store) ([]artifact.TypeEntry, error) {
	var types []artifact.TypeEntry
	for _, entry := range attrs.Entries(attrstore.KeyType) {
		fa, val, err := specTarget(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("type: %w", err)
		}
		types = append(types, artifact.TypeEntry{
			Name:       fa.Name,
			Arity:      fa.Arity,
			Opaque:     boolField(val, "opaque"),
			Definition: stringField(val, "definition"),
			Doc:        stringField(val, "doc"),
		})
	}
	return types, nil
}
