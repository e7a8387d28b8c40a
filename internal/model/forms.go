package model

import "github.com/hashicorp/hcl/v2"

// Form is one element of a module body, evaluated in order during the
// Evaluating phase.
type Form interface {
	// Range returns the source range of the form for diagnostics.
	Range() hcl.Range
	sealedForm()
}

// DefineForm adds one clause of a function or macro definition.
type DefineForm struct {
	Name     string
	Arity    int
	Kind     DefKind
	Clause   Clause
	SrcRange hcl.Range
}

// DeclareAttrForm declares an attribute key's accumulate/persist policy.
// Declaration must precede the first write of the key.
type DeclareAttrForm struct {
	Key        string
	Accumulate bool
	Persist    bool
	SrcRange   hcl.Range
}

// AttrForm writes an attribute value. The expression is evaluated against
// the current bindings before the write.
type AttrForm struct {
	Key      string
	Value    hcl.Expression
	SrcRange hcl.Range
}

// SpecKind distinguishes the flavors of a spec declaration.
type SpecKind int

const (
	// SpecFunction is a @spec for a function or macro.
	SpecFunction SpecKind = iota
	// SpecCallback is a @callback declaration for a behaviour.
	SpecCallback
	// SpecMacroCallback is a @macrocallback declaration.
	SpecMacroCallback
)

// String returns the surface keyword of the spec kind.
func (k SpecKind) String() string {
	switch k {
	case SpecCallback:
		return "callback"
	case SpecMacroCallback:
		return "macrocallback"
	default:
		return "spec"
	}
}

// SpecForm declares a type signature for a (name, arity) target.
type SpecForm struct {
	Kind      SpecKind
	Target    FA
	Signature string
	SrcRange  hcl.Range
}

// TypeForm declares a named type at a given arity.
type TypeForm struct {
	Name       string
	Arity      int
	Opaque     bool
	Definition string
	SrcRange   hcl.Range
}

// ExprForm is a bare expression evaluated for its value. The value of the
// last ExprForm in a body becomes the compilation's result value.
type ExprForm struct {
	Expr     hcl.Expression
	SrcRange hcl.Range
}

// NestedModuleForm defines another module from inside a body. It triggers a
// full reentrant compilation of the nested module.
type NestedModuleForm struct {
	Module   *Module
	SrcRange hcl.Range
}

// Range implements Form.
func (f *DefineForm) Range() hcl.Range { return f.SrcRange }

// Range implements Form.
func (f *DeclareAttrForm) Range() hcl.Range { return f.SrcRange }

// Range implements Form.
func (f *AttrForm) Range() hcl.Range { return f.SrcRange }

// Range implements Form.
func (f *SpecForm) Range() hcl.Range { return f.SrcRange }

// Range implements Form.
func (f *TypeForm) Range() hcl.Range { return f.SrcRange }

// Range implements Form.
func (f *ExprForm) Range() hcl.Range { return f.SrcRange }

// Range implements Form.
func (f *NestedModuleForm) Range() hcl.Range { return f.SrcRange }

func (f *DefineForm) sealedForm()       {}
func (f *DeclareAttrForm) sealedForm()  {}
func (f *AttrForm) sealedForm()         {}
func (f *SpecForm) sealedForm()         {}
func (f *TypeForm) sealedForm()         {}
func (f *ExprForm) sealedForm()         {}
func (f *NestedModuleForm) sealedForm() {}
