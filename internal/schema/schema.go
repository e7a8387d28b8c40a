package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Module Source Structures ---

// DeclareBlock sets the accumulate/persist policy of an attribute key before
// its first write.
type DeclareBlock struct {
	Key        string   `hcl:"key,label"`
	Accumulate bool     `hcl:"accumulate,optional"`
	Persist    bool     `hcl:"persist,optional"`
	Body       hcl.Body `hcl:",remain"`
}

// AttrBlock writes a module attribute. The value expression is evaluated
// against the bindings in scope at the point of the write.
type AttrBlock struct {
	Key   string         `hcl:"key,label"`
	Value hcl.Expression `hcl:"value"`
	Body  hcl.Body       `hcl:",remain"`
}

// DefBlock contributes one clause to a function or macro definition. The
// first label selects the definition kind (def, defp, defmacro, defmacrop).
type DefBlock struct {
	Kind   string         `hcl:"kind,label"`
	Name   string         `hcl:"function_name,label"`
	Params []string       `hcl:"params,optional"`
	Value  hcl.Expression `hcl:"body"`
	Body   hcl.Body       `hcl:",remain"`
}

// SpecBlock declares a type signature. The first label selects the flavor
// (spec, callback, macrocallback); the target is named by label and arity.
type SpecBlock struct {
	Kind      string   `hcl:"kind,label"`
	Name      string   `hcl:"function_name,label"`
	Arity     int      `hcl:"arity"`
	Signature string   `hcl:"signature"`
	Body      hcl.Body `hcl:",remain"`
}

// TypeBlock declares a named type.
type TypeBlock struct {
	Name       string   `hcl:"type_name,label"`
	Arity      int      `hcl:"arity,optional"`
	Opaque     bool     `hcl:"opaque,optional"`
	Definition string   `hcl:"definition"`
	Body       hcl.Body `hcl:",remain"`
}

// ExprBlock evaluates a bare expression in the module body. The value of the
// last expr block becomes the compilation's result value.
type ExprBlock struct {
	Value hcl.Expression `hcl:"value"`
	Body  hcl.Body       `hcl:",remain"`
}

// ModuleBlock is one `module` block from a source file. Nested module blocks
// trigger reentrant compilations.
type ModuleBlock struct {
	Name     string          `hcl:"module_name,label"`
	Declares []*DeclareBlock `hcl:"declare,block"`
	Attrs    []*AttrBlock    `hcl:"attr,block"`
	Defs     []*DefBlock     `hcl:"def,block"`
	Specs    []*SpecBlock    `hcl:"spec,block"`
	Types    []*TypeBlock    `hcl:"type,block"`
	Exprs    []*ExprBlock    `hcl:"expr,block"`
	Modules  []*ModuleBlock  `hcl:"module,block"`
	Body     hcl.Body        `hcl:",remain"`
}

// FileConfig represents the top-level structure of a source file, containing
// all modules defined in it.
type FileConfig struct {
	Modules []*ModuleBlock `hcl:"module,block"`
	Body    hcl.Body       `hcl:",remain"`
}
