package model

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// DefKind is the kind of a definition inside a module body.
type DefKind int

const (
	// Def is a public function definition.
	Def DefKind = iota
	// Defp is a private function definition.
	Defp
	// Defmacro is a public macro definition.
	Defmacro
	// Defmacrop is a private macro definition.
	Defmacrop
)

// String returns the surface keyword for the definition kind.
func (k DefKind) String() string {
	switch k {
	case Def:
		return "def"
	case Defp:
		return "defp"
	case Defmacro:
		return "defmacro"
	case Defmacrop:
		return "defmacrop"
	default:
		return fmt.Sprintf("DefKind(%d)", int(k))
	}
}

// Public reports whether definitions of this kind are exported.
func (k DefKind) Public() bool {
	return k == Def || k == Defmacro
}

// Macro reports whether definitions of this kind are macros.
func (k DefKind) Macro() bool {
	return k == Defmacro || k == Defmacrop
}

// ParseDefKind maps a surface keyword back to its DefKind.
func ParseDefKind(s string) (DefKind, error) {
	switch s {
	case "def":
		return Def, nil
	case "defp":
		return Defp, nil
	case "defmacro":
		return Defmacro, nil
	case "defmacrop":
		return Defmacrop, nil
	default:
		return 0, fmt.Errorf("unknown definition kind %q", s)
	}
}

// FA identifies a function or macro by name and arity.
type FA struct {
	Name  string
	Arity int
}

// String renders the identity in "name/arity" form.
func (fa FA) String() string {
	return fmt.Sprintf("%s/%d", fa.Name, fa.Arity)
}

// MacroDispatchPrefix prefixes the internal dispatch name of a macro. A
// public macro "unless" of arity 2 is exported under "MACRO-unless" with an
// extra leading context parameter, so the macro dispatch identity is
// FA{"MACRO-unless", 3}.
const MacroDispatchPrefix = "MACRO-"

// MacroDispatch returns the internal dispatch identity for a macro declared
// with the given surface identity.
func MacroDispatch(fa FA) FA {
	return FA{Name: MacroDispatchPrefix + fa.Name, Arity: fa.Arity + 1}
}

// Clause is one clause of a function or macro definition. The body is an
// unevaluated expression; it is carried into the artifact's code section and
// only evaluated when the evaluator collaborator is asked to run it.
type Clause struct {
	Params   []string
	Body     hcl.Expression
	Source   string
	SrcRange hcl.Range
}

// Module is a parsed module definition ready for compilation.
type Module struct {
	Name     string
	Location hcl.Range
	Forms    []Form
}
