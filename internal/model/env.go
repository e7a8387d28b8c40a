package model

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Env is the evaluation environment threaded through a compilation. It
// carries the caller's bindings, the HCL evaluation context derived from
// them, and the explicit stack of module names currently being compiled.
//
// The stack is part of the environment rather than ambient state so that
// nested and concurrent compilations stay composable: a reentrant compilation
// pushes onto a copy, and sibling compilations never observe each other.
type Env struct {
	Bindings map[string]cty.Value
	Stack    []string
}

// NewEnv creates an environment with the given initial bindings. A nil map
// is replaced with an empty one.
func NewEnv(bindings map[string]cty.Value) *Env {
	if bindings == nil {
		bindings = map[string]cty.Value{}
	}
	return &Env{Bindings: bindings}
}

// Push returns a new environment with name appended to the compiling stack.
// The bindings map is shared; the stack slice is copied so siblings do not
// alias each other's tails.
func (e *Env) Push(name string) *Env {
	stack := make([]string, len(e.Stack), len(e.Stack)+1)
	copy(stack, e.Stack)
	return &Env{
		Bindings: e.Bindings,
		Stack:    append(stack, name),
	}
}

// Current returns the innermost module name being compiled, or "" when the
// stack is empty.
func (e *Env) Current() string {
	if len(e.Stack) == 0 {
		return ""
	}
	return e.Stack[len(e.Stack)-1]
}

// OnStack reports whether the given module name is anywhere on the
// compiling stack.
func (e *Env) OnStack(name string) bool {
	for _, n := range e.Stack {
		if n == name {
			return true
		}
	}
	return false
}

// WithBinding returns a new environment with one binding replaced. The
// original bindings map is not mutated.
func (e *Env) WithBinding(name string, value cty.Value) *Env {
	bindings := make(map[string]cty.Value, len(e.Bindings)+1)
	for k, v := range e.Bindings {
		bindings[k] = v
	}
	bindings[name] = value
	return &Env{Bindings: bindings, Stack: e.Stack}
}

// EvalContext materializes an hcl.EvalContext from the current bindings for
// expression evaluation.
func (e *Env) EvalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(e.Bindings))
	for k, v := range e.Bindings {
		vars[k] = v
	}
	return &hcl.EvalContext{Variables: vars}
}
