package diag

import (
	"errors"

	"github.com/hashicorp/hcl/v2"
)

// AnnotateCall wraps an error raised while invoking a hook so that the
// failure names the (module, function, arity, location) of the hook call
// site. The evaluator's internal frame trail is pruned: only the call-site
// frame plus one synthetic frame standing in for the expanded form remain.
func AnnotateCall(err error, module, function string, arity int, location hcl.Range) *Error {
	callSite := Frame{Module: module, Function: function, Arity: arity, Location: location}
	synthetic := Frame{Module: module, Function: function, Arity: arity, Location: location, Synthetic: true}

	var derr *Error
	if errors.As(err, &derr) {
		annotated := *derr
		annotated.Module = module
		annotated.Function = function
		annotated.Arity = arity
		if annotated.Subject.Filename == "" {
			annotated.Subject = location
		}
		annotated.Frames = []Frame{callSite, synthetic}
		return &annotated
	}

	return &Error{
		Kind:     KindEvalError,
		Module:   module,
		Function: function,
		Arity:    arity,
		Subject:  location,
		Message:  "hook evaluation failed",
		Frames:   []Frame{callSite, synthetic},
		Err:      err,
	}
}

// NormalizeUndefined rewrites an undefined-reference failure whose triggering
// frame names the module currently being compiled. The raw diagnostic from
// the evaluator would misleadingly claim that the just-compiled module itself
// is unloaded; the rewritten error states that the specific function is not
// yet available. Errors raised against any other module pass through
// untouched.
func NormalizeUndefined(err error, compiling string) error {
	var derr *Error
	if !errors.As(err, &derr) {
		return err
	}
	if derr.Kind != KindEvalError || derr.Module != compiling {
		return err
	}
	var undef *UndefinedError
	if !errors.As(err, &undef) {
		return err
	}
	if undef.Module != compiling {
		return err
	}

	rewritten := &Error{
		Kind:     KindFunctionNotAvailable,
		Module:   undef.Module,
		Function: undef.Function,
		Arity:    undef.Arity,
		Subject:  derr.Subject,
		Frames:   derr.Frames,
		Err:      derr.Err,
	}
	rewritten.Message = "function " + undef.Function + " is not available in module " + undef.Module +
		" (it is being compiled right now)"
	return rewritten
}

// UndefinedError is the raw undefined-reference failure reported by the
// evaluator collaborator. It is deliberately separate from *Error: the
// evaluator does not know about compilation state, so the decision to
// rewrite it into FunctionNotAvailable belongs to the compiler.
type UndefinedError struct {
	Module   string
	Function string
	Arity    int
}

// Error implements the error interface.
func (e *UndefinedError) Error() string {
	return "undefined reference " + e.Module + "." + e.Function
}
