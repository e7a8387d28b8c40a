package diag

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Kind classifies a fatal compilation error.
type Kind int

const (
	// KindModuleReserved is returned when a module name belongs to the
	// fixed reserved-identifier set.
	KindModuleReserved Kind = iota

	// KindModuleAlreadyDefining is returned when a compilation is opened
	// for a module name that already has a live registry entry.
	KindModuleAlreadyDefining

	// KindInvalidExternalResource is returned at assembly time when an
	// external_resource attribute value is not a textual path.
	KindInvalidExternalResource

	// KindInternalSymbolOverridden is returned when a user definition
	// collides with the compiler-injected introspection symbol.
	KindInternalSymbolOverridden

	// KindFunctionNotAvailable is the normalized form of an undefined
	// reference raised during hook evaluation against the module that is
	// currently being compiled.
	KindFunctionNotAvailable

	// KindBuildError is returned when artifact construction or chunk
	// injection fails.
	KindBuildError

	// KindDefinitionConflict is returned when a (name, arity) pair is
	// redefined as a different definition kind.
	KindDefinitionConflict

	// KindEvalError wraps a failure reported by the external evaluator
	// or dispatcher during body or hook evaluation.
	KindEvalError
)

// String returns the stable identifier of the kind, used in logs and in the
// rendered error message.
func (k Kind) String() string {
	switch k {
	case KindModuleReserved:
		return "ModuleReserved"
	case KindModuleAlreadyDefining:
		return "ModuleAlreadyDefining"
	case KindInvalidExternalResource:
		return "InvalidExternalResource"
	case KindInternalSymbolOverridden:
		return "InternalSymbolOverridden"
	case KindFunctionNotAvailable:
		return "FunctionNotAvailable"
	case KindBuildError:
		return "BuildError"
	case KindDefinitionConflict:
		return "DefinitionConflict"
	case KindEvalError:
		return "EvalError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Frame is one entry of a pruned call trail. Synthetic frames are inserted
// during normalization to stand in for the evaluator internals that were
// removed.
type Frame struct {
	Module    string
	Function  string
	Arity     int
	Location  hcl.Range
	Synthetic bool
}

// String renders the frame in "module.function/arity (file:line)" form.
func (f Frame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s.%s/%d", f.Module, f.Function, f.Arity)
	if f.Location.Filename != "" {
		fmt.Fprintf(&b, " (%s:%d)", f.Location.Filename, f.Location.Start.Line)
	}
	if f.Synthetic {
		b.WriteString(" [expanded]")
	}
	return b.String()
}

// Error is a structured compilation failure.
type Error struct {
	Kind     Kind
	Module   string
	Function string
	Arity    int
	Subject  hcl.Range
	Message  string
	Frames   []Frame
	Err      error
}

// Error implements the error interface. The rendered form always carries the
// file/line of the subject range when one is known.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Subject.Filename != "" {
		fmt.Fprintf(&b, "%s:%d: ", e.Subject.Filename, e.Subject.Start.Line)
	}
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches against another *Error by kind only, so callers can write
// errors.Is(err, &diag.Error{Kind: diag.KindBuildError}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Diagnostic converts the error into an hcl.Diagnostic so frontends can
// render it alongside parser diagnostics.
func (e *Error) Diagnostic() *hcl.Diagnostic {
	d := &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  e.Kind.String(),
		Detail:   e.Message,
	}
	if e.Subject.Filename != "" {
		subject := e.Subject
		d.Subject = &subject
	}
	return d
}

// Newf constructs an *Error for the given kind and source range.
func Newf(kind Kind, subject hcl.Range, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
	}
}
