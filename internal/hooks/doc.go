// Package hooks implements the lifecycle hook engine of one module
// compilation.
//
// A compilation moves through a fixed phase sequence: Evaluating,
// BeforeHooks, Assembling, Building, AfterHooks, Closed. On-definition hooks
// fire synchronously during evaluation, once per new definition.
// Before-compile hooks fire once, in reverse-registration order, and may
// still add definitions. After-compile hooks fire once, in reverse order,
// against the immutable chunk-augmented artifact.
//
// Hook calls go through the macro-dispatch capability of the evaluation
// engine; a call that cannot be resolved as a user-level callable falls back
// to direct evaluation of the expanded form. Failures are annotated with the
// hook's (module, function, arity, location) and carry a pruned frame trail.
package hooks
