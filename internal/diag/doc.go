// Package diag defines the structured error and warning values produced by
// the module compiler.
//
// Every fatal condition is represented as an *Error carrying an error kind,
// the (module, function, arity) it concerns, a source range, and a pruned
// call-frame trail. Errors are plain values: they are returned, wrapped with
// %w, and matched with errors.Is/errors.As — never carried by panics across
// package boundaries.
//
// Warnings are collected in a Warnings sink and logged as they are reported;
// they never abort a compilation.
package diag
