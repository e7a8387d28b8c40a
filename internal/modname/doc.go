// Package modname defines the structured representation of a module name.
//
// Module names are dotted identifier paths (e.g. "vec.math.dense"). The
// compiler treats them as opaque unique keys, but the structured form is
// needed for validation, for reserved-name checks, and for building the
// internal dispatch names of macros.
package modname
