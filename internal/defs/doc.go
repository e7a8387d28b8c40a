// Package defs implements the definitions table of one module compilation.
//
// The table collects (name, arity) definitions while the body evaluates,
// stays open through the before-compile hooks (which may still add
// definitions), and is then frozen for the assembler. A pair's definition
// kind is fixed at first definition; redefining it as a different kind is a
// compile error.
package defs
