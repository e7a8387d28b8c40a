// Package assemble turns the final definitions table and attribute store of
// a compilation into artifact sections.
//
// The assembler injects the introspection export, rewrites macro call-specs
// to their internal dispatch identity (arity N becomes N+1 with an implicit
// leading context parameter), silently drops unreachable specs, and emits
// one attribute section per accumulated value of every persisted key.
// Documentation warnings run before any fatal check and never block
// assembly.
package assemble
