// Package engine is the source loading layer of the compiler. It is
// responsible for discovering, parsing, and translating HCL-based source
// files into the module forms the compilation pipeline evaluates.
package engine
