// Package compile orchestrates the module compilation pipeline.
//
// One compilation opens an exclusive registry entry, evaluates the body
// forms into the entry's attribute store and definitions table, runs the
// before-compile hooks, assembles the metadata sections, builds and
// chunk-augments the artifact binary, runs the after-compile hooks against
// the finished binary, loads it into the code session, and tears the entry
// down. Teardown runs on every exit path; the original error is re-raised to
// the caller after cleanup, never swallowed.
//
// Compilation is reentrant: a body form may define another module, which
// runs the full pipeline again with the enclosing environment's compiling
// stack extended. Different module names may also compile concurrently from
// different goroutines; only compilations of the same name conflict, and the
// second one fails fast.
package compile
