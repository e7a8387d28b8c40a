// Package attrstore implements the per-module attribute store.
//
// An attribute key carries two orthogonal policy bits: accumulate (writes
// append to an ordered sequence instead of replacing) and persist (the final
// value or values are emitted into the compiled artifact). The policy table
// is declare-before-use and freezes at the first attribute write; there is no
// per-key special-casing outside of it. The table is itself stored as data
// inside the store, under internal control keys, so a store describes its own
// configuration.
package attrstore
