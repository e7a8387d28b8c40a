// Package model defines the frontend-agnostic representation of a module
// under compilation.
//
// A frontend (the HCL engine, a test harness, or a macro expanding into a
// nested module) produces a Module: a name, a source location, and an ordered
// list of body forms. The compile pipeline consumes forms without knowing
// which frontend produced them, the same way the execution model is decoupled
// from any particular manifest format.
package model
