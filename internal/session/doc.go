// Package session implements the process-wide code-session registry: the
// table of currently loaded modules and their artifact binaries.
//
// The registry outlives any single module compilation. It answers the
// "already loaded?" question behind redefinition warnings, acts as the
// in-memory loader that activates finished artifacts, and fans module
// availability notifications out to listening subscribers.
//
// State lives in a sync.Map keyed by module name: loads of different modules
// are independent and must not contend on a global lock.
package session
