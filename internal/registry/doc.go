// Package registry implements the global table of in-progress module
// compilations.
//
// Each open entry exclusively owns the attribute store and definitions table
// of one compilation. Entry creation and destruction are the unit of
// atomicity: the registry mutex guards only the name-to-entry map, while all
// per-module state is synchronized inside the entry's own stores, so
// concurrent compilations of different module names contend on nothing
// beyond the map itself.
//
// A second Open for a name that already has a live entry fails fast with
// ModuleAlreadyDefining naming the original definition site. There is no
// queuing and no retry.
package registry
