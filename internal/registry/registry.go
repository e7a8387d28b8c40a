package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/loom/internal/attrstore"
	"github.com/vk/loom/internal/ctxlog"
	"github.com/vk/loom/internal/defs"
	"github.com/vk/loom/internal/diag"
	"github.com/vk/loom/internal/modname"
	"github.com/vk/loom/internal/session"
)

// Entry is one in-progress module compilation. The registry exclusively
// owns the entry and its stores from Open until Close; the assembler and
// artifact builder only ever borrow read access.
type Entry struct {
	// ID is the owning compiler-session id, unique per process.
	ID uint64

	Name     string
	Location hcl.Range
	Attrs    *attrstore.Store
	Defs     *defs.Table

	closed atomic.Bool
}

// Closed reports whether the entry has been torn down.
func (e *Entry) Closed() bool {
	return e.closed.Load()
}

// OpenOptions control conflict handling when opening an entry.
type OpenOptions struct {
	// IgnoreModuleConflict suppresses the redefinition warning when the
	// module is already loaded in the running process.
	IgnoreModuleConflict bool

	// Warnings receives non-fatal diagnostics. Required.
	Warnings *diag.Warnings
}

// Registry is the global table of in-progress compilations.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
	nextID  atomic.Uint64

	session *session.Registry
}

// New creates a registry backed by the given code-session registry, which
// is consulted for redefinition warnings.
func New(sess *session.Registry) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		session: sess,
	}
}

// Open creates the exclusive registry entry for one module compilation.
//
// It fails with ModuleReserved when the name is in the reserved set and with
// ModuleAlreadyDefining when a live entry for the name exists, naming the
// original definition site. When the module is already loaded in the running
// process a ModuleRedefinitionWarning is reported, unless suppressed by
// OpenOptions.IgnoreModuleConflict.
func (r *Registry) Open(ctx context.Context, name string, location hcl.Range, opts OpenOptions) (*Entry, error) {
	logger := ctxlog.FromContext(ctx)

	if _, err := modname.Validate(name); err != nil {
		if modname.IsReserved(name) {
			return nil, diag.Newf(diag.KindModuleReserved, location, "cannot define module %s: the name is reserved", name)
		}
		return nil, diag.Newf(diag.KindModuleReserved, location, "cannot define module: %v", err)
	}

	if loaded, ok := r.session.Lookup(name); ok && !opts.IgnoreModuleConflict {
		opts.Warnings.Report(ctx, diag.Warning{
			Kind:    diag.WarnModuleRedefinition,
			Subject: location,
			Message: "redefining module " + name + " (current version " + loaded.Checksum.String()[:12] + ")",
		})
	}

	entry := &Entry{
		ID:       r.nextID.Add(1),
		Name:     name,
		Location: location,
		Attrs:    attrstore.New(),
		Defs:     defs.NewTable(),
	}

	r.mu.Lock()
	if existing, ok := r.entries[name]; ok {
		r.mu.Unlock()
		return nil, diag.Newf(diag.KindModuleAlreadyDefining, location,
			"module %s is already being defined (at %s:%d)",
			name, existing.Location.Filename, existing.Location.Start.Line)
	}
	r.entries[name] = entry
	r.mu.Unlock()

	logger.Debug("Opened module compilation entry.", "module", name, "entryID", entry.ID)
	return entry, nil
}

// Close tears down the entry and removes it from the table. Idempotent; it
// runs on every exit path of a compilation, success or failure.
func (r *Registry) Close(entry *Entry) {
	if entry == nil || !entry.closed.CompareAndSwap(false, true) {
		return
	}
	r.mu.Lock()
	if current, ok := r.entries[entry.Name]; ok && current == entry {
		delete(r.entries, entry.Name)
	}
	r.mu.Unlock()
}

// Lookup returns the live entry for a module name, if one exists. Used by
// introspection tooling during compilation.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[name]
	return entry, ok
}

// InProgress returns the names of every live entry, for diagnostics.
func (r *Registry) InProgress() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	return out
}
