package compile

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/loom/internal/diag"
	"github.com/vk/loom/internal/hooks"
	"github.com/vk/loom/internal/model"
	"github.com/vk/loom/internal/registry"
	"github.com/vk/loom/internal/session"
)

// Evaluator is the expression-evaluation collaborator.
type Evaluator interface {
	Evaluate(ctx context.Context, expr hcl.Expression, env *model.Env) (cty.Value, *model.Env, error)
}

// Loader activates a finished artifact binary in the running process.
type Loader interface {
	Load(ctx context.Context, name string, binary []byte) (*session.LoadedModule, error)
}

// Options configure a compiler instance.
type Options struct {
	// Docs enables documentation chunk generation.
	Docs bool

	// IgnoreModuleConflict suppresses the warning emitted when a module
	// being compiled is already loaded in the running process.
	IgnoreModuleConflict bool
}

// Compiler is the module compilation core. One instance is shared by all
// compilations of a process; per-module state lives in registry entries.
type Compiler struct {
	registry   *registry.Registry
	session    *session.Registry
	evaluator  Evaluator
	dispatcher hooks.Dispatcher
	loader     Loader
	warnings   *diag.Warnings
	opts       Options
}

// New creates a compiler from its collaborators.
func New(reg *registry.Registry, sess *session.Registry, evaluator Evaluator, dispatcher hooks.Dispatcher, loader Loader, opts Options) *Compiler {
	return &Compiler{
		registry:   reg,
		session:    sess,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		loader:     loader,
		warnings:   &diag.Warnings{},
		opts:       opts,
	}
}

// Warnings returns the compiler's warning sink.
func (c *Compiler) Warnings() *diag.Warnings {
	return c.warnings
}

// Registry returns the in-progress module registry, for introspection
// tooling and tests.
func (c *Compiler) Registry() *registry.Registry {
	return c.registry
}

// Session returns the code-session registry.
func (c *Compiler) Session() *session.Registry {
	return c.session
}

// GetAttribute reads one attribute of an in-progress compilation. The second
// result is false when the attribute is absent. Read-only introspection for
// diagnostics tooling.
func GetAttribute(entry *registry.Entry, key string) (cty.Value, bool) {
	if entry == nil || entry.Closed() {
		return cty.NilVal, false
	}
	return entry.Attrs.Get(key)
}

// entryKey carries the current registry entry through context so that
// before-compile hook handlers can add definitions to the module that
// invoked them.
type entryKey struct{}

// WithEntry embeds the registry entry of the compilation in flight.
func WithEntry(ctx context.Context, entry *registry.Entry) context.Context {
	return context.WithValue(ctx, entryKey{}, entry)
}

// EntryFromContext returns the registry entry of the compilation in flight,
// or nil outside of one.
func EntryFromContext(ctx context.Context) *registry.Entry {
	entry, _ := ctx.Value(entryKey{}).(*registry.Entry)
	return entry
}
