package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/loom/internal/artifact"
	"github.com/vk/loom/internal/ctxlog"
	"github.com/vk/loom/internal/modname"
)

// LoadedModule is one entry of the code-session registry.
type LoadedModule struct {
	Name     string
	Binary   []byte
	Checksum artifact.Hash
}

// Event is one "module available" notification.
type Event struct {
	Name     string
	Checksum artifact.Hash
}

// Registry is the process-wide table of loaded modules.
type Registry struct {
	modules sync.Map // module name -> *LoadedModule

	subMu       sync.Mutex
	subscribers []chan Event
}

// NewRegistry creates an empty code-session registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Lookup returns the loaded module with the given name, if present.
func (r *Registry) Lookup(name string) (*LoadedModule, bool) {
	v, ok := r.modules.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*LoadedModule), true
}

// Load activates a finished artifact binary under the given module name,
// replacing any previously loaded module of that name, and notifies
// subscribers. It fails when the name is reserved or the binary does not
// decode as an artifact.
func (r *Registry) Load(ctx context.Context, name string, binary []byte) (*LoadedModule, error) {
	logger := ctxlog.FromContext(ctx)

	if modname.IsReserved(name) {
		return nil, fmt.Errorf("cannot load module %q: name is reserved", name)
	}
	file, err := artifact.Decode(binary)
	if err != nil {
		return nil, fmt.Errorf("cannot load module %q: %w", name, err)
	}

	loaded := &LoadedModule{
		Name:     name,
		Binary:   append([]byte(nil), binary...),
		Checksum: file.Checksum(),
	}
	r.modules.Store(name, loaded)
	logger.Debug("Module loaded into code session.", "module", name, "checksum", loaded.Checksum.String())

	r.notify(Event{Name: name, Checksum: loaded.Checksum})
	return loaded, nil
}

// Unload removes a module from the session. Used by tests and tooling.
func (r *Registry) Unload(name string) {
	r.modules.Delete(name)
}

// Subscribe registers a listener for module availability events. The
// returned channel is buffered; events published while the buffer is full
// are dropped for that subscriber rather than blocking a compilation.
func (r *Registry) Subscribe() <-chan Event {
	ch := make(chan Event, 64)
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.subscribers = append(r.subscribers, ch)
	return ch
}

func (r *Registry) notify(event Event) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
