package diag

import (
	"context"
	"sync"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/loom/internal/ctxlog"
)

// WarnKind classifies a non-fatal diagnostic.
type WarnKind int

const (
	// WarnModuleRedefinition is reported when a module being compiled is
	// already loaded in the running process.
	WarnModuleRedefinition WarnKind = iota

	// WarnUnusedDocAttribute is reported when a doc or typedoc attribute
	// has no following definition to attach to.
	WarnUnusedDocAttribute
)

// String returns the stable identifier of the warning kind.
func (k WarnKind) String() string {
	switch k {
	case WarnModuleRedefinition:
		return "ModuleRedefinitionWarning"
	case WarnUnusedDocAttribute:
		return "UnusedDocAttribute"
	default:
		return "Warning"
	}
}

// Warning is a non-fatal diagnostic. Warnings are reported and execution
// continues; they never block artifact assembly.
type Warning struct {
	Kind    WarnKind
	Subject hcl.Range
	Message string
}

// Warnings is a thread-safe sink for non-fatal diagnostics accumulated over
// one compilation run.
type Warnings struct {
	mu   sync.Mutex
	list []Warning
}

// Report records the warning and logs it through the context logger.
func (w *Warnings) Report(ctx context.Context, warning Warning) {
	ctxlog.FromContext(ctx).Warn(warning.Message,
		"kind", warning.Kind.String(),
		"file", warning.Subject.Filename,
		"line", warning.Subject.Start.Line,
	)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.list = append(w.list, warning)
}

// All returns a snapshot of every warning reported so far.
func (w *Warnings) All() []Warning {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Warning, len(w.list))
	copy(out, w.list)
	return out
}

// Count returns the number of warnings with the given kind.
func (w *Warnings) Count(kind WarnKind) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	var n int
	for _, warning := range w.list {
		if warning.Kind == kind {
			n++
		}
	}
	return n
}
