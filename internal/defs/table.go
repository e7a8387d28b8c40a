package defs

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/loom/internal/diag"
	"github.com/vk/loom/internal/model"
)

// InfoFA is the identity of the compiler-injected introspection symbol that
// every compiled module exports. User code may not define it.
var InfoFA = model.FA{Name: "__info__", Arity: 1}

// Definition is the accumulated state of one (name, arity) pair.
type Definition struct {
	FA       model.FA
	Kind     model.DefKind
	Clauses  []model.Clause
	Doc      string
	SrcRange hcl.Range
}

// Exported reports whether the definition participates in the export list.
func (d *Definition) Exported() bool {
	return d.Kind.Public()
}

// Table is the definitions table of one compilation. It is owned by the
// module's registry entry and read-only once frozen.
type Table struct {
	mu     sync.Mutex
	defs   map[model.FA]*Definition
	order  []model.FA
	frozen bool
}

// NewTable creates an empty definitions table.
func NewTable() *Table {
	return &Table{defs: make(map[model.FA]*Definition)}
}

// Define records one clause for the (name, arity) pair. The first definition
// fixes the kind; a later definition with a different kind fails. The second
// result reports whether this was the pair's first definition — the trigger
// for on-definition hooks.
func (t *Table) Define(fa model.FA, kind model.DefKind, clause model.Clause, srcRange hcl.Range) (*Definition, bool, error) {
	if fa == InfoFA {
		return nil, false, diag.Newf(diag.KindInternalSymbolOverridden, srcRange,
			"definition %s conflicts with the compiler-generated introspection function", fa)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		return nil, false, fmt.Errorf("cannot define %s: definitions are frozen after the before-compile phase", fa)
	}

	if existing, ok := t.defs[fa]; ok {
		if existing.Kind != kind {
			return nil, false, diag.Newf(diag.KindDefinitionConflict, srcRange,
				"%s was previously defined as %s and cannot be redefined as %s", fa, existing.Kind, kind)
		}
		existing.Clauses = append(existing.Clauses, clause)
		return existing, false, nil
	}

	def := &Definition{FA: fa, Kind: kind, Clauses: []model.Clause{clause}, SrcRange: srcRange}
	t.defs[fa] = def
	t.order = append(t.order, fa)
	return def, true, nil
}

// AttachDoc sets the documentation string of an already-defined pair.
func (t *Table) AttachDoc(fa model.FA, doc string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	def, ok := t.defs[fa]
	if !ok {
		return false
	}
	def.Doc = doc
	return true
}

// Freeze marks the table read-only. Runs once the before-compile hooks have
// finished; idempotent.
func (t *Table) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frozen = true
}

// Lookup returns the definition for fa, if any.
func (t *Table) Lookup(fa model.FA) (*Definition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	def, ok := t.defs[fa]
	return def, ok
}

// All returns every definition in first-definition order.
func (t *Table) All() []*Definition {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Definition, 0, len(t.order))
	for _, fa := range t.order {
		out = append(out, t.defs[fa])
	}
	return out
}

// Exports returns the deduplicated, sorted set of public (name, arity)
// identities. Macros appear under their surface identity; the assembler is
// responsible for the dispatch-name rewrite.
func (t *Table) Exports() []model.FA {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []model.FA
	for _, fa := range t.order {
		if t.defs[fa].Exported() {
			out = append(out, fa)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Arity < out[j].Arity
	})
	return out
}

// Len returns the number of distinct (name, arity) pairs defined.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}
