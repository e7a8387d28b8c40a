package attrstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Internal control keys holding the store's own policy configuration. They
// are excluded from user-key iteration and can never be written directly.
const (
	keyAccumulating = "__accumulating__"
	keyPersisted    = "__persisted__"
)

// Well-known attribute keys with compiler-defined policies. Every store is
// born with these declared; user code declares everything else.
const (
	KeyOnDefinition      = "on_definition"
	KeyBeforeCompile     = "before_compile"
	KeyAfterCompile      = "after_compile"
	KeyExternalResource  = "external_resource"
	KeyCompile           = "compile"
	KeyOptionalCallbacks = "optional_callbacks"
	KeyBehaviour         = "behaviour"
	KeyVsn               = "vsn"
	KeyDoc               = "doc"
	KeyTypedoc           = "typedoc"
	KeyModuledoc         = "moduledoc"
	KeySpec              = "spec"
	KeyCallback          = "callback"
	KeyMacroCallback     = "macrocallback"
	KeyType              = "type"
)

type policy struct {
	accumulate bool
	persist    bool
}

// defaultPolicies is declared on every new store before any user code runs.
var defaultPolicies = map[string]policy{
	KeyOnDefinition:      {accumulate: true},
	KeyBeforeCompile:     {accumulate: true},
	KeyAfterCompile:      {accumulate: true},
	KeyExternalResource:  {accumulate: true, persist: true},
	KeyCompile:           {accumulate: true, persist: true},
	KeyOptionalCallbacks: {accumulate: true},
	KeyBehaviour:         {accumulate: true, persist: true},
	KeyVsn:               {persist: true},
	KeyDoc:               {},
	KeyTypedoc:           {},
	KeyModuledoc:         {},
	KeySpec:              {accumulate: true},
	KeyCallback:          {accumulate: true},
	KeyMacroCallback:     {accumulate: true},
	KeyType:              {accumulate: true},
}

// Entry is one written attribute value together with its write location.
type Entry struct {
	Value    cty.Value
	SrcRange hcl.Range
}

// Store is the attribute store of one module compilation. It is owned by the
// module's registry entry; the mutex exists because before-compile hooks may
// trigger reentrant compilations that read attributes of enclosing modules.
type Store struct {
	mu       sync.Mutex
	policies map[string]policy
	values   map[string][]Entry
	written  bool
}

// New creates a store with the compiler-defined keys declared.
func New() *Store {
	s := &Store{
		policies: make(map[string]policy, len(defaultPolicies)),
		values:   make(map[string][]Entry),
	}
	for key, p := range defaultPolicies {
		s.policies[key] = p
	}
	s.refreshControlKeys()
	return s
}

// Declare registers the accumulate/persist policy for key. It must run
// before the first attribute write; afterwards the policy table is frozen.
func (s *Store) Declare(key string, accumulate, persist bool) error {
	if key == keyAccumulating || key == keyPersisted {
		return fmt.Errorf("attribute key %q is an internal control key", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.written {
		return fmt.Errorf("cannot declare attribute %q: the policy table is frozen after the first write", key)
	}
	s.policies[key] = policy{accumulate: accumulate, persist: persist}
	s.refreshControlKeys()
	return nil
}

// Put writes a value for a declared key. Accumulating keys append; single
// value keys replace.
func (s *Store) Put(key string, value cty.Value, srcRange hcl.Range) error {
	if key == keyAccumulating || key == keyPersisted {
		return fmt.Errorf("attribute key %q is an internal control key", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[key]
	if !ok {
		return fmt.Errorf("attribute key %q has not been declared", key)
	}
	s.written = true
	entry := Entry{Value: value, SrcRange: srcRange}
	if p.accumulate {
		s.values[key] = append(s.values[key], entry)
	} else {
		s.values[key] = []Entry{entry}
	}
	return nil
}

// Delete removes all values written for key. The key stays declared.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Get returns the value of a single-value key, or the most recent value of
// an accumulating key. The second result is false when the key is absent.
func (s *Store) Get(key string) (cty.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.values[key]
	if len(entries) == 0 {
		return cty.NilVal, false
	}
	return entries[len(entries)-1].Value, true
}

// Entries returns all written values for key in forward write order, the
// order used for artifact emission.
func (s *Store) Entries(key string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.values[key]...)
}

// EntriesReversed returns all written values for key in reverse write
// order, the order used for hook execution.
func (s *Store) EntriesReversed(key string) []Entry {
	entries := s.Entries(key)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

// IsAccumulating reports whether key has accumulate policy.
func (s *Store) IsAccumulating(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policies[key].accumulate
}

// IsPersisted reports whether key has persist policy.
func (s *Store) IsPersisted(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policies[key].persist
}

// EachUser iterates all user-visible keys and their entries in forward write
// order, sorted by key name for determinism. Internal control keys are
// excluded. Each call restarts the iteration from a fresh snapshot.
func (s *Store) EachUser(fn func(key string, entries []Entry) bool) {
	s.mu.Lock()
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		if key == keyAccumulating || key == keyPersisted {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	snapshot := make(map[string][]Entry, len(keys))
	for _, key := range keys {
		snapshot[key] = append([]Entry(nil), s.values[key]...)
	}
	s.mu.Unlock()

	for _, key := range keys {
		if !fn(key, snapshot[key]) {
			return
		}
	}
}

// refreshControlKeys rewrites the self-describing configuration values.
// Callers must hold s.mu.
func (s *Store) refreshControlKeys() {
	var accumulating, persisted []cty.Value
	keys := make([]string, 0, len(s.policies))
	for key := range s.policies {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		p := s.policies[key]
		if p.accumulate {
			accumulating = append(accumulating, cty.StringVal(key))
		}
		if p.persist {
			persisted = append(persisted, cty.StringVal(key))
		}
	}
	s.values[keyAccumulating] = []Entry{{Value: listOrEmpty(accumulating)}}
	s.values[keyPersisted] = []Entry{{Value: listOrEmpty(persisted)}}
}

func listOrEmpty(vals []cty.Value) cty.Value {
	if len(vals) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	return cty.ListVal(vals)
}
