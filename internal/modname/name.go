package modname

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex validates a single dotted segment of a module name.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// reserved is the fixed set of identifiers that may never be used as module
// names. These collide with literal keywords of the language.
var reserved = map[string]struct{}{
	"true":  {},
	"false": {},
	"nil":   {},
	"loom":  {},
}

// Name is the structured representation of a module name, broken into its
// dotted path segments.
type Name struct {
	Path []string
}

// Parse creates a Name by parsing its canonical dotted string form.
func Parse(raw string) (*Name, error) {
	if raw == "" {
		return nil, fmt.Errorf("module name cannot be empty")
	}

	name := &Name{}
	for _, segment := range strings.Split(raw, ".") {
		if segment == "" {
			return nil, fmt.Errorf("module name %q contains empty segment", raw)
		}
		if !segmentRegex.MatchString(segment) {
			return nil, fmt.Errorf("invalid module name segment: %q", segment)
		}
		name.Path = append(name.Path, segment)
	}

	return name, nil
}

// String returns the canonical dotted form of the name.
func (n *Name) String() string {
	if n == nil {
		return ""
	}
	return strings.Join(n.Path, ".")
}

// IsReserved reports whether the given module name belongs to the fixed
// reserved-identifier set.
func IsReserved(raw string) bool {
	_, ok := reserved[raw]
	return ok
}

// Validate parses raw and additionally rejects reserved names. It is the
// single entry point used by the registry when opening a compilation.
func Validate(raw string) (*Name, error) {
	name, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if IsReserved(raw) {
		return nil, fmt.Errorf("module name %q is reserved", raw)
	}
	return name, nil
}
