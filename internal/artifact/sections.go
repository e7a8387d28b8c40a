package artifact

// Wire schemas of the well-known chunk payloads. All payloads are encoded
// with the deterministic CBOR codec. The assembler writes these; Info and
// external tooling read them back.

// LocationPayload is the "Loc" chunk: where the module was defined.
type LocationPayload struct {
	File string `cbor:"file"`
	Line int    `cbor:"line"`
}

// ModulePayload is the "Mod" chunk: the module's identity.
type ModulePayload struct {
	Name string `cbor:"name"`
}

// ExportEntry is one exported symbol. Macros are listed under their surface
// name here; the dispatch-renamed identity lives in the code chunk.
type ExportEntry struct {
	Name  string `cbor:"name"`
	Arity int    `cbor:"arity"`
	Macro bool   `cbor:"macro,omitempty"`
}

// ExportsPayload is the "ExpT" chunk: the sorted exported-symbol list.
type ExportsPayload struct {
	Exports []ExportEntry `cbor:"exports"`
}

// CodeClause is one clause of a definition in the "Code" chunk. The body is
// carried as source text; evaluating it is the runtime's concern.
type CodeClause struct {
	Params []string `cbor:"params"`
	Source string   `cbor:"source,omitempty"`
	File   string   `cbor:"file,omitempty"`
	Line   int      `cbor:"line,omitempty"`
}

// CodeEntry is one definition in the "Code" chunk, keyed by its dispatch
// identity (macros appear under their MACRO- name).
type CodeEntry struct {
	Name    string       `cbor:"name"`
	Arity   int          `cbor:"arity"`
	Kind    string       `cbor:"kind"`
	Public  bool         `cbor:"public"`
	Macro   bool         `cbor:"macro,omitempty"`
	Clauses []CodeClause `cbor:"clauses"`
}

// CodePayload is the "Code" chunk: every function and macro body.
type CodePayload struct {
	Definitions []CodeEntry `cbor:"definitions"`
}

// SpecEntry is one declaration in the "SpcT" chunk, already retargeted for
// macro dispatch naming.
type SpecEntry struct {
	Kind      string `cbor:"kind"`
	Name      string `cbor:"name"`
	Arity     int    `cbor:"arity"`
	Signature string `cbor:"signature"`
	Optional  bool   `cbor:"optional,omitempty"`
}

// SpecsPayload is the "SpcT" chunk.
type SpecsPayload struct {
	Specs []SpecEntry `cbor:"specs"`
}

// TypeEntry is one declared type in the "TypT" chunk.
type TypeEntry struct {
	Name       string `cbor:"name"`
	Arity      int    `cbor:"arity"`
	Opaque     bool   `cbor:"opaque,omitempty"`
	Definition string `cbor:"definition"`
	Doc        string `cbor:"doc,omitempty"`
}

// TypesPayload is the "TypT" chunk.
type TypesPayload struct {
	Types []TypeEntry `cbor:"types"`
}

// AttrSection is one "Attr" chunk. Accumulating persisted keys produce one
// section per value, in write order; single-value keys produce one section.
type AttrSection struct {
	Key   string `cbor:"key"`
	Value any    `cbor:"value"`
}

// CompilePayload is the "COpt" chunk: the flattened backend flag list from
// the persisted compile attribute.
type CompilePayload struct {
	Flags []string `cbor:"flags"`
}
