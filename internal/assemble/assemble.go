package assemble

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/loom/internal/artifact"
	"github.com/vk/loom/internal/attrstore"
	"github.com/vk/loom/internal/codec"
	"github.com/vk/loom/internal/ctxlog"
	"github.com/vk/loom/internal/defs"
	"github.com/vk/loom/internal/diag"
	"github.com/vk/loom/internal/model"
)

// Options control metadata assembly.
type Options struct {
	// Docs enables documentation chunk generation.
	Docs bool
}

// Result is the assembled artifact content.
type Result struct {
	// Chunks are the artifact sections in emission order.
	Chunks []artifact.Chunk

	// Flags is the flattened backend flag list from the persisted
	// compile attribute, handed to the artifact builder.
	Flags []string

	// DocsPayload is the encoded documentation blob, injected into the
	// built binary as a custom chunk. Nil when documentation generation
	// is disabled.
	DocsPayload []byte
}

// Assemble builds the artifact sections from a frozen definitions table and
// the final attribute store. The documentation-warning check runs first;
// warnings never block assembly.
func Assemble(ctx context.Context, moduleName string, location hcl.Range, table *defs.Table, attrs *attrstore.Store, opts Options, warnings *diag.Warnings) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	if opts.Docs {
		checkDanglingDocs(ctx, attrs, warnings)
	}

	result := &Result{}

	locPayload, err := codec.Marshal(&artifact.LocationPayload{
		File: location.Filename,
		Line: location.Start.Line,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding location section: %w", err)
	}
	result.Chunks = append(result.Chunks, artifact.Chunk{ID: artifact.ChunkLocation, Payload: locPayload})

	modPayload, err := codec.Marshal(&artifact.ModulePayload{Name: moduleName})
	if err != nil {
		return nil, fmt.Errorf("encoding module section: %w", err)
	}
	result.Chunks = append(result.Chunks, artifact.Chunk{ID: artifact.ChunkModule, Payload: modPayload})

	exports, exportSet := assembleExports(table)
	expPayload, err := codec.Marshal(&artifact.ExportsPayload{Exports: exports})
	if err != nil {
		return nil, fmt.Errorf("encoding exports section: %w", err)
	}
	result.Chunks = append(result.Chunks, artifact.Chunk{ID: artifact.ChunkExports, Payload: expPayload})

	codePayload, err := codec.Marshal(assembleCode(table))
	if err != nil {
		return nil, fmt.Errorf("encoding code section: %w", err)
	}
	result.Chunks = append(result.Chunks, artifact.Chunk{ID: artifact.ChunkCode, Payload: codePayload})

	types, err := assembleTypes(attrs)
	if err != nil {
		return nil, err
	}
	typPayload, err := codec.Marshal(&artifact.TypesPayload{Types: types})
	if err != nil {
		return nil, fmt.Errorf("encoding types section: %w", err)
	}
	result.Chunks = append(result.Chunks, artifact.Chunk{ID: artifact.ChunkTypes, Payload: typPayload})

	specs, err := assembleSpecs(table, attrs, exportSet)
	if err != nil {
		return nil, err
	}
	spcPayload, err := codec.Marshal(&artifact.SpecsPayload{Specs: specs})
	if err != nil {
		return nil, fmt.Errorf("encoding specs section: %w", err)
	}
	result.Chunks = append(result.Chunks, artifact.Chunk{ID: artifact.ChunkSpecs, Payload: spcPayload})

	result.Flags, err = compileFlags(attrs)
	if err != nil {
		return nil, err
	}
	coptPayload, err := codec.Marshal(&artifact.CompilePayload{Flags: result.Flags})
	if err != nil {
		return nil, fmt.Errorf("encoding compile options section: %w", err)
	}
	result.Chunks = append(result.Chunks, artifact.Chunk{ID: artifact.ChunkCompile, Payload: coptPayload})

	attrChunks, err := assembleAttributes(attrs)
	if err != nil {
		return nil, err
	}
	result.Chunks = append(result.Chunks, attrChunks...)

	if opts.Docs {
		result.DocsPayload, err = assembleDocs(table, attrs)
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("Assembled artifact sections.", "module", moduleName, "chunks", len(result.Chunks))
	return result, nil
}

// assembleExports returns the deduplicated, sorted export list with the
// injected introspection symbol, plus the surface-identity export set used
// for spec reachability.
func assembleExports(table *defs.Table) ([]artifact.ExportEntry, map[model.FA]bool) {
	surface := table.Exports()
	exportSet := make(map[model.FA]bool, len(surface)+1)

	entries := make([]artifact.ExportEntry, 0, len(surface)+1)
	inserted := false
	for _, fa := range surface {
		exportSet[fa] = true
		def, _ := table.Lookup(fa)
		// The injected symbol sorts into its place alphabetically.
		if !inserted && (fa.Name > defs.InfoFA.Name || (fa.Name == defs.InfoFA.Name && fa.Arity > defs.InfoFA.Arity)) {
			entries = append(entries, artifact.ExportEntry{Name: defs.InfoFA.Name, Arity: defs.InfoFA.Arity})
			inserted = true
		}
		entries = append(entries, artifact.ExportEntry{Name: fa.Name, Arity: fa.Arity, Macro: def.Kind.Macro()})
	}
	if !inserted {
		entries = append(entries, artifact.ExportEntry{Name: defs.InfoFA.Name, Arity: defs.InfoFA.Arity})
	}
	exportSet[defs.InfoFA] = true
	return entries, exportSet
}

// assembleCode emits every definition under its dispatch identity: macros
// are renamed and gain the implicit leading context parameter.
func assembleCode(table *defs.Table) *artifact.CodePayload {
	payload := &artifact.CodePayload{}
	for _, def := range table.All() {
		fa := def.FA
		entry := artifact.CodeEntry{
			Kind:   def.Kind.String(),
			Public: def.Kind.Public(),
			Macro:  def.Kind.Macro(),
		}
		if def.Kind.Macro() {
			fa = model.MacroDispatch(fa)
		}
		entry.Name = fa.Name
		entry.Arity = fa.Arity
		for _, clause := range def.Clauses {
			params := clause.Params
			if def.Kind.Macro() {
				params = append([]string{"__caller__"}, params...)
			}
			entry.Clauses = append(entry.Clauses, artifact.CodeClause{
				Params: params,
				Source: clause.Source,
				File:   clause.SrcRange.Filename,
				Line:   clause.SrcRange.Start.Line,
			})
		}
		payload.Definitions = append(payload.Definitions, entry)
	}
	return payload
}

// assembleAttributes emits one attribute section per accumulated value of
// every persisted user key, in write order. It also performs the deferred
// external_resource validation: values written by macros have stabilized by
// now, so each one must be a textual path.
func assembleAttributes(attrs *attrstore.Store) ([]artifact.Chunk, error) {
	var chunks []artifact.Chunk
	var failure error

	attrs.EachUser(func(key string, entries []attrstore.Entry) bool {
		if !attrs.IsPersisted(key) {
			return true
		}
		for _, entry := range entries {
			if key == attrstore.KeyExternalResource && entry.Value.Type() != cty.String {
				failure = diag.Newf(diag.KindInvalidExternalResource, entry.SrcRange,
					"external_resource value must be a textual path, got %s", entry.Value.Type().FriendlyName())
				return false
			}
			value, err := ctyToGo(entry.Value)
			if err != nil {
				failure = fmt.Errorf("attribute %q: %w", key, err)
				return false
			}
			payload, err := codec.Marshal(&artifact.AttrSection{Key: key, Value: value})
			if err != nil {
				failure = fmt.Errorf("encoding attribute section %q: %w", key, err)
				return false
			}
			chunks = append(chunks, artifact.Chunk{ID: artifact.ChunkAttr, Payload: payload})
		}
		return true
	})

	if failure != nil {
		return nil, failure
	}
	return chunks, nil
}

// compileFlags flattens the persisted compile attribute into backend flags.
func compileFlags(attrs *attrstore.Store) ([]string, error) {
	var flags []string
	for _, entry := range attrs.Entries(attrstore.KeyCompile) {
		flattened, err := flattenFlags(entry.Value)
		if err != nil {
			return nil, err
		}
		flags = append(flags, flattened...)
	}
	return flags, nil
}

// checkDanglingDocs warns about doc/typedoc attributes that no definition
// or type consumed. Warnings only: assembly proceeds.
func checkDanglingDocs(ctx context.Context, attrs *attrstore.Store, warnings *diag.Warnings) {
	for _, key := range []string{attrstore.KeyDoc, attrstore.KeyTypedoc} {
		for _, entry := range attrs.Entries(key) {
			warnings.Report(ctx, diag.Warning{
				Kind:    diag.WarnUnusedDocAttribute,
				Subject: entry.SrcRange,
				Message: key + " attribute is not followed by a definition",
			})
		}
	}
}

// assembleDocs builds the versioned documentation payload from the module
// doc attribute, definition docs, and type docs.
func assembleDocs(table *defs.Table, attrs *attrstore.Store) ([]byte, error) {
	payload := &artifact.DocPayload{
		Version: artifact.DocPayloadVersion,
		Format:  "text/markdown",
	}
	if moduledoc, ok := attrs.Get(attrstore.KeyModuledoc); ok && moduledoc.Type() == cty.String {
		payload.ModuleDoc = moduledoc.AsString()
	}
	for _, def := range table.All() {
		if def.Doc == "" {
			continue
		}
		payload.Entries = append(payload.Entries, artifact.DocEntry{
			Kind:  def.Kind.String(),
			Name:  def.FA.Name,
			Arity: def.FA.Arity,
			Doc:   def.Doc,
		})
	}
	types, err := assembleTypes(attrs)
	if err != nil {
		return nil, err
	}
	for _, typ := range types {
		if typ.Doc == "" {
			continue
		}
		payload.Entries = append(payload.Entries, artifact.DocEntry{
			Kind:  "type",
			Name:  typ.Name,
			Arity: typ.Arity,
			Doc:   typ.Doc,
		})
	}
	return artifact.EncodeDocs(payload)
}
