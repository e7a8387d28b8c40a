package artifact

import (
	"fmt"

	"github.com/vk/loom/internal/codec"
)

// InfoKind enumerates the metadata queries answered by the injected
// introspection symbol of every compiled module.
type InfoKind string

const (
	InfoAttributes      InfoKind = "attributes"
	InfoCompileOpts     InfoKind = "compile-opts"
	InfoExports         InfoKind = "exports"
	InfoFunctions       InfoKind = "functions"
	InfoMacros          InfoKind = "macros"
	InfoChecksum        InfoKind = "checksum"
	InfoModule          InfoKind = "module"
	InfoNativeAddresses InfoKind = "native-addresses"
)

// Info answers a metadata query against the artifact. This is the runtime
// behavior behind the injected introspection export: the loader routes
// __info__/1 calls on a loaded module here.
func (f *File) Info(kind InfoKind) (any, error) {
	switch kind {
	case InfoModule:
		var payload ModulePayload
		if err := f.decodeChunk(ChunkModule, &payload); err != nil {
			return nil, err
		}
		return payload.Name, nil

	case InfoChecksum:
		return f.Checksum().String(), nil

	case InfoExports:
		payload, err := f.exports()
		if err != nil {
			return nil, err
		}
		return payload.Exports, nil

	case InfoFunctions:
		payload, err := f.exports()
		if err != nil {
			return nil, err
		}
		out := []ExportEntry{}
		for _, e := range payload.Exports {
			if !e.Macro {
				out = append(out, e)
			}
		}
		return out, nil

	case InfoMacros:
		payload, err := f.exports()
		if err != nil {
			return nil, err
		}
		out := []ExportEntry{}
		for _, e := range payload.Exports {
			if e.Macro {
				out = append(out, e)
			}
		}
		return out, nil

	case InfoAttributes:
		var sections []AttrSection
		for _, raw := range f.ChunksByID(ChunkAttr) {
			var section AttrSection
			if err := codec.Unmarshal(raw, &section); err != nil {
				return nil, fmt.Errorf("decoding attribute section: %w", err)
			}
			sections = append(sections, section)
		}
		return sections, nil

	case InfoCompileOpts:
		raw, ok := f.Chunk(ChunkCompile)
		if !ok {
			return []string{}, nil
		}
		var payload CompilePayload
		if err := codec.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decoding compile options chunk: %w", err)
		}
		return payload.Flags, nil

	case InfoNativeAddresses:
		// No native code backend: always empty.
		return []ExportEntry{}, nil

	default:
		return nil, fmt.Errorf("unknown module info kind %q", kind)
	}
}

func (f *File) exports() (*ExportsPayload, error) {
	var payload ExportsPayload
	if err := f.decodeChunk(ChunkExports, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (f *File) decodeChunk(id string, v any) error {
	raw, ok := f.Chunk(id)
	if !ok {
		return fmt.Errorf("artifact has no %q chunk", id)
	}
	if err := codec.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %q chunk: %w", id, err)
	}
	return nil
}
