package artifact

import (
	"fmt"

	"github.com/vk/loom/internal/codec"
)

// DocPayloadVersion is the current version of the documentation chunk blob.
// The version field is always serialized so readers can dispatch on it
// before interpreting the rest.
const DocPayloadVersion = 1

// DocEntry documents one definition or type of a module.
type DocEntry struct {
	Kind  string `cbor:"kind"`
	Name  string `cbor:"name"`
	Arity int    `cbor:"arity"`
	Doc   string `cbor:"doc"`
}

// DocPayload is the self-describing documentation blob embedded as the docs
// chunk when documentation generation is enabled.
type DocPayload struct {
	Version   uint32     `cbor:"version"`
	Format    string     `cbor:"format"`
	ModuleDoc string     `cbor:"module_doc,omitempty"`
	Entries   []DocEntry `cbor:"entries,omitempty"`
}

// EncodeDocs serializes the documentation payload with deterministic CBOR.
func EncodeDocs(payload *DocPayload) ([]byte, error) {
	if payload.Version == 0 {
		payload.Version = DocPayloadVersion
	}
	return codec.Marshal(payload)
}

// DecodeDocs parses a documentation chunk payload, rejecting versions this
// reader does not understand.
func DecodeDocs(data []byte) (*DocPayload, error) {
	var payload DocPayload
	if err := codec.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding docs chunk: %w", err)
	}
	if payload.Version != DocPayloadVersion {
		return nil, fmt.Errorf("unsupported docs chunk version %d", payload.Version)
	}
	return &payload, nil
}
