package artifact

import (
	"slices"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/loom/internal/diag"
)

// BuildOptions are the backend flags of one artifact build, sourced from the
// module's persisted "compile" attribute plus compiler configuration.
type BuildOptions struct {
	// Flags is the flattened list of backend flags. Recognized flags:
	// "compress" stores the code and docs chunks zstd-compressed.
	Flags []string

	// Subject locates the module definition for build diagnostics.
	Subject hcl.Range
}

// compressible chunks: large, text-heavy payloads worth a zstd pass.
// Custom injected chunks are never compressed.
var compressible = map[string]bool{
	ChunkCode: true,
	ChunkDocs: true,
}

// Build produces the artifact binary from the assembled chunks. Failures are
// reported as BuildError.
func Build(chunks []Chunk, opts BuildOptions) ([]byte, error) {
	compress := slices.Contains(opts.Flags, "compress")

	built := make([]Chunk, len(chunks))
	for i, chunk := range chunks {
		built[i] = chunk
		if compress && compressible[chunk.ID] {
			built[i].Compression = CompressionZstd
		}
	}

	binary, err := Encode(built)
	if err != nil {
		derr := diag.Newf(diag.KindBuildError, opts.Subject, "artifact construction failed")
		derr.Err = err
		return nil, derr
	}
	return binary, nil
}

// WithChunk returns a new artifact binary with one custom metadata chunk
// appended to the chunk table. The input binary is not modified; every
// pre-existing chunk is preserved and the injected payload reads back
// bit-for-bit. The identifier must be exactly four bytes.
func WithChunk(binary []byte, id string, payload []byte) ([]byte, error) {
	file, err := Decode(binary)
	if err != nil {
		derr := diag.Newf(diag.KindBuildError, hcl.Range{}, "chunk injection: cannot decode artifact")
		derr.Err = err
		return nil, derr
	}

	chunks := append(file.Chunks(), Chunk{
		ID:          id,
		Compression: CompressionNone,
		Payload:     append([]byte(nil), payload...),
	})

	out, err := Encode(chunks)
	if err != nil {
		derr := diag.Newf(diag.KindBuildError, hcl.Range{}, "chunk injection: cannot re-encode artifact")
		derr.Err = err
		return nil, derr
	}
	return out, nil
}
