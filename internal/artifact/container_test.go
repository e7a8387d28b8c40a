package artifact

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/loom/internal/codec"
)

func sampleChunks() []Chunk {
	return []Chunk{
		{ID: ChunkModule, Payload: []byte("module-payload")},
		{ID: ChunkExports, Payload: []byte("exports")},
		{ID: ChunkCode, Payload: bytes.Repeat([]byte("body "), 100)},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	binary, err := Encode(sampleChunks())
	require.NoError(t, err)

	file, err := Decode(binary)
	require.NoError(t, err)

	chunks := file.Chunks()
	require.Len(t, chunks, 3)
	assert.Equal(t, ChunkModule, chunks[0].ID)
	assert.Equal(t, []byte("module-payload"), chunks[0].Payload)
	assert.Equal(t, ChunkCode, chunks[2].ID)
	assert.Equal(t, bytes.Repeat([]byte("body "), 100), chunks[2].Payload)
}

func TestEncodePadsPayloadsToFourBytes(t *testing.T) {
	binary, err := Encode([]Chunk{
		{ID: "One\x00", Payload: []byte("x")},
		{ID: "Two\x00", Payload: []byte("yy")},
	})
	require.NoError(t, err)

	// Header + two index entries + two padded payloads.
	assert.Equal(t, 12+2*16+4+4, len(binary))

	file, err := Decode(binary)
	require.NoError(t, err)
	payload, ok := file.Chunk("One\x00")
	require.True(t, ok)
	assert.Equal(t, []byte("x"), payload)
}

func TestEncodeRejectsBadChunkID(t *testing.T) {
	_, err := Encode([]Chunk{{ID: "toolong", Payload: nil}})
	assert.ErrorContains(t, err, "not exactly 4 bytes")
}

func TestZstdChunkRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("compressible text "), 200)
	binary, err := Encode([]Chunk{
		{ID: ChunkCode, Compression: CompressionZstd, Payload: payload},
	})
	require.NoError(t, err)

	file, err := Decode(binary)
	require.NoError(t, err)
	got, ok := file.Chunk(ChunkCode)
	require.True(t, ok)
	assert.Equal(t, payload, got)

	// The stored form is actually smaller than the raw payload.
	assert.Less(t, len(binary), len(payload))
}

func TestDecodeErrors(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		_, err := Decode([]byte("LOOM"))
		assert.ErrorContains(t, err, "too short")
	})

	t.Run("bad magic", func(t *testing.T) {
		binary, err := Encode(sampleChunks())
		require.NoError(t, err)
		binary[0] = 'X'
		_, err = Decode(binary)
		assert.ErrorContains(t, err, "magic")
	})

	t.Run("truncated index", func(t *testing.T) {
		binary, err := Encode(sampleChunks())
		require.NoError(t, err)
		_, err = Decode(binary[:headerSize+indexEntrySize-1])
		assert.ErrorContains(t, err, "truncated")
	})
}

func TestBuildCompressFlag(t *testing.T) {
	chunks := []Chunk{
		{ID: ChunkModule, Payload: []byte("mod")},
		{ID: ChunkCode, Payload: bytes.Repeat([]byte("clause "), 300)},
	}

	plain, err := Build(chunks, BuildOptions{})
	require.NoError(t, err)
	compressed, err := Build(chunks, BuildOptions{Flags: []string{"compress"}})
	require.NoError(t, err)

	assert.Less(t, len(compressed), len(plain))

	// Both read back to identical payloads and identical checksums.
	plainFile, err := Decode(plain)
	require.NoError(t, err)
	compressedFile, err := Decode(compressed)
	require.NoError(t, err)
	assert.Equal(t, plainFile.Checksum(), compressedFile.Checksum())
}

func TestWithChunk(t *testing.T) {
	binary, err := Encode(sampleChunks())
	require.NoError(t, err)

	custom := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	augmented, err := WithChunk(binary, "Meta", custom)
	require.NoError(t, err)

	file, err := Decode(augmented)
	require.NoError(t, err)

	// Every pre-existing chunk is preserved in order.
	chunks := file.Chunks()
	require.Len(t, chunks, 4)
	for i, original := range sampleChunks() {
		assert.Equal(t, original.ID, chunks[i].ID)
		assert.Equal(t, original.Payload, chunks[i].Payload)
	}

	// The injected payload reads back bit-for-bit.
	got, ok := file.Chunk("Meta")
	require.True(t, ok)
	assert.Equal(t, custom, got)
	assert.Equal(t, CompressionNone, chunks[3].Compression)

	t.Run("input binary unmodified", func(t *testing.T) {
		again, err := Encode(sampleChunks())
		require.NoError(t, err)
		assert.Equal(t, again, binary)
	})

	t.Run("rejects garbage input", func(t *testing.T) {
		_, err := WithChunk([]byte("not an artifact"), "Meta", nil)
		assert.Error(t, err)
	})
}

func TestChecksum(t *testing.T) {
	binary, err := Encode(sampleChunks())
	require.NoError(t, err)
	file, err := Decode(binary)
	require.NoError(t, err)

	sum := file.Checksum()
	assert.Len(t, sum.String(), 64)

	t.Run("stable across decodes", func(t *testing.T) {
		again, err := Decode(binary)
		require.NoError(t, err)
		assert.Equal(t, sum, again.Checksum())
	})

	t.Run("payload change alters the checksum", func(t *testing.T) {
		chunks := sampleChunks()
		chunks[0].Payload = []byte("different")
		other, err := Encode(chunks)
		require.NoError(t, err)
		otherFile, err := Decode(other)
		require.NoError(t, err)
		assert.NotEqual(t, sum, otherFile.Checksum())
	})

	t.Run("appended chunk alters the checksum", func(t *testing.T) {
		augmented, err := WithChunk(binary, "Meta", []byte("m"))
		require.NoError(t, err)
		augmentedFile, err := Decode(augmented)
		require.NoError(t, err)
		assert.NotEqual(t, sum, augmentedFile.Checksum())
	})
}

func TestDocsPayloadRoundTrip(t *testing.T) {
	payload := &DocPayload{
		Format:    "text/markdown",
		ModuleDoc: "module docs",
		Entries: []DocEntry{
			{Kind: "def", Name: "add", Arity: 2, Doc: "adds"},
		},
	}
	data, err := EncodeDocs(payload)
	require.NoError(t, err)

	decoded, err := DecodeDocs(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(DocPayloadVersion), decoded.Version)
	assert.Equal(t, "module docs", decoded.ModuleDoc)
	require.Len(t, decoded.Entries, 1)
	assert.Equal(t, "add", decoded.Entries[0].Name)

	t.Run("unknown version rejected", func(t *testing.T) {
		bad, err := EncodeDocs(&DocPayload{Version: 99})
		require.NoError(t, err)
		_, err = DecodeDocs(bad)
		assert.ErrorContains(t, err, "unsupported docs chunk version")
	})
}

func TestInfo(t *testing.T) {
	mod, err := codec.Marshal(&ModulePayload{Name: "acme.math"})
	require.NoError(t, err)
	exp, err := codec.Marshal(&ExportsPayload{Exports: []ExportEntry{
		{Name: "__info__", Arity: 1},
		{Name: "add", Arity: 2},
		{Name: "MACRO-unless", Arity: 3, Macro: true},
	}})
	require.NoError(t, err)

	binary, err := Encode([]Chunk{
		{ID: ChunkModule, Payload: mod},
		{ID: ChunkExports, Payload: exp},
	})
	require.NoError(t, err)
	file, err := Decode(binary)
	require.NoError(t, err)

	name, err := file.Info(InfoModule)
	require.NoError(t, err)
	assert.Equal(t, "acme.math", name)

	functions, err := file.Info(InfoFunctions)
	require.NoError(t, err)
	assert.Len(t, functions, 2)

	macros, err := file.Info(InfoMacros)
	require.NoError(t, err)
	assert.Len(t, macros, 1)

	native, err := file.Info(InfoNativeAddresses)
	require.NoError(t, err)
	assert.Empty(t, native)

	opts, err := file.Info(InfoCompileOpts)
	require.NoError(t, err)
	assert.Empty(t, opts)

	_, err = file.Info(InfoKind("bogus"))
	assert.ErrorContains(t, err, "unknown module info kind")
}
