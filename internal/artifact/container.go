package artifact

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Container format constants.
const (
	// containerVersion is the current format version, stored in the
	// eighth magic byte.
	containerVersion = 1

	// headerSize is the fixed header: 8-byte magic + 4-byte chunk count.
	headerSize = 12

	// indexEntrySize is the size of each chunk index entry: 4-byte
	// chunk ID + 1-byte compression tag + 3 reserved bytes + 4-byte
	// stored size + 4-byte raw size.
	indexEntrySize = 16
)

// magic is the 8-byte container signature: "LOOMMOD" + version byte.
var magic = [8]byte{'L', 'O', 'O', 'M', 'M', 'O', 'D', containerVersion}

// CompressionTag identifies how a chunk payload is stored.
type CompressionTag byte

const (
	// CompressionNone stores the payload verbatim. Injected custom
	// chunks always use it so read-back is bit-exact at the container
	// level too.
	CompressionNone CompressionTag = 0

	// CompressionZstd stores the payload zstd-compressed.
	CompressionZstd CompressionTag = 1
)

// Chunk is one section of an artifact. Payload always holds the raw,
// uncompressed bytes; Compression only selects the storage encoding.
type Chunk struct {
	ID          string
	Compression CompressionTag
	Payload     []byte
}

// Well-known chunk identifiers. All IDs are exactly four bytes.
const (
	ChunkLocation = "Loc\x00"
	ChunkModule   = "Mod\x00"
	ChunkExports  = "ExpT"
	ChunkCode     = "Code"
	ChunkTypes    = "TypT"
	ChunkSpecs    = "SpcT"
	ChunkAttr     = "Attr"
	ChunkCompile  = "COpt"
	ChunkDocs     = "Docs"
)

var zstdEncoder *zstd.Encoder

var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("artifact: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("artifact: zstd decoder initialization failed: " + err.Error())
	}
}

// Encode serializes the chunk list into the container format.
func Encode(chunks []Chunk) ([]byte, error) {
	type stored struct {
		data    []byte
		rawSize uint32
	}

	storedChunks := make([]stored, len(chunks))
	var dataSize int
	for i, chunk := range chunks {
		if len(chunk.ID) != 4 {
			return nil, fmt.Errorf("chunk %d: identifier %q is not exactly 4 bytes", i, chunk.ID)
		}
		data := chunk.Payload
		switch chunk.Compression {
		case CompressionNone:
		case CompressionZstd:
			data = zstdEncoder.EncodeAll(chunk.Payload, nil)
		default:
			return nil, fmt.Errorf("chunk %q: unknown compression tag %d", chunk.ID, chunk.Compression)
		}
		storedChunks[i] = stored{data: data, rawSize: uint32(len(chunk.Payload))}
		dataSize += pad4(len(data))
	}

	out := make([]byte, 0, headerSize+indexEntrySize*len(chunks)+dataSize)
	out = append(out, magic[:]...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(chunks)))

	for i, chunk := range chunks {
		out = append(out, chunk.ID...)
		out = append(out, byte(chunk.Compression), 0, 0, 0)
		out = binary.LittleEndian.AppendUint32(out, uint32(len(storedChunks[i].data)))
		out = binary.LittleEndian.AppendUint32(out, storedChunks[i].rawSize)
	}

	for _, sc := range storedChunks {
		out = append(out, sc.data...)
		for p := len(sc.data); p%4 != 0; p++ {
			out = append(out, 0)
		}
	}

	return out, nil
}

// File is a decoded artifact.
type File struct {
	chunks []Chunk
}

// Decode parses a container and decompresses every chunk payload.
func Decode(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("artifact too short: %d bytes", len(data))
	}
	if [8]byte(data[:8]) != magic {
		return nil, fmt.Errorf("bad artifact magic %q", data[:8])
	}
	count := binary.LittleEndian.Uint32(data[8:12])

	indexEnd := headerSize + int(count)*indexEntrySize
	if len(data) < indexEnd {
		return nil, fmt.Errorf("artifact truncated inside chunk index")
	}

	file := &File{chunks: make([]Chunk, 0, count)}
	offset := indexEnd
	for i := 0; i < int(count); i++ {
		entry := data[headerSize+i*indexEntrySize:]
		id := string(entry[:4])
		tag := CompressionTag(entry[4])
		storedSize := int(binary.LittleEndian.Uint32(entry[8:12]))
		rawSize := int(binary.LittleEndian.Uint32(entry[12:16]))

		if offset+storedSize > len(data) {
			return nil, fmt.Errorf("chunk %q: truncated payload", id)
		}
		payload := data[offset : offset+storedSize]
		offset += pad4(storedSize)

		switch tag {
		case CompressionNone:
			payload = append([]byte(nil), payload...)
		case CompressionZstd:
			raw, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, rawSize))
			if err != nil {
				return nil, fmt.Errorf("chunk %q: zstd decompression failed: %w", id, err)
			}
			payload = raw
		default:
			return nil, fmt.Errorf("chunk %q: unknown compression tag %d", id, tag)
		}
		if len(payload) != rawSize {
			return nil, fmt.Errorf("chunk %q: raw size mismatch: index says %d, payload is %d", id, rawSize, len(payload))
		}

		file.chunks = append(file.chunks, Chunk{ID: id, Compression: tag, Payload: payload})
	}

	return file, nil
}

// Chunks returns every chunk in table order.
func (f *File) Chunks() []Chunk {
	return append([]Chunk(nil), f.chunks...)
}

// Chunk returns the payload of the first chunk with the given identifier.
func (f *File) Chunk(id string) ([]byte, bool) {
	for _, chunk := range f.chunks {
		if chunk.ID == id {
			return chunk.Payload, true
		}
	}
	return nil, false
}

// ChunksByID returns the payloads of every chunk with the given identifier,
// in table order. Attribute sections use one chunk per value, so repeated
// identifiers are normal.
func (f *File) ChunksByID(id string) [][]byte {
	var out [][]byte
	for _, chunk := range f.chunks {
		if chunk.ID == id {
			out = append(out, chunk.Payload)
		}
	}
	return out
}

func pad4(n int) int {
	return (n + 3) &^ 3
}
