package artifact

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest of an artifact's logical content.
type Hash [32]byte

// moduleDomainKey is the BLAKE3 keyed-hashing domain for module artifact
// checksums. Fixed constant; changing it invalidates every stored checksum.
// The bytes are the ASCII domain name zero-padded to 32 bytes so the key is
// readable in hex dumps.
var moduleDomainKey = [32]byte{
	'l', 'o', 'o', 'm', '.', 'a', 'r', 't', 'i', 'f', 'a', 'c', 't', '.',
	'm', 'o', 'd', 'u', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// String returns the lowercase hex form of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Checksum computes the artifact checksum: a keyed BLAKE3 hash over each
// chunk's identifier and uncompressed payload in table order. Because it
// hashes raw payloads, the checksum is invariant under compression settings.
func (f *File) Checksum() Hash {
	hasher, err := blake3.NewKeyed(moduleDomainKey[:])
	if err != nil {
		panic("artifact: BLAKE3 keyed hasher initialization failed: " + err.Error())
	}
	var lenBuf [8]byte
	for _, chunk := range f.chunks {
		hasher.Write([]byte(chunk.ID))
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(chunk.Payload)))
		hasher.Write(lenBuf[:])
		hasher.Write(chunk.Payload)
	}
	var out Hash
	copy(out[:], hasher.Sum(nil))
	return out
}
