// Package artifact implements the binary container format of a compiled
// module.
//
// An artifact is a header followed by a chunk table: each chunk has a 4-byte
// identifier, a compression tag, and a payload. Section order inside the
// table carries no semantics. Artifacts are immutable values — injecting a
// custom metadata chunk decodes the container, appends to the chunk list, and
// re-encodes a new byte slice; every pre-existing chunk survives and any
// chunk can be read back bit-for-bit.
//
// The artifact checksum is a keyed BLAKE3 hash over the uncompressed chunk
// contents, so it is stable across compression settings.
package artifact
