package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/loom/internal/artifact"
	"github.com/vk/loom/internal/ctxlog"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

func testBinary(t *testing.T, payload string) []byte {
	t.Helper()
	binary, err := artifact.Encode([]artifact.Chunk{
		{ID: artifact.ChunkModule, Payload: []byte(payload)},
	})
	require.NoError(t, err)
	return binary
}

func TestLoadAndLookup(t *testing.T) {
	r := NewRegistry()
	binary := testBinary(t, "math")

	loaded, err := r.Load(testCtx(), "math", binary)
	require.NoError(t, err)
	assert.Equal(t, "math", loaded.Name)
	assert.Equal(t, binary, loaded.Binary)
	assert.NotEqual(t, artifact.Hash{}, loaded.Checksum)

	got, ok := r.Lookup("math")
	require.True(t, ok)
	assert.Same(t, loaded, got)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestLoadReplacesPrevious(t *testing.T) {
	r := NewRegistry()

	first, err := r.Load(testCtx(), "math", testBinary(t, "v1"))
	require.NoError(t, err)
	second, err := r.Load(testCtx(), "math", testBinary(t, "v2"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Checksum, second.Checksum)
	got, ok := r.Lookup("math")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestLoadRejectsReservedName(t *testing.T) {
	r := NewRegistry()
	_, err := r.Load(testCtx(), "loom", testBinary(t, "x"))
	assert.ErrorContains(t, err, "reserved")
}

func TestLoadRejectsGarbageBinary(t *testing.T) {
	r := NewRegistry()
	_, err := r.Load(testCtx(), "math", []byte("not an artifact"))
	assert.Error(t, err)
	_, ok := r.Lookup("math")
	assert.False(t, ok)
}

func TestUnload(t *testing.T) {
	r := NewRegistry()
	_, err := r.Load(testCtx(), "math", testBinary(t, "x"))
	require.NoError(t, err)

	r.Unload("math")
	_, ok := r.Lookup("math")
	assert.False(t, ok)

	r.Unload("math") // idempotent
}

func TestSubscribe(t *testing.T) {
	r := NewRegistry()
	events := r.Subscribe()

	loaded, err := r.Load(testCtx(), "math", testBinary(t, "x"))
	require.NoError(t, err)

	select {
	case event := <-events:
		assert.Equal(t, "math", event.Name)
		assert.Equal(t, loaded.Checksum, event.Checksum)
	default:
		t.Fatal("expected a load event")
	}
}
