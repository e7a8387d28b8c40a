package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/loom/internal/artifact"
	"github.com/vk/loom/internal/ctxlog"
	"github.com/vk/loom/internal/diag"
	"github.com/vk/loom/internal/session"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

func testLocation(file string, line int) hcl.Range {
	return hcl.Range{Filename: file, Start: hcl.Pos{Line: line}}
}

func openOpts(w *diag.Warnings) OpenOptions {
	return OpenOptions{Warnings: w}
}

func TestOpenAndClose(t *testing.T) {
	r := New(session.NewRegistry())
	var w diag.Warnings

	entry, err := r.Open(testCtx(), "math", testLocation("a.loom", 1), openOpts(&w))
	require.NoError(t, err)
	assert.Equal(t, "math", entry.Name)
	assert.NotNil(t, entry.Attrs)
	assert.NotNil(t, entry.Defs)
	assert.False(t, entry.Closed())

	got, ok := r.Lookup("math")
	require.True(t, ok)
	assert.Same(t, entry, got)
	assert.Equal(t, []string{"math"}, r.InProgress())

	r.Close(entry)
	assert.True(t, entry.Closed())
	_, ok = r.Lookup("math")
	assert.False(t, ok)

	r.Close(entry) // idempotent
}

func TestOpenReservedName(t *testing.T) {
	r := New(session.NewRegistry())
	var w diag.Warnings

	for _, name := range []string{"true", "false", "nil", "loom"} {
		_, err := r.Open(testCtx(), name, testLocation("a.loom", 1), openOpts(&w))
		var derr *diag.Error
		require.ErrorAs(t, err, &derr, name)
		assert.Equal(t, diag.KindModuleReserved, derr.Kind)
	}

	t.Run("malformed name", func(t *testing.T) {
		_, err := r.Open(testCtx(), "bad..name", testLocation("a.loom", 1), openOpts(&w))
		assert.Error(t, err)
	})
}

func TestOpenAlreadyDefining(t *testing.T) {
	r := New(session.NewRegistry())
	var w diag.Warnings

	first, err := r.Open(testCtx(), "math", testLocation("a.loom", 3), openOpts(&w))
	require.NoError(t, err)

	_, err = r.Open(testCtx(), "math", testLocation("b.loom", 9), openOpts(&w))
	var derr *diag.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, diag.KindModuleAlreadyDefining, derr.Kind)
	// The error names the original definition site, not the loser's.
	assert.Contains(t, derr.Message, "a.loom:3")

	// The original entry survives the failed open.
	got, ok := r.Lookup("math")
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.False(t, first.Closed())

	// After the winner closes, the name is free again.
	r.Close(first)
	_, err = r.Open(testCtx(), "math", testLocation("b.loom", 9), openOpts(&w))
	assert.NoError(t, err)
}

func TestOpenConcurrentSameName(t *testing.T) {
	r := New(session.NewRegistry())
	var w diag.Warnings

	const attempts = 16
	var wg sync.WaitGroup
	entries := make([]*Entry, attempts)
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entries[i], errs[i] = r.Open(testCtx(), "math", testLocation("a.loom", i+1), openOpts(&w))
		}(i)
	}
	wg.Wait()

	var winners int
	for i := 0; i < attempts; i++ {
		if errs[i] == nil {
			winners++
			require.NotNil(t, entries[i])
		} else {
			assert.ErrorIs(t, errs[i], &diag.Error{Kind: diag.KindModuleAlreadyDefining})
		}
	}
	assert.Equal(t, 1, winners)
}

func TestOpenRedefinitionWarning(t *testing.T) {
	sess := session.NewRegistry()
	binary, err := artifact.Encode([]artifact.Chunk{{ID: artifact.ChunkModule, Payload: []byte("math")}})
	require.NoError(t, err)
	_, err = sess.Load(testCtx(), "math", binary)
	require.NoError(t, err)

	r := New(sess)

	t.Run("warns by default", func(t *testing.T) {
		var w diag.Warnings
		entry, err := r.Open(testCtx(), "math", testLocation("a.loom", 1), openOpts(&w))
		require.NoError(t, err)
		defer r.Close(entry)

		assert.Equal(t, 1, w.Count(diag.WarnModuleRedefinition))
		all := w.All()
		require.Len(t, all, 1)
		assert.Contains(t, all[0].Message, "redefining module math")
	})

	t.Run("suppressed when requested", func(t *testing.T) {
		var w diag.Warnings
		entry, err := r.Open(testCtx(), "math", testLocation("a.loom", 1),
			OpenOptions{IgnoreModuleConflict: true, Warnings: &w})
		require.NoError(t, err)
		defer r.Close(entry)

		assert.Zero(t, w.Count(diag.WarnModuleRedefinition))
	})
}

func TestEntryIDsAreUnique(t *testing.T) {
	r := New(session.NewRegistry())
	var w diag.Warnings

	a, err := r.Open(testCtx(), "a", testLocation("a.loom", 1), openOpts(&w))
	require.NoError(t, err)
	b, err := r.Open(testCtx(), "b", testLocation("a.loom", 2), openOpts(&w))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}
