package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/wingedcap-client/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir, discardLogger)
	require.NoError(t, err)
	ctx := context.Background()

	assert.True(t, backend.Available(ctx))
	assert.Equal(t, "file://"+dir, backend.LocationURI())

	_, err = backend.Fetch(ctx, "sender_a")
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	require.NoError(t, backend.Store(ctx, "sender_a", []byte("one")))
	require.NoError(t, backend.Store(ctx, "sender_a", []byte("two")))
	require.NoError(t, backend.Store(ctx, "receiver_b", []byte("three")))

	data, err := backend.Fetch(ctx, "sender_a")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)

	ids, err := backend.List(ctx, "sender_")
	require.NoError(t, err)
	assert.Equal(t, []string{"sender_a"}, ids)

	ids, err = backend.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"receiver_b", "sender_a"}, ids)

	// No temporary files are left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, backend.Delete(ctx, "sender_a"))
	require.NoError(t, backend.Delete(ctx, "sender_a"))
	_, err = backend.Fetch(ctx, "sender_a")
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestFileBackendRejectsUnsafeIDs(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(filepath.Join(dir, "store"), discardLogger)
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", ".hidden", `a\b`} {
		assert.ErrorIs(t, backend.Store(ctx, id, []byte("x")), ErrInvalidID, id)
		_, err := backend.Fetch(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}

	_, err = os.Stat(filepath.Join(dir, "escape"))
	assert.True(t, os.IsNotExist(err))
}
