package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorrupt(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	got, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	require.NoError(t, kv.Set(ctx, "k", "v"))
	got, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, kv.Delete(ctx, "k"))
	got, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	require.NoError(t, kv.Delete(ctx, "missing"), "deleting an absent key is not an error")
}

func TestFileKV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	kv := NewFileKV(path)
	ctx := context.Background()

	got, err := kv.Get(ctx, "auth_token")
	require.NoError(t, err, "missing file reads as empty")
	assert.Equal(t, "", got)

	require.NoError(t, kv.Set(ctx, "auth_token", "tok"))
	require.NoError(t, kv.Set(ctx, "auth_user", `{"id":"u1"}`))

	// A fresh instance over the same path sees the persisted values.
	reopened := NewFileKV(path)
	got, err = reopened.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, reopened.Delete(ctx, "auth_token"))
	got, err = kv.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = kv.Get(ctx, "auth_user")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u1"}`, got, "deleting one key keeps the other")
}

func TestFileKV_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	kv := NewFileKV(path)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v"))

	// Corrupt the file out from under the store.
	corrupt := NewFileKV(path)
	writeCorrupt(t, path)
	_, err := corrupt.Get(ctx, "k")
	assert.Error(t, err)
}
