package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herd-marketplace/internal/cache"
)

func TestKVStore_CRUD(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "b", "2"))
	require.NoError(t, s.Set(ctx, "a", "3"))

	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	keys, err := s.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, s.RemoveMany(ctx, []string{"a", "b", "zzz"}))
	keys, err = s.ListKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, s.Remove(ctx, "never-existed"))
}

func TestKVStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "kv.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)

	b := cache.NewBackend(s, cache.Options{TTL: time.Hour})
	c := cache.New[string](b)
	scope := cache.NewScope("animals", "project", "p-1")
	c.Set(ctx, scope, []string{"sow-1", "boar-1"}, 0)
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, ok := cache.New[string](cache.NewBackend(s2, cache.Options{TTL: time.Hour})).Get(ctx, scope)
	require.True(t, ok)
	assert.Equal(t, []string{"sow-1", "boar-1"}, got)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestKVStore_ErrorsMatchSentinels(t *testing.T) {
	_, err := Open("  ")
	assert.ErrorIs(t, err, ErrOpenFailed)

	notADir := filepath.Join(t.TempDir(), "plain-file")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0o600))
	_, err = Open(filepath.Join(notADir, "sub", "kv.db"))
	assert.ErrorIs(t, err, ErrOpenFailed)

	s, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	ctx := context.Background()

	_, _, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrReadFailed)
	assert.ErrorIs(t, s.Set(ctx, "a", "1"), ErrWriteFailed)
	assert.ErrorIs(t, s.Remove(ctx, "a"), ErrDeleteFailed)
	assert.ErrorIs(t, s.RemoveMany(ctx, []string{"a"}), ErrDeleteFailed)
	_, err = s.ListKeys(ctx)
	assert.ErrorIs(t, err, ErrReadFailed)
}
