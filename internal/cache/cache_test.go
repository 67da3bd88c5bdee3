package cache_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herd-marketplace/internal/adapters/storage/memory"
	"herd-marketplace/internal/cache"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(t *testing.T, store cache.Store, maxEntries int) (*cache.Cache[int], *cache.Backend, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)}
	b := cache.NewBackend(store, cache.Options{
		TTL:        10 * time.Minute,
		MaxEntries: maxEntries,
		Now:        clk.now,
	})
	return cache.New[int](b), b, clk
}

func TestCache_TTLBoundary(t *testing.T) {
	c, _, clk := newTestCache(t, memory.NewKVStore(), 20)
	ctx := context.Background()
	scope := cache.NewScope("animals", "project", "p-1")

	c.Set(ctx, scope, []int{1, 2, 3}, 10)

	clk.t = clk.t.Add(10*time.Minute - time.Nanosecond)
	got, ok := c.Get(ctx, scope)
	require.True(t, ok, "expected hit just before TTL")
	assert.Equal(t, []int{1, 2, 3}, got)

	clk.t = clk.t.Add(2 * time.Nanosecond)
	_, ok = c.Get(ctx, scope)
	assert.False(t, ok, "expected miss just after TTL")
}

func TestCache_ExpiredEntryIsEvicted(t *testing.T) {
	store := memory.NewKVStore()
	c, _, clk := newTestCache(t, store, 20)
	ctx := context.Background()
	scope := cache.NewScope("weighings", "animal", "a-1")

	c.Set(ctx, scope, []int{80}, 0)
	clk.t = clk.t.Add(11 * time.Minute)

	_, ok := c.Get(ctx, scope)
	require.False(t, ok)

	_, exists, _ := store.Get(ctx, scope.Key())
	assert.False(t, exists, "expired entry must be removed from the store")

	// idempotente: una segunda lectura/evicción no falla
	_, ok = c.Get(ctx, scope)
	assert.False(t, ok)
}

func TestCache_SetTruncatesToMaxItems(t *testing.T) {
	c, _, _ := newTestCache(t, memory.NewKVStore(), 20)
	ctx := context.Background()
	scope := cache.NewScope("listings", "state", "active")

	c.Set(ctx, scope, []int{1, 2, 3, 4, 5, 6, 7}, 4)

	got, ok := c.Get(ctx, scope)
	require.True(t, ok)
	assert.Len(t, got, 4)
	assert.Equal(t, []int{1, 2, 3, 4}, got)
}

func TestCache_ScopeMismatchIsMissAndEvicts(t *testing.T) {
	store := memory.NewKVStore()
	c, _, _ := newTestCache(t, store, 20)
	ctx := context.Background()

	// Entrada escrita por otro caller bajo la misma clave pero otro scope.
	scope := cache.NewScope("animals", "project", "p-1")
	require.NoError(t, store.Set(ctx, scope.Key(),
		`{"scope":{"collection":"animals","params":{"project":"p-2"}},"written_at":"2025-12-22T10:00:00Z","payload":[9]}`))

	_, ok := c.Get(ctx, scope)
	assert.False(t, ok)

	_, exists, _ := store.Get(ctx, scope.Key())
	assert.False(t, exists)
}

func TestCache_CorruptPayloadIsMiss(t *testing.T) {
	store := memory.NewKVStore()
	c, _, _ := newTestCache(t, store, 20)
	ctx := context.Background()
	scope := cache.NewScope("animals", "project", "p-1")

	require.NoError(t, store.Set(ctx, scope.Key(), "{not json"))

	_, ok := c.Get(ctx, scope)
	assert.False(t, ok)
}

func TestCache_InvalidateAndPrefix(t *testing.T) {
	c, _, _ := newTestCache(t, memory.NewKVStore(), 20)
	ctx := context.Background()

	a1 := cache.NewScope("weighings", "animal", "a-1")
	a2 := cache.NewScope("weighings", "animal", "a-2")
	p1 := cache.NewScope("animals", "project", "p-1")

	c.Set(ctx, a1, []int{1}, 0)
	c.Set(ctx, a2, []int{2}, 0)
	c.Set(ctx, p1, []int{3}, 0)

	c.Invalidate(ctx, a1)
	_, ok := c.Get(ctx, a1)
	assert.False(t, ok)

	c.InvalidatePrefix(ctx, cache.CollectionPrefix("weighings"))
	_, ok = c.Get(ctx, a2)
	assert.False(t, ok)

	_, ok = c.Get(ctx, p1)
	assert.True(t, ok, "other collections must survive prefix invalidation")
}

func TestCache_CompactionEvictsOldestWrites(t *testing.T) {
	store := memory.NewKVStore()
	c, _, clk := newTestCache(t, store, 3)
	ctx := context.Background()

	scopes := make([]cache.Scope, 0, 5)
	for i := 0; i < 5; i++ {
		s := cache.NewScope("weighings", "animal", fmt.Sprintf("a-%d", i))
		scopes = append(scopes, s)
		c.Set(ctx, s, []int{i}, 0)
		clk.t = clk.t.Add(time.Second)
	}

	// Leer la más vieja sobreviviente no refresca recencia.
	_, ok := c.Get(ctx, scopes[2])
	require.True(t, ok)

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	for i, s := range scopes {
		_, ok := c.Get(ctx, s)
		if i < 2 {
			assert.False(t, ok, "scope %d should have been compacted", i)
		} else {
			assert.True(t, ok, "scope %d should survive", i)
		}
	}
}

func TestCache_CompactionSharedAcrossTypes(t *testing.T) {
	store := memory.NewKVStore()
	ints, b, clk := newTestCache(t, store, 2)
	strs := cache.New[string](b)
	ctx := context.Background()

	ints.Set(ctx, cache.NewScope("a", "k", "1"), []int{1}, 0)
	clk.t = clk.t.Add(time.Second)
	strs.Set(ctx, cache.NewScope("b", "k", "1"), []string{"x"}, 0)
	clk.t = clk.t.Add(time.Second)
	strs.Set(ctx, cache.NewScope("c", "k", "1"), []string{"y"}, 0)

	_, ok := ints.Get(ctx, cache.NewScope("a", "k", "1"))
	assert.False(t, ok, "global ceiling applies across typed caches")
}

func TestCache_GetOrLoad(t *testing.T) {
	c, _, _ := newTestCache(t, memory.NewKVStore(), 20)
	ctx := context.Background()
	scope := cache.NewScope("animals", "project", "p-1")

	calls := 0
	load := func(ctx context.Context) ([]int, error) {
		calls++
		return []int{1, 2, 3}, nil
	}

	got, err := c.GetOrLoad(ctx, scope, 2, load)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)

	got, err = c.GetOrLoad(ctx, scope, 2, load)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 1, calls, "second call must be served from cache")

	boom := errors.New("remote down")
	_, err = c.GetOrLoad(ctx, cache.NewScope("animals", "project", "p-2"), 0, func(ctx context.Context) ([]int, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

// failingStore simula un store roto: toda operación falla.
type failingStore struct{}

var errIO = errors.New("disk on fire")

func (failingStore) Get(ctx context.Context, key string) (string, bool, error) { return "", false, errIO }
func (failingStore) Set(ctx context.Context, key, value string) error          { return errIO }
func (failingStore) Remove(ctx context.Context, key string) error              { return errIO }
func (failingStore) RemoveMany(ctx context.Context, keys []string) error       { return errIO }
func (failingStore) ListKeys(ctx context.Context) ([]string, error)            { return nil, errIO }

func TestCache_StorageFailuresAreMisses(t *testing.T) {
	c, _, _ := newTestCache(t, failingStore{}, 20)
	ctx := context.Background()
	scope := cache.NewScope("animals", "project", "p-1")

	assert.NotPanics(t, func() {
		c.Set(ctx, scope, []int{1}, 0)
		c.Invalidate(ctx, scope)
		c.InvalidatePrefix(ctx, "animals:")
	})

	_, ok := c.Get(ctx, scope)
	assert.False(t, ok)

	got, err := c.GetOrLoad(ctx, scope, 0, func(ctx context.Context) ([]int, error) {
		return []int{7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{7}, got)
}

func TestScope_KeyIsDeterministic(t *testing.T) {
	a := cache.NewScope("weighings", "project", "p", "animal", "a")
	b := cache.NewScope("weighings", "animal", "a", "project", "p")

	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "@cache:weighings:animal=a,project=p", a.Key())
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(cache.NewScope("weighings", "animal", "a")))
}

func TestCache_CompactDropsExpired(t *testing.T) {
	store := memory.NewKVStore()
	c, b, clk := newTestCache(t, store, 20)
	ctx := context.Background()

	old := cache.NewScope("animals", "project", "p-old")
	c.Set(ctx, old, []int{1}, 0)
	clk.t = clk.t.Add(9 * time.Minute)
	fresh := cache.NewScope("animals", "project", "p-new")
	c.Set(ctx, fresh, []int{2}, 0)

	clk.t = clk.t.Add(2 * time.Minute)
	b.Compact(ctx)

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{fresh.Key()}, keys)
}
