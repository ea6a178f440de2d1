package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_TokenValidation(t *testing.T) {
	t.Run("hit when token matches", func(t *testing.T) {
		store := New[string](10)
		store.Put("a", "payload", Token("t1"))

		got, ok := store.Get("a", Token("t1"))
		assert.True(t, ok)
		assert.Equal(t, "payload", got)
	})

	t.Run("miss when token changed", func(t *testing.T) {
		// A stale entry must never be served: mtime T1 in the store
		// and T2 on disk is a miss, and the entry is gone afterwards.
		store := New[string](10)
		store.Put("a", "stale", Token("t1"))

		_, ok := store.Get("a", Token("t2"))
		assert.False(t, ok)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("miss for absent key", func(t *testing.T) {
		store := New[string](10)
		_, ok := store.Get("missing", Token("t"))
		assert.False(t, ok)
	})
}

func TestStore_InsertionOrderEviction(t *testing.T) {
	store := New[int](10)
	for i := 0; i < 10; i++ {
		store.Put(fmt.Sprintf("key%d", i), i, Token("t"))
	}
	assert.Equal(t, 10, store.Len())

	// Reading an old entry must not save it: eviction is by insertion
	// order, intentionally not LRU.
	_, ok := store.Get("key0", Token("t"))
	require.True(t, ok)

	// Exceeding the cap drops the oldest ~20%.
	store.Put("key10", 10, Token("t"))

	_, ok = store.Get("key0", Token("t"))
	assert.False(t, ok, "oldest entry should be evicted despite recent read")
	_, ok = store.Get("key1", Token("t"))
	assert.False(t, ok)
	_, ok = store.Get("key9", Token("t"))
	assert.True(t, ok)
	_, ok = store.Get("key10", Token("t"))
	assert.True(t, ok)
}

func TestStore_PutKeepsInsertionPosition(t *testing.T) {
	store := New[string](10)
	store.Put("a", "v1", Token("t1"))
	store.Put("b", "v2", Token("t1"))
	store.Put("a", "v3", Token("t2"))

	assert.Equal(t, 2, store.Len())
	got, ok := store.Get("a", Token("t2"))
	assert.True(t, ok)
	assert.Equal(t, "v3", got)
}

func TestStore_Invalidate(t *testing.T) {
	store := New[string](10)
	store.Put("a", "v", Token("t"))

	assert.True(t, store.Invalidate("a"))
	_, ok := store.Get("a", Token("t"))
	assert.False(t, ok)
	assert.False(t, store.Invalidate("a"), "second invalidation is a no-op")
}

func TestStore_Unbounded(t *testing.T) {
	store := New[int](0)
	for i := 0; i < 2000; i++ {
		store.Put(fmt.Sprintf("key%d", i), i, Token("t"))
	}
	assert.Equal(t, 2000, store.Len())
}

func TestStore_Stats(t *testing.T) {
	store := New[string](10)
	store.Put("a", "v", Token("t"))

	store.Get("a", Token("t"))
	store.Get("a", Token("other"))
	store.Get("missing", Token("t"))
	store.Put("a", "v", Token("t"))
	store.Invalidate("a")

	hits, misses, _, invalidated := store.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
	assert.Equal(t, int64(1), invalidated)
}

func TestKey_Normalization(t *testing.T) {
	assert.Equal(t, Key("/components/Button.tsx"), Key("/components//Button.tsx"))
	assert.Equal(t, Key("/a/b"), Key("/a/./b"))
}

func TestModTimeToken(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.tsx")
	require.NoError(t, os.WriteFile(file, []byte("one"), 0o644))

	t1, err := ModTimeToken(file)
	require.NoError(t, err)

	// Same content, forced older mtime: token must differ.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(file, past, past))
	t2, err := ModTimeToken(file)
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestContentToken(t *testing.T) {
	a := ContentToken([]byte("alpha"))
	b := ContentToken([]byte("beta"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, ContentToken([]byte("alpha")))
}
