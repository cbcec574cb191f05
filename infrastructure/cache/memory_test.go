package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	_, err := store.Get(ctx, "blog:1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "blog:1", []byte(`{"id":"1"}`), time.Minute))

	got, err := store.Get(ctx, "blog:1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"1"}`), got)

	// Overwrite is silent.
	require.NoError(t, store.Set(ctx, "blog:1", []byte(`{"id":"1b"}`), time.Minute))
	got, err = store.Get(ctx, "blog:1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"1b"}`), got)

	require.NoError(t, store.Delete(ctx, "blog:1"))
	_, err = store.Get(ctx, "blog:1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete(ctx, "blog:absent"))
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Set(ctx, "search:abc", []byte("x"), 10*time.Millisecond))
	_, err := store.Get(ctx, "search:abc")
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)
	_, err = store.Get(ctx, "search:abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_DeletePattern(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	keys := []string{"search:a", "search:b", "blog:1", "home:blogs:5"}
	for _, k := range keys {
		require.NoError(t, store.Set(ctx, k, []byte("v"), time.Minute))
	}

	require.NoError(t, store.DeletePattern(ctx, "search:*"))

	_, err := store.Get(ctx, "search:a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "search:b")
	assert.ErrorIs(t, err, ErrNotFound)

	// Unrelated namespaces survive.
	_, err = store.Get(ctx, "blog:1")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "home:blogs:5")
	assert.NoError(t, err)

	require.NoError(t, store.DeletePattern(ctx, "home:blogs:*"))
	_, err = store.Get(ctx, "home:blogs:5")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Set(ctx, "user:1", []byte("v"), 0))
	time.Sleep(5 * time.Millisecond)
	_, err := store.Get(ctx, "user:1")
	assert.NoError(t, err)
}
