package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseCartStorage(t *testing.T, storage CartStorage) {
	ctx := context.Background()

	_, err := storage.Load(ctx, CartKey("missing"))
	assert.ErrorIs(t, err, ErrCartNotStored)

	require.NoError(t, storage.Save(ctx, CartKey("s1"), []byte(`[{"id":"rice","quantity":2}]`)))
	data, err := storage.Load(ctx, CartKey("s1"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"rice","quantity":2}]`, string(data))

	require.NoError(t, storage.Save(ctx, CartKey("s1"), []byte(`[]`)))
	data, err = storage.Load(ctx, CartKey("s1"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestCartKey(t *testing.T) {
	assert.Equal(t, "cart:abc", CartKey("abc"))
}

func TestFileCartStorage(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewFileCartStorage(filepath.Join(dir, "carts"))
	require.NoError(t, err)

	exerciseCartStorage(t, storage)
}

func TestFileCartStorageKeepsKeysInsideDirectory(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewFileCartStorage(dir)
	require.NoError(t, err)

	require.NoError(t, storage.Save(context.Background(), "../../escape", []byte("[]")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")
}

func TestRedisCartStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	storage := NewRedisCartStorageWithClient(client, 0)
	t.Cleanup(func() { storage.Close() })

	exerciseCartStorage(t, storage)

	value, err := mr.Get("cart:s1")
	require.NoError(t, err)
	assert.Equal(t, "[]", value)
}

func TestRedisCartStorageExpiresIdleCarts(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	storage := NewRedisCartStorageWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	t.Cleanup(func() { storage.Close() })

	require.NoError(t, storage.Save(ctx, CartKey("s"), []byte("[]")))
	assert.Equal(t, time.Hour, mr.TTL("cart:s"))

	mr.FastForward(30 * time.Minute)
	require.NoError(t, storage.Save(ctx, CartKey("s"), []byte("[]")))
	assert.Equal(t, time.Hour, mr.TTL("cart:s"))

	mr.FastForward(2 * time.Hour)
	_, err := storage.Load(ctx, CartKey("s"))
	assert.ErrorIs(t, err, ErrCartNotStored)
}

func TestNewRedisCartStorageFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	storage, err := NewRedisCartStorage(context.Background(), "redis://"+mr.Addr(), CartSessionTTL)
	require.NoError(t, err)
	defer storage.Close()

	require.NoError(t, storage.Save(context.Background(), CartKey("x"), []byte("[]")))
	assert.True(t, mr.Exists("cart:x"))

	_, err = NewRedisCartStorage(context.Background(), "not a url", CartSessionTTL)
	assert.Error(t, err)
}

func TestMemoryCartStorage(t *testing.T) {
	exerciseCartStorage(t, NewMemoryCartStorage())
}
