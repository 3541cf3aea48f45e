package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/mcp-oauth-gateway/storage"
	"github.com/jrsteele09/mcp-oauth-gateway/storage/memory"
	"github.com/jrsteele09/mcp-oauth-gateway/storage/storagetest"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return memory.New()
	})
}

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := memory.New(memory.WithNowFunc(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "codes", "c1", []byte("v"), time.Minute))
	require.NoError(t, s.Create(ctx, "clients", "forever", []byte("v"), 0))

	_, err := s.Get(ctx, "codes", "c1")
	require.NoError(t, err)

	now = now.Add(time.Minute)

	_, err = s.Get(ctx, "codes", "c1")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.Take(ctx, "codes", "c1")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// An expired key can be created again.
	require.NoError(t, s.Create(ctx, "codes", "c2", []byte("v"), time.Second))
	now = now.Add(2 * time.Second)
	require.NoError(t, s.Create(ctx, "codes", "c2", []byte("again"), 0))

	_, err = s.Get(ctx, "clients", "forever")
	require.NoError(t, err)
}

func TestMemoryStore_Sweep(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := memory.New(memory.WithNowFunc(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "interactions", "a", []byte("v"), time.Second))
	require.NoError(t, s.Create(ctx, "interactions", "b", []byte("v"), time.Hour))
	require.NoError(t, s.Create(ctx, "clients", "c", []byte("v"), 0))

	now = now.Add(time.Minute)
	require.Equal(t, 1, s.Sweep())
	require.Equal(t, 0, s.Sweep())

	_, err := s.Get(ctx, "interactions", "b")
	require.NoError(t, err)
}
