// Package storagetest holds behaviour checks shared by every storage.Store
// backend.
package storagetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/mcp-oauth-gateway/storage"
	"github.com/stretchr/testify/require"
)

// Run exercises the storage.Store contract against a fresh store per subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Create(ctx, "ns", "k", []byte("v1"), 0))
		got, err := s.Get(ctx, "ns", "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v1"), got)
	})

	t.Run("missing key", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "ns", "nope")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Create(ctx, "a", "k", []byte("a"), 0))
		_, err := s.Get(ctx, "b", "k")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("create if absent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Create(ctx, "ns", "k", []byte("first"), 0))
		err := s.Create(ctx, "ns", "k", []byte("second"), 0)
		require.ErrorIs(t, err, storage.ErrExists)

		got, err := s.Get(ctx, "ns", "k")
		require.NoError(t, err)
		require.Equal(t, []byte("first"), got)
	})

	t.Run("take is single use", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Create(ctx, "ns", "k", []byte("v"), 0))
		got, err := s.Take(ctx, "ns", "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v"), got)

		_, err = s.Take(ctx, "ns", "k")
		require.ErrorIs(t, err, storage.ErrNotFound)
		_, err = s.Get(ctx, "ns", "k")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("concurrent take has one winner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, "ns", "code", []byte("v"), 0))

		var winners atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.Take(ctx, "ns", "code"); err == nil {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()
		require.Equal(t, int32(1), winners.Load())
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Create(ctx, "ns", "k", []byte("v"), 0))
		require.NoError(t, s.Delete(ctx, "ns", "k"))
		require.NoError(t, s.Delete(ctx, "ns", "k"))
		_, err := s.Get(ctx, "ns", "k")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("json helpers", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		type record struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		require.NoError(t, storage.CreateJSON(ctx, s, "ns", "r1", record{ID: "r1", Name: "one"}, 0))
		got, err := storage.GetJSON[record](ctx, s, "ns", "r1")
		require.NoError(t, err)
		require.Equal(t, "one", got.Name)

		taken, err := storage.TakeJSON[record](ctx, s, "ns", "r1")
		require.NoError(t, err)
		require.Equal(t, "r1", taken.ID)

		_, err = storage.GetJSON[record](ctx, s, "ns", "r1")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}
