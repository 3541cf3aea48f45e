package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/mcp-oauth-gateway/storage"
	redisstore "github.com/jrsteele09/mcp-oauth-gateway/storage/redis"
	"github.com/jrsteele09/mcp-oauth-gateway/storage/storagetest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s, err := redisstore.New(redisstore.Config{Client: client})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestRedisStore_RequiresClient(t *testing.T) {
	_, err := redisstore.New(redisstore.Config{})
	require.Error(t, err)
}

func TestRedisStore_KeyPrefixAndTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, storage.NamespaceCodes, "abc", []byte("v"), time.Minute))
	require.True(t, mr.Exists(redisstore.DefaultKeyPrefix+"codes:abc"))
	require.Equal(t, time.Minute, mr.TTL(redisstore.DefaultKeyPrefix+"codes:abc"))

	mr.FastForward(2 * time.Minute)
	_, err := s.Get(ctx, storage.NamespaceCodes, "abc")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedisStore_NewFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := redisstore.NewFromURL(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Create(context.Background(), "ns", "k", []byte("v"), 0))

	_, err = redisstore.NewFromURL(context.Background(), "not a url")
	require.Error(t, err)
}
