// internal/session/redis_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe-api/internal/common/database"
)

func redisStoreFixture(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := &database.RedisClient{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, time.Hour), mr
}

func TestRedisStoreSaveGet(t *testing.T) {
	store, _ := redisStoreFixture(t)
	ctx := context.Background()

	sess := New("alice@example.org")
	sess.Token = "access-token"
	sess.RefreshToken = "refresh-token"
	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "alice@example.org", loaded.Username)
	assert.Equal(t, "access-token", loaded.Token)
	assert.Equal(t, "refresh-token", loaded.RefreshToken)
}

func TestRedisStoreGetUnknown(t *testing.T) {
	store, _ := redisStoreFixture(t)

	_, err := store.Get(context.Background(), "no-such-session")
	assert.Error(t, err)
}

func TestRedisStoreKeyExpires(t *testing.T) {
	store, mr := redisStoreFixture(t)
	ctx := context.Background()

	sess := New("bob@example.org")
	require.NoError(t, store.Save(ctx, sess))

	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, sess.ID)
	assert.Error(t, err)
}

func TestRedisStoreTouchRefreshesTTL(t *testing.T) {
	store, mr := redisStoreFixture(t)
	ctx := context.Background()

	sess := New("carol@example.org")
	require.NoError(t, store.Save(ctx, sess))

	mr.FastForward(50 * time.Minute)
	require.NoError(t, store.Touch(ctx, sess.ID))

	mr.FastForward(50 * time.Minute)
	_, err := store.Get(ctx, sess.ID)
	assert.NoError(t, err)
}

func TestRedisStoreTouchUnknown(t *testing.T) {
	store, _ := redisStoreFixture(t)

	assert.Error(t, store.Touch(context.Background(), "no-such-session"))
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := redisStoreFixture(t)
	ctx := context.Background()

	sess := New("dave@example.org")
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err := store.Get(ctx, sess.ID)
	assert.Error(t, err)
}
