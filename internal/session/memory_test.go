// internal/session/memory_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSaveGet(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	sess := New("alice@example.org")
	sess.Token = "access-token"
	sess.Timezone = "Europe/Stockholm"
	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.org", loaded.Username)
	assert.Equal(t, "access-token", loaded.Token)
	assert.Equal(t, "Europe/Stockholm", loaded.Timezone)
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	_, err := store.Get(context.Background(), "no-such-session")
	assert.Error(t, err)
}

func TestMemoryStoreIdleExpiry(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	now := time.Now().UTC()
	store.now = func() time.Time { return now }

	sess := New("bob@example.org")
	require.NoError(t, store.Save(ctx, sess))

	// Still alive just inside the idle window.
	now = now.Add(59 * time.Minute)
	_, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)

	// Touch rolls the window forward.
	require.NoError(t, store.Touch(ctx, sess.ID))
	now = now.Add(59 * time.Minute)
	_, err = store.Get(ctx, sess.ID)
	require.NoError(t, err)

	// Idle past the window expires the session.
	now = now.Add(2 * time.Hour)
	_, err = store.Get(ctx, sess.ID)
	assert.Error(t, err)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	sess := New("carol@example.org")
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err := store.Get(ctx, sess.ID)
	assert.Error(t, err)
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	now := time.Now().UTC()
	store.now = func() time.Time { return now }

	stale := New("stale@example.org")
	require.NoError(t, store.Save(ctx, stale))

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, store.PurgeExpired())
	assert.Empty(t, store.sessions)
}

// Saving sweeps idle sessions out so abandoned logins do not accumulate
// for the life of the process.
func TestMemoryStoreSaveEvictsIdleSessions(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	now := time.Now().UTC()
	store.now = func() time.Time { return now }

	stale := New("stale@example.org")
	require.NoError(t, store.Save(ctx, stale))

	now = now.Add(2 * time.Hour)
	fresh := New("fresh@example.org")
	require.NoError(t, store.Save(ctx, fresh))

	assert.Len(t, store.sessions, 1)
	_, err := store.Get(ctx, stale.ID)
	assert.Error(t, err)
	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}
