package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestTryLockIsExclusive(t *testing.T) {
	client, _ := newClient(t)
	ctx := context.Background()

	a := NewPayoutLock(client, "P1", "req-a")
	b := NewPayoutLock(client, "P1", "req-b")
	other := NewPayoutLock(client, "P2", "req-c")

	ok, err := a.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = other.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnlockOnlyOwnLock(t *testing.T) {
	client, mr := newClient(t)
	ctx := context.Background()

	a := NewPayoutLock(client, "P1", "req-a")
	b := NewPayoutLock(client, "P1", "req-b")

	ok, err := a.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, b.Unlock(ctx))
	assert.True(t, mr.Exists(a.Key()))

	require.NoError(t, a.Unlock(ctx))
	assert.False(t, mr.Exists(a.Key()))
}

func TestLockRetriesUntilReleased(t *testing.T) {
	client, mr := newClient(t)
	ctx := context.Background()

	a := NewPayoutLock(client, "P1", "req-a")
	ok, err := a.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	b := NewPayoutLock(client, "P1", "req-b")
	assert.ErrorIs(t, b.Lock(ctx, time.Millisecond, 3), ErrLockFailed)

	mr.Del(a.Key())
	require.NoError(t, b.Lock(ctx, time.Millisecond, 3))
	v, err := mr.Get(b.Key())
	require.NoError(t, err)
	assert.Equal(t, "req-b", v)
}

func TestLockHonoursContext(t *testing.T) {
	client, _ := newClient(t)

	a := NewPayoutLock(client, "P1", "req-a")
	ok, err := a.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewPayoutLock(client, "P1", "req-b")
	assert.ErrorIs(t, b.Lock(ctx, time.Second, 5), context.Canceled)
}
