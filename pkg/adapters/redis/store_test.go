package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/report"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunReportStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"), redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, report.New("m", report.WithID("r1"))))
	assert.True(t, mr.Exists("test:report:r1"))
	assert.Equal(t, time.Minute, mr.TTL("test:report:r1"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, "r1")
	assert.Error(t, err, "expired reports are gone")
}

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "login", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:login"), "lock key should be set")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:login"), "lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	_, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "login", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock(ctx) }()

	short, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(short, "login", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLocker_ForeignUnlockIsNoop(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "login", 5*time.Second)
	require.NoError(t, err)

	// Simulate expiry and takeover by another holder.
	require.NoError(t, mr.Set("test:lock:login", "someone-else"))
	require.NoError(t, unlock(ctx))

	v, err := mr.Get("test:lock:login")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}
