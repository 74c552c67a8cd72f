package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
)

// setupTestRedis starts a Redis container and returns a cache bound to it
func setupTestRedis(t *testing.T) *RedisCache {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCacheFromClient(client, nil)
}

func TestRedisCache_Health(t *testing.T) {
	cache := setupTestRedis(t)

	health := cache.Health(context.Background())
	assert.Equal(t, "up", health["status"])
}

func TestLocker_ExclusiveUntilReleased(t *testing.T) {
	cache := setupTestRedis(t)
	locker := NewLocker(cache, 10*time.Second, 50*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "merge:t1:Customer")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "merge:t1:Customer")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeLockNotAcquired))

	other, err := locker.Lock(ctx, "merge:t1:Lead")
	require.NoError(t, err)
	other()

	release()

	again, err := locker.Lock(ctx, "merge:t1:Customer")
	require.NoError(t, err)
	again()
}

func TestLocker_WaitsForRelease(t *testing.T) {
	cache := setupTestRedis(t)
	locker := NewLocker(cache, 10*time.Second, 2*time.Second)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "k")
	require.NoError(t, err)

	ttl, err := cache.TTL(ctx, lockKeyPrefix+"k")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	go func() {
		time.Sleep(100 * time.Millisecond)
		release()
	}()

	second, err := locker.Lock(ctx, "k")
	require.NoError(t, err)
	second()
}

func TestLocker_ExpiresWithTTL(t *testing.T) {
	cache := setupTestRedis(t)
	locker := NewLocker(cache, 200*time.Millisecond, 2*time.Second)
	ctx := context.Background()

	_, err := locker.Lock(ctx, "abandoned")
	require.NoError(t, err)

	// acquiring again only succeeds once the abandoned lock expires
	release, err := locker.Lock(ctx, "abandoned")
	require.NoError(t, err)
	release()
}

func TestLocker_StaleReleaseKeepsNewOwner(t *testing.T) {
	cache := setupTestRedis(t)
	locker := NewLocker(cache, 100*time.Millisecond, time.Second)
	ctx := context.Background()

	stale, err := locker.Lock(ctx, "k")
	require.NoError(t, err)

	time.Sleep(150 * time.Millisecond)

	current, err := locker.Lock(ctx, "k")
	require.NoError(t, err)
	defer current()

	stale()

	_, err = cache.Get(ctx, lockKeyPrefix+"k")
	assert.NoError(t, err, "new owner's key must survive a stale release")
}
