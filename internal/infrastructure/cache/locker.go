package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/alejandroruanova/crm-resolution-service/internal/pkg/errors"
)

const lockKeyPrefix = "crm:lock:"

var errLockHeld = errors.New("lock held by another owner")

// deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Locker is a Redis SET NX lock shared by every worker talking to the same server.
// A lock expires after ttl even if its holder dies without releasing it.
type Locker struct {
	cache   *RedisCache
	ttl     time.Duration
	timeout time.Duration
}

// NewLocker creates a locker. ttl bounds how long a lock may be held, timeout bounds
// how long Lock waits for a busy key.
func NewLocker(cache *RedisCache, ttl, timeout time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{
		cache:   cache,
		ttl:     ttl,
		timeout: timeout,
	}
}

// Lock acquires key, retrying with capped exponential backoff until the timeout
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := lockKeyPrefix + key
	token := uuid.NewString()

	deadline := time.Now().Add(l.timeout)
	backoff := 10 * time.Millisecond

	for {
		ok, err := l.cache.SetNX(ctx, lockKey, token, l.ttl)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, apperrors.LockNotAcquired(key, err)
		}
		if ok {
			l.cache.logger.Debug("acquired merge lock", slog.String("key", lockKey))
			return func() { l.release(lockKey, token) }, nil
		}

		if !time.Now().Before(deadline) {
			return nil, apperrors.LockNotAcquired(key, errLockHeld)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff = min(backoff*2, 500*time.Millisecond)
		}
	}
}

// release runs on its own context so a cancelled caller still frees the key
func (l *Locker) release(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	released, err := releaseScript.Run(ctx, l.cache.client, []string{lockKey}, token).Int64()
	if err != nil {
		l.cache.logger.Warn("failed to release merge lock",
			slog.String("key", lockKey),
			slog.Any("error", err))
		return
	}
	if released == 0 {
		l.cache.logger.Warn("merge lock expired before release", slog.String("key", lockKey))
	}
}
