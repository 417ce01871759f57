package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "lock:"

// RedisLocker is a Locker backed by Redis, shared by every replica.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

// NewRedisLocker creates a Redis-backed locker. Locks expire after ttl if
// the holder dies without releasing. Acquisition is retried every 100ms up
// to 30 times.
func NewRedisLocker(cli *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(cli),
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 30),
	}
}

// Obtain acquires the lock for key.
func (r *RedisLocker) Obtain(ctx context.Context, key string) (Lock, error) {
	l, err := r.client.Obtain(ctx, redisKeyPrefix+key, r.ttl, &redislock.Options{
		RetryStrategy: r.retry,
	})
	switch {
	case errors.Is(err, redislock.ErrNotObtained):
		return nil, ErrNotObtained
	case err != nil && ctx.Err() != nil:
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return redisLock{l}, nil
}

type redisLock struct {
	*redislock.Lock
}

func (l redisLock) Release(ctx context.Context) error {
	err := l.Lock.Release(ctx)
	// The lock already expired; nothing to release.
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}
