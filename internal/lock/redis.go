package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "lock:"

// RedisLocker obtains keys through redislock, retrying with linear backoff.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration, retryCount int) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), retryCount),
	}
}

func (r *RedisLocker) Obtain(ctx context.Context, key string) (Lock, error) {
	l, err := r.client.Obtain(ctx, redisKeyPrefix+key, r.ttl, &redislock.Options{RetryStrategy: r.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return &redisLock{lock: l}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

func (l *redisLock) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	// an expired lock has already been released
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}
