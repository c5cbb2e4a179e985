// Package lock provides a Redis-backed mutual exclusion lock used to keep
// concurrently starting replicas from migrating the schema at the same time.
package lock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

var ErrNotAcquired = errors.New("lock held by another process")

// Client is the subset of *redis.Client the lock needs.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	redis.Scripter
}

// Compare-and-delete: only the holder's token may release.
var releaseScript = redis.NewScript(`
    if redis.call("get", KEYS[1]) == ARGV[1] then
        return redis.call("del", KEYS[1])
    else
        return 0
    end
`)

// Connect dials Redis and verifies it answers a ping.
func Connect(ctx context.Context, addr, password string, db int, logger *slog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, oops.Code("REDIS_CONNECT_FAILED").With("addr", addr).Wrap(err)
	}
	logger.Info("connected to Redis", "addr", addr)
	return rdb, nil
}

type RedisLock struct {
	client Client
	key    string
	ttl    time.Duration
	poll   time.Duration
	logger *slog.Logger
}

func NewRedisLock(client Client, key string, ttl time.Duration, logger *slog.Logger) *RedisLock {
	return &RedisLock{client: client, key: key, ttl: ttl, poll: 250 * time.Millisecond, logger: logger}
}

// Acquire polls until the lock is taken, ctx ends, or one TTL has elapsed
// (by then any previous holder's lease has expired). The returned func releases it.
func (l *RedisLock) Acquire(ctx context.Context) (func(context.Context), error) {
	token := uuid.NewString()

	backoff := retry.WithMaxDuration(l.ttl, retry.NewConstant(l.poll))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			l.logger.Debug("lock busy, waiting", "key", l.key)
			return retry.RetryableError(ErrNotAcquired)
		}
		return nil
	})
	if err != nil {
		return nil, oops.Code("LOCK_ACQUIRE_FAILED").With("key", l.key).Wrap(err)
	}
	l.logger.Info("acquired lock", "key", l.key)

	return func(ctx context.Context) {
		deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int64()
		switch {
		case err != nil:
			l.logger.Error("failed to release lock", "key", l.key, "error", err)
		case deleted == 1:
			l.logger.Info("released lock", "key", l.key)
		default:
			l.logger.Warn("lock was not released; it expired or was taken over", "key", l.key)
		}
	}, nil
}

// WithLock runs fn while holding the lock.
func (l *RedisLock) WithLock(ctx context.Context, fn func() error) error {
	release, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release(context.WithoutCancel(ctx))
	return fn()
}
