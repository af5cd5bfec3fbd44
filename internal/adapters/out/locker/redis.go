package locker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultRetryWait = 50 * time.Millisecond
)

var ErrLockNotObtained = errors.New("lock not obtained")

// RedisLocker takes one redislock per key. Locks expire after the TTL, so a
// crashed holder cannot block a key forever; units of work must finish well
// within it.
type RedisLocker struct {
	client    *redislock.Client
	ttl       time.Duration
	retryWait time.Duration
	prefix    string
	logger    *slog.Logger
}

type RedisOption func(*RedisLocker)

func WithTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLocker) {
		l.ttl = ttl
	}
}

func WithRetryWait(wait time.Duration) RedisOption {
	return func(l *RedisLocker) {
		l.retryWait = wait
	}
}

// WithPrefix namespaces keys when several deployments share one Redis.
func WithPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) {
		l.prefix = prefix
	}
}

func WithLogger(logger *slog.Logger) RedisOption {
	return func(l *RedisLocker) {
		l.logger = logger
	}
}

func NewRedisLocker(rdb redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:    redislock.New(rdb),
		ttl:       defaultLockTTL,
		retryWait: defaultRetryWait,
		prefix:    "distribution:",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock retries each key until ctx is done. Release errors are logged only:
// the TTL frees the key anyway.
func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = sortedUnique(keys)

	held := make([]*redislock.Lock, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.logger.Warn("failed to release lock", "key", held[i].Key(), "error", err)
			}
		}
	}

	opts := &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.retryWait),
	}
	for _, key := range keys {
		lock, err := l.client.Obtain(ctx, l.prefix+key, l.ttl, opts)
		if err != nil {
			release()
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, fmt.Errorf("%w: %s", ErrLockNotObtained, key)
			}
			return nil, err
		}
		held = append(held, lock)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}
