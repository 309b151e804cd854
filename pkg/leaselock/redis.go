package leaselock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// RedisLocker implements Locker on top of redsync so leases hold across
// service replicas.
type RedisLocker struct {
	rs *redsync.Redsync
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{rs: redsync.New(goredis.NewPool(client))}
}

var _ Locker = (*RedisLocker)(nil)

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Handle, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	mutex := l.rs.NewMutex(key, redsync.WithExpiry(ttl), redsync.WithTries(1))
	if err := mutex.TryLockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("lease lock %q: %w", key, err)
	}

	return &redisHandle{mutex: mutex}, true, nil
}

type redisHandle struct {
	mutex *redsync.Mutex
}

func (h *redisHandle) Unlock(ctx context.Context) error {
	ok, err := h.mutex.UnlockContext(ctx)
	if err != nil {
		return fmt.Errorf("lease unlock: %w", err)
	}
	if !ok {
		return ErrNotHeld
	}
	return nil
}
