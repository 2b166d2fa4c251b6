// Package lock serializes provisioning runs for the same trunk name, across
// processes through Redis or within one process in memory.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"agent-platform/internal/provision"
	"agent-platform/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "agent-platform:provision:lock:"
	defaultTTL = 5 * time.Minute
)

// RedisLocker implements provision.Locker. The TTL bounds how long a crashed
// run can block the next one.
type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, log: log}
}

// Key is the Redis key guarding trunkName.
func Key(trunkName string) string { return keyPrefix + trunkName }

func (l *RedisLocker) Acquire(ctx context.Context, trunkName string) (func(), error) {
	key := Key(trunkName)
	token := uuid.NewString()

	ok, err := utils.AcquireLock(ctx, l.rdb, key, token, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
	}
	if !ok {
		return nil, provision.ErrBusy
	}

	release := func() {
		// The run's context may already be cancelled; release on a fresh one.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		released, err := utils.ReleaseLock(rctx, l.rdb, key, token)
		if err != nil {
			l.log.Warn("provisioning lock release failed", "key", key, "err", err)
			return
		}
		if !released {
			l.log.Warn("provisioning lock expired before release", "key", key, "ttl", l.ttl.String())
		}
	}
	return release, nil
}
