package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/voltastudio/volta-backend/internal/platform/envutil"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

// Locker provides single-flight leases across API replicas. The sweeper uses
// it so only one replica runs a sweep pass at a time.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Close() error
}

type locker struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewLocker(log *logger.Logger) (Locker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &locker{log: log.With("service", "RedisLocker"), rdb: rdb}, nil
}

func (l *locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if l == nil || l.rdb == nil {
		return false, fmt.Errorf("redis locker not initialized")
	}
	return l.rdb.SetNX(ctx, key, "1", ttl).Result()
}

func (l *locker) Release(ctx context.Context, key string) error {
	if l == nil || l.rdb == nil {
		return fmt.Errorf("redis locker not initialized")
	}
	return l.rdb.Del(ctx, key).Err()
}

func (l *locker) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
