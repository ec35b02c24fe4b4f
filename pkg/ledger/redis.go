package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLedger is a [Ledger] which stores keys in Redis, with a TTL.
type RedisLedger struct {
	rdb       *redis.Client
	retention time.Duration
}

var _ Ledger = (*RedisLedger)(nil)

func NewRedisLedger(ctx context.Context, redisURL string, retention time.Duration) (*RedisLedger, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLedger{rdb: rdb, retention: retention}, nil
}

func (l *RedisLedger) Seen(ctx context.Context, key string) (bool, error) {
	_, err := l.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *RedisLedger) Mark(ctx context.Context, key string) error {
	return l.rdb.Set(ctx, key, true, l.retention).Err()
}

func (l *RedisLedger) Close() error {
	return l.rdb.Close()
}
