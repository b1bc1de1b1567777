package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/blackwell-systems/dermwatch/internal/store"
)

// StoreCounter keeps usage in the record store's api_usage table.
type StoreCounter struct {
	db *store.DB
}

// NewStoreCounter returns a Counter backed by db.
func NewStoreCounter(db *store.DB) *StoreCounter {
	return &StoreCounter{db: db}
}

// Count implements Counter. A missing row counts as zero.
func (c *StoreCounter) Count(ctx context.Context, userID, day string) (int, error) {
	row, err := c.db.GetUsage(ctx, userID, day)
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	return row.UsageCount, nil
}

// Increment implements Counter with a single upsert.
func (c *StoreCounter) Increment(ctx context.Context, userID, day string, at time.Time) (int, error) {
	return c.db.IncrementUsage(ctx, userID, day, at)
}

// redisKeyTTL keeps a day's key around long enough to outlive every time
// zone's version of that day.
const redisKeyTTL = 48 * time.Hour

// RedisCounter keeps usage in Redis, shared across processes.
type RedisCounter struct {
	rdb    *goredis.Client
	prefix string
}

// NewRedisCounter connects to addr and verifies it with a ping.
func NewRedisCounter(ctx context.Context, addr string) (*RedisCounter, error) {
	if addr == "" {
		return nil, errors.New("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisCounterFromClient(rdb, "dermwatch"), nil
}

// NewRedisCounterFromClient wraps an existing client. Keys are namespaced
// under prefix.
func NewRedisCounterFromClient(rdb *goredis.Client, prefix string) *RedisCounter {
	return &RedisCounter{rdb: rdb, prefix: prefix}
}

func (c *RedisCounter) key(userID, day string) string {
	return c.prefix + ":usage:" + userID + ":" + day
}

// Count implements Counter. A missing key counts as zero.
func (c *RedisCounter) Count(ctx context.Context, userID, day string) (int, error) {
	n, err := c.rdb.Get(ctx, c.key(userID, day)).Int()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get usage: %w", err)
	}
	return n, nil
}

// Increment implements Counter with INCR and a refreshed expiry in one
// transaction.
func (c *RedisCounter) Increment(ctx context.Context, userID, day string, _ time.Time) (int, error) {
	key := c.key(userID, day)
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, redisKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis incr usage: %w", err)
	}
	return int(incr.Val()), nil
}

// Close releases the Redis connection.
func (c *RedisCounter) Close() error {
	return c.rdb.Close()
}
