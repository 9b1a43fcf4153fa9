package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bistroboss/bistro/pkg/logger"
)

const (
	redisQueueKey   = "bistro:queue:jobs"
	redisDelayedKey = "bistro:queue:delayed"
)

// RedisDriver is a durable queue driver backed by Redis.
// Immediate jobs use LPUSH/BRPOP on a list.
// Delayed jobs use a sorted set scored by Unix timestamp.
type RedisDriver struct {
	rdb     *redis.Client
	timeout time.Duration
}

// NewRedisDriver creates a Redis-backed queue driver. Pass the same client
// used by pkg/cache and start PromoteDelayed alongside the workers.
func NewRedisDriver(rdb *redis.Client) *RedisDriver {
	return &RedisDriver{rdb: rdb, timeout: 5 * time.Second}
}

// Push adds a job payload to the immediate queue (LPUSH).
func (d *RedisDriver) Push(ctx context.Context, payload []byte) error {
	if err := d.rdb.LPush(ctx, redisQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

// Pop blocks until a job is available (BRPOP with a 5s timeout).
func (d *RedisDriver) Pop(ctx context.Context) ([]byte, error) {
	result, err := d.rdb.BRPop(ctx, d.timeout, redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue/redis: pop: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}
	return []byte(result[1]), nil
}

// PushDelayed schedules a job to run after delay using a Redis sorted set.
func (d *RedisDriver) PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error {
	runAt := float64(time.Now().Add(delay).Unix())
	if err := d.rdb.ZAdd(ctx, redisDelayedKey, redis.Z{
		Score:  runAt,
		Member: string(payload),
	}).Err(); err != nil {
		return fmt.Errorf("queue/redis: push delayed: %w", err)
	}
	return nil
}

// PromoteDelayed moves due delayed jobs into the main queue once a second
// until ctx is cancelled.
func (d *RedisDriver) PromoteDelayed(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := d.promote(ctx, now); err != nil && ctx.Err() == nil {
				logger.Warn("queue/redis: promote delayed", "error", err)
			}
		}
	}
}

func (d *RedisDriver) promote(ctx context.Context, now time.Time) (int, error) {
	jobs, err := d.rdb.ZRangeByScore(ctx, redisDelayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil || len(jobs) == 0 {
		return 0, err
	}

	pipe := d.rdb.TxPipeline()
	for _, job := range jobs {
		pipe.ZRem(ctx, redisDelayedKey, job)
		pipe.LPush(ctx, redisQueueKey, []byte(job))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(jobs), nil
}
