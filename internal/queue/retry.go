package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RetryCounter tracks per-message delivery attempts across consumer
// restarts. Counters expire on their own so a key that stops being retried
// does not linger.
type RetryCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type redisRetryCounter struct {
	client *redis.Client
	ttl    time.Duration
}

// Make sure we conform to RetryCounter interface
var _ RetryCounter = (*redisRetryCounter)(nil)

func NewRetryCounter(client *redis.Client, ttl time.Duration) RetryCounter {
	return &redisRetryCounter{client: client, ttl: ttl}
}

// Incr bumps the attempt counter and returns the new count. The TTL is set
// on the first attempt only, so the window covers the whole retry run.
func (c *redisRetryCounter) Incr(ctx context.Context, key string) (int64, error) {
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, c.ttl).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (c *redisRetryCounter) Reset(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
