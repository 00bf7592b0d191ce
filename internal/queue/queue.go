package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Queue is a named FIFO work queue. BPop is the single consumption
// primitive: it blocks up to timeout and returns (nil, nil) when the queue
// stayed empty, so an idle tick costs nothing.
type Queue interface {
	Name() string
	Push(ctx context.Context, payload []byte) error
	BPop(ctx context.Context, timeout time.Duration) ([]byte, error)
	Len(ctx context.Context) (int64, error)
}

type redisQueue struct {
	name   string
	client *redis.Client
}

// Make sure we conform to Queue interface
var _ Queue = (*redisQueue)(nil)

func New(client *redis.Client, name string) Queue {
	return &redisQueue{name: name, client: client}
}

func (q *redisQueue) Name() string {
	return q.name
}

func (q *redisQueue) Push(ctx context.Context, payload []byte) error {
	return q.client.RPush(ctx, q.name, payload).Err()
}

func (q *redisQueue) BPop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := q.client.BLPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BLPOP returns [key, value]
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

func (q *redisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.name).Result()
}
