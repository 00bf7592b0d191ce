package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notifier is the low-latency status propagation channel. Delivery is
// best-effort: there is no backlog for subscribers that were down, which is
// why the completion processor keeps a periodic scan as a fallback.
type Notifier interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) <-chan []byte
}

type redisNotifier struct {
	pub *redis.Client
	// sub is a dedicated connection: a redis connection in subscribe mode
	// cannot issue other commands.
	sub *redis.Client
}

// Make sure we conform to Notifier interface
var _ Notifier = (*redisNotifier)(nil)

func NewNotifier(pub, sub *redis.Client) Notifier {
	return &redisNotifier{pub: pub, sub: sub}
}

func (n *redisNotifier) Publish(ctx context.Context, channel string, payload []byte) error {
	return n.pub.Publish(ctx, channel, payload).Err()
}

// Subscribe returns a channel of raw payloads. The subscription is closed
// when ctx is cancelled.
func (n *redisNotifier) Subscribe(ctx context.Context, channel string) <-chan []byte {
	out := make(chan []byte)
	ps := n.sub.Subscribe(ctx, channel)

	go func() {
		defer close(out)
		defer func() {
			if err := ps.Close(); err != nil {
				zap.S().Named("pubsub").Warnw("failed to close subscription", "channel", channel, "error", err)
			}
		}()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
