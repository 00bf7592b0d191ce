package queue

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

const completionKeyPrefix = "completion:"

// CompletionMarkers is the durable record of finished repository indexing
// runs. The worker writes a marker next to its pub/sub announcement; the
// completion processor scans for markers it may have missed and clears them
// once the repository is finalized.
type CompletionMarkers interface {
	Mark(ctx context.Context, repositoryID string, payload []byte) error
	Pending(ctx context.Context) ([]string, error)
	Payload(ctx context.Context, repositoryID string) ([]byte, error)
	Clear(ctx context.Context, repositoryID string) error
}

type redisCompletionMarkers struct {
	client *redis.Client
}

// Make sure we conform to CompletionMarkers interface
var _ CompletionMarkers = (*redisCompletionMarkers)(nil)

func NewCompletionMarkers(client *redis.Client) CompletionMarkers {
	return &redisCompletionMarkers{client: client}
}

func (m *redisCompletionMarkers) Mark(ctx context.Context, repositoryID string, payload []byte) error {
	return m.client.Set(ctx, completionKeyPrefix+repositoryID, payload, 0).Err()
}

// Pending returns the repository ids with an unprocessed completion marker.
// SCAN is used instead of KEYS so the sweep never blocks the server.
func (m *redisCompletionMarkers) Pending(ctx context.Context) ([]string, error) {
	var ids []string
	iter := m.client.Scan(ctx, 0, completionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), completionKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (m *redisCompletionMarkers) Payload(ctx context.Context, repositoryID string) ([]byte, error) {
	payload, err := m.client.Get(ctx, completionKeyPrefix+repositoryID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return payload, nil
}

func (m *redisCompletionMarkers) Clear(ctx context.Context, repositoryID string) error {
	return m.client.Del(ctx, completionKeyPrefix+repositoryID).Err()
}
