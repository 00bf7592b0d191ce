package processors

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devbrief/devbrief/internal/config"
	"github.com/devbrief/devbrief/internal/queue"
	"github.com/devbrief/devbrief/internal/store"
	"github.com/stretchr/testify/require"
)

var testDBCounter atomic.Int64

// newTestStore opens a fresh in-memory sqlite database per test.
func newTestStore(t *testing.T) store.Store {
	cfg := config.NewDefault()
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = fmt.Sprintf("file:processors%d?mode=memory&cache=shared", testDBCounter.Add(1))

	db, err := store.InitDB(cfg)
	require.NoError(t, err)

	s := store.NewStore(db)
	require.NoError(t, s.InitialMigration(context.TODO()))
	t.Cleanup(func() { _ = s.Close() })

	return s
}

type fakeQueue struct {
	name    string
	mu      sync.Mutex
	items   [][]byte
	pushErr error
	onPush  func(payload []byte)
}

var _ queue.Queue = (*fakeQueue)(nil)

func newFakeQueue(name string) *fakeQueue {
	return &fakeQueue{name: name}
}

func (q *fakeQueue) Name() string { return q.name }

func (q *fakeQueue) Push(_ context.Context, payload []byte) error {
	if q.pushErr != nil {
		return q.pushErr
	}
	if q.onPush != nil {
		q.onPush(payload)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, payload)
	return nil
}

func (q *fakeQueue) BPop(_ context.Context, _ time.Duration) ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, nil
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, nil
}

func (q *fakeQueue) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	published map[string][][]byte
}

var _ queue.Notifier = (*fakeNotifier)(nil)

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{published: make(map[string][][]byte)}
}

func (n *fakeNotifier) Publish(_ context.Context, channel string, payload []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published[channel] = append(n.published[channel], payload)
	return nil
}

func (n *fakeNotifier) Subscribe(ctx context.Context, channel string) <-chan []byte {
	out := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out
}

func (n *fakeNotifier) messages(channel string) [][]byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][]byte(nil), n.published[channel]...)
}

type fakeRetryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

var _ queue.RetryCounter = (*fakeRetryCounter)(nil)

func newFakeRetryCounter() *fakeRetryCounter {
	return &fakeRetryCounter{counts: make(map[string]int64)}
}

func (c *fakeRetryCounter) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key], nil
}

func (c *fakeRetryCounter) Reset(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, key)
	return nil
}

type fakeCompletionMarkers struct {
	mu      sync.Mutex
	markers map[string][]byte
}

var _ queue.CompletionMarkers = (*fakeCompletionMarkers)(nil)

func newFakeCompletionMarkers() *fakeCompletionMarkers {
	return &fakeCompletionMarkers{markers: make(map[string][]byte)}
}

func (m *fakeCompletionMarkers) Mark(_ context.Context, repositoryID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers[repositoryID] = payload
	return nil
}

func (m *fakeCompletionMarkers) Pending(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.markers))
	for id := range m.markers {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *fakeCompletionMarkers) Payload(_ context.Context, repositoryID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markers[repositoryID], nil
}

func (m *fakeCompletionMarkers) Clear(_ context.Context, repositoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.markers, repositoryID)
	return nil
}
