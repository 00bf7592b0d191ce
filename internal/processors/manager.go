package processors

import (
	"context"
	"sync"

	"github.com/devbrief/devbrief/internal/config"
	"github.com/devbrief/devbrief/internal/events"
	"github.com/devbrief/devbrief/internal/queue"
	"github.com/devbrief/devbrief/internal/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Manager owns the consumption loops, one goroutine per queue plus the
// pub/sub and scan triggers of the completion processor. Loops are stopped
// by cancelling the context passed to Run.
type Manager struct {
	answer      *AnswerProcessor
	fileMeta    *FileMetadataProcessor
	fileSummary *FileSummaryProcessor
	completion  *CompletionProcessor
	meeting     *MeetingUpdateProcessor
}

func NewManager(cfg *config.Config, s store.Store, client *redis.Client, subscriber *redis.Client, producer *events.EventProducer) *Manager {
	notifier := queue.NewNotifier(client, subscriber)
	retries := queue.NewRetryCounter(client, cfg.Service.Consumers.RetryCounterTTL)
	markers := queue.NewCompletionMarkers(client)
	deadLetter := queue.New(client, queue.DeadLetterQueue)

	popTimeout := cfg.Service.Consumers.PopTimeout
	maxRetries := int64(cfg.Service.Consumers.MaxRetries)

	return &Manager{
		answer: NewAnswerProcessor(s,
			queue.New(client, queue.AnswerQueue),
			deadLetter, retries, popTimeout, maxRetries),
		fileMeta: NewFileMetadataProcessor(s,
			queue.New(client, queue.FileMetadataQueue),
			deadLetter, retries, popTimeout, maxRetries),
		fileSummary: NewFileSummaryProcessor(s,
			queue.New(client, queue.FileSummaryQueue),
			deadLetter, retries, popTimeout, maxRetries),
		completion: NewCompletionProcessor(s, notifier, markers,
			queue.New(client, queue.RepoCompletionQueue),
			deadLetter, retries, producer,
			cfg.Service.Consumers.CompletionQueueInterval,
			cfg.Service.Consumers.CompletionScanInterval,
			maxRetries),
		meeting: NewMeetingUpdateProcessor(s,
			queue.New(client, queue.MeetingUpdateQueue),
			deadLetter, retries, notifier, producer, popTimeout, maxRetries),
	}
}

// Run blocks until the context is cancelled and every loop has drained its
// in-flight message.
func (m *Manager) Run(ctx context.Context) {
	zap.S().Named("processors").Info("starting result processors")

	var wg sync.WaitGroup
	for _, run := range []func(context.Context){
		m.answer.Run,
		m.fileMeta.Run,
		m.fileSummary.Run,
		m.completion.Run,
		m.meeting.Run,
	} {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(run)
	}

	wg.Wait()
	zap.S().Named("processors").Info("result processors stopped")
}
