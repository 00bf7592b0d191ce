package processors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/devbrief/devbrief/internal/events"
	"github.com/devbrief/devbrief/internal/queue"
	"github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

// CompletionProcessor transitions a repository to COMPLETED exactly once per
// indexing run. Three independent triggers feed the same finalize operation:
// the repository_status channel (fast path, delivery not guaranteed), a
// periodic scan over pending completion markers (self-healing fallback) and
// a plain completion queue for callers that push rather than publish.
// Finalize is a pure upsert, so the triggers are safe to fire concurrently
// for the same repository.
type CompletionProcessor struct {
	store        store.Store
	notifier     queue.Notifier
	markers      queue.CompletionMarkers
	producer     *events.EventProducer
	consumer     *consumer
	scanInterval time.Duration
}

func NewCompletionProcessor(
	s store.Store,
	notifier queue.Notifier,
	markers queue.CompletionMarkers,
	completions queue.Queue,
	deadLetter queue.Queue,
	retries queue.RetryCounter,
	producer *events.EventProducer,
	popTimeout time.Duration,
	scanInterval time.Duration,
	maxRetries int64,
) *CompletionProcessor {
	p := &CompletionProcessor{
		store:        s,
		notifier:     notifier,
		markers:      markers,
		producer:     producer,
		scanInterval: scanInterval,
	}
	p.consumer = &consumer{
		name:       "completion_processor",
		queue:      completions,
		deadLetter: deadLetter,
		retries:    retries,
		popTimeout: popTimeout,
		maxRetries: maxRetries,
		handle:     p.handleQueueMessage,
	}
	return p
}

func (p *CompletionProcessor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		p.consumer.run(ctx)
	}()
	go func() {
		defer wg.Done()
		p.subscribeLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		p.scanLoop(ctx)
	}()

	wg.Wait()
}

func (p *CompletionProcessor) handleQueueMessage(ctx context.Context, payload []byte) error {
	var msg CompletionMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("parsing completion message: %w", err)
	}
	if msg.RepositoryID == "" {
		return fmt.Errorf("completion message missing repositoryId")
	}

	if err := p.finalize(ctx, &msg); err != nil {
		return retryable("completion:"+msg.RepositoryID, err)
	}
	return nil
}

func (p *CompletionProcessor) subscribeLoop(ctx context.Context) {
	log := zap.S().Named("completion_processor")
	log.Infow("subscribed to repository status channel", "channel", queue.RepositoryChannel)

	for payload := range p.notifier.Subscribe(ctx, queue.RepositoryChannel) {
		var msg CompletionMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Errorw("failed to parse repository status notification", "error", err)
			continue
		}
		if msg.Status != model.RepositoryStatusCompleted || msg.RepositoryID == "" {
			continue
		}
		// persistence failures here are not requeued, the periodic
		// scan picks the repository up again from its marker
		if err := p.finalize(ctx, &msg); err != nil {
			log.Errorw("failed to finalize repository", "repository_id", msg.RepositoryID, "error", err)
		}
	}

	log.Info("repository status subscription closed")
}

func (p *CompletionProcessor) scanLoop(ctx context.Context) {
	log := zap.S().Named("completion_processor")
	ticker := jitterbug.New(p.scanInterval, &jitterbug.Norm{Stdev: 30 * time.Millisecond, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("completion scan stopped")
			return
		case <-ticker.C:
		}

		ids, err := p.markers.Pending(ctx)
		if err != nil {
			log.Errorw("failed to scan completion markers", "error", err)
			continue
		}

		for _, id := range ids {
			msg, err := p.markerMessage(ctx, id)
			if err != nil {
				log.Errorw("failed to read completion marker", "repository_id", id, "error", err)
				continue
			}
			if err := p.finalize(ctx, msg); err != nil {
				log.Errorw("failed to finalize repository from marker", "repository_id", id, "error", err)
			}
		}
	}
}

// markerMessage rebuilds a completion message from the marker payload. An
// empty or unparseable payload still finalizes the repository, just without
// summary or commit history.
func (p *CompletionProcessor) markerMessage(ctx context.Context, repositoryID string) (*CompletionMessage, error) {
	msg := &CompletionMessage{RepositoryID: repositoryID, Status: model.RepositoryStatusCompleted}

	payload, err := p.markers.Payload(ctx, repositoryID)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return msg, nil
	}

	if err := json.Unmarshal(payload, msg); err != nil {
		zap.S().Named("completion_processor").Warnw("ignoring unparseable marker payload", "repository_id", repositoryID, "error", err)
		return &CompletionMessage{RepositoryID: repositoryID, Status: model.RepositoryStatusCompleted}, nil
	}
	msg.RepositoryID = repositoryID
	return msg, nil
}

// finalize upserts the repository's terminal state: status, processed flag,
// summary and recomputed aggregates. No increments, so running it from all
// three triggers leaves the same row.
func (p *CompletionProcessor) finalize(ctx context.Context, msg *CompletionMessage) error {
	if err := ensureRepository(ctx, p.store, msg.RepositoryID); err != nil {
		return err
	}

	for _, c := range msg.Commits {
		if c.SHA == "" {
			continue
		}
		commit := model.Commit{
			RepositoryID: msg.RepositoryID,
			SHA:          c.SHA,
			Message:      c.Message,
			Author:       c.Author,
			CommittedAt:  c.CommittedAt,
		}
		if err := p.store.Commit().Upsert(ctx, commit); err != nil {
			return fmt.Errorf("upserting commit %s: %w", c.SHA, err)
		}
	}

	aggregates, err := p.store.RepositoryFile().Aggregates(ctx, msg.RepositoryID)
	if err != nil {
		return fmt.Errorf("recounting files for %s: %w", msg.RepositoryID, err)
	}

	completed := model.RepositoryStatusCompleted
	processed := true
	update := store.RepositoryUpdate{
		EmbeddingStatus: &completed,
		Processed:       &processed,
		FileCount:       &aggregates.FileCount,
		TotalSize:       &aggregates.TotalSize,
	}
	if msg.Summary != "" {
		update.Summary = &msg.Summary
	}
	repository, err := p.store.Repository().Update(ctx, msg.RepositoryID, update)
	if err != nil {
		return fmt.Errorf("finalizing repository %s: %w", msg.RepositoryID, err)
	}

	if err := p.markers.Clear(ctx, msg.RepositoryID); err != nil {
		return fmt.Errorf("clearing completion marker for %s: %w", msg.RepositoryID, err)
	}

	if msg.JobID != "" {
		if err := completeJob(ctx, p.store, msg.JobID, model.JobStatusCompleted, nil, ""); err != nil {
			return err
		}
	} else {
		completedStatus := model.JobStatusCompleted
		progress := 100
		err := updateEntityJobs(ctx, p.store, msg.RepositoryID, model.JobTypeRepository, store.JobUpdate{
			Status:   &completedStatus,
			Progress: &progress,
		})
		if err != nil {
			return err
		}
	}

	p.emitRepositoryEvent(ctx, repository)

	zap.S().Named("completion_processor").Infow("repository finalized",
		"repository_id", msg.RepositoryID, "file_count", aggregates.FileCount, "total_size", aggregates.TotalSize)

	return nil
}

func (p *CompletionProcessor) emitRepositoryEvent(ctx context.Context, repository *model.Repository) {
	if p.producer == nil {
		return
	}
	data, err := json.Marshal(events.RepositoryEvent{
		RepositoryID: repository.ID,
		Status:       repository.EmbeddingStatus,
		FileCount:    repository.FileCount,
		TotalSize:    repository.TotalSize,
	})
	if err != nil {
		return
	}
	if err := p.producer.Write(ctx, events.RepositoryMessageKind, bytes.NewReader(data)); err != nil {
		zap.S().Named("completion_processor").Warnw("failed to emit repository event", "repository_id", repository.ID, "error", err)
	}
}
