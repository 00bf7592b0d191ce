package processors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devbrief/devbrief/internal/queue"
	"github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
)

// FileMetadataProcessor persists one file record per message produced during
// repository indexing. Unknown repositories are materialized as placeholders
// owned by the system user; a metadata message is never an error just
// because it arrived first.
type FileMetadataProcessor struct {
	store    store.Store
	consumer *consumer
}

func NewFileMetadataProcessor(s store.Store, metadata queue.Queue, deadLetter queue.Queue, retries queue.RetryCounter, popTimeout time.Duration, maxRetries int64) *FileMetadataProcessor {
	p := &FileMetadataProcessor{store: s}
	p.consumer = &consumer{
		name:       "filemeta_processor",
		queue:      metadata,
		deadLetter: deadLetter,
		retries:    retries,
		popTimeout: popTimeout,
		maxRetries: maxRetries,
		handle:     p.handle,
	}
	return p
}

func (p *FileMetadataProcessor) Run(ctx context.Context) {
	p.consumer.run(ctx)
}

func (p *FileMetadataProcessor) handle(ctx context.Context, payload []byte) error {
	var msg FileMetadataMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("parsing file metadata message: %w", err)
	}
	if msg.RepositoryID == "" || msg.Path == "" {
		return fmt.Errorf("file metadata message missing repositoryId or path")
	}

	retryKey := fmt.Sprintf("filemeta:%s:%s", msg.RepositoryID, msg.Path)

	if err := ensureRepository(ctx, p.store, msg.RepositoryID); err != nil {
		return retryable(retryKey, err)
	}

	file := model.RepositoryFile{
		RepositoryID: msg.RepositoryID,
		Path:         msg.Path,
		FileURL:      msg.FileURL,
		FileKey:      msg.FileKey,
		Language:     msg.Language,
		Size:         msg.Size,
	}
	if _, err := p.store.RepositoryFile().Upsert(ctx, file, "file_url", "file_key", "language", "size"); err != nil {
		return retryable(retryKey, fmt.Errorf("upserting file %s/%s: %w", msg.RepositoryID, msg.Path, err))
	}

	if err := refreshAggregates(ctx, p.store, msg.RepositoryID); err != nil {
		return retryable(retryKey, err)
	}

	return nil
}

// ensureRepository materializes the system user and a placeholder repository
// row for results that arrive before the repository's own creation event.
func ensureRepository(ctx context.Context, s store.Store, repositoryID string) error {
	if _, err := s.User().Ensure(ctx, model.NewSystemUser()); err != nil {
		return fmt.Errorf("ensuring system user: %w", err)
	}
	if _, err := s.Repository().Ensure(ctx, model.NewPlaceholderRepository(repositoryID)); err != nil {
		return fmt.Errorf("ensuring repository %s: %w", repositoryID, err)
	}
	return nil
}

// refreshAggregates recomputes the repository rollups with a full recount,
// which stays correct under re-delivery and out-of-order processing.
func refreshAggregates(ctx context.Context, s store.Store, repositoryID string) error {
	aggregates, err := s.RepositoryFile().Aggregates(ctx, repositoryID)
	if err != nil {
		return fmt.Errorf("recounting files for %s: %w", repositoryID, err)
	}
	_, err = s.Repository().Update(ctx, repositoryID, store.RepositoryUpdate{
		FileCount: &aggregates.FileCount,
		TotalSize: &aggregates.TotalSize,
	})
	if err != nil {
		return fmt.Errorf("storing aggregates for %s: %w", repositoryID, err)
	}
	return nil
}
