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

// FileSummaryProcessor merges AI-generated summaries into file records. Only
// the summary column is assigned on conflict so metadata written by the
// file-metadata processor is never clobbered, whichever order the two
// messages arrive in.
type FileSummaryProcessor struct {
	store    store.Store
	consumer *consumer
}

func NewFileSummaryProcessor(s store.Store, summaries queue.Queue, deadLetter queue.Queue, retries queue.RetryCounter, popTimeout time.Duration, maxRetries int64) *FileSummaryProcessor {
	p := &FileSummaryProcessor{store: s}
	p.consumer = &consumer{
		name:       "filesummary_processor",
		queue:      summaries,
		deadLetter: deadLetter,
		retries:    retries,
		popTimeout: popTimeout,
		maxRetries: maxRetries,
		handle:     p.handle,
	}
	return p
}

func (p *FileSummaryProcessor) Run(ctx context.Context) {
	p.consumer.run(ctx)
}

func (p *FileSummaryProcessor) handle(ctx context.Context, payload []byte) error {
	var msg FileSummaryMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("parsing file summary message: %w", err)
	}
	if msg.RepositoryID == "" || msg.Path == "" {
		return fmt.Errorf("file summary message missing repositoryId or path")
	}

	retryKey := fmt.Sprintf("filesummary:%s:%s", msg.RepositoryID, msg.Path)

	if err := ensureRepository(ctx, p.store, msg.RepositoryID); err != nil {
		return retryable(retryKey, err)
	}

	file := model.RepositoryFile{
		RepositoryID: msg.RepositoryID,
		Path:         msg.Path,
		Summary:      msg.Summary,
	}
	if _, err := p.store.RepositoryFile().Upsert(ctx, file, "summary"); err != nil {
		return retryable(retryKey, fmt.Errorf("merging summary for %s/%s: %w", msg.RepositoryID, msg.Path, err))
	}

	return nil
}
