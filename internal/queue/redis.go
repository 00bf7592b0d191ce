package queue

import (
	"context"
	"fmt"

	"github.com/devbrief/devbrief/internal/config"
	"github.com/redis/go-redis/v9"
)

// Queue and channel names shared with the external worker.
const (
	WorkQueue            = "queue:work"
	AnswerQueue          = "queue:answers"
	FileMetadataQueue    = "queue:file_metadata"
	FileSummaryQueue     = "queue:file_summaries"
	MeetingUpdateQueue   = "queue:meeting_updates"
	RepoCompletionQueue  = "queue:repo_completions"
	DeadLetterQueue      = "queue:dead_letter"
	JobUpdatesChannel    = "job_updates"
	RepositoryChannel    = "repository_status"
	MeetingStatusChannel = "meeting_status"
)

// NewClient returns the shared redis connection used for queue and counter
// commands.
func NewClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
	}

	return client, nil
}

// NewSubscriberClient returns a second connection dedicated to pub/sub.
// A redis connection in subscribe mode cannot issue other commands, so the
// subscriber never shares the client used for queue operations.
func NewSubscriberClient(cfg *config.Config) (*redis.Client, error) {
	return NewClient(cfg)
}
