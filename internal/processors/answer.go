package processors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/devbrief/devbrief/internal/queue"
	"github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
	"go.uber.org/zap"
)

// AnswerProcessor drains the answers queue and persists completed Q&A
// results. A question may have been pre-created in pending state before the
// worker result arrives, or may arrive with no prior record at all; both
// paths converge to exactly one terminal row.
type AnswerProcessor struct {
	store    store.Store
	consumer *consumer
}

func NewAnswerProcessor(s store.Store, answers queue.Queue, deadLetter queue.Queue, retries queue.RetryCounter, popTimeout time.Duration, maxRetries int64) *AnswerProcessor {
	p := &AnswerProcessor{store: s}
	p.consumer = &consumer{
		name:       "answer_processor",
		queue:      answers,
		deadLetter: deadLetter,
		retries:    retries,
		popTimeout: popTimeout,
		maxRetries: maxRetries,
		handle:     p.handle,
	}
	return p
}

func (p *AnswerProcessor) Run(ctx context.Context) {
	p.consumer.run(ctx)
}

func (p *AnswerProcessor) handle(ctx context.Context, payload []byte) error {
	var msg AnswerMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("parsing answer message: %w", err)
	}

	if msg.Type != answerTypeQnA {
		// other result types are not defined yet
		zap.S().Named("answer_processor").Warnw("dropping message of unknown type", "type", msg.Type)
		return nil
	}
	if msg.QuestionID == "" {
		return fmt.Errorf("answer message missing questionId")
	}

	userID := msg.UserID
	if userID == "" {
		userID = model.SystemUserID
	}
	if _, err := p.store.User().Ensure(ctx, model.User{ID: userID}); err != nil {
		return retryable("answer:"+msg.QuestionID, fmt.Errorf("ensuring user %s: %w", userID, err))
	}

	if err := p.persistAnswer(ctx, userID, &msg); err != nil {
		return retryable("answer:"+msg.QuestionID, err)
	}

	if msg.JobID != "" {
		if err := completeJob(ctx, p.store, msg.JobID, model.JobStatusCompleted, payload, ""); err != nil {
			return retryable("answer:"+msg.QuestionID, fmt.Errorf("completing job %s: %w", msg.JobID, err))
		}
	}

	return nil
}

// persistAnswer is the update-if-exists-else-insert path keyed on the
// question's primary key.
func (p *AnswerProcessor) persistAnswer(ctx context.Context, userID string, msg *AnswerMessage) error {
	answered := model.QuestionStatusAnswered
	confidence := 0.0
	if msg.ConfidenceScore != nil {
		confidence = *msg.ConfidenceScore
	}

	_, err := p.store.Question().Get(ctx, msg.QuestionID)
	if err == nil {
		update := store.QuestionUpdate{
			Answer:          &msg.Answer,
			ConfidenceScore: &confidence,
			Status:          &answered,
		}
		if msg.RelevantFiles != nil {
			update.RelevantFiles = msg.RelevantFiles
		}
		if msg.Category != "" {
			update.Category = &msg.Category
		}
		if msg.Tags != nil {
			update.Tags = msg.Tags
		}
		_, err = p.store.Question().Update(ctx, msg.QuestionID, update)
		return err
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return err
	}

	question := model.Question{
		ID:              msg.QuestionID,
		UserID:          userID,
		RepositoryID:    msg.RepositoryID,
		Query:           msg.Query,
		Answer:          msg.Answer,
		ConfidenceScore: confidence,
		Category:        msg.Category,
		Status:          answered,
	}
	if msg.RelevantFiles != nil {
		question.RelevantFiles = model.MakeJSONField(msg.RelevantFiles)
	}
	if msg.Tags != nil {
		question.Tags = model.MakeJSONField(msg.Tags)
	}

	_, err = p.store.Question().Create(ctx, question)
	if errors.Is(err, store.ErrDuplicateKey) {
		// lost the race against a concurrent insert, merge instead
		_, err = p.store.Question().Update(ctx, msg.QuestionID, store.QuestionUpdate{
			Answer:          &msg.Answer,
			ConfidenceScore: &confidence,
			Status:          &answered,
		})
	}
	return err
}
