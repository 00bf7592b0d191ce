package processors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devbrief/devbrief/internal/queue"
	"github.com/devbrief/devbrief/pkg/metrics"
	"go.uber.org/zap"
)

// retryableError marks a failure worth another delivery, typically a
// transient persistence error. key identifies the message across deliveries
// so attempts can be counted in the retry registry.
type retryableError struct {
	key string
	err error
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("retryable (%s): %s", e.key, e.err)
}

func (e *retryableError) Unwrap() error {
	return e.err
}

func retryable(key string, err error) error {
	return &retryableError{key: key, err: err}
}

// consumer is one consumption loop: BPop with timeout, handle, repeat. A
// handler error never stops the loop. Retryable errors requeue the original
// message until the attempt counter is exhausted; everything else goes
// straight to the dead-letter queue.
type consumer struct {
	name       string
	queue      queue.Queue
	deadLetter queue.Queue
	retries    queue.RetryCounter
	popTimeout time.Duration
	maxRetries int64
	handle     func(ctx context.Context, payload []byte) error
}

func (c *consumer) run(ctx context.Context) {
	log := zap.S().Named(c.name)
	log.Infow("consumer started", "queue", c.queue.Name())

	for {
		select {
		case <-ctx.Done():
			log.Info("consumer stopped")
			return
		default:
		}

		payload, err := c.queue.BPop(ctx, c.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("consumer stopped")
				return
			}
			log.Errorw("failed to pop message", "queue", c.queue.Name(), "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
			continue
		}
		if payload == nil {
			continue
		}

		c.handleMessage(ctx, payload, log)
	}
}

func (c *consumer) handleMessage(ctx context.Context, payload []byte, log *zap.SugaredLogger) {
	err := c.handle(ctx, payload)
	if err == nil {
		metrics.IncreaseMessagesProcessedMetric(c.name, metrics.OutcomeProcessed)
		return
	}

	var rerr *retryableError
	if !errors.As(err, &rerr) {
		// malformed or otherwise unprocessable message
		log.Errorw("dropping unprocessable message", "error", err)
		c.toDeadLetter(ctx, payload, log)
		return
	}

	attempts, cerr := c.retries.Incr(ctx, c.name+":"+rerr.key)
	if cerr != nil {
		// if the counter is unavailable, keep the message alive
		log.Errorw("failed to count retry, requeueing", "key", rerr.key, "error", cerr)
		attempts = 1
	}

	if attempts > c.maxRetries {
		log.Errorw("retries exhausted, dropping message", "key", rerr.key, "attempts", attempts, "error", rerr.err)
		if resetErr := c.retries.Reset(ctx, c.name+":"+rerr.key); resetErr != nil {
			log.Warnw("failed to reset retry counter", "key", rerr.key, "error", resetErr)
		}
		c.toDeadLetter(ctx, payload, log)
		return
	}

	log.Warnw("processing failed, requeueing message", "key", rerr.key, "attempt", attempts, "error", rerr.err)
	if pushErr := c.queue.Push(ctx, payload); pushErr != nil {
		log.Errorw("failed to requeue message", "key", rerr.key, "error", pushErr)
		return
	}
	metrics.IncreaseMessagesProcessedMetric(c.name, metrics.OutcomeRequeued)
}

func (c *consumer) toDeadLetter(ctx context.Context, payload []byte, log *zap.SugaredLogger) {
	metrics.IncreaseMessagesProcessedMetric(c.name, metrics.OutcomeDropped)
	if c.deadLetter == nil {
		return
	}
	if err := c.deadLetter.Push(ctx, payload); err != nil {
		log.Errorw("failed to push message to dead-letter queue", "error", err)
		return
	}
	metrics.IncreaseDeadLetterMetric(c.name)
}
