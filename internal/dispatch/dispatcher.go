package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devbrief/devbrief/internal/events"
	"github.com/devbrief/devbrief/internal/queue"
	"github.com/devbrief/devbrief/internal/service"
	"github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
	"github.com/devbrief/devbrief/pkg/metrics"
	"go.uber.org/zap"
)

// WorkItem is the envelope pushed onto the shared work queue. The worker
// echoes jobId back in its result messages.
type WorkItem struct {
	JobID     string          `json:"jobId"`
	Type      string          `json:"type"`
	EntityID  string          `json:"entityId"`
	UserID    string          `json:"userId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// JobUpdateNotification is the payload published on the job_updates channel.
type JobUpdateNotification struct {
	JobID      string `json:"jobId"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	EntityID   string `json:"entityId"`
	EntityType string `json:"entityType"`
	Error      string `json:"error,omitempty"`
}

type Dispatcher struct {
	store    store.Store
	work     queue.Queue
	notifier queue.Notifier
	producer *events.EventProducer
	now      func() time.Time
}

func NewDispatcher(store store.Store, work queue.Queue, notifier queue.Notifier, producer *events.EventProducer) *Dispatcher {
	return &Dispatcher{
		store:    store,
		work:     work,
		notifier: notifier,
		producer: producer,
		now:      time.Now,
	}
}

// Submit registers a new job and hands it to the worker. The registry row is
// written before the queue push so a consumer can never observe a work item
// whose job is unknown. If the push fails the job is marked failed instead of
// being left queued forever.
func (d *Dispatcher) Submit(ctx context.Context, jobType string, entityID string, userID string, payload json.RawMessage) (*model.Job, error) {
	switch jobType {
	case model.JobTypeRepository, model.JobTypeQuestion, model.JobTypeMeeting:
	default:
		return nil, service.NewErrInvalidJobType(jobType)
	}

	now := d.now()
	job := model.Job{
		ID:         model.NewJobID(jobType, entityID, now),
		Type:       jobType,
		EntityID:   entityID,
		EntityType: jobType,
		UserID:     userID,
		Status:     model.JobStatusQueued,
		Progress:   0,
	}

	created, err := d.store.Job().Create(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("creating job %s: %w", job.ID, err)
	}

	item := WorkItem{
		JobID:     created.ID,
		Type:      jobType,
		EntityID:  entityID,
		UserID:    userID,
		Payload:   payload,
		Timestamp: now,
	}
	data, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}

	if err := d.work.Push(ctx, data); err != nil {
		failed := model.JobStatusFailed
		errMsg := fmt.Sprintf("failed to enqueue work item: %s", err)
		if _, updateErr := d.store.Job().Update(ctx, created.ID, store.JobUpdate{Status: &failed, Error: &errMsg}); updateErr != nil {
			zap.S().Named("dispatch").Errorw("failed to mark job failed after push error", "job_id", created.ID, "error", updateErr)
		}
		return nil, fmt.Errorf("pushing job %s to %s: %w", created.ID, d.work.Name(), err)
	}

	metrics.IncreaseJobsDispatchedMetric(jobType)
	d.notifyJobUpdate(ctx, created)
	d.emitJobEvent(ctx, created)

	zap.S().Named("dispatch").Infow("job dispatched", "job_id", created.ID, "type", jobType, "entity_id", entityID)

	return created, nil
}

func (d *Dispatcher) notifyJobUpdate(ctx context.Context, job *model.Job) {
	data, err := json.Marshal(JobUpdateNotification{
		JobID:      job.ID,
		Status:     job.Status,
		Progress:   job.Progress,
		EntityID:   job.EntityID,
		EntityType: job.EntityType,
		Error:      job.Error,
	})
	if err != nil {
		return
	}
	if err := d.notifier.Publish(ctx, queue.JobUpdatesChannel, data); err != nil {
		zap.S().Named("dispatch").Warnw("failed to publish job update", "job_id", job.ID, "error", err)
	}
}

func (d *Dispatcher) emitJobEvent(ctx context.Context, job *model.Job) {
	if d.producer == nil {
		return
	}
	data, err := json.Marshal(events.JobEvent{
		JobID:      job.ID,
		JobType:    job.Type,
		EntityID:   job.EntityID,
		EntityType: job.EntityType,
		Status:     job.Status,
	})
	if err != nil {
		return
	}
	if err := d.producer.Write(ctx, events.JobMessageKind, bytes.NewReader(data)); err != nil {
		zap.S().Named("dispatch").Warnw("failed to emit job event", "job_id", job.ID, "error", err)
	}
}
