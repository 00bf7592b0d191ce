package processors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/devbrief/devbrief/internal/events"
	"github.com/devbrief/devbrief/internal/queue"
	"github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
	"go.uber.org/zap"
)

// MeetingUpdateProcessor applies incremental transcription pipeline updates.
// Every field present in a message is merged and absent fields are left
// untouched, which makes updates commutative regardless of arrival order.
// Segment arrays are fully re-upserted on (meeting_id, segment_index).
type MeetingUpdateProcessor struct {
	store    store.Store
	notifier queue.Notifier
	producer *events.EventProducer
	consumer *consumer
}

func NewMeetingUpdateProcessor(s store.Store, updates queue.Queue, deadLetter queue.Queue, retries queue.RetryCounter, notifier queue.Notifier, producer *events.EventProducer, popTimeout time.Duration, maxRetries int64) *MeetingUpdateProcessor {
	p := &MeetingUpdateProcessor{store: s, notifier: notifier, producer: producer}
	p.consumer = &consumer{
		name:       "meeting_processor",
		queue:      updates,
		deadLetter: deadLetter,
		retries:    retries,
		popTimeout: popTimeout,
		maxRetries: maxRetries,
		handle:     p.handle,
	}
	return p
}

func (p *MeetingUpdateProcessor) Run(ctx context.Context) {
	p.consumer.run(ctx)
}

func (p *MeetingUpdateProcessor) handle(ctx context.Context, payload []byte) error {
	log := zap.S().Named("meeting_processor")

	var msg MeetingUpdateMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("parsing meeting update message: %w", err)
	}

	meetingID, userID, err := p.resolveMeeting(ctx, &msg)
	if err != nil {
		return err
	}
	retryKey := "meeting:" + meetingID

	meeting, err := p.store.Meeting().Ensure(ctx, model.Meeting{
		ID:     meetingID,
		UserID: userID,
		Status: model.MeetingStatusProcessing,
	})
	if err != nil {
		return retryable(retryKey, fmt.Errorf("ensuring meeting %s: %w", meetingID, err))
	}

	if model.IsTerminalMeetingStatus(meeting.Status) {
		log.Warnw("ignoring update for terminal meeting", "meeting_id", meetingID, "status", meeting.Status)
		return nil
	}

	if msg.Status == "" && msg.Title == nil && msg.Summary == nil && msg.Transcript == nil && msg.Length == nil && len(msg.Segments) == 0 {
		log.Warnw("dropping empty meeting update", "meeting_id", meetingID)
		return nil
	}

	update := store.MeetingUpdate{
		Title:      msg.Title,
		Summary:    msg.Summary,
		Transcript: msg.Transcript,
		Length:     msg.Length,
	}
	if msg.Status != "" {
		if !isKnownMeetingStatus(msg.Status) {
			log.Warnw("ignoring unknown meeting status", "meeting_id", meetingID, "status", msg.Status)
		} else {
			update.Status = &msg.Status
		}
	}

	if len(msg.Segments) > 0 {
		for _, seg := range msg.Segments {
			segment := model.MeetingSegment{
				MeetingID:    meetingID,
				SegmentIndex: seg.Index,
				Title:        seg.Title,
				Summary:      seg.Summary,
				Excerpt:      seg.Excerpt,
				Text:         seg.Text,
				StartTime:    seg.StartTime,
				EndTime:      seg.EndTime,
			}
			if err := p.store.MeetingSegment().Upsert(ctx, segment); err != nil {
				return retryable(retryKey, fmt.Errorf("upserting segment %d: %w", seg.Index, err))
			}
		}
		count, err := p.store.MeetingSegment().Count(ctx, meetingID)
		if err != nil {
			return retryable(retryKey, fmt.Errorf("counting segments for %s: %w", meetingID, err))
		}
		update.NumSegments = &count
	}

	meeting, err = p.store.Meeting().Update(ctx, meetingID, update)
	if err != nil {
		return retryable(retryKey, fmt.Errorf("updating meeting %s: %w", meetingID, err))
	}

	if update.Status != nil {
		if err := p.mirrorJobStatus(ctx, &msg, meeting, payload); err != nil {
			return retryable(retryKey, err)
		}
		p.notifyMeetingStatus(ctx, meeting)
		p.emitMeetingEvent(ctx, meeting)
	}

	return nil
}

// resolveMeeting returns the owning meeting id, preferring the explicit
// meetingId field and falling back to the job registry for workers that only
// echo the dispatched job id.
func (p *MeetingUpdateProcessor) resolveMeeting(ctx context.Context, msg *MeetingUpdateMessage) (string, string, error) {
	if msg.MeetingID != "" {
		return msg.MeetingID, model.SystemUserID, nil
	}
	if msg.JobID == "" {
		return "", "", fmt.Errorf("meeting update carries neither meetingId nor jobId")
	}

	job, err := p.store.Job().Get(ctx, msg.JobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return "", "", fmt.Errorf("meeting update references unknown job %s", msg.JobID)
		}
		return "", "", retryable("meeting:job:"+msg.JobID, err)
	}

	userID := job.UserID
	if userID == "" {
		userID = model.SystemUserID
	}
	return job.EntityID, userID, nil
}

// mirrorJobStatus reflects the meeting pipeline state into the job registry
// so status-polling clients see progress without loading the meeting.
func (p *MeetingUpdateProcessor) mirrorJobStatus(ctx context.Context, msg *MeetingUpdateMessage, meeting *model.Meeting, payload []byte) error {
	var update store.JobUpdate

	switch meeting.Status {
	case model.MeetingStatusTranscribing:
		update = jobProgressUpdate(40)
	case model.MeetingStatusSummarizing:
		update = jobProgressUpdate(75)
	case model.MeetingStatusCompleted:
		if msg.JobID != "" {
			return completeJob(ctx, p.store, msg.JobID, model.JobStatusCompleted, payload, "")
		}
		status := model.JobStatusCompleted
		progress := 100
		update = store.JobUpdate{Status: &status, Progress: &progress, Result: payload}
	case model.MeetingStatusFailed:
		errMsg := msg.Error
		if errMsg == "" {
			errMsg = "meeting processing failed"
		}
		if msg.JobID != "" {
			return completeJob(ctx, p.store, msg.JobID, model.JobStatusFailed, nil, errMsg)
		}
		status := model.JobStatusFailed
		update = store.JobUpdate{Status: &status, Error: &errMsg}
	default:
		update = jobProgressUpdate(10)
	}

	if msg.JobID != "" {
		if _, err := p.store.Job().Update(ctx, msg.JobID, update); err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return nil
	}
	return updateEntityJobs(ctx, p.store, meeting.ID, model.JobTypeMeeting, update)
}

func (p *MeetingUpdateProcessor) notifyMeetingStatus(ctx context.Context, meeting *model.Meeting) {
	data, err := json.Marshal(MeetingStatusNotification{
		MeetingID:   meeting.ID,
		Status:      meeting.Status,
		NumSegments: meeting.NumSegments,
	})
	if err != nil {
		return
	}
	if err := p.notifier.Publish(ctx, queue.MeetingStatusChannel, data); err != nil {
		zap.S().Named("meeting_processor").Warnw("failed to publish meeting status", "meeting_id", meeting.ID, "error", err)
	}
}

func (p *MeetingUpdateProcessor) emitMeetingEvent(ctx context.Context, meeting *model.Meeting) {
	if p.producer == nil {
		return
	}
	data, err := json.Marshal(events.MeetingEvent{
		MeetingID:   meeting.ID,
		Status:      meeting.Status,
		NumSegments: meeting.NumSegments,
	})
	if err != nil {
		return
	}
	if err := p.producer.Write(ctx, events.MeetingMessageKind, bytes.NewReader(data)); err != nil {
		zap.S().Named("meeting_processor").Warnw("failed to emit meeting event", "meeting_id", meeting.ID, "error", err)
	}
}

func jobProgressUpdate(progress int) store.JobUpdate {
	status := model.JobStatusProcessing
	return store.JobUpdate{Status: &status, Progress: &progress}
}

func isKnownMeetingStatus(status string) bool {
	switch status {
	case model.MeetingStatusProcessing,
		model.MeetingStatusTranscribing,
		model.MeetingStatusSummarizing,
		model.MeetingStatusCompleted,
		model.MeetingStatusFailed:
		return true
	}
	return false
}
