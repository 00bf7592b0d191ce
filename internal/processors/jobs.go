package processors

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
	"go.uber.org/zap"
)

// completeJob marks one registry row terminal. A missing row is not an
// error: results may reference jobs dispatched by another deployment.
func completeJob(ctx context.Context, s store.Store, jobID string, status string, result json.RawMessage, errMsg string) error {
	progress := 100
	update := store.JobUpdate{Status: &status, Result: result}
	if status == model.JobStatusCompleted {
		update.Progress = &progress
	}
	if errMsg != "" {
		update.Error = &errMsg
	}

	if _, err := s.Job().Update(ctx, jobID, update); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			zap.S().Named("processors").Debugw("no registry row for job", "job_id", jobID)
			return nil
		}
		return err
	}
	return nil
}

// updateEntityJobs mirrors an entity-level status onto every non-terminal
// registry row for that entity. Used when the result message carries no job
// id of its own.
func updateEntityJobs(ctx context.Context, s store.Store, entityID string, jobType string, update store.JobUpdate) error {
	filter := store.NewJobQueryFilter().ByEntityID(entityID).ByType(jobType)
	jobs, err := s.Job().List(ctx, filter, nil)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if model.IsTerminalJobStatus(job.Status) {
			continue
		}
		if _, err := s.Job().Update(ctx, job.ID, update); err != nil {
			return err
		}
	}
	return nil
}
