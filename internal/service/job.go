package service

import (
	"context"
	"errors"

	"github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/internal/store/model"
)

type JobService struct {
	store store.Store
}

func NewJobService(store store.Store) *JobService {
	return &JobService{store: store}
}

func (s *JobService) GetJob(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}
	return job, nil
}

// ListJobs returns the registry rows for one entity, newest first.
func (s *JobService) ListJobs(ctx context.Context, entityID string) (model.JobList, error) {
	filter := store.NewJobQueryFilter().ByEntityID(entityID)
	opts := store.NewJobQueryOptions().WithSortOrder(store.SortByCreatedTime)
	return s.store.Job().List(ctx, filter, opts)
}
