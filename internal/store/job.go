package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/devbrief/devbrief/internal/store/model"
	"gorm.io/gorm"
)

// JobUpdate carries the mutable registry fields. Nil fields are left untouched.
type JobUpdate struct {
	Status   *string
	Progress *int
	Result   json.RawMessage
	Error    *string
}

type Job interface {
	Create(ctx context.Context, job model.Job) (*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error)
	Update(ctx context.Context, id string, update JobUpdate) (*model.Job, error)
	InitialMigration(ctx context.Context) error
}

type JobStore struct {
	db *gorm.DB
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (s *JobStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Job{})
}

func (s *JobStore) Create(ctx context.Context, job model.Job) (*model.Job, error) {
	if err := s.getDB(ctx).WithContext(ctx).Create(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &job, nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*model.Job, error) {
	job := &model.Job{ID: id}

	if err := s.getDB(ctx).WithContext(ctx).First(job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return job, nil
}

func (s *JobStore) List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error) {
	var jobs model.JobList
	tx := s.getDB(ctx)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Model(&jobs).Find(&jobs).Error; err != nil {
		return nil, err
	}

	return jobs, nil
}

// Update applies a partial status update. Terminal rows are returned
// unchanged: a completed or failed job is immutable, so late or duplicated
// status events converge without error.
func (s *JobStore) Update(ctx context.Context, id string, update JobUpdate) (*model.Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if model.IsTerminalJobStatus(job.Status) {
		return job, nil
	}

	selectFields := []string{}
	if update.Status != nil {
		job.Status = *update.Status
		selectFields = append(selectFields, "status")
	}
	if update.Progress != nil {
		job.Progress = *update.Progress
		selectFields = append(selectFields, "progress")
	}
	if update.Result != nil {
		job.Result = model.MakeJSONField(update.Result)
		selectFields = append(selectFields, "result")
	}
	if update.Error != nil {
		job.Error = *update.Error
		selectFields = append(selectFields, "error")
	}

	if len(selectFields) == 0 {
		return job, nil
	}

	if err := s.getDB(ctx).WithContext(ctx).Model(job).Select(selectFields).Updates(job).Error; err != nil {
		return nil, err
	}

	return job, nil
}

func (s *JobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
