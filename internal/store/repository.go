package store

import (
	"context"
	"errors"

	"github.com/devbrief/devbrief/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RepositoryUpdate carries the mutable repository fields. Nil fields are left
// untouched.
type RepositoryUpdate struct {
	EmbeddingStatus *string
	Processed       *bool
	Summary         *string
	FileCount       *int
	TotalSize       *int64
}

type Repository interface {
	List(ctx context.Context) (model.RepositoryList, error)
	Get(ctx context.Context, id string) (*model.Repository, error)
	Create(ctx context.Context, repository model.Repository) (*model.Repository, error)
	Ensure(ctx context.Context, repository model.Repository) (*model.Repository, error)
	Update(ctx context.Context, id string, update RepositoryUpdate) (*model.Repository, error)
	InitialMigration(ctx context.Context) error
}

type RepositoryStore struct {
	db *gorm.DB
}

// Make sure we conform to Repository interface
var _ Repository = (*RepositoryStore)(nil)

func NewRepositoryStore(db *gorm.DB) Repository {
	return &RepositoryStore{db: db}
}

func (s *RepositoryStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Repository{})
}

func (s *RepositoryStore) List(ctx context.Context) (model.RepositoryList, error) {
	var repositories model.RepositoryList
	if err := s.getDB(ctx).Model(&repositories).Order("id").Find(&repositories).Error; err != nil {
		return nil, err
	}
	return repositories, nil
}

func (s *RepositoryStore) Get(ctx context.Context, id string) (*model.Repository, error) {
	repository := &model.Repository{ID: id}

	if err := s.getDB(ctx).WithContext(ctx).First(repository).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return repository, nil
}

func (s *RepositoryStore) Create(ctx context.Context, repository model.Repository) (*model.Repository, error) {
	if err := s.getDB(ctx).WithContext(ctx).Create(&repository).Error; err != nil {
		return nil, err
	}
	return &repository, nil
}

// Ensure creates the repository if it does not exist yet, leaving existing
// rows untouched. Used by processors to materialize placeholder rows for
// results that arrive before the repository's own creation event.
func (s *RepositoryStore) Ensure(ctx context.Context, repository model.Repository) (*model.Repository, error) {
	err := s.getDB(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&repository).Error
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, repository.ID)
}

// Update applies a partial update. All callers are upsert-shaped: applying the
// same update twice leaves the row identical.
func (s *RepositoryStore) Update(ctx context.Context, id string, update RepositoryUpdate) (*model.Repository, error) {
	repository := &model.Repository{ID: id}

	selectFields := []string{}
	if update.EmbeddingStatus != nil {
		repository.EmbeddingStatus = *update.EmbeddingStatus
		selectFields = append(selectFields, "embedding_status")
	}
	if update.Processed != nil {
		repository.Processed = *update.Processed
		selectFields = append(selectFields, "processed")
	}
	if update.Summary != nil {
		repository.Summary = *update.Summary
		selectFields = append(selectFields, "summary")
	}
	if update.FileCount != nil {
		repository.FileCount = *update.FileCount
		selectFields = append(selectFields, "file_count")
	}
	if update.TotalSize != nil {
		repository.TotalSize = *update.TotalSize
		selectFields = append(selectFields, "total_size")
	}

	result := s.getDB(ctx).WithContext(ctx).Model(repository).Clauses(clause.Returning{}).Select(selectFields).Updates(repository)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return repository, nil
}

func (s *RepositoryStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
